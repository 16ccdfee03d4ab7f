// Package crm talks to the downstream lead-ingestion API.
package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wolfman30/lead-relay/internal/tenantconfig"
	"github.com/wolfman30/lead-relay/pkg/logging"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	defaultTimeout = 15 * time.Second
	maxErrorBody   = 300

	configPath = "/lead/config"
	leadPath   = "/lead/simplified"
)

var crmTracer = otel.Tracer("leadrelay.internal.crm")

// Client is a small HTTP client for the CRM lead API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewClient creates a client. timeout bounds every call; zero uses 15s.
func NewClient(baseURL, token string, timeout time.Duration, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}
}

// FetchConfig loads the tenant's locations and sources.
func (c *Client) FetchConfig(ctx context.Context) (tenantconfig.Snapshot, error) {
	ctx, span := crmTracer.Start(ctx, "crm.fetch_config")
	defer span.End()

	req, err := c.newRequest(ctx, http.MethodGet, configPath, nil)
	if err != nil {
		span.RecordError(err)
		return tenantconfig.Snapshot{}, err
	}
	body, err := c.do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch config failed")
		return tenantconfig.Snapshot{}, err
	}

	var env configEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		span.RecordError(err)
		return tenantconfig.Snapshot{}, fmt.Errorf("crm: decode config: %w", err)
	}
	snap, err := env.snapshot()
	if err != nil {
		span.RecordError(err)
		return tenantconfig.Snapshot{}, err
	}
	span.SetAttributes(
		attribute.Int("leadrelay.locations", len(snap.Locations)),
		attribute.Int("leadrelay.sources", len(snap.Sources)),
	)
	return snap, nil
}

// PostLead submits one form-encoded lead.
func (c *Client) PostLead(ctx context.Context, form url.Values) error {
	req, err := c.newRequest(ctx, http.MethodPost, leadPath, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	_, err = c.do(req)
	return err
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	if strings.TrimSpace(c.token) == "" {
		return nil, ErrMissingToken
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("crm: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("crm: http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("crm: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := string(respBody)
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: msg}
	}
	return respBody, nil
}

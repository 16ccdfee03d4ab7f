package crm

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/wolfman30/lead-relay/pkg/logging"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Form field names that carry the resolved location identifier.
const (
	FieldLocationID = "location_id"
	FieldLocation   = "location"
)

// Variant is one request shape the forwarder may try.
type Variant struct {
	Name  string
	Apply func(url.Values) url.Values
}

func dropField(field string) func(url.Values) url.Values {
	return func(in url.Values) url.Values {
		out := cloneValues(in)
		out.Del(field)
		return out
	}
}

var knownVariants = map[string]Variant{
	"both":        {Name: "both", Apply: cloneValues},
	"location_id": {Name: "location_id", Apply: dropField(FieldLocation)},
	"location":    {Name: "location", Apply: dropField(FieldLocationID)},
}

// DefaultVariants sends both location keys first, then each alone.
var DefaultVariants = []Variant{knownVariants["both"], knownVariants["location_id"], knownVariants["location"]}

// ParseVariants maps configured names onto variants, preserving order.
func ParseVariants(names []string) ([]Variant, error) {
	if len(names) == 0 {
		return DefaultVariants, nil
	}
	out := make([]Variant, 0, len(names))
	for _, name := range names {
		v, ok := knownVariants[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("crm: unknown forward variant %q", name)
		}
		out = append(out, v)
	}
	return out, nil
}

// LeadPoster submits one encoded lead.
type LeadPoster interface {
	PostLead(ctx context.Context, form url.Values) error
}

// AttemptObserver is notified of every forward attempt.
type AttemptObserver interface {
	ObserveForwardAttempt(variant, status string)
}

// Forwarder posts a lead, falling through the configured variants until one
// is accepted.
type Forwarder struct {
	poster   LeadPoster
	variants []Variant
	logger   *logging.Logger
	observer AttemptObserver
}

// NewForwarder builds a forwarder. An empty variant list uses DefaultVariants.
func NewForwarder(poster LeadPoster, variants []Variant, logger *logging.Logger, observer AttemptObserver) *Forwarder {
	if poster == nil {
		panic("crm: lead poster required")
	}
	if len(variants) == 0 {
		variants = DefaultVariants
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Forwarder{poster: poster, variants: variants, logger: logger, observer: observer}
}

// Forward returns the name of the accepted variant, or an error wrapping
// ErrForwardFailed and the last attempt's failure.
func (f *Forwarder) Forward(ctx context.Context, form url.Values) (string, error) {
	ctx, span := crmTracer.Start(ctx, "crm.forward_lead")
	defer span.End()

	var lastErr error
	for i, v := range f.variants {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}
		body := v.Apply(form)
		f.logger.Debug("posting lead", "variant", v.Name, "attempt", i+1, "body", body.Encode())

		err := f.poster.PostLead(ctx, body)
		if err == nil {
			f.observe(v.Name, "ok")
			span.SetAttributes(attribute.String("leadrelay.variant", v.Name), attribute.Int("leadrelay.attempts", i+1))
			return v.Name, nil
		}

		lastErr = err
		f.observe(v.Name, attemptStatus(err))
		f.logger.Warn("lead forward attempt failed", "variant", v.Name, "attempt", i+1, "error", err)
		if errors.Is(err, ErrMissingToken) {
			break
		}
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, "all forward variants failed")
	return "", fmt.Errorf("%w: %w", ErrForwardFailed, lastErr)
}

func (f *Forwarder) observe(variant, status string) {
	if f.observer != nil {
		f.observer.ObserveForwardAttempt(variant, status)
	}
}

func attemptStatus(err error) string {
	var (
		statusErr  *StatusError
		timeoutErr interface{ Timeout() bool }
	)
	switch {
	case errors.As(err, &statusErr):
		return fmt.Sprintf("http_%d", statusErr.StatusCode)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	case errors.As(err, &timeoutErr) && timeoutErr.Timeout():
		return "timeout"
	default:
		return "error"
	}
}

func cloneValues(in url.Values) url.Values {
	out := make(url.Values, len(in))
	for k, v := range in {
		out[k] = append([]string(nil), v...)
	}
	return out
}

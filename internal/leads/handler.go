package leads

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/wolfman30/lead-relay/internal/intake"
	"github.com/wolfman30/lead-relay/internal/observability/metrics"
	"github.com/wolfman30/lead-relay/pkg/logging"
)

const maxBodyBytes = 1 << 20

// Processor runs one lead through the pipeline.
type Processor interface {
	Process(ctx context.Context, origin Origin, bag intake.FieldBag) (Lead, error)
}

// Handler handles the inbound lead webhooks
type Handler struct {
	processor Processor
	googleKey string
	columns   intake.ColumnAdapter
	siteForm  intake.SiteFormAdapter
	metrics   *metrics.LeadMetrics
	logger    *logging.Logger
}

// NewHandler creates a new leads handler. An empty googleKey rejects every
// lead-ad delivery.
func NewHandler(processor Processor, googleKey, locationColumnID string, m *metrics.LeadMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		processor: processor,
		googleKey: googleKey,
		columns:   intake.ColumnAdapter{LocationColumnID: locationColumnID},
		metrics:   m,
		logger:    logger,
	}
}

// Health handles GET / and GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "OK – webhook up")
}

// GoogleLeads handles POST /google-leads requests
func (h *Handler) GoogleLeads(w http.ResponseWriter, r *http.Request) {
	origin := OriginLeadAd

	var payload intake.LeadAdPayload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&payload); err != nil {
		h.logger.Warn("failed to decode lead-ad payload", "error", err)
		h.metrics.ObserveInbound(origin.Name, "bad_request")
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Invalid request body"})
		return
	}

	if !h.validKey(payload.GoogleKey) {
		h.logger.Warn("lead-ad delivery rejected", "reason", ErrInvalidKey.Error(), "lead_id", payload.LeadID)
		h.metrics.ObserveInbound(origin.Name, "rejected")
		writeJSON(w, http.StatusForbidden, map[string]any{"message": "Invalid google_key"})
		return
	}

	bag := h.columns.Extract(payload)
	if _, err := h.processor.Process(r.Context(), origin, bag); err != nil {
		h.upstreamError(w, origin, err, map[string]any{"message": "Upstream error"})
		return
	}

	h.metrics.ObserveInbound(origin.Name, "forwarded")
	writeJSON(w, http.StatusOK, map[string]any{})
}

// SiteForm handles POST /duda-form requests. JSON and urlencoded bodies are
// accepted.
func (h *Handler) SiteForm(w http.ResponseWriter, r *http.Request) {
	origin := OriginSiteForm

	form, err := h.decodeSiteForm(w, r)
	if err != nil {
		h.logger.Warn("failed to decode site form", "error", err)
		h.metrics.ObserveInbound(origin.Name, "bad_request")
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "message": "Invalid request body"})
		return
	}

	bag := h.siteForm.Extract(form)
	if _, err := h.processor.Process(r.Context(), origin, bag); err != nil {
		h.upstreamError(w, origin, err, map[string]any{"ok": false, "message": "Upstream error"})
		return
	}

	h.metrics.ObserveInbound(origin.Name, "forwarded")
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// Echo handles POST /echo, logging whatever was sent.
func (h *Handler) Echo(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false})
		return
	}
	h.logger.Info("echo", "headers", r.Header, "body", string(body))
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) validKey(got string) bool {
	if h.googleKey == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.googleKey)) == 1
}

func (h *Handler) upstreamError(w http.ResponseWriter, origin Origin, err error, body map[string]any) {
	outcome := "upstream_error"
	if errors.Is(err, ErrConfigUnavailable) {
		outcome = "config_unavailable"
	}
	h.metrics.ObserveInbound(origin.Name, outcome)
	writeJSON(w, http.StatusBadGateway, body)
}

func (h *Handler) decodeSiteForm(w http.ResponseWriter, r *http.Request) (intake.SiteForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return intake.SiteForm{}, err
		}
		return intake.SiteFormFromValues(r.PostForm), nil
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return intake.SiteForm{}, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return intake.SiteFormFromJSON(nil), nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		return intake.SiteForm{}, err
	}
	return intake.SiteFormFromJSON(body), nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

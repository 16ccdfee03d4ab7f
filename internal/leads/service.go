package leads

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/wolfman30/lead-relay/internal/intake"
	"github.com/wolfman30/lead-relay/internal/observability/metrics"
	"github.com/wolfman30/lead-relay/internal/tenantconfig"
	"github.com/wolfman30/lead-relay/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var leadsTracer = otel.Tracer("leadrelay.internal.leads")

// ConfigSource provides the tenant configuration, loading it on first use.
type ConfigSource interface {
	EnsureLoaded(ctx context.Context) (tenantconfig.Snapshot, error)
}

// Forwarder delivers an encoded lead to the CRM and names the accepted variant.
type Forwarder interface {
	Forward(ctx context.Context, form url.Values) (string, error)
}

// Service runs the config → normalize → forward pipeline for one lead.
type Service struct {
	config     ConfigSource
	normalizer *Normalizer
	forwarder  Forwarder
	metrics    *metrics.LeadMetrics
	logger     *logging.Logger
}

// NewService wires the pipeline. metrics may be nil.
func NewService(config ConfigSource, normalizer *Normalizer, forwarder Forwarder, m *metrics.LeadMetrics, logger *logging.Logger) *Service {
	if config == nil || normalizer == nil || forwarder == nil {
		panic("leads: config source, normalizer and forwarder required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{config: config, normalizer: normalizer, forwarder: forwarder, metrics: m, logger: logger}
}

// Process normalizes bag and forwards it. A config failure aborts before any
// forward attempt.
func (s *Service) Process(ctx context.Context, origin Origin, bag intake.FieldBag) (Lead, error) {
	ctx, span := leadsTracer.Start(ctx, "leads.process")
	defer span.End()
	span.SetAttributes(attribute.String("leadrelay.origin", origin.Name))

	start := time.Now()
	defer func() {
		s.metrics.ObserveProcessLatency(origin.Name, time.Since(start).Seconds())
	}()

	snap, err := s.config.EnsureLoaded(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "config unavailable")
		s.logger.Error("tenant config unavailable", "origin", origin.Name, "error", err)
		return Lead{}, fmt.Errorf("%w: %w", ErrConfigUnavailable, err)
	}

	lead, matched := s.normalizer.Build(origin, bag, snap)
	s.metrics.ObserveLocation(origin.Name, matched)
	span.SetAttributes(
		attribute.String("leadrelay.location_id", lead.LocationID),
		attribute.Bool("leadrelay.location_matched", matched),
	)

	s.logger.Info("lead resolved",
		"origin", origin.Name,
		"first_name", lead.FirstName,
		"last_name", lead.LastName,
		"has_email", lead.Email != "",
		"has_phone", lead.Phone != "",
		"location_label", lead.LocationLabel,
		"location_id", lead.LocationID,
		"location_matched", matched,
		"source", lead.Source,
	)

	variant, err := s.forwarder.Forward(ctx, lead.Form())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "forward failed")
		s.logger.Error("lead forward failed", "origin", origin.Name, "error", err)
		return lead, fmt.Errorf("%w: %w", ErrForwardFailed, err)
	}

	s.logger.Info("lead forwarded", "origin", origin.Name, "variant", variant, "location_id", lead.LocationID)
	return lead, nil
}

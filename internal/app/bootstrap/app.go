package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/lead-relay/internal/api/router"
	appconfig "github.com/wolfman30/lead-relay/internal/config"
	"github.com/wolfman30/lead-relay/internal/crm"
	"github.com/wolfman30/lead-relay/internal/leads"
	"github.com/wolfman30/lead-relay/internal/locations"
	"github.com/wolfman30/lead-relay/internal/observability/metrics"
	"github.com/wolfman30/lead-relay/internal/tenantconfig"
	"github.com/wolfman30/lead-relay/pkg/logging"
)

// App is the assembled relay: one HTTP handler plus the resources behind it.
type App struct {
	Handler     http.Handler
	TenantCache *tenantconfig.Cache
	closers     []func()
}

// Close releases background resources. Safe to call once.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// Options carries the optional collaborators Build would otherwise create.
type Options struct {
	// Registry receives the relay's collectors and backs /metrics. A fresh
	// registry is created when nil.
	Registry *prometheus.Registry
	// CRMPoster overrides the HTTP client used for lead submission.
	CRMPoster crm.LeadPoster
	// FetchConfig overrides the HTTP tenant config fetch.
	FetchConfig tenantconfig.FetchFunc
	// VerifyRedis pings Redis at startup and falls back to in-memory limiting.
	VerifyRedis bool
}

// Build wires the relay from cfg.
func Build(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, opts Options) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	keywords := locations.DefaultKeywords
	if cfg.LocationKeywords != "" {
		parsed, err := locations.ParseKeywords(cfg.LocationKeywords)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: LOCATION_KEYWORDS: %w", err)
		}
		keywords = parsed
	}

	variants, err := crm.ParseVariants(cfg.ForwardVariants)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: FORWARD_VARIANTS: %w", err)
	}

	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	leadMetrics := metrics.NewLeadMetrics(reg)

	client := crm.NewClient(cfg.IKSBaseURL, cfg.IKSToken, cfg.UpstreamTimeout, logger)
	if cfg.IKSToken == "" {
		logger.Warn("IKS_TOKEN is not set; config fetches and lead submissions will fail")
	}
	if cfg.GoogleLeadKey == "" {
		logger.Warn("GOOGLE_LEAD_KEY is not set; every lead-ad delivery will be rejected")
	}

	fetch := opts.FetchConfig
	if fetch == nil {
		fetch = client.FetchConfig
	}
	var poster crm.LeadPoster = client
	if opts.CRMPoster != nil {
		poster = opts.CRMPoster
	}

	cache := tenantconfig.NewCache(fetch, logger, leadMetrics)
	forwarder := crm.NewForwarder(poster, variants, logger, leadMetrics)
	normalizer := leads.NewNormalizer(
		locations.NewResolver(keywords),
		leads.SourcePolicy{Configured: cfg.SourceValue, Force: cfg.ForceSource},
		cfg.CountryCallingCode,
	)
	service := leads.NewService(cache, normalizer, forwarder, leadMetrics, logger)
	handler := leads.NewHandler(service, cfg.GoogleLeadKey, cfg.LocationQuestionColID, leadMetrics, logger)

	app := &App{TenantCache: cache}

	redisClient := BuildRedisClient(ctx, cfg, logger, opts.VerifyRedis)
	if redisClient != nil {
		app.closers = append(app.closers, func() { _ = redisClient.Close() })
	}
	limiter, stopLimiter := BuildRateLimiter(cfg, redisClient)
	app.closers = append(app.closers, stopLimiter)

	app.Handler = router.New(&router.Config{
		Logger:             logger,
		LeadsHandler:       handler,
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		RateLimiter:        limiter,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		EnableEcho:         cfg.EnableEcho,
	})

	logger.Info("lead relay configured",
		"crm_base_url", cfg.IKSBaseURL,
		"forward_variants", cfg.ForwardVariants,
		"source", cfg.SourceValue,
		"force_source", cfg.ForceSource,
		"location_column", cfg.LocationQuestionColID,
		"keywords", len(keywords),
		"shared_rate_limit", redisClient != nil,
	)
	return app, nil
}

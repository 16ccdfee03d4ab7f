package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	httpmiddleware "github.com/wolfman30/lead-relay/internal/http/middleware"
	"github.com/wolfman30/lead-relay/internal/leads"
	"github.com/wolfman30/lead-relay/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	LeadsHandler       *leads.Handler
	MetricsHandler     http.Handler
	RateLimiter        httpmiddleware.Limiter
	CORSAllowedOrigins []string
	EnableEcho         bool
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(otelhttp.NewMiddleware("leadrelay.http"))
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Health and metrics
	r.Get("/", cfg.LeadsHandler.Health)
	r.Get("/health", cfg.LeadsHandler.Health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// Webhooks
	r.Group(func(hooks chi.Router) {
		if cfg.RateLimiter != nil {
			hooks.Use(httpmiddleware.RateLimit(cfg.RateLimiter, cfg.Logger))
		}
		hooks.Post("/google-leads", cfg.LeadsHandler.GoogleLeads)

		hooks.Group(func(site chi.Router) {
			if len(cfg.CORSAllowedOrigins) > 0 {
				site.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
			}
			site.Post("/duda-form", cfg.LeadsHandler.SiteForm)
			site.Options("/duda-form", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			})
		})

		if cfg.EnableEcho {
			hooks.Post("/echo", cfg.LeadsHandler.Echo)
		}
	})

	return r
}

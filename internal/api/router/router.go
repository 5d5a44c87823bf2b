// Package router provides HTTP routing configuration using Chi.
package router

import (
	_ "embed"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/remiblancher/goodkey-cms/internal/api/handler"
	"github.com/remiblancher/goodkey-cms/internal/api/middleware"
	"github.com/remiblancher/goodkey-cms/internal/api/service"
	"github.com/remiblancher/goodkey-cms/internal/observability"
)

//go:embed openapi.yaml
var openapiSpec []byte

// Config holds router configuration.
type Config struct {
	Version string

	// Builder produces the signatures for the sign routes.
	Builder service.CMSBuilder

	// Profiles serves GET /api/v1/token/profile.
	Profiles service.ProfileSource

	// ReadyChecks are reported by GET /ready.
	ReadyChecks map[string]func() bool

	Logger observability.Logger
}

// New creates a new Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = observability.NewNullLogger()
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics)
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.CORS)

	// Health endpoints (always enabled)
	healthHandler := handler.NewHealthHandler(cfg.Version, []string{"cms"}, cfg.ReadyChecks)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Method(http.MethodGet, "/metrics", observability.MetricsHandler())

	// OpenAPI spec
	r.Get("/api/openapi.yaml", serveOpenAPISpec)

	cmsHandler := handler.NewCMSHandler(service.NewCMSService(cfg.Builder))

	// Legacy front door
	r.Post("/", cmsHandler.Sign)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/cms/sign", cmsHandler.Sign)

		if cfg.Profiles != nil {
			profileHandler := handler.NewProfileHandler(service.NewProfileService(cfg.Profiles))
			r.Get("/token/profile", profileHandler.Get)
		}
	})

	return r
}

// serveOpenAPISpec serves the OpenAPI specification file.
func serveOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(openapiSpec)
}

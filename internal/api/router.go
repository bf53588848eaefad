// Package api provides the HTTP API for GeoCycle.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/geocycle/geocycle/internal/api/handler"
	"github.com/geocycle/geocycle/internal/api/middleware"
)

// Routes backed by upstream providers.
const (
	GenerateRoute   = "/generate"
	PlacePhotoRoute = "/place-photo"
)

// maxRequestBody caps POST /generate bodies.
const maxRequestBody = 64 << 10

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	Planner   handler.CoursePlanner
	Photos    handler.PhotoFetcher
	Providers handler.ProviderHealthSource

	// GenerateRateLimitPerMin limits POST /generate per client IP (default: 30).
	GenerateRateLimitPerMin int
	// CORSAllowedOrigins defaults to all origins.
	CORSAllowedOrigins []string
	// RequireTLS rejects requests forwarded over plain HTTP.
	RequireTLS bool
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "geocycle-api"
	}
	generateLimit := cfg.GenerateRateLimitPerMin
	if generateLimit <= 0 {
		generateLimit = 30
	}
	origins := cfg.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.CORS(origins))        // Browser client
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Providers)

	r.Route("/ops", func(r chi.Router) {
		r.Get("/health", opsHandler.HealthCheck)
		r.Get("/ready", opsHandler.ReadinessCheck)
		r.Get("/status", opsHandler.SystemStatus)
	})

	if cfg.Planner != nil {
		generateHandler := handler.NewGenerateHandler(cfg.Planner, cfg.Logger)
		r.With(
			middleware.RateLimitByIP(middleware.GenerateRateLimit(generateLimit)),
			middleware.RequireJSON,
			middleware.MaxBodySize(maxRequestBody),
		).Post(GenerateRoute, generateHandler.Generate)
	}

	if cfg.Photos != nil {
		photoHandler := handler.NewPhotoHandler(cfg.Photos, cfg.Logger)
		r.With(middleware.RateLimitByIP(middleware.PhotoRateLimit)).
			Get(PlacePhotoRoute, photoHandler.PlacePhoto)
	}

	return r
}

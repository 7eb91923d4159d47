// Package api provides the HTTP API for the planner.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/breatheroute/planner/internal/api/handler"
	"github.com/breatheroute/planner/internal/api/middleware"
	"github.com/breatheroute/planner/internal/provider/resilience"
	"github.com/breatheroute/planner/internal/session"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics
	Session     *session.Session
	Registry    *resilience.Registry

	// RouteCaches are reported on /v1/ops/providers (optional).
	RouteCaches []handler.RouteCache
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "planner-api"
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
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Registry, cfg.RouteCaches...)
	sessionHandler := handler.NewSessionHandler(cfg.Session, cfg.Logger)

	// Lookups reach remote providers and are limited harder than local edits.
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 120 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/providers", opsHandler.Providers)
		})

		// Session endpoints
		r.Route("/session", func(r chi.Router) {
			r.With(standardRateLimit).Get("/", sessionHandler.GetSession)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireJSON)

				r.Group(func(r chi.Router) {
					r.Use(expensiveRateLimit)
					r.Post("/actions", sessionHandler.Dispatch)
					r.Post("/search", sessionHandler.Search)
					r.Post("/reverse", sessionHandler.Reverse)
					r.Post("/leisure", sessionHandler.Leisure)
				})

				r.Group(func(r chi.Router) {
					r.Use(standardRateLimit)
					r.Post("/open", sessionHandler.Open)
					r.Post("/back", sessionHandler.Back)
					r.Post("/forward", sessionHandler.Forward)
				})
			})
		})

		// Resolve decodes a planner URL without touching the session
		r.Group(func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/resolve", sessionHandler.Resolve)
			r.Get("/resolve/*", sessionHandler.Resolve)
		})
	})

	return r
}

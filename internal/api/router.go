// Package api provides the HTTP API for SkyCollect.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/skycollect/skycollect/internal/api/handler"
	"github.com/skycollect/skycollect/internal/api/middleware"
	"github.com/skycollect/skycollect/internal/collector"
	"github.com/skycollect/skycollect/internal/provider/resilience"
	"github.com/skycollect/skycollect/internal/sample"
	"github.com/skycollect/skycollect/internal/strategy"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version         string
	BuildTime       string
	Logger          zerolog.Logger
	ServiceName     string
	Metrics         *middleware.Metrics
	StrategyService *strategy.Service
	Dispatcher      *collector.Dispatcher
	Samples         sample.Repository
	DB              handler.Pinger
	ProviderClient  *resilience.Client
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "skycollect-api"
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
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.DB, cfg.ProviderClient)
	strategyHandler := handler.NewStrategyHandler(cfg.StrategyService)
	sampleHandler := handler.NewSampleHandler(cfg.StrategyService, cfg.Samples)
	collectHandler := handler.NewCollectHandler(cfg.StrategyService, cfg.Dispatcher)

	// Create rate limit middleware for different endpoint categories
	collectRateLimit := middleware.RateLimitByIP(middleware.CollectRateLimit)     // 10 req/min
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		// Indicator catalog (public) - standard rate limiting
		r.With(standardRateLimit).Get("/indicators", sampleHandler.ListIndicators)

		// Strategy lifecycle
		r.Route("/strategies", func(r chi.Router) {
			r.With(standardRateLimit).Get("/", strategyHandler.ListStrategies)
			r.With(standardRateLimit).Post("/", strategyHandler.CreateStrategy)
			// Bulk import fans out into collection calls, limit harder
			r.With(expensiveRateLimit).Post("/import", strategyHandler.ImportStrategies)

			r.Route("/{strategyId}", func(r chi.Router) {
				r.Use(standardRateLimit)
				r.Get("/", strategyHandler.GetStrategy)
				r.Put("/", strategyHandler.UpdateStrategy)
				r.Delete("/", strategyHandler.DeleteStrategy)
				r.Post("/cancel", strategyHandler.CancelStrategy)

				// Collected data
				r.Get("/data", sampleHandler.GetStrategyData)

				// Manual collection triggers call the upstream provider
				r.With(collectRateLimit).Post("/collect/realtime", collectHandler.TriggerRealtime)
				r.With(collectRateLimit).Post("/collect/forecast", collectHandler.TriggerForecast)
			})
		})
	})

	return r
}

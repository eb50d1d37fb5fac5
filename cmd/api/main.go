// Package main provides the entrypoint for the SkyCollect API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/skycollect/skycollect/internal/api"
	"github.com/skycollect/skycollect/internal/api/middleware"
	"github.com/skycollect/skycollect/internal/collector"
	"github.com/skycollect/skycollect/internal/config"
	"github.com/skycollect/skycollect/internal/database"
	"github.com/skycollect/skycollect/internal/provider/qweather"
	"github.com/skycollect/skycollect/internal/provider/resilience"
	"github.com/skycollect/skycollect/internal/sample"
	"github.com/skycollect/skycollect/internal/strategy"
	"github.com/skycollect/skycollect/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "skycollect-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting SkyCollect API")

	cfg := config.Load()

	// Initialize OpenTelemetry
	ctx := context.Background()
	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Env,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTelEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.OTelEnabled {
		log.Info().
			Str("otlp_endpoint", cfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}
	providerMetrics, err := middleware.NewProviderMetrics("qweather")
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize provider metrics")
		os.Exit(1)
	}

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("database connected")

	// Initialize the upstream provider client
	providerClient := resilience.NewClient(resilience.DefaultClientConfig("qweather"))
	weatherClient, err := qweather.NewClient(qweather.ClientConfig{
		BaseURL:    cfg.QWeatherBaseURL,
		APIKey:     cfg.QWeatherAPIKey,
		HTTPClient: providerClient,
		Logger:     log,
		Metrics:    providerMetrics,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize weather client")
	}
	log.Info().Str("base_url", cfg.QWeatherBaseURL).Msg("weather client initialized")

	// Initialize repositories, dispatcher and strategy service
	sampleRepo := sample.NewPostgresRepository(pool)
	strategyRepo := strategy.NewPostgresRepository(pool)

	dispatcher := collector.NewDispatcher(collector.DispatcherConfig{
		Provider: weatherClient,
		Samples:  sampleRepo,
		Logger:   log,
	})
	strategyService := strategy.NewService(strategy.ServiceConfig{
		Repo:      strategyRepo,
		Collector: dispatcher,
		Logger:    log,
	})
	log.Info().Msg("strategy service initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:         Version,
		BuildTime:       BuildTime,
		Logger:          log,
		ServiceName:     serviceName,
		Metrics:         metrics,
		StrategyService: strategyService,
		Dispatcher:      dispatcher,
		Samples:         sampleRepo,
		DB:              pool,
		ProviderClient:  providerClient,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}

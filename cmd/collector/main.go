// Package main provides the entrypoint for the SkyCollect background
// collector. It runs the three scheduled sweeps and, when configured,
// listens for operator triggers on Pub/Sub. A small HTTP server exposes
// liveness for the platform.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/skycollect/skycollect/internal/collector"
	"github.com/skycollect/skycollect/internal/config"
	"github.com/skycollect/skycollect/internal/database"
	"github.com/skycollect/skycollect/internal/provider/qweather"
	"github.com/skycollect/skycollect/internal/provider/resilience"
	"github.com/skycollect/skycollect/internal/sample"
	"github.com/skycollect/skycollect/internal/scheduler"
	"github.com/skycollect/skycollect/internal/strategy"
	"github.com/skycollect/skycollect/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "skycollect-collector"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting SkyCollect collector")

	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Str("database", dbConfig.Database).
		Msg("database connected")

	// Initialize the upstream provider client
	weatherClient, err := qweather.NewClient(qweather.ClientConfig{
		BaseURL:    cfg.QWeatherBaseURL,
		APIKey:     cfg.QWeatherAPIKey,
		HTTPClient: resilience.NewClient(resilience.DefaultClientConfig("qweather")),
		Logger:     log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize weather client")
	}

	// Wire dispatcher, strategy service and the sweep scheduler
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

	sweeps := scheduler.New(scheduler.Config{
		Strategies:     strategyService,
		Collector:      dispatcher,
		Logger:         log,
		RealtimeCron:   cfg.RealtimeCron,
		UrgentInterval: cfg.UrgentInterval,
		NormalInterval: cfg.NormalInterval,
	})
	if err := sweeps.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start sweep scheduler")
	}
	defer sweeps.Stop()
	log.Info().Msg("sweep scheduler started")

	// Optional operator trigger subscription
	if cfg.PubSubProjectID != "" {
		handler, err := scheduler.NewPubSubHandler(ctx, scheduler.PubSubConfig{
			ProjectID:        cfg.PubSubProjectID,
			SubscriptionName: cfg.PubSubSubscription,
			Scheduler:        sweeps,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize pubsub handler")
		}
		defer handler.Close()

		go func() {
			if err := handler.Start(ctx); err != nil {
				log.Error().Err(err).Msg("pubsub handler stopped")
			}
		}()
	} else {
		log.Info().Msg("pubsub not configured, running timers only")
	}

	// Liveness endpoint for the platform
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","version":"%s"}`, Version)
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("health server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down collector")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("collector stopped")
}

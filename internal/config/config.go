// Package config loads application configuration from the environment.
// A .env file in the working directory is honored for local development.
package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds configuration shared by the API server and the collector.
type Config struct {
	// Env is the deployment environment name.
	Env string
	// Port is the HTTP listen port.
	Port string

	// QWeatherBaseURL is the upstream weather API host.
	QWeatherBaseURL string
	// QWeatherAPIKey authenticates against the upstream weather API.
	QWeatherAPIKey string

	// OTLPEndpoint is the OpenTelemetry collector endpoint.
	OTLPEndpoint string
	// OTelEnabled toggles telemetry export.
	OTelEnabled bool

	// PubSubProjectID and PubSubSubscription configure the operator
	// trigger subscription. Empty project disables Pub/Sub.
	PubSubProjectID    string
	PubSubSubscription string

	// RealtimeCron overrides the daily realtime sweep schedule.
	RealtimeCron string
	// UrgentInterval overrides the urgent forecast sweep cadence.
	UrgentInterval time.Duration
	// NormalInterval overrides the normal forecast sweep cadence.
	NormalInterval time.Duration
}

// Load reads configuration from the environment. A missing .env file is
// not an error.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Env:                getEnvOrDefault("APP_ENV", "development"),
		Port:               getEnvOrDefault("APP_PORT", "8080"),
		QWeatherBaseURL:    getEnvOrDefault("QWEATHER_BASE_URL", "https://devapi.qweather.com"),
		QWeatherAPIKey:     os.Getenv("QWEATHER_API_KEY"),
		OTLPEndpoint:       getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTelEnabled:        os.Getenv("OTEL_ENABLED") == "true",
		PubSubProjectID:    os.Getenv("PUBSUB_PROJECT_ID"),
		PubSubSubscription: getEnvOrDefault("PUBSUB_SUBSCRIPTION", "collect-jobs"),
		RealtimeCron:       os.Getenv("SWEEP_REALTIME_CRON"),
		UrgentInterval:     durationFromEnv("SWEEP_URGENT_INTERVAL"),
		NormalInterval:     durationFromEnv("SWEEP_NORMAL_INTERVAL"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// durationFromEnv returns zero for absent or malformed values, leaving
// the component default in effect.
func durationFromEnv(key string) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0
	}
	return d
}

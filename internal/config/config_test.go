package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "https://devapi.qweather.com", cfg.QWeatherBaseURL)
	assert.Equal(t, "collect-jobs", cfg.PubSubSubscription)
	assert.Zero(t, cfg.UrgentInterval)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("QWEATHER_API_KEY", "key123")
	t.Setenv("SWEEP_URGENT_INTERVAL", "3h")
	t.Setenv("SWEEP_NORMAL_INTERVAL", "not-a-duration")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "key123", cfg.QWeatherAPIKey)
	assert.Equal(t, 3*time.Hour, cfg.UrgentInterval)
	assert.Zero(t, cfg.NormalInterval)
}

package worker

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"skillgap-ai/internal/observability/metrics"
)

var workerEnvVars = []string{
	"CACHE_PURGE_SCHEDULE", "WORKER_TIMEZONE", "PURGE_TIMEOUT", "WORKER_HEALTH_PORT",
}

func clearWorkerEnv(t *testing.T) {
	t.Helper()
	for _, key := range workerEnvVars {
		t.Setenv(key, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "@every 10m", cfg.Schedule)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, time.Minute, cfg.Timeout)
	assert.Equal(t, 9091, cfg.HealthPort)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "bad schedule", mutate: func(c *Config) { c.Schedule = "sometimes" }, wantErr: "schedule"},
		{name: "bad timezone", mutate: func(c *Config) { c.Timezone = "Nowhere/City" }, wantErr: "timezone"},
		{name: "zero timeout", mutate: func(c *Config) { c.Timeout = 0 }, wantErr: "timeout"},
		{name: "privileged port", mutate: func(c *Config) { c.HealthPort = 80 }, wantErr: "health port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestConfig_ValidateReportsAllFields(t *testing.T) {
	cfg := Config{Schedule: "", Timezone: "", Timeout: 0, HealthPort: 0}

	err := cfg.Validate()
	for _, field := range []string{"schedule", "timezone", "timeout", "health port"} {
		assert.ErrorContains(t, err, field)
	}
}

func TestLoadConfigFromEnv_Overrides(t *testing.T) {
	clearWorkerEnv(t)
	t.Setenv("CACHE_PURGE_SCHEDULE", "*/5 * * * *")
	t.Setenv("WORKER_TIMEZONE", "Asia/Tokyo")
	t.Setenv("PURGE_TIMEOUT", "2m")
	t.Setenv("WORKER_HEALTH_PORT", "9200")

	cfg := LoadConfigFromEnv(slog.Default())

	assert.Equal(t, Config{
		Schedule:   "*/5 * * * *",
		Timezone:   "Asia/Tokyo",
		Timeout:    2 * time.Minute,
		HealthPort: 9200,
	}, cfg)
}

func TestLoadConfigFromEnv_FallsBackOnInvalidValues(t *testing.T) {
	clearWorkerEnv(t)
	t.Setenv("CACHE_PURGE_SCHEDULE", "whenever")
	t.Setenv("WORKER_TIMEZONE", "Mars/Base")
	t.Setenv("PURGE_TIMEOUT", "2h")
	t.Setenv("WORKER_HEALTH_PORT", "22")

	before := testutil.ToFloat64(metrics.ConfigFallbacksTotal.WithLabelValues("timezone"))

	var buf bytes.Buffer
	cfg := LoadConfigFromEnv(slog.New(slog.NewTextHandler(&buf, nil)))

	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ConfigFallbacksTotal.WithLabelValues("timezone")))
	for _, key := range workerEnvVars {
		assert.Contains(t, buf.String(), key)
	}
}

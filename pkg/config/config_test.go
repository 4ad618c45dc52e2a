package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_STRING", "value")
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_BAD_INT", "forty")
	t.Setenv("TEST_FLOAT", "0.25")
	t.Setenv("TEST_BAD_FLOAT", "quarter")
	t.Setenv("TEST_BOOL", "false")
	t.Setenv("TEST_DURATION", "90s")

	assert.Equal(t, "value", GetEnvString("TEST_STRING", "default"))
	assert.Equal(t, "default", GetEnvString("TEST_MISSING", "default"))
	assert.Equal(t, 42, GetEnvInt("TEST_INT", 1))
	assert.Equal(t, 1, GetEnvInt("TEST_BAD_INT", 1))
	assert.InDelta(t, 0.25, GetEnvFloat("TEST_FLOAT", 1), 1e-9)
	assert.InDelta(t, 1.0, GetEnvFloat("TEST_BAD_FLOAT", 1), 1e-9)
	assert.False(t, GetEnvBool("TEST_BOOL", true))
	assert.Equal(t, 90*time.Second, GetEnvDuration("TEST_DURATION", time.Second))
}

func TestValidateCronSchedule(t *testing.T) {
	tests := []struct {
		schedule string
		wantErr  bool
	}{
		{"@every 10m", false},
		{"@hourly", false},
		{"*/10 * * * *", false},
		{"30 5 * * 1-5", false},
		{"", true},
		{"every ten minutes", true},
		{"* * *", true},
	}
	for _, tt := range tests {
		err := ValidateCronSchedule(tt.schedule)
		if tt.wantErr {
			assert.Error(t, err, tt.schedule)
		} else {
			assert.NoError(t, err, tt.schedule)
		}
	}
}

func TestValidateTimezone(t *testing.T) {
	assert.NoError(t, ValidateTimezone("UTC"))
	assert.NoError(t, ValidateTimezone("Asia/Tokyo"))
	assert.Error(t, ValidateTimezone(""))
	assert.Error(t, ValidateTimezone("Mars/Olympus"))
}

func TestValidateDurations(t *testing.T) {
	assert.NoError(t, ValidatePositiveDuration(time.Second))
	assert.Error(t, ValidatePositiveDuration(0))
	assert.NoError(t, ValidateNonNegativeDuration(0))
	assert.Error(t, ValidateNonNegativeDuration(-time.Second))
	assert.NoError(t, ValidateDurationRange(time.Minute, time.Second, time.Hour))
	assert.Error(t, ValidateDurationRange(2*time.Hour, time.Second, time.Hour))
	assert.Error(t, ValidateDurationRange(time.Minute, time.Hour, time.Second))
}

func TestLoadCallLimiterConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("RATE_MAX_CALLS", "")
		t.Setenv("RATE_WINDOW", "")
		t.Setenv("RATE_MIN_SPACING", "")

		cfg := LoadCallLimiterConfig()
		assert.Equal(t, 20, cfg.MaxCalls)
		assert.Equal(t, time.Minute, cfg.Window)
		assert.Equal(t, 500*time.Millisecond, cfg.MinSpacing)
	})

	t.Run("invalid values fall back", func(t *testing.T) {
		t.Setenv("RATE_MAX_CALLS", "0")
		t.Setenv("RATE_WINDOW", "100ms")
		t.Setenv("RATE_MIN_SPACING", "-1s")

		cfg := LoadCallLimiterConfig()
		assert.Equal(t, 20, cfg.MaxCalls)
		assert.Equal(t, time.Minute, cfg.Window)
		assert.Equal(t, 500*time.Millisecond, cfg.MinSpacing)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("spacing not shorter than window is disabled", func(t *testing.T) {
		t.Setenv("RATE_MAX_CALLS", "5")
		t.Setenv("RATE_WINDOW", "10s")
		t.Setenv("RATE_MIN_SPACING", "10s")

		cfg := LoadCallLimiterConfig()
		assert.Equal(t, 5, cfg.MaxCalls)
		assert.Equal(t, time.Duration(0), cfg.MinSpacing)
	})
}

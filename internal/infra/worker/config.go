package worker

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"skillgap-ai/internal/observability/metrics"
	"skillgap-ai/pkg/config"
)

// Config controls the cache purge scheduler.
//
// Environment variables:
//   - CACHE_PURGE_SCHEDULE: cron expression or descriptor (default "@every 10m")
//   - WORKER_TIMEZONE: IANA timezone for the schedule (default "UTC")
//   - PURGE_TIMEOUT: limit for one purge run, 1s to 30m (default 1m)
//   - WORKER_HEALTH_PORT: port of the standalone worker's probe server, 1024-65535 (default 9091)
type Config struct {
	Schedule   string
	Timezone   string
	Timeout    time.Duration
	HealthPort int
}

// DefaultConfig returns the scheduler defaults.
func DefaultConfig() Config {
	return Config{
		Schedule:   "@every 10m",
		Timezone:   "UTC",
		Timeout:    time.Minute,
		HealthPort: 9091,
	}
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	if err := config.ValidateCronSchedule(c.Schedule); err != nil {
		errs = append(errs, fmt.Errorf("schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := validateTimeout(c.Timeout); err != nil {
		errs = append(errs, fmt.Errorf("timeout: %w", err))
	}
	if err := validatePort(c.HealthPort); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}
	return errors.Join(errs...)
}

func validateTimeout(d time.Duration) error {
	return config.ValidateDurationRange(d, time.Second, 30*time.Minute)
}

func validatePort(p int) error {
	if p < 1024 || p > 65535 {
		return fmt.Errorf("port %d out of range [1024, 65535]", p)
	}
	return nil
}

// LoadConfigFromEnv reads the scheduler configuration. It never fails: an
// invalid value is replaced by its default, logged and counted in
// skillgap_config_fallbacks_total.
func LoadConfigFromEnv(logger *slog.Logger) Config {
	cfg := DefaultConfig()
	def := DefaultConfig()

	fallback := func(field, key string, value any, err error) {
		metrics.RecordConfigFallback(field)
		logger.Warn("configuration fallback applied",
			slog.String("field", field),
			slog.String("env_key", key),
			slog.Any("invalid_value", value),
			slog.Any("error", err))
	}

	if v := config.GetEnvString("CACHE_PURGE_SCHEDULE", def.Schedule); v != def.Schedule {
		if err := config.ValidateCronSchedule(v); err != nil {
			fallback("schedule", "CACHE_PURGE_SCHEDULE", v, err)
		} else {
			cfg.Schedule = v
		}
	}

	if v := config.GetEnvString("WORKER_TIMEZONE", def.Timezone); v != def.Timezone {
		if err := config.ValidateTimezone(v); err != nil {
			fallback("timezone", "WORKER_TIMEZONE", v, err)
		} else {
			cfg.Timezone = v
		}
	}

	if v := config.GetEnvDuration("PURGE_TIMEOUT", def.Timeout); v != def.Timeout {
		if err := validateTimeout(v); err != nil {
			fallback("timeout", "PURGE_TIMEOUT", v.String(), err)
		} else {
			cfg.Timeout = v
		}
	}

	if v := config.GetEnvInt("WORKER_HEALTH_PORT", def.HealthPort); v != def.HealthPort {
		if err := validatePort(v); err != nil {
			fallback("health_port", "WORKER_HEALTH_PORT", v, err)
		} else {
			cfg.HealthPort = v
		}
	}

	return cfg
}

package config

import (
	"log/slog"
	"time"

	"skillgap-ai/pkg/ratelimit"
)

// LoadCallLimiterConfig loads the outbound call limiter settings.
//
// Environment variables:
//   - RATE_MAX_CALLS: Calls allowed per window (default: 20)
//   - RATE_WINDOW: Rolling window length (default: 1m)
//   - RATE_MIN_SPACING: Minimum gap between calls, 0 disables it (default: 500ms)
//
// Invalid values log a warning and fall back to their defaults, so the
// returned configuration always passes Validate.
//
// Example:
//
//	limiter := ratelimit.NewCallLimiter(config.LoadCallLimiterConfig())
func LoadCallLimiterConfig() ratelimit.CallLimiterConfig {
	defaults := ratelimit.DefaultCallLimiterConfig()

	cfg := ratelimit.CallLimiterConfig{
		MaxCalls:   GetEnvInt("RATE_MAX_CALLS", defaults.MaxCalls),
		Window:     GetEnvDuration("RATE_WINDOW", defaults.Window),
		MinSpacing: GetEnvDuration("RATE_MIN_SPACING", defaults.MinSpacing),
	}

	if cfg.MaxCalls <= 0 {
		slog.Warn("invalid RATE_MAX_CALLS, using default",
			slog.Int("value", cfg.MaxCalls),
			slog.Int("default", defaults.MaxCalls))
		cfg.MaxCalls = defaults.MaxCalls
	}

	if err := ValidateDurationRange(cfg.Window, time.Second, 24*time.Hour); err != nil {
		slog.Warn("invalid RATE_WINDOW, using default",
			slog.String("value", cfg.Window.String()),
			slog.String("default", defaults.Window.String()),
			slog.String("error", err.Error()))
		cfg.Window = defaults.Window
	}

	if err := ValidateNonNegativeDuration(cfg.MinSpacing); err != nil {
		slog.Warn("invalid RATE_MIN_SPACING, using default",
			slog.String("value", cfg.MinSpacing.String()),
			slog.String("default", defaults.MinSpacing.String()),
			slog.String("error", err.Error()))
		cfg.MinSpacing = defaults.MinSpacing
	}

	if cfg.MinSpacing >= cfg.Window {
		slog.Warn("RATE_MIN_SPACING is not shorter than RATE_WINDOW, disabling spacing",
			slog.String("spacing", cfg.MinSpacing.String()),
			slog.String("window", cfg.Window.String()))
		cfg.MinSpacing = 0
	}

	return cfg
}

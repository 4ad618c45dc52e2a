// Package config reads typed settings from environment variables and
// validates them. Readers never fail: a missing value yields the default,
// an unparsable one yields the default plus a slog warning.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// fromEnv returns parse(value of key), or def when the variable is unset,
// blank or rejected by parse.
func fromEnv[T any](key string, def T, parse func(string) (T, error)) T {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		slog.Warn("invalid environment value, using default",
			slog.String("key", key),
			slog.String("value", raw),
			slog.Any("default", def),
			slog.String("error", err.Error()))
		return def
	}
	return v
}

// GetEnvString returns the variable, or def when unset or blank.
//
//	model := GetEnvString("LLM_MODEL", "gpt-4o-mini")
func GetEnvString(key, def string) string {
	return fromEnv(key, def, func(s string) (string, error) { return s, nil })
}

// GetEnvInt parses a base-10 integer.
func GetEnvInt(key string, def int) int {
	return fromEnv(key, def, strconv.Atoi)
}

// GetEnvFloat parses a float64, e.g. LLM_TEMPERATURE=0.3.
func GetEnvFloat(key string, def float64) float64 {
	return fromEnv(key, def, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

// GetEnvBool accepts the forms understood by strconv.ParseBool.
func GetEnvBool(key string, def bool) bool {
	return fromEnv(key, def, strconv.ParseBool)
}

// GetEnvDuration parses a Go duration such as "90s" or "1h30m".
func GetEnvDuration(key string, def time.Duration) time.Duration {
	return fromEnv(key, def, time.ParseDuration)
}

// Package config loads the service configuration from environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"skillgap-ai/internal/infra/cache"
	"skillgap-ai/internal/infra/llm"
	"skillgap-ai/internal/resilience/circuitbreaker"
	envconfig "skillgap-ai/pkg/config"
	"skillgap-ai/pkg/ratelimit"
)

// DefaultAnthropicModel is used when LLM_PROVIDER=anthropic and LLM_MODEL is unset.
const DefaultAnthropicModel = "claude-3-5-haiku-latest"

// AIConfig holds configuration for the AI integration layer.
type AIConfig struct {
	// LLM configures the text-generation endpoint.
	LLM llm.Config

	// CircuitBreaker guards the text-generation endpoint.
	CircuitBreaker CircuitBreakerConfig

	// Cache configures both cache tiers and the purge job.
	Cache CacheConfig

	// RateLimit bounds outbound calls.
	RateLimit ratelimit.CallLimiterConfig

	// CatalogPath points at a YAML skill catalog. Empty uses the embedded one.
	CatalogPath string

	// Server configures the HTTP surface.
	Server ServerConfig

	// Observability configures logging and tracing.
	Observability ObservabilityConfig
}

// CircuitBreakerConfig for the text-generation endpoint.
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens the circuit. Default: 5
	FailureThreshold int
	// ResetTimeout is how long the circuit stays open. Default: 30s
	ResetTimeout time.Duration
	// HalfOpenMaxCalls is the number of trial calls in half-open state. Default: 1
	HalfOpenMaxCalls int
}

// CacheConfig holds cache tier settings.
type CacheConfig struct {
	// MaxMemoryEntries bounds the memory tier. Default: 100
	MaxMemoryEntries int
	// Prefix namespaces persisted keys. Default: "skillgap_cache_"
	Prefix string
	// PurgeSchedule is the cron schedule for expired entry removal. Default: "@every 10m"
	PurgeSchedule string
	// DatabaseURL selects a PostgreSQL persistent tier when set.
	DatabaseURL string
	// SQLitePath selects an embedded SQLite persistent tier when DatabaseURL is empty.
	SQLitePath string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Addr is the listen address. Default: ":8080"
	Addr string
	// RequestTimeout bounds each request. Default: 90s
	RequestTimeout time.Duration
	// MaxBodyBytes bounds request bodies. Default: 1 MiB
	MaxBodyBytes int64
}

// ObservabilityConfig holds logging and tracing settings.
type ObservabilityConfig struct {
	// LogLevel is "debug", "info", "warn" or "error". Default: "info"
	LogLevel string
	// EnableTracing installs the OpenTelemetry tracer provider.
	EnableTracing bool
	// TraceSampleRatio is the fraction of root spans sampled. Default: 1.0
	TraceSampleRatio float64
	// TraceEndpoint is the OTLP/HTTP collector URL. Empty keeps spans in process.
	TraceEndpoint string
}

// LoadAIConfig loads configuration from environment variables and validates it.
func LoadAIConfig() (*AIConfig, error) {
	llmDefaults := llm.DefaultConfig()
	provider := strings.ToLower(envconfig.GetEnvString("LLM_PROVIDER", llmDefaults.Provider))
	model := llmDefaults.Model
	baseURL := llmDefaults.BaseURL
	if provider == llm.ProviderAnthropic {
		model = DefaultAnthropicModel
		baseURL = ""
	}

	config := &AIConfig{
		LLM: llm.Config{
			Provider:    provider,
			APIKey:      envconfig.GetEnvString("LLM_API_KEY", ""),
			BaseURL:     envconfig.GetEnvString("LLM_BASE_URL", baseURL),
			Model:       envconfig.GetEnvString("LLM_MODEL", model),
			Timeout:     envconfig.GetEnvDuration("LLM_TIMEOUT", llmDefaults.Timeout),
			MaxRetries:  envconfig.GetEnvInt("LLM_MAX_RETRIES", llmDefaults.MaxRetries),
			Temperature: envconfig.GetEnvFloat("LLM_TEMPERATURE", llmDefaults.Temperature),
			MaxTokens:   envconfig.GetEnvInt("LLM_MAX_TOKENS", llmDefaults.MaxTokens),
		},
		CircuitBreaker: CircuitBreakerConfig{
			FailureThreshold: envconfig.GetEnvInt("CB_FAILURE_THRESHOLD", 5),
			ResetTimeout:     envconfig.GetEnvDuration("CB_RESET_TIMEOUT", 30*time.Second),
			HalfOpenMaxCalls: envconfig.GetEnvInt("CB_HALF_OPEN_MAX_CALLS", 1),
		},
		Cache: CacheConfig{
			MaxMemoryEntries: envconfig.GetEnvInt("CACHE_MAX_MEMORY_ENTRIES", cache.DefaultMaxMemoryEntries),
			Prefix:           envconfig.GetEnvString("CACHE_PREFIX", cache.DefaultPrefix),
			PurgeSchedule:    envconfig.GetEnvString("CACHE_PURGE_SCHEDULE", "@every 10m"),
			DatabaseURL:      envconfig.GetEnvString("DATABASE_URL", ""),
			SQLitePath:       envconfig.GetEnvString("CACHE_SQLITE_PATH", ""),
		},
		RateLimit:   envconfig.LoadCallLimiterConfig(),
		CatalogPath: envconfig.GetEnvString("CATALOG_PATH", ""),
		Server: ServerConfig{
			Addr:           envconfig.GetEnvString("HTTP_ADDR", ":8080"),
			RequestTimeout: envconfig.GetEnvDuration("HTTP_REQUEST_TIMEOUT", 90*time.Second),
			MaxBodyBytes:   int64(envconfig.GetEnvInt("HTTP_MAX_BODY_BYTES", 1<<20)),
		},
		Observability: ObservabilityConfig{
			LogLevel:         envconfig.GetEnvString("LOG_LEVEL", "info"),
			EnableTracing:    envconfig.GetEnvBool("TRACING_ENABLED", false),
			TraceSampleRatio: envconfig.GetEnvFloat("TRACING_SAMPLE_RATIO", 1.0),
			TraceEndpoint:    envconfig.GetEnvString("TRACING_OTLP_ENDPOINT", ""),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	return config, nil
}

// Validate checks configuration correctness.
func (c *AIConfig) Validate() error {
	switch c.LLM.Provider {
	case llm.ProviderOpenAI, llm.ProviderAnthropic:
	default:
		return fmt.Errorf("LLM_PROVIDER must be %q or %q, got %q", llm.ProviderOpenAI, llm.ProviderAnthropic, c.LLM.Provider)
	}

	if c.LLM.Model == "" {
		return fmt.Errorf("LLM_MODEL cannot be empty")
	}

	if err := envconfig.ValidateDurationRange(c.LLM.Timeout, time.Second, 5*time.Minute); err != nil {
		return fmt.Errorf("LLM_TIMEOUT: %w", err)
	}

	if c.LLM.MaxRetries < 1 || c.LLM.MaxRetries > 10 {
		return fmt.Errorf("LLM_MAX_RETRIES must be between 1 and 10")
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("LLM_TEMPERATURE must be between 0.0 and 2.0")
	}

	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("LLM_MAX_TOKENS must be positive")
	}

	if c.CircuitBreaker.FailureThreshold <= 0 {
		return fmt.Errorf("CB_FAILURE_THRESHOLD must be positive")
	}

	if err := envconfig.ValidatePositiveDuration(c.CircuitBreaker.ResetTimeout); err != nil {
		return fmt.Errorf("CB_RESET_TIMEOUT: %w", err)
	}

	if c.CircuitBreaker.HalfOpenMaxCalls <= 0 {
		return fmt.Errorf("CB_HALF_OPEN_MAX_CALLS must be positive")
	}

	if c.Cache.MaxMemoryEntries <= 0 {
		return fmt.Errorf("CACHE_MAX_MEMORY_ENTRIES must be positive")
	}

	if err := envconfig.ValidateCronSchedule(c.Cache.PurgeSchedule); err != nil {
		return fmt.Errorf("CACHE_PURGE_SCHEDULE: %w", err)
	}

	if err := c.RateLimit.Validate(); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("HTTP_ADDR cannot be empty")
	}

	if err := envconfig.ValidatePositiveDuration(c.Server.RequestTimeout); err != nil {
		return fmt.Errorf("HTTP_REQUEST_TIMEOUT: %w", err)
	}

	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("HTTP_MAX_BODY_BYTES must be positive")
	}

	if c.Observability.TraceSampleRatio < 0 || c.Observability.TraceSampleRatio > 1 {
		return fmt.Errorf("TRACING_SAMPLE_RATIO must be between 0.0 and 1.0")
	}

	return nil
}

// BreakerConfig converts the settings for circuitbreaker.New.
func (c *AIConfig) BreakerConfig() circuitbreaker.Config {
	cfg := circuitbreaker.LLMAPIConfig()
	cfg.FailureThreshold = c.CircuitBreaker.FailureThreshold
	cfg.ResetTimeout = c.CircuitBreaker.ResetTimeout
	cfg.HalfOpenMaxCalls = c.CircuitBreaker.HalfOpenMaxCalls
	cfg.Metrics = circuitbreaker.PrometheusMetrics{}
	return cfg
}

// CacheManagerConfig converts the settings for cache.NewManager.
func (c *AIConfig) CacheManagerConfig() cache.Config {
	cfg := cache.DefaultConfig()
	cfg.MaxMemoryEntries = c.Cache.MaxMemoryEntries
	cfg.Prefix = c.Cache.Prefix
	return cfg
}

// PersistentTier names the configured persistent cache tier: "postgres",
// "sqlite" or "" for memory only.
func (c *AIConfig) PersistentTier() string {
	switch {
	case c.Cache.DatabaseURL != "":
		return "postgres"
	case c.Cache.SQLitePath != "":
		return "sqlite"
	default:
		return ""
	}
}

// PersistentTarget is the connection URL or file path of the persistent tier.
func (c *AIConfig) PersistentTarget() string {
	if c.Cache.DatabaseURL != "" {
		return c.Cache.DatabaseURL
	}
	return c.Cache.SQLitePath
}

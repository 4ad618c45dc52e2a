// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics track HTTP request patterns and performance
var (
	// HTTPRequestsTotal counts total HTTP requests by method, path, and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures HTTP request duration in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestsInFlight is the number of requests currently being served
	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being served",
		},
	)
)

// LLM metrics track upstream text-generation calls
var (
	// LLMRequestsTotal counts Chat calls by outcome (success, failure, rejected) and error code
	LLMRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skillgap_llm_requests_total",
			Help: "Total number of text-generation requests",
		},
		[]string{"outcome", "code"},
	)

	// LLMAttemptDuration measures a single upstream attempt
	LLMAttemptDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "skillgap_llm_attempt_duration_seconds",
			Help:    "Duration of a single upstream text-generation attempt",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		},
	)

	// LLMTokensTotal counts tokens reported by the upstream
	LLMTokensTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "skillgap_llm_tokens_total",
			Help: "Total number of tokens consumed",
		},
	)

	// CircuitBreakerState reports breaker state by name (0=closed, 1=open, 2=half-open)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "skillgap_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"name"},
	)

	// RateLimitRejectionsTotal counts requests rejected by local rate limiters
	RateLimitRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skillgap_rate_limit_rejections_total",
			Help: "Total number of requests rejected by local rate limiters",
		},
		[]string{"limiter", "reason"},
	)
)

// Cache metrics track the two-tier result cache
var (
	// CacheLookupsTotal counts lookups by tier (memory, persistent) and result (hit, miss, expired)
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skillgap_cache_lookups_total",
			Help: "Total number of cache lookups",
		},
		[]string{"tier", "result"},
	)

	// CacheEvictionsTotal counts evictions by reason (capacity, quota, expired)
	CacheEvictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skillgap_cache_evictions_total",
			Help: "Total number of cache evictions",
		},
		[]string{"reason"},
	)

	// CacheEntries tracks entries currently held per tier
	CacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "skillgap_cache_entries",
			Help: "Number of entries currently cached",
		},
		[]string{"tier"},
	)

	// CacheStoreDuration measures persistent-tier operations
	CacheStoreDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "skillgap_cache_store_duration_seconds",
			Help:    "Persistent cache store operation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		},
		[]string{"operation"},
	)
)

// Purge metrics track the scheduled removal of expired cache entries
var (
	// CachePurgeRunsTotal counts purge runs by status (success, failure)
	CachePurgeRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skillgap_cache_purge_runs_total",
			Help: "Total number of cache purge runs",
		},
		[]string{"status"},
	)

	// CachePurgeDuration measures a single purge run
	CachePurgeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "skillgap_cache_purge_duration_seconds",
			Help:    "Cache purge run duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.25, 1, 5, 30, 60, 300},
		},
	)

	// CachePurgeRemovedTotal counts entries removed by purge runs
	CachePurgeRemovedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "skillgap_cache_purge_removed_total",
			Help: "Total number of expired entries removed by purge runs",
		},
	)

	// CachePurgeLastSuccess is the Unix timestamp of the last successful purge
	CachePurgeLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "skillgap_cache_purge_last_success_timestamp_seconds",
			Help: "Unix timestamp of the last successful cache purge",
		},
	)

	// ConfigFallbacksTotal counts environment values replaced by defaults, by field
	ConfigFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skillgap_config_fallbacks_total",
			Help: "Total number of invalid configuration values replaced by defaults",
		},
		[]string{"field"},
	)
)

// Orchestrator metrics track results by provenance
var (
	// OperationResultsTotal counts orchestrator results by operation and source (llm, cache, fallback)
	OperationResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skillgap_operation_results_total",
			Help: "Total number of orchestrator results by provenance",
		},
		[]string{"operation", "source"},
	)

	// OperationDuration measures orchestrator operation latency
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "skillgap_operation_duration_seconds",
			Help:    "Orchestrator operation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		},
		[]string{"operation"},
	)
)

// RecordHTTPRequest records an HTTP request with its metadata
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordStoreOperation records the duration of a persistent cache store operation
func RecordStoreOperation(operation string, duration time.Duration) {
	CacheStoreDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

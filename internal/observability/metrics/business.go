package metrics

import (
	"time"
)

// RecordLLMRequest records the outcome of a Chat call.
// Outcome is "success", "failure" or "rejected"; code is empty on success.
func RecordLLMRequest(outcome, code string) {
	LLMRequestsTotal.WithLabelValues(outcome, code).Inc()
}

// RecordLLMAttempt records the duration of one upstream attempt.
func RecordLLMAttempt(duration time.Duration) {
	LLMAttemptDuration.Observe(duration.Seconds())
}

// RecordLLMTokens adds to the consumed-token counter. Non-positive counts are ignored.
func RecordLLMTokens(tokens int) {
	if tokens <= 0 {
		return
	}
	LLMTokensTotal.Add(float64(tokens))
}

// SetCircuitBreakerState sets the state gauge for the named breaker.
func SetCircuitBreakerState(name string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordRateLimitRejection records a request rejected by a local limiter.
// Limiter is "llm" or "ip"; reason is "window" or "spacing".
func RecordRateLimitRejection(limiter, reason string) {
	RateLimitRejectionsTotal.WithLabelValues(limiter, reason).Inc()
}

// RateLimitRecorder adapts the package-level rate limit counter to ratelimit.RateLimitMetrics.
type RateLimitRecorder struct{}

// RecordDenied implements ratelimit.RateLimitMetrics.
func (RateLimitRecorder) RecordDenied(limiter, reason string) {
	RecordRateLimitRejection(limiter, reason)
}

// RecordCacheLookup records a cache lookup.
// Tier is "memory" or "persistent"; result is "hit", "miss" or "expired".
func RecordCacheLookup(tier, result string) {
	CacheLookupsTotal.WithLabelValues(tier, result).Inc()
}

// RecordCacheEviction records an eviction by reason.
func RecordCacheEviction(reason string) {
	CacheEvictionsTotal.WithLabelValues(reason).Inc()
}

// UpdateCacheEntries updates the entry gauge for a tier.
func UpdateCacheEntries(tier string, count int) {
	CacheEntries.WithLabelValues(tier).Set(float64(count))
}

// RecordOperationResult records an orchestrator result.
// Source is "llm", "cache" or "fallback".
func RecordOperationResult(operation, source string, duration time.Duration) {
	OperationResultsTotal.WithLabelValues(operation, source).Inc()
	OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordPurgeRun records one purge run. Removed entries are counted even
// when the run fails part way.
func RecordPurgeRun(status string, removed int, duration time.Duration) {
	CachePurgeRunsTotal.WithLabelValues(status).Inc()
	CachePurgeDuration.Observe(duration.Seconds())
	if removed > 0 {
		CachePurgeRemovedTotal.Add(float64(removed))
	}
	if status == "success" {
		CachePurgeLastSuccess.SetToCurrentTime()
	}
}

// RecordConfigFallback records that field fell back to its default.
func RecordConfigFallback(field string) {
	ConfigFallbacksTotal.WithLabelValues(field).Inc()
}

// Package metrics declares every Prometheus collector the service exports
// and small Record* helpers around them. Collectors register with the
// default registry at init through promauto and are served on /metrics.
//
// Families:
//   - http_*: request count, latency and in-flight gauge per route label
//   - skillgap_llm_*, skillgap_circuit_breaker_state: upstream calls and breaker
//   - skillgap_rate_limit_rejections_total: local call limiter
//   - skillgap_cache_*: lookups, evictions, entries, store latency and purge runs
//   - skillgap_operation_*: orchestrator results by provenance (llm, cache, fallback)
//   - skillgap_config_fallbacks_total: invalid env values replaced by defaults
//
// Usage:
//
//	metrics.RecordOperationResult("extract_skills", "cache", time.Since(start))
package metrics

package circuitbreaker

import "skillgap-ai/internal/observability/metrics"

// PrometheusMetrics exports breaker state to the skillgap_circuit_breaker_state gauge.
type PrometheusMetrics struct{}

// RecordState implements MetricsRecorder.
func (PrometheusMetrics) RecordState(name string, state State) {
	metrics.SetCircuitBreakerState(name, int(state))
}

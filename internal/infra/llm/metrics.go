package llm

import (
	"time"

	"skillgap-ai/internal/observability/metrics"
)

// MetricsRecorder receives client-level measurements.
// Tests inject a recording implementation; production uses PrometheusMetrics.
type MetricsRecorder interface {
	// RecordRequest records the outcome of one Chat call: "success", "failure" or "rejected".
	RecordRequest(outcome string, code string)

	// RecordAttempt records the duration of one upstream attempt.
	RecordAttempt(duration time.Duration)

	// RecordTokens records tokens reported by the upstream.
	RecordTokens(tokens int)
}

// PrometheusMetrics implements MetricsRecorder on the shared registry.
type PrometheusMetrics struct{}

// RecordRequest implements MetricsRecorder.RecordRequest
func (PrometheusMetrics) RecordRequest(outcome string, code string) {
	metrics.RecordLLMRequest(outcome, code)
}

// RecordAttempt implements MetricsRecorder.RecordAttempt
func (PrometheusMetrics) RecordAttempt(duration time.Duration) {
	metrics.RecordLLMAttempt(duration)
}

// RecordTokens implements MetricsRecorder.RecordTokens
func (PrometheusMetrics) RecordTokens(tokens int) {
	metrics.RecordLLMTokens(tokens)
}

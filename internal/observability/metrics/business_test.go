package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
)

func TestRecordLLMRequest(t *testing.T) {
	before := testutil.ToFloat64(LLMRequestsTotal.WithLabelValues("failure", "RATE_LIMIT"))

	RecordLLMRequest("failure", "RATE_LIMIT")
	RecordLLMRequest("failure", "RATE_LIMIT")

	after := testutil.ToFloat64(LLMRequestsTotal.WithLabelValues("failure", "RATE_LIMIT"))
	assert.Equal(t, before+2, after)
}

func TestRecordLLMTokens(t *testing.T) {
	tests := []struct {
		name   string
		tokens int
		delta  float64
	}{
		{name: "positive", tokens: 42, delta: 42},
		{name: "zero ignored", tokens: 0, delta: 0},
		{name: "negative ignored", tokens: -5, delta: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(LLMTokensTotal)
			RecordLLMTokens(tt.tokens)
			assert.Equal(t, before+tt.delta, testutil.ToFloat64(LLMTokensTotal))
		})
	}
}

func TestSetCircuitBreakerState(t *testing.T) {
	SetCircuitBreakerState("metrics-test", 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(CircuitBreakerState.WithLabelValues("metrics-test")))

	SetCircuitBreakerState("metrics-test", 0)
	assert.Equal(t, 0.0, testutil.ToFloat64(CircuitBreakerState.WithLabelValues("metrics-test")))
}

func TestRecordCacheLookup(t *testing.T) {
	before := testutil.ToFloat64(CacheLookupsTotal.WithLabelValues("memory", "hit"))
	RecordCacheLookup("memory", "hit")
	assert.Equal(t, before+1, testutil.ToFloat64(CacheLookupsTotal.WithLabelValues("memory", "hit")))
}

func TestRecordCacheEviction(t *testing.T) {
	before := testutil.ToFloat64(CacheEvictionsTotal.WithLabelValues("capacity"))
	RecordCacheEviction("capacity")
	assert.Equal(t, before+1, testutil.ToFloat64(CacheEvictionsTotal.WithLabelValues("capacity")))
}

func TestUpdateCacheEntries(t *testing.T) {
	UpdateCacheEntries("persistent", 7)
	assert.Equal(t, 7.0, testutil.ToFloat64(CacheEntries.WithLabelValues("persistent")))
}

func TestRecordOperationResult(t *testing.T) {
	before := testutil.ToFloat64(OperationResultsTotal.WithLabelValues("extract", "fallback"))

	assert.NotPanics(t, func() {
		RecordOperationResult("extract", "fallback", 15*time.Millisecond)
	})
	assert.Equal(t, before+1, testutil.ToFloat64(OperationResultsTotal.WithLabelValues("extract", "fallback")))
}

func TestRecordRateLimitRejection(t *testing.T) {
	counter := RateLimitRejectionsTotal.WithLabelValues("llm", "spacing")
	before := testutil.ToFloat64(counter)
	RecordRateLimitRejection("llm", "spacing")
	RateLimitRecorder{}.RecordDenied("llm", "spacing")
	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}

func TestRecordHTTPRequest(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordHTTPRequest("POST", "/v1/skills/extract", "200", 120*time.Millisecond)
		RecordStoreOperation("get", 2*time.Millisecond)
		RecordLLMAttempt(800 * time.Millisecond)
	})
}

func TestRecordPurgeRun(t *testing.T) {
	successBefore := testutil.ToFloat64(CachePurgeRunsTotal.WithLabelValues("success"))
	failureBefore := testutil.ToFloat64(CachePurgeRunsTotal.WithLabelValues("failure"))
	removedBefore := testutil.ToFloat64(CachePurgeRemovedTotal)
	samplesBefore := purgeSamples(t)

	RecordPurgeRun("success", 3, 20*time.Millisecond)
	assert.Greater(t, testutil.ToFloat64(CachePurgeLastSuccess), 0.0)

	RecordPurgeRun("failure", 2, time.Second)

	assert.Equal(t, successBefore+1, testutil.ToFloat64(CachePurgeRunsTotal.WithLabelValues("success")))
	assert.Equal(t, failureBefore+1, testutil.ToFloat64(CachePurgeRunsTotal.WithLabelValues("failure")))
	assert.Equal(t, removedBefore+5, testutil.ToFloat64(CachePurgeRemovedTotal))
	assert.Equal(t, samplesBefore+2, purgeSamples(t))
}

func purgeSamples(t *testing.T) uint64 {
	t.Helper()
	var m dto.Metric
	assert.NoError(t, CachePurgeDuration.Write(&m))
	return m.GetHistogram().GetSampleCount()
}

func TestRecordConfigFallback(t *testing.T) {
	before := testutil.ToFloat64(ConfigFallbacksTotal.WithLabelValues("timezone"))
	RecordConfigFallback("timezone")
	assert.Equal(t, before+1, testutil.ToFloat64(ConfigFallbacksTotal.WithLabelValues("timezone")))
}

package entity

import "time"

// ResultMeta describes how a result was produced.
type ResultMeta struct {
	LLMCalled        bool  `json:"llm_called"`
	CacheHit         bool  `json:"cache_hit"`
	ProcessingTimeMs int64 `json:"processing_time_ms"`
	Fallback         bool  `json:"fallback"`

	// Corrections lists adjustments the validator applied to model output.
	Corrections []Correction `json:"corrections,omitempty"`

	// UpstreamError is the error that was absorbed into a fallback, kept for diagnostics.
	UpstreamError *ServiceError `json:"upstream_error,omitempty"`
}

// ResultEnvelope wraps every orchestrator result.
// An envelope is always produced, even when the upstream failed and a fallback
// was substituted; in that case Success is still true.
type ResultEnvelope[T any] struct {
	RequestID string        `json:"request_id"`
	Timestamp time.Time     `json:"timestamp"`
	Success   bool          `json:"success"`
	Data      T             `json:"data"`
	Error     *ServiceError `json:"error,omitempty"`
	Meta      ResultMeta    `json:"meta"`
}

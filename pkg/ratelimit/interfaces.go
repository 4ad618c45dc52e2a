// Package ratelimit provides framework-agnostic rate limiting.
//
// The sliding window algorithm and in-memory store count calls per key over a
// rolling window. CallLimiter combines them with a minimum spacing between
// calls and guards the outbound language-model client.
package ratelimit

import (
	"context"
	"time"
)

// RateLimitStore holds request timestamps per key. Implementations must be thread-safe.
type RateLimitStore interface {
	// CheckAndAddRequest atomically counts requests after cutoff and, when the
	// count is below limit, records timestamp.
	//
	// Returns whether the request was admitted, the count in the window
	// (including this request when admitted), and the oldest timestamp still
	// in the window.
	CheckAndAddRequest(ctx context.Context, key string, timestamp, cutoff time.Time, limit int) (allowed bool, count int, oldest time.Time, err error)

	// GetWindow returns the number of requests for key after cutoff and the
	// oldest of them, without recording anything.
	GetWindow(ctx context.Context, key string, cutoff time.Time) (count int, oldest time.Time, err error)
}

// RateLimitAlgorithm decides whether a request for key is admitted.
type RateLimitAlgorithm interface {
	IsAllowed(ctx context.Context, key string, store RateLimitStore, limit int, window time.Duration) (*RateLimitDecision, error)
}

// RateLimitMetrics records limiter outcomes.
type RateLimitMetrics interface {
	// RecordDenied records a rejection. reason is "window" or "spacing".
	RecordDenied(limiterType, reason string)
}

// NoopMetrics discards all limiter metrics.
type NoopMetrics struct{}

// RecordDenied implements RateLimitMetrics.
func (NoopMetrics) RecordDenied(string, string) {}

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock is a Clock that uses the system time.
type SystemClock struct{}

// Now returns the current system time.
func (c *SystemClock) Now() time.Time {
	return time.Now()
}

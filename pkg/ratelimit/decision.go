package ratelimit

import (
	"math"
	"time"
)

// RateLimitDecision is the result of a rate limit check.
type RateLimitDecision struct {
	// Key is the identifier used for rate limiting.
	Key string

	Allowed bool

	// Limit is the maximum number of requests allowed in the window.
	Limit int

	// Remaining is the number of requests still available in the window.
	Remaining int

	// ResetAt is when the oldest request in the window ages out.
	ResetAt time.Time

	// RetryAfter is how long a denied caller should wait.
	RetryAfter time.Duration
}

// ResetAtUnix returns the reset time as a Unix timestamp.
func (d *RateLimitDecision) ResetAtUnix() int64 {
	return d.ResetAt.Unix()
}

// RetryAfterSeconds returns RetryAfter rounded up to whole seconds.
func (d *RateLimitDecision) RetryAfterSeconds() int64 {
	if d.RetryAfter <= 0 {
		return 0
	}
	return int64(math.Ceil(d.RetryAfter.Seconds()))
}

// NewAllowedDecision creates a decision for an admitted request.
func NewAllowedDecision(key string, limit, remaining int, resetAt time.Time) *RateLimitDecision {
	if remaining < 0 {
		remaining = 0
	}
	return &RateLimitDecision{
		Key:       key,
		Allowed:   true,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
}

// NewDeniedDecision creates a decision for a rejected request.
func NewDeniedDecision(key string, limit int, resetAt, now time.Time) *RateLimitDecision {
	retryAfter := resetAt.Sub(now)
	if retryAfter < 0 {
		retryAfter = 0
	}
	return &RateLimitDecision{
		Key:        key,
		Allowed:    false,
		Limit:      limit,
		ResetAt:    resetAt,
		RetryAfter: retryAfter,
	}
}

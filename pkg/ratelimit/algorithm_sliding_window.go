package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// SlidingWindowAlgorithm counts individual request timestamps within a rolling
// window, avoiding the boundary bursts of fixed windows.
//
// Clock skew protection: the last timestamp seen per key is remembered and a
// clock that moves backwards is replaced by it, so timestamps per key never
// decrease and a time change cannot reopen the window.
type SlidingWindowAlgorithm struct {
	clock Clock

	mu             sync.Mutex
	lastTimestamps map[string]time.Time
}

// NewSlidingWindowAlgorithm creates a sliding window algorithm. A nil clock uses SystemClock.
func NewSlidingWindowAlgorithm(clock Clock) *SlidingWindowAlgorithm {
	if clock == nil {
		clock = &SystemClock{}
	}
	return &SlidingWindowAlgorithm{
		clock:          clock,
		lastTimestamps: make(map[string]time.Time),
	}
}

// IsAllowed implements RateLimitAlgorithm.
//
// A denied decision carries RetryAfter = time until the oldest request in the
// window ages out, which is the earliest moment a new request can succeed.
func (a *SlidingWindowAlgorithm) IsAllowed(
	ctx context.Context,
	key string,
	store RateLimitStore,
	limit int,
	window time.Duration,
) (*RateLimitDecision, error) {
	now := a.validTimestamp(key)
	cutoff := now.Add(-window)

	allowed, count, oldest, err := store.CheckAndAddRequest(ctx, key, now, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("check and add request: %w", err)
	}

	resetAt := now.Add(window)
	if !oldest.IsZero() {
		resetAt = oldest.Add(window)
	}

	if allowed {
		return NewAllowedDecision(key, limit, limit-count, resetAt), nil
	}
	return NewDeniedDecision(key, limit, resetAt, now), nil
}

// validTimestamp returns the current time, or the last seen time for key if
// the clock went backwards.
func (a *SlidingWindowAlgorithm) validTimestamp(key string) time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.clock.Now()
	if lastSeen, ok := a.lastTimestamps[key]; ok && now.Before(lastSeen) {
		slog.Warn("clock skew detected, using last valid timestamp",
			slog.String("key", key),
			slog.Time("now", now),
			slog.Time("last_seen", lastSeen),
			slog.Duration("skew", lastSeen.Sub(now)),
		)
		return lastSeen
	}
	a.lastTimestamps[key] = now
	return now
}

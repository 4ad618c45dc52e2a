package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type deniedSpy struct {
	mu      sync.Mutex
	reasons []string
}

func (s *deniedSpy) RecordDenied(_, reason string) {
	s.mu.Lock()
	s.reasons = append(s.reasons, reason)
	s.mu.Unlock()
}

func TestCallLimiter_Window(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	start := clock.Now()
	l := NewCallLimiter(CallLimiterConfig{MaxCalls: 3, Window: time.Minute}, WithClock(clock))

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Acquire(ctx), "call %d", i)
		clock.Advance(time.Second)
	}

	err := l.Acquire(ctx)
	var le *LimitError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, ReasonWindow, le.Reason)
	assert.Equal(t, 57*time.Second, le.RetryAfter)
	assert.True(t, errors.Is(err, ErrLimited))
	budget := l.Budget(ctx)
	assert.False(t, budget.Allowed)
	assert.Equal(t, 0, budget.Remaining)
	assert.Equal(t, start.Add(time.Minute), budget.ResetAt)
	assert.Equal(t, int64(57), budget.RetryAfterSeconds())

	// The first call ages out exactly one window later.
	clock.Set(start.Add(time.Minute))
	assert.NoError(t, l.Acquire(ctx))
}

func TestCallLimiter_Spacing(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	spy := &deniedSpy{}
	l := NewCallLimiter(CallLimiterConfig{MaxCalls: 20, Window: time.Minute, MinSpacing: 500 * time.Millisecond},
		WithClock(clock), WithMetrics(spy))

	require.NoError(t, l.Acquire(ctx))

	clock.Advance(100 * time.Millisecond)
	err := l.Acquire(ctx)
	var le *LimitError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, ReasonSpacing, le.Reason)
	assert.InDelta(t, float64(400*time.Millisecond), float64(le.RetryAfter), float64(time.Millisecond))
	assert.Equal(t, 19, l.Budget(ctx).Remaining, "spacing rejection must not use a window slot")

	clock.Advance(450 * time.Millisecond)
	assert.NoError(t, l.Acquire(ctx))
	assert.Equal(t, []string{ReasonSpacing}, spy.reasons)
}

func TestCallLimiter_WindowRejectionKeepsSpacingToken(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	l := NewCallLimiter(CallLimiterConfig{MaxCalls: 1, Window: 10 * time.Second, MinSpacing: time.Second}, WithClock(clock))

	require.NoError(t, l.Acquire(ctx))
	clock.Advance(2 * time.Second)

	err := l.Acquire(ctx)
	var le *LimitError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, ReasonWindow, le.Reason)

	// A spacing token consumed by the rejected call would make this a spacing rejection.
	clock.Advance(8 * time.Second)
	assert.NoError(t, l.Acquire(ctx))
}

func TestCallLimiter_Defaults(t *testing.T) {
	l := NewCallLimiter(CallLimiterConfig{MinSpacing: -time.Second})
	assert.Equal(t, 20, l.cfg.MaxCalls)
	assert.Equal(t, time.Minute, l.cfg.Window)
	assert.Nil(t, l.spacing)
	assert.Equal(t, 20, l.Budget(context.Background()).Remaining)
}

func TestCallLimiterConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     CallLimiterConfig
		wantErr bool
	}{
		{"default", DefaultCallLimiterConfig(), false},
		{"zero calls", CallLimiterConfig{MaxCalls: 0, Window: time.Minute}, true},
		{"zero window", CallLimiterConfig{MaxCalls: 1}, true},
		{"negative spacing", CallLimiterConfig{MaxCalls: 1, Window: time.Second, MinSpacing: -1}, true},
		{"no spacing", CallLimiterConfig{MaxCalls: 1, Window: time.Second}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCallLimiter_ConcurrentAcquire(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	l := NewCallLimiter(CallLimiterConfig{MaxCalls: 5, Window: time.Minute}, WithClock(clock))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Acquire(ctx) == nil {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 5, allowed)
}

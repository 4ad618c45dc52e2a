package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Rejection reasons.
const (
	ReasonWindow  = "window"
	ReasonSpacing = "spacing"
)

// ErrLimited is matched by every LimitError.
var ErrLimited = errors.New("rate limit exceeded")

// LimitError reports a locally rejected call and how long to wait before retrying.
type LimitError struct {
	Reason     string
	RetryAfter time.Duration
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded (%s), retry after %s", e.Reason, e.RetryAfter)
}

// Is makes errors.Is(err, ErrLimited) true.
func (e *LimitError) Is(target error) bool {
	return target == ErrLimited
}

// CallLimiterConfig bounds outbound calls.
type CallLimiterConfig struct {
	// MaxCalls per Window. Default: 20
	MaxCalls int
	// Window is the rolling window length. Default: 1 minute
	Window time.Duration
	// MinSpacing is the minimum gap between consecutive calls. Zero disables it.
	MinSpacing time.Duration
}

// DefaultCallLimiterConfig returns 20 calls per minute, at least 500ms apart.
func DefaultCallLimiterConfig() CallLimiterConfig {
	return CallLimiterConfig{
		MaxCalls:   20,
		Window:     time.Minute,
		MinSpacing: 500 * time.Millisecond,
	}
}

// Validate checks the configuration.
func (c CallLimiterConfig) Validate() error {
	if c.MaxCalls <= 0 {
		return fmt.Errorf("MaxCalls must be positive, got %d", c.MaxCalls)
	}
	if c.Window <= 0 {
		return fmt.Errorf("Window must be positive, got %s", c.Window)
	}
	if c.MinSpacing < 0 {
		return fmt.Errorf("MinSpacing must be non-negative, got %s", c.MinSpacing)
	}
	return nil
}

// CallLimiterOption configures a CallLimiter.
type CallLimiterOption func(*CallLimiter)

// WithClock sets the time source used by both the window and the spacing limiter.
func WithClock(clock Clock) CallLimiterOption {
	return func(l *CallLimiter) {
		l.clock = clock
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m RateLimitMetrics) CallLimiterOption {
	return func(l *CallLimiter) {
		l.metrics = m
	}
}

// WithStore replaces the in-memory timestamp store.
func WithStore(s RateLimitStore) CallLimiterOption {
	return func(l *CallLimiter) {
		l.store = s
	}
}

// callKey is the single window key; the limiter guards one upstream.
const callKey = "llm"

// CallLimiter admits at most MaxCalls per rolling Window with at least
// MinSpacing between calls. Rejections never wait; they return a *LimitError
// so the caller can fall back immediately.
type CallLimiter struct {
	cfg       CallLimiterConfig
	clock     Clock
	store     RateLimitStore
	algorithm *SlidingWindowAlgorithm
	spacing   *rate.Limiter
	metrics   RateLimitMetrics

	// mu makes reserve-check-cancel one step so a cancelled spacing
	// reservation cannot interleave with another caller's.
	mu sync.Mutex
}

// NewCallLimiter creates a limiter. Invalid fields fall back to defaults.
func NewCallLimiter(cfg CallLimiterConfig, opts ...CallLimiterOption) *CallLimiter {
	def := DefaultCallLimiterConfig()
	if cfg.MaxCalls <= 0 {
		cfg.MaxCalls = def.MaxCalls
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.MinSpacing < 0 {
		cfg.MinSpacing = 0
	}

	l := &CallLimiter{
		cfg:     cfg,
		clock:   &SystemClock{},
		metrics: NoopMetrics{},
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.store == nil {
		l.store = NewInMemoryRateLimitStore(InMemoryStoreConfig{MaxKeys: 1})
	}
	l.algorithm = NewSlidingWindowAlgorithm(l.clock)
	if cfg.MinSpacing > 0 {
		l.spacing = rate.NewLimiter(rate.Every(cfg.MinSpacing), 1)
	}
	return l
}

// Acquire admits one call or returns a *LimitError.
func (l *CallLimiter) Acquire(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()

	var reservation *rate.Reservation
	if l.spacing != nil {
		reservation = l.spacing.ReserveN(now, 1)
		if delay := reservation.DelayFrom(now); delay > 0 {
			reservation.CancelAt(now)
			return l.reject(ctx, ReasonSpacing, delay)
		}
	}

	decision, err := l.algorithm.IsAllowed(ctx, callKey, l.store, l.cfg.MaxCalls, l.cfg.Window)
	if err != nil {
		if reservation != nil {
			reservation.CancelAt(now)
		}
		return fmt.Errorf("call limiter: %w", err)
	}
	if !decision.Allowed {
		if reservation != nil {
			reservation.CancelAt(now)
		}
		return l.reject(ctx, ReasonWindow, decision.RetryAfter)
	}
	return nil
}

// Budget reports the rolling window without consuming a call. Spacing is
// not reflected; it only delays the next call by MinSpacing at most.
// A store failure reports an exhausted budget.
func (l *CallLimiter) Budget(ctx context.Context) *RateLimitDecision {
	now := l.clock.Now()
	count, oldest, err := l.store.GetWindow(ctx, callKey, now.Add(-l.cfg.Window))
	if err != nil {
		return NewDeniedDecision(callKey, l.cfg.MaxCalls, now, now)
	}

	resetAt := now
	if count > 0 {
		resetAt = oldest.Add(l.cfg.Window)
	}
	if count >= l.cfg.MaxCalls {
		return NewDeniedDecision(callKey, l.cfg.MaxCalls, resetAt, now)
	}
	return NewAllowedDecision(callKey, l.cfg.MaxCalls, l.cfg.MaxCalls-count, resetAt)
}

func (l *CallLimiter) reject(ctx context.Context, reason string, retryAfter time.Duration) error {
	l.metrics.RecordDenied(callKey, reason)
	slog.DebugContext(ctx, "call limiter rejected call",
		slog.String("reason", reason),
		slog.Duration("retry_after", retryAfter))
	return &LimitError{Reason: reason, RetryAfter: retryAfter}
}

// Package retry provides retry logic with fixed or exponential backoff.
// It helps handle transient failures gracefully by automatically retrying failed operations.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"syscall"
	"time"
)

// Classifier decides whether err is worth retrying and how long the server
// asked the caller to wait (zero when it did not say).
type Classifier func(err error) (retryable bool, retryAfter time.Duration)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Config holds the configuration for retry logic.
type Config struct {
	// MaxAttempts is the maximum number of attempts, including the first one
	MaxAttempts int

	// Schedule is a fixed backoff schedule. When set, the delay before retry n
	// is Schedule[n-1], repeating the last element once exhausted.
	Schedule []time.Duration

	// InitialDelay is the delay before the first retry (exponential mode)
	InitialDelay time.Duration

	// MaxDelay is the maximum delay between retries (exponential mode)
	MaxDelay time.Duration

	// Multiplier is the multiplier for exponential backoff
	Multiplier float64

	// JitterFraction is the fraction of delay to add as random jitter (0.0 to 1.0)
	JitterFraction float64

	// MaxRetryAfter caps server-requested delays. Zero disables Retry-After handling.
	MaxRetryAfter time.Duration

	// Classify overrides IsRetryable. Optional.
	Classify Classifier

	// Sleep overrides the context-aware timer wait. Optional, used by tests.
	Sleep SleepFunc
}

// DefaultConfig returns a default retry configuration.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialDelay:   1 * time.Second,
		MaxDelay:       30 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

// LLMAPIConfig returns configuration for text-generation API calls:
// three attempts on a fixed 1s/2s/4s schedule, honoring Retry-After up to a minute.
func LLMAPIConfig() Config {
	return Config{
		MaxAttempts:   3,
		Schedule:      []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second},
		MaxRetryAfter: 60 * time.Second,
	}
}

// StoreConfig returns configuration optimized for persistent store operations.
// Fast retry for transient connection issues.
func StoreConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialDelay:   100 * time.Millisecond,
		MaxDelay:       1 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

// Delay returns the backoff delay before retry number n (1-based).
func (c Config) Delay(n int) time.Duration {
	if n < 1 {
		n = 1
	}

	if len(c.Schedule) > 0 {
		idx := n - 1
		if idx >= len(c.Schedule) {
			idx = len(c.Schedule) - 1
		}
		return c.Schedule[idx]
	}

	delay := c.InitialDelay
	for i := 1; i < n; i++ {
		delay = time.Duration(float64(delay) * c.Multiplier)
		if c.MaxDelay > 0 && delay > c.MaxDelay {
			delay = c.MaxDelay
			break
		}
	}
	return addJitter(delay, c.JitterFraction)
}

// WithBackoff executes the given function with retry logic.
// fn receives the 1-based attempt number. Non-retryable errors short-circuit
// immediately; the delay is only applied between retryable failures.
// It returns nil if the function succeeds, or the last error if all attempts fail.
func WithBackoff(ctx context.Context, cfg Config, fn func(attempt int) error) error {
	classify := cfg.Classify
	if classify == nil {
		classify = func(err error) (bool, time.Duration) {
			return IsRetryable(err), retryAfterOf(err)
		}
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = fn(attempt)

		if lastErr == nil {
			if attempt > 1 {
				slog.Info("operation succeeded after retry",
					slog.Int("attempt", attempt))
			}
			return nil
		}

		if ctx.Err() != nil {
			slog.Debug("operation abandoned, context done",
				slog.Int("attempt", attempt),
				slog.Any("error", lastErr))
			return fmt.Errorf("retry aborted: %w (last error: %w)", ctx.Err(), lastErr)
		}

		retryable, retryAfter := classify(lastErr)
		if !retryable {
			slog.Warn("non-retryable error, aborting",
				slog.Int("attempt", attempt),
				slog.Any("error", lastErr))
			return lastErr
		}

		// 最後の試行後は待機しない
		if attempt == maxAttempts {
			break
		}

		delay := cfg.Delay(attempt)
		if cfg.MaxRetryAfter > 0 && retryAfter > delay {
			delay = min(retryAfter, cfg.MaxRetryAfter)
		}

		slog.Warn("operation failed, retrying",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", maxAttempts),
			slog.Duration("delay", delay),
			slog.Any("error", lastErr))

		if err := sleep(ctx, delay); err != nil {
			return fmt.Errorf("retry aborted: %w", err)
		}
	}

	return lastErr
}

// IsRetryable determines if an error is worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	// コンテキストエラーはリトライしない
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// Network errors (timeout)
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	// Syscall errors
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return true
	}

	// HTTP status codes
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return IsRetryableStatus(httpErr.StatusCode)
	}

	return false
}

// IsRetryableStatus reports whether an HTTP status code is worth retrying:
// 5xx, 429 Too Many Requests and 408 Request Timeout.
func IsRetryableStatus(code int) bool {
	switch {
	case code >= 500 && code < 600:
		return true
	case code == http.StatusTooManyRequests:
		return true
	case code == http.StatusRequestTimeout:
		return true
	default:
		return false
	}
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string

	// RetryAfter is the parsed Retry-After header, zero when absent.
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// ParseRetryAfter parses a Retry-After header value, which is either a number
// of seconds or an HTTP date. It returns zero for empty or invalid values.
func ParseRetryAfter(value string, now time.Time) time.Duration {
	if value == "" {
		return 0
	}

	var seconds int
	if _, err := fmt.Sscanf(value, "%d", &seconds); err == nil && fmt.Sprint(seconds) == value {
		if seconds < 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(value); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

func retryAfterOf(err error) time.Duration {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.RetryAfter
	}
	return 0
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// addJitter adds random jitter to a duration to prevent thundering herd.
func addJitter(duration time.Duration, jitterFraction float64) time.Duration {
	if jitterFraction <= 0 {
		return duration
	}
	if jitterFraction > 1.0 {
		jitterFraction = 1.0
	}
	// #nosec G404 -- Using math/rand is acceptable for jitter calculation.
	// Cryptographic randomness is not required for retry backoff jitter.
	jitter := time.Duration(rand.Float64() * float64(duration) * jitterFraction)
	return duration + jitter
}

package circuitbreaker

import (
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"skillgap-ai/internal/observability/metrics"
)

// GuardConfig holds the configuration for a gobreaker-backed Guard.
type GuardConfig struct {
	// Name is the circuit breaker name for logging and metrics
	Name string

	// MaxRequests is the maximum number of requests allowed in half-open state
	MaxRequests uint32

	// Interval is the cyclic period of the closed state to clear failure counts
	Interval time.Duration

	// Timeout is how long to wait in open state before trying again
	Timeout time.Duration

	// ConsecutiveFailures trips the circuit once reached
	ConsecutiveFailures uint32
}

// StoreGuardConfig returns configuration for the persistent cache tier.
// Opens after 5 consecutive failures, 30 second timeout.
func StoreGuardConfig() GuardConfig {
	return GuardConfig{
		Name:                "cache-store",
		MaxRequests:         3,
		Interval:            time.Minute,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
	}
}

// Guard wraps gobreaker.CircuitBreaker for call sites that want Execute semantics.
type Guard struct {
	breaker *gobreaker.CircuitBreaker
	name    string
}

// NewGuard creates a new gobreaker-backed guard.
func NewGuard(cfg GuardConfig) *Guard {
	threshold := cfg.ConsecutiveFailures
	if threshold == 0 {
		threshold = 5
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("circuit breaker state changed",
				slog.String("circuit", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
			metrics.SetCircuitBreakerState(name, int(fromGobreaker(to)))
		},
	}

	return &Guard{
		breaker: gobreaker.NewCircuitBreaker(settings),
		name:    cfg.Name,
	}
}

// Execute runs fn through the circuit breaker.
// If the circuit is open, it returns gobreaker.ErrOpenState immediately.
func (g *Guard) Execute(fn func() (interface{}, error)) (interface{}, error) {
	return g.breaker.Execute(fn)
}

// Do runs an error-only operation through the circuit breaker.
func (g *Guard) Do(fn func() error) error {
	_, err := g.breaker.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	return err
}

// State returns the current state of the underlying breaker.
func (g *Guard) State() gobreaker.State {
	return g.breaker.State()
}

// IsOpen returns true if the circuit breaker is in the open state.
func (g *Guard) IsOpen() bool {
	return g.breaker.State() == gobreaker.StateOpen
}

// Name returns the name of the guard.
func (g *Guard) Name() string {
	return g.name
}

// fromGobreaker maps gobreaker states onto State so both breaker kinds share one gauge encoding.
func fromGobreaker(s gobreaker.State) State {
	switch s {
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateClosed
	}
}

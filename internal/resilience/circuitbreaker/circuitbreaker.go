// Package circuitbreaker provides circuit breaker implementations for external service calls.
//
// CircuitBreaker is a consecutive-failure state machine with an explicit
// CanExecute / RecordSuccess / RecordFailure contract, so callers decide what
// counts as a recordable failure (for example, only retry-exhausted errors).
// Guard wraps github.com/sony/gobreaker for call sites that want Execute semantics.
package circuitbreaker

import (
	"log/slog"
	"sync"
	"time"
)

// State represents the current state of the circuit breaker.
type State int

const (
	// StateClosed indicates the circuit is closed and calls are allowed.
	StateClosed State = iota

	// StateOpen indicates the circuit is open and calls are rejected until
	// the reset timeout elapses.
	StateOpen

	// StateHalfOpen indicates the circuit is testing recovery with a limited
	// number of trial calls.
	StateHalfOpen
)

// String returns a string representation of the circuit state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Clock provides an abstraction for time operations to enable testing.
type Clock interface {
	Now() time.Time
}

// SystemClock is a Clock implementation that uses the system time.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// MetricsRecorder receives state changes for observability.
type MetricsRecorder interface {
	RecordState(name string, state State)
}

type noopMetrics struct{}

func (noopMetrics) RecordState(string, State) {}

// Config holds the configuration for a circuit breaker.
type Config struct {
	// Name is the circuit breaker name for logging and metrics
	Name string

	// FailureThreshold is the number of consecutive recorded failures that opens the circuit.
	// Default: 5
	FailureThreshold int

	// ResetTimeout is how long to stay open before allowing trial calls.
	// Default: 30 seconds
	ResetTimeout time.Duration

	// HalfOpenMaxCalls is the number of trial calls allowed in half-open state.
	// Default: 1
	HalfOpenMaxCalls int

	// Clock provides time operations. Default: SystemClock
	Clock Clock

	// Metrics records state changes. Default: no-op
	Metrics MetricsRecorder
}

// DefaultConfig returns a default configuration for circuit breakers.
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		FailureThreshold: 5,
		ResetTimeout:     30 * time.Second,
		HalfOpenMaxCalls: 1,
	}
}

// LLMAPIConfig returns configuration for the text-generation endpoint.
func LLMAPIConfig() Config {
	return DefaultConfig("llm-api")
}

// Snapshot is a point-in-time copy of the breaker counters.
type Snapshot struct {
	State           State     `json:"state"`
	FailureCount    int       `json:"failure_count"`
	LastFailureTime time.Time `json:"last_failure_time"`
	HalfOpenCalls   int       `json:"half_open_calls"`
}

// CircuitBreaker tracks consecutive failures and gates whether calls may proceed.
//
// Closed: every call executes; each recorded failure increments the count and
// reaching FailureThreshold opens the circuit.
// Open: CanExecute is false until ResetTimeout has elapsed since the last failure,
// then the breaker lazily moves to half-open.
// Half-open: up to HalfOpenMaxCalls trial calls; a success closes the circuit,
// a failure reopens it immediately.
type CircuitBreaker struct {
	config Config

	mu              sync.Mutex
	state           State
	failureCount    int
	lastFailureTime time.Time
	halfOpenCalls   int
}

// New creates a new circuit breaker with the given configuration.
// Zero values fall back to the defaults of DefaultConfig.
func New(cfg Config) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	if cfg.HalfOpenMaxCalls <= 0 {
		cfg.HalfOpenMaxCalls = 1
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = noopMetrics{}
	}

	cb := &CircuitBreaker{
		config: cfg,
		state:  StateClosed,
	}
	cfg.Metrics.RecordState(cfg.Name, StateClosed)
	return cb
}

// CanExecute reports whether a call may proceed.
// In half-open state each true result consumes one trial slot.
func (cb *CircuitBreaker) CanExecute() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true

	case StateOpen:
		if cb.config.Clock.Now().Sub(cb.lastFailureTime) < cb.config.ResetTimeout {
			return false
		}
		cb.transition(StateHalfOpen)
		cb.halfOpenCalls = 1
		return true

	case StateHalfOpen:
		if cb.halfOpenCalls >= cb.config.HalfOpenMaxCalls {
			return false
		}
		cb.halfOpenCalls++
		return true

	default:
		return false
	}
}

// RecordSuccess records a successful call.
// A success in half-open state closes the circuit and resets all counters.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateHalfOpen {
		cb.transition(StateClosed)
	}
	cb.failureCount = 0
	cb.halfOpenCalls = 0
}

// RecordFailure records a failed call.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.config.Clock.Now()
	cb.failureCount++
	cb.lastFailureTime = now

	switch cb.state {
	case StateHalfOpen:
		cb.halfOpenCalls = 0
		cb.transition(StateOpen)
	case StateClosed:
		if cb.failureCount >= cb.config.FailureThreshold {
			cb.transition(StateOpen)
		}
	}
}

// ReleaseTrial returns a half-open trial slot taken by CanExecute for a call
// that ended without an upstream verdict, such as one abandoned by its caller.
// It is a no-op in other states.
func (cb *CircuitBreaker) ReleaseTrial() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateHalfOpen && cb.halfOpenCalls > 0 {
		cb.halfOpenCalls--
	}
}

// State returns the current state of the circuit breaker.
// The open to half-open transition is lazy and only happens in CanExecute,
// so an open breaker whose timeout has elapsed still reports StateOpen here.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Snapshot returns a copy of the breaker counters.
func (cb *CircuitBreaker) Snapshot() Snapshot {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return Snapshot{
		State:           cb.state,
		FailureCount:    cb.failureCount,
		LastFailureTime: cb.lastFailureTime,
		HalfOpenCalls:   cb.halfOpenCalls,
	}
}

// IsOpen returns true if the circuit breaker is in the open state.
func (cb *CircuitBreaker) IsOpen() bool {
	return cb.State() == StateOpen
}

// Name returns the name of the circuit breaker.
func (cb *CircuitBreaker) Name() string {
	return cb.config.Name
}

// Reset returns the breaker to the closed state with cleared counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount = 0
	cb.halfOpenCalls = 0
	cb.lastFailureTime = time.Time{}
	if cb.state != StateClosed {
		cb.transition(StateClosed)
	}
}

// transition must be called with mu held.
func (cb *CircuitBreaker) transition(to State) {
	from := cb.state
	cb.state = to
	cb.config.Metrics.RecordState(cb.config.Name, to)

	slog.Warn("circuit breaker state changed",
		slog.String("circuit", cb.config.Name),
		slog.String("from", from.String()),
		slog.String("to", to.String()),
		slog.Int("failure_count", cb.failureCount),
		slog.Duration("reset_timeout", cb.config.ResetTimeout))
}

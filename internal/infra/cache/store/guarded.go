package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/sony/gobreaker"

	"skillgap-ai/internal/resilience/circuitbreaker"
)

// Guarded wraps a KVStore with a gobreaker circuit breaker.
// Repeated backend failures open the circuit and further calls return
// ErrUnavailable without touching the backend, so the cache degrades to
// memory-only. Misses and quota rejections are answers, not failures, and do
// not count toward tripping.
type Guarded struct {
	next  KVStore
	guard *circuitbreaker.Guard
}

// NewGuarded wraps next with guard. A nil guard uses StoreGuardConfig.
func NewGuarded(next KVStore, guard *circuitbreaker.Guard) *Guarded {
	if guard == nil {
		guard = circuitbreaker.NewGuard(circuitbreaker.StoreGuardConfig())
	}
	return &Guarded{next: next, guard: guard}
}

// Guard returns the breaker protecting the backend.
func (g *Guarded) Guard() *circuitbreaker.Guard {
	return g.guard
}

type guardedResult struct {
	value []byte
	keys  []string
	// answer is a non-failure error (ErrNotFound, ErrQuotaExceeded) passed through to the caller.
	answer error
}

func (g *Guarded) run(fn func() (guardedResult, error)) (guardedResult, error) {
	out, err := g.guard.Execute(func() (interface{}, error) {
		res, err := fn()
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrQuotaExceeded) {
			return guardedResult{answer: err}, nil
		}
		return res, err
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return guardedResult{}, fmt.Errorf("%w: %s: %v", ErrUnavailable, g.guard.Name(), err)
		}
		return guardedResult{}, err
	}
	res := out.(guardedResult)
	return res, res.answer
}

// Get implements KVStore.
func (g *Guarded) Get(ctx context.Context, key string) ([]byte, error) {
	res, err := g.run(func() (guardedResult, error) {
		v, err := g.next.Get(ctx, key)
		return guardedResult{value: v}, err
	})
	return res.value, err
}

// Set implements KVStore.
func (g *Guarded) Set(ctx context.Context, key string, value []byte) error {
	_, err := g.run(func() (guardedResult, error) {
		return guardedResult{}, g.next.Set(ctx, key, value)
	})
	return err
}

// Delete implements KVStore.
func (g *Guarded) Delete(ctx context.Context, key string) error {
	_, err := g.run(func() (guardedResult, error) {
		return guardedResult{}, g.next.Delete(ctx, key)
	})
	return err
}

// Keys implements KVStore.
func (g *Guarded) Keys(ctx context.Context, prefix string) ([]string, error) {
	res, err := g.run(func() (guardedResult, error) {
		keys, err := g.next.Keys(ctx, prefix)
		return guardedResult{keys: keys}, err
	})
	return res.keys, err
}

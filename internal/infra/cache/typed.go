package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Get returns the value cached under key decoded as T.
// An entry that no longer decodes as T is dropped and reported as a miss.
func Get[T any](ctx context.Context, m *Manager, key string) (T, bool) {
	var zero T

	raw, ok := m.GetRaw(ctx, key)
	if !ok {
		return zero, false
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		m.logPersistError(ctx, "decode", key, err)
		_ = m.Delete(ctx, key)
		return zero, false
	}
	return v, true
}

// Set caches value under key. A non-positive ttl uses the category default.
func Set[T any](ctx context.Context, m *Manager, key string, value T, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}
	return m.SetRaw(ctx, key, raw, ttl)
}

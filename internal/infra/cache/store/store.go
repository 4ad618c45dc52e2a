// Package store provides key-value backends for the persistent cache tier.
//
// A KVStore is a flat string-to-bytes map with prefix listing, the same shape
// as browser local storage. The cache manager owns serialization and TTL
// semantics; stores only persist bytes.
package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get when the key is absent.
	ErrNotFound = errors.New("store: key not found")

	// ErrQuotaExceeded is returned by Set when the store has no room for the value.
	ErrQuotaExceeded = errors.New("store: quota exceeded")

	// ErrUnavailable is returned when the store is temporarily unreachable.
	ErrUnavailable = errors.New("store: unavailable")
)

// KVStore is the persistent tier contract.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Keys returns all keys starting with prefix, in no particular order.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

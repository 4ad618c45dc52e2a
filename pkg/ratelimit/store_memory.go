package ratelimit

import (
	"context"
	"sync"
	"time"
)

// InMemoryRateLimitStore is a thread-safe in-memory RateLimitStore.
//
// When MaxKeys is reached the key with the oldest last access is evicted
// before a new key is admitted.
type InMemoryRateLimitStore struct {
	mu       sync.Mutex
	requests map[string]*timestampList
	maxKeys  int
}

type timestampList struct {
	timestamps []time.Time
	lastAccess time.Time
}

// InMemoryStoreConfig holds configuration for InMemoryRateLimitStore.
type InMemoryStoreConfig struct {
	// MaxKeys bounds the number of tracked keys. Default: 10000
	MaxKeys int
}

// NewInMemoryRateLimitStore creates a new in-memory store.
func NewInMemoryRateLimitStore(config InMemoryStoreConfig) *InMemoryRateLimitStore {
	if config.MaxKeys <= 0 {
		config.MaxKeys = 10000
	}
	return &InMemoryRateLimitStore{
		requests: make(map[string]*timestampList),
		maxKeys:  config.MaxKeys,
	}
}

// CheckAndAddRequest implements RateLimitStore. Expired timestamps for key are
// pruned as a side effect.
func (s *InMemoryRateLimitStore) CheckAndAddRequest(_ context.Context, key string, timestamp, cutoff time.Time, limit int) (bool, int, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, exists := s.requests[key]
	if exists {
		list.timestamps = pruneBefore(list.timestamps, cutoff)
	}

	count := 0
	var oldest time.Time
	if exists && len(list.timestamps) > 0 {
		count = len(list.timestamps)
		oldest = list.timestamps[0]
	}

	if count >= limit {
		return false, count, oldest, nil
	}

	if !exists {
		if len(s.requests) >= s.maxKeys {
			s.evictOldest()
		}
		list = &timestampList{}
		s.requests[key] = list
	}
	list.timestamps = append(list.timestamps, timestamp)
	list.lastAccess = timestamp
	if count == 0 {
		oldest = timestamp
	}
	return true, count + 1, oldest, nil
}

// GetWindow implements RateLimitStore.
func (s *InMemoryRateLimitStore) GetWindow(_ context.Context, key string, cutoff time.Time) (int, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.requests[key]
	if !ok {
		return 0, time.Time{}, nil
	}
	var (
		count  int
		oldest time.Time
	)
	for _, ts := range list.timestamps {
		if !ts.After(cutoff) {
			continue
		}
		if count == 0 {
			oldest = ts
		}
		count++
	}
	return count, oldest, nil
}

// evictOldest must be called with the lock held.
func (s *InMemoryRateLimitStore) evictOldest() {
	var (
		victim string
		oldest time.Time
		found  bool
	)
	for key, list := range s.requests {
		if !found || list.lastAccess.Before(oldest) {
			victim, oldest, found = key, list.lastAccess, true
		}
	}
	if found {
		delete(s.requests, victim)
	}
}

// pruneBefore drops timestamps not after cutoff. Timestamps are appended in
// order, so the kept ones form a suffix.
func pruneBefore(ts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return ts
	}
	return append(ts[:0], ts[i:]...)
}

package store

import (
	"context"
	"strings"
	"sync"
)

// Memory is an in-process KVStore with an optional byte quota.
// The quota counts key and value bytes, mirroring how browser storage limits are measured.
type Memory struct {
	mu       sync.RWMutex
	data     map[string][]byte
	used     int
	quota    int
	failNext error
}

// NewMemory creates a memory store. A quota of zero or less means unlimited.
func NewMemory(quota int) *Memory {
	return &Memory{
		data:  make(map[string][]byte),
		quota: quota,
	}
}

// Get implements KVStore.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Set implements KVStore. It returns ErrQuotaExceeded when the write would exceed the quota.
func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}

	size := len(key) + len(value)
	old, exists := m.data[key]
	projected := m.used + size
	if exists {
		projected -= len(key) + len(old)
	}
	if m.quota > 0 && projected > m.quota {
		return ErrQuotaExceeded
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	m.data[key] = stored
	m.used = projected
	return nil
}

// Delete implements KVStore. Deleting a missing key is not an error.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.data[key]; ok {
		m.used -= len(key) + len(old)
		delete(m.data, key)
	}
	return nil
}

// Keys implements KVStore.
func (m *Memory) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// Used returns the number of bytes currently stored.
func (m *Memory) Used() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.used
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// FailNextSet makes the next Set return err. Used to simulate storage faults.
func (m *Memory) FailNextSet(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = err
}

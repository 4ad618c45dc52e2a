// Package cache implements the two-tier result cache used by the skills orchestrator.
//
// The memory tier is a bounded map evicted by least recent hit. The persistent
// tier is any store.KVStore; every write is mirrored there as a JSON Entry under
// a namespace prefix, and persisted entries are promoted back into memory on
// read. Persistence is best effort: failures are logged and the cache keeps
// working from memory.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"skillgap-ai/internal/domain/entity"
	"skillgap-ai/internal/infra/cache/store"
	"skillgap-ai/internal/observability/logging"
	"skillgap-ai/internal/observability/metrics"
)

const (
	// DefaultMaxMemoryEntries bounds the memory tier.
	DefaultMaxMemoryEntries = 100
	// DefaultPrefix namespaces persisted entries.
	DefaultPrefix = "skillgap_cache_"

	tierMemory     = "memory"
	tierPersistent = "persistent"
)

var (
	// ErrEmptyKey is returned by Set for an empty key.
	ErrEmptyKey = errors.New("cache: empty key")

	errMalformedEntry = errors.New("cache: malformed entry")
)

// Config controls the cache manager.
type Config struct {
	// MaxMemoryEntries is the memory tier capacity. Zero means DefaultMaxMemoryEntries.
	MaxMemoryEntries int
	// Prefix is prepended to every persisted key.
	Prefix string
	// TTLs overrides DefaultTTLs per category.
	TTLs map[string]time.Duration
}

// DefaultConfig returns the production cache configuration.
func DefaultConfig() Config {
	return Config{
		MaxMemoryEntries: DefaultMaxMemoryEntries,
		Prefix:           DefaultPrefix,
	}
}

// Stats is a point-in-time view of cache effectiveness.
type Stats struct {
	Hits              uint64  `json:"hits"`
	Misses            uint64  `json:"misses"`
	Evictions         uint64  `json:"evictions"`
	MemoryEntries     int     `json:"memory_entries"`
	PersistentEntries int     `json:"persistent_entries"`
	HitRate           float64 `json:"hit_rate"`
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// Manager is the two-tier cache. It is safe for concurrent use; the mutex only
// covers the memory tier and is never held across persistent-store I/O.
type Manager struct {
	cfg     Config
	persist store.KVStore
	now     func() time.Time

	mu        sync.Mutex
	entries   map[string]*Entry
	hits      uint64
	misses    uint64
	evictions uint64
}

// NewManager creates a cache manager. persist may be nil for a memory-only cache.
func NewManager(cfg Config, persist store.KVStore, opts ...Option) *Manager {
	if cfg.MaxMemoryEntries <= 0 {
		cfg.MaxMemoryEntries = DefaultMaxMemoryEntries
	}
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	m := &Manager{
		cfg:     cfg,
		persist: persist,
		now:     time.Now,
		entries: make(map[string]*Entry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetRaw returns the JSON payload stored under key.
func (m *Manager) GetRaw(ctx context.Context, key string) (json.RawMessage, bool) {
	now := m.now()

	m.mu.Lock()
	if e, ok := m.entries[key]; ok {
		if !e.Expired(now) {
			e.touch(now)
			data := append(json.RawMessage(nil), e.Data...)
			m.hits++
			m.mu.Unlock()
			metrics.RecordCacheLookup(tierMemory, "hit")
			return data, true
		}
		m.removeLocked(key, "expired")
		metrics.RecordCacheLookup(tierMemory, "expired")
	} else {
		metrics.RecordCacheLookup(tierMemory, "miss")
	}
	m.mu.Unlock()

	if e := m.loadPersisted(ctx, key, now); e != nil {
		e.touch(now)
		data := append(json.RawMessage(nil), e.Data...)

		m.mu.Lock()
		m.insertLocked(e.clone())
		m.hits++
		m.mu.Unlock()

		metrics.RecordCacheLookup(tierPersistent, "hit")
		m.writeBack(ctx, e)
		return data, true
	}

	m.mu.Lock()
	m.misses++
	m.mu.Unlock()
	return nil, false
}

// SetRaw stores data under key for ttl. A non-positive ttl uses the category default.
// Persistence failures are logged, never returned.
func (m *Manager) SetRaw(ctx context.Context, key string, data json.RawMessage, ttl time.Duration) error {
	if key == "" {
		return ErrEmptyKey
	}
	if !json.Valid(data) {
		return fmt.Errorf("cache: value for %s is not valid JSON", key)
	}
	if ttl <= 0 {
		ttl = m.ttlFor(key)
	}

	now := m.now()
	e := &Entry{
		Key:       key,
		Data:      append(json.RawMessage(nil), data...),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		LastHitAt: now,
	}

	m.mu.Lock()
	m.insertLocked(e)
	mirror := e.clone()
	m.mu.Unlock()

	m.persistEntry(ctx, mirror)
	return nil
}

// Has reports whether an unexpired entry exists for key without counting a hit.
func (m *Manager) Has(ctx context.Context, key string) bool {
	now := m.now()

	m.mu.Lock()
	if e, ok := m.entries[key]; ok && !e.Expired(now) {
		m.mu.Unlock()
		return true
	}
	m.mu.Unlock()

	return m.loadPersisted(ctx, key, now) != nil
}

// Delete removes key from both tiers.
func (m *Manager) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	m.removeLocked(key, "")
	m.mu.Unlock()

	if m.persist == nil {
		return nil
	}
	if err := m.persist.Delete(ctx, m.storageKey(key)); err != nil {
		return fmt.Errorf("cache: delete %s: %w", key, err)
	}
	return nil
}

// Clear removes every entry from both tiers.
func (m *Manager) Clear(ctx context.Context) error {
	_, err := m.ClearByPrefix(ctx, "")
	return err
}

// ClearByPrefix removes every entry whose key starts with prefix and returns
// the number of distinct keys removed.
func (m *Manager) ClearByPrefix(ctx context.Context, prefix string) (int, error) {
	removed := make(map[string]struct{})

	m.mu.Lock()
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			m.removeLocked(k, "")
			removed[k] = struct{}{}
		}
	}
	m.mu.Unlock()

	if m.persist == nil {
		return len(removed), nil
	}

	keys, err := m.persist.Keys(ctx, m.storageKey(prefix))
	if err != nil {
		return len(removed), fmt.Errorf("cache: list persisted keys: %w", err)
	}
	var errs []error
	for _, k := range keys {
		if err := m.persist.Delete(ctx, k); err != nil {
			errs = append(errs, err)
			continue
		}
		removed[strings.TrimPrefix(k, m.cfg.Prefix)] = struct{}{}
	}
	return len(removed), errors.Join(errs...)
}

// PurgeExpired drops expired entries from both tiers and returns how many
// distinct keys were removed. Unreadable persisted records are dropped too.
func (m *Manager) PurgeExpired(ctx context.Context) (int, error) {
	now := m.now()
	removed := make(map[string]struct{})

	m.mu.Lock()
	for k, e := range m.entries {
		if e.Expired(now) {
			m.removeLocked(k, "expired")
			removed[k] = struct{}{}
		}
	}
	m.mu.Unlock()

	if m.persist == nil {
		return len(removed), nil
	}

	keys, err := m.persist.Keys(ctx, m.cfg.Prefix)
	if err != nil {
		return len(removed), fmt.Errorf("cache: list persisted keys: %w", err)
	}
	var errs []error
	for _, k := range keys {
		raw, err := m.persist.Get(ctx, k)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				errs = append(errs, err)
			}
			continue
		}
		if e, err := decodeEntry(raw); err == nil && !e.Expired(now) {
			continue
		}
		if err := m.persist.Delete(ctx, k); err != nil {
			errs = append(errs, err)
			continue
		}
		m.countEviction("expired")
		removed[strings.TrimPrefix(k, m.cfg.Prefix)] = struct{}{}
	}
	return len(removed), errors.Join(errs...)
}

// Stats returns current counters. PersistentEntries is zero when the
// persistent tier is absent or unreachable.
func (m *Manager) Stats(ctx context.Context) Stats {
	m.mu.Lock()
	s := Stats{
		Hits:          m.hits,
		Misses:        m.misses,
		Evictions:     m.evictions,
		MemoryEntries: len(m.entries),
	}
	m.mu.Unlock()

	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}

	if m.persist != nil {
		keys, err := m.persist.Keys(ctx, m.cfg.Prefix)
		if err != nil {
			m.logPersistError(ctx, "stats", "", err)
		} else {
			s.PersistentEntries = len(keys)
			metrics.UpdateCacheEntries(tierPersistent, len(keys))
		}
	}
	return s
}

func (m *Manager) storageKey(key string) string {
	return m.cfg.Prefix + key
}

func (m *Manager) ttlFor(key string) time.Duration {
	category := CategoryOf(key)
	if ttl, ok := m.cfg.TTLs[category]; ok && ttl > 0 {
		return ttl
	}
	return TTLFor(category)
}

// insertLocked adds e to memory, evicting the least recently hit entry when full.
func (m *Manager) insertLocked(e *Entry) {
	if _, exists := m.entries[e.Key]; !exists && len(m.entries) >= m.cfg.MaxMemoryEntries {
		m.evictOldestLocked()
	}
	m.entries[e.Key] = e
	metrics.UpdateCacheEntries(tierMemory, len(m.entries))
}

func (m *Manager) evictOldestLocked() {
	var victim *Entry
	for _, e := range m.entries {
		if victim == nil || olderHit(e, victim) {
			victim = e
		}
	}
	if victim != nil {
		m.removeLocked(victim.Key, "capacity")
	}
}

// olderHit orders by LastHitAt, then CreatedAt, then key so eviction is deterministic.
func olderHit(a, b *Entry) bool {
	if !a.LastHitAt.Equal(b.LastHitAt) {
		return a.LastHitAt.Before(b.LastHitAt)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.Key < b.Key
}

// removeLocked deletes key from memory. A non-empty reason counts as an eviction.
func (m *Manager) removeLocked(key, reason string) {
	if _, ok := m.entries[key]; !ok {
		return
	}
	delete(m.entries, key)
	if reason != "" {
		m.evictions++
		metrics.RecordCacheEviction(reason)
	}
	metrics.UpdateCacheEntries(tierMemory, len(m.entries))
}

func (m *Manager) countEviction(reason string) {
	m.mu.Lock()
	m.evictions++
	m.mu.Unlock()
	metrics.RecordCacheEviction(reason)
}

// loadPersisted reads key from the persistent tier. Stale or unreadable
// records are deleted and reported as absent.
func (m *Manager) loadPersisted(ctx context.Context, key string, now time.Time) *Entry {
	if m.persist == nil {
		return nil
	}
	skey := m.storageKey(key)

	raw, err := m.persist.Get(ctx, skey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			metrics.RecordCacheLookup(tierPersistent, "miss")
		} else {
			m.logPersistError(ctx, "read", key, err)
		}
		return nil
	}

	e, err := decodeEntry(raw)
	if err != nil || e.Key != key {
		m.logPersistError(ctx, "decode", key, errMalformedEntry)
		_ = m.persist.Delete(ctx, skey)
		return nil
	}
	if e.Expired(now) {
		metrics.RecordCacheLookup(tierPersistent, "expired")
		if err := m.persist.Delete(ctx, skey); err == nil {
			m.countEviction("expired")
		}
		return nil
	}
	return e
}

// persistEntry mirrors e into the persistent tier. On a write failure the
// oldest persisted entry is evicted and the write retried once.
func (m *Manager) persistEntry(ctx context.Context, e *Entry) {
	if m.persist == nil {
		return
	}
	raw, err := json.Marshal(e)
	if err != nil {
		m.logPersistError(ctx, "encode", e.Key, err)
		return
	}
	skey := m.storageKey(e.Key)

	err = m.persist.Set(ctx, skey, raw)
	if err == nil {
		return
	}
	if !errors.Is(err, store.ErrUnavailable) && m.evictOldestPersisted(ctx, skey) {
		if err = m.persist.Set(ctx, skey, raw); err == nil {
			return
		}
	}
	m.logPersistError(ctx, "write", e.Key, err)
}

// writeBack stores updated hit counters for a promoted entry.
func (m *Manager) writeBack(ctx context.Context, e *Entry) {
	raw, err := json.Marshal(e)
	if err != nil {
		return
	}
	if err := m.persist.Set(ctx, m.storageKey(e.Key), raw); err != nil {
		m.logPersistError(ctx, "write_back", e.Key, err)
	}
}

// evictOldestPersisted deletes the persisted entry with the oldest CreatedAt,
// skipping exclude. Unreadable records are treated as oldest.
func (m *Manager) evictOldestPersisted(ctx context.Context, exclude string) bool {
	keys, err := m.persist.Keys(ctx, m.cfg.Prefix)
	if err != nil {
		return false
	}

	var (
		victim  string
		oldest  time.Time
		matched bool
	)
	for _, k := range keys {
		if k == exclude {
			continue
		}
		raw, err := m.persist.Get(ctx, k)
		if err != nil {
			continue
		}
		var created time.Time
		if e, err := decodeEntry(raw); err == nil {
			created = e.CreatedAt
		}
		if !matched || created.Before(oldest) {
			victim, oldest, matched = k, created, true
		}
	}
	if !matched {
		return false
	}
	if err := m.persist.Delete(ctx, victim); err != nil {
		return false
	}
	m.countEviction("quota")
	return true
}

func (m *Manager) logPersistError(ctx context.Context, op, key string, err error) {
	logging.FromContext(ctx).Warn("cache persistence failed",
		slog.String("code", string(entity.CodeCache)),
		slog.String("op", op),
		slog.String("key", key),
		slog.Any("error", err))
}

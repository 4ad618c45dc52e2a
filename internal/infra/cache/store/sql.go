package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"skillgap-ai/internal/observability/metrics"
)

// Dialect selects placeholder syntax for the SQL store.
type Dialect int

const (
	// Postgres uses $n placeholders (pgx stdlib driver).
	Postgres Dialect = iota
	// SQLite uses ? placeholders (modernc.org/sqlite driver).
	SQLite
)

// SQL is a KVStore backed by the ai_cache table.
// The schema is created by db.MigrateUp.
type SQL struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time

	getQuery    string
	upsertQuery string
	deleteQuery string
	keysQuery   string
}

// NewSQL creates a SQL store on an open connection pool.
func NewSQL(db *sql.DB, dialect Dialect) *SQL {
	s := &SQL{db: db, dialect: dialect, now: time.Now}
	s.getQuery = "SELECT value FROM ai_cache WHERE cache_key = " + s.ph(1)
	s.upsertQuery = "INSERT INTO ai_cache (cache_key, value, updated_at) VALUES (" +
		s.ph(1) + ", " + s.ph(2) + ", " + s.ph(3) + ") " +
		"ON CONFLICT (cache_key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at"
	s.deleteQuery = "DELETE FROM ai_cache WHERE cache_key = " + s.ph(1)
	s.keysQuery = "SELECT cache_key FROM ai_cache WHERE cache_key LIKE " + s.ph(1) + ` ESCAPE '\'`
	return s
}

func (s *SQL) ph(n int) string {
	if s.dialect == SQLite {
		return "?"
	}
	return fmt.Sprintf("$%d", n)
}

// Get implements KVStore.
func (s *SQL) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	defer func() { metrics.RecordStoreOperation("get", time.Since(start)) }()

	var value string
	err := s.db.QueryRowContext(ctx, s.getQuery, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sql store get: %w", err)
	}
	return []byte(value), nil
}

// Set implements KVStore.
func (s *SQL) Set(ctx context.Context, key string, value []byte) error {
	start := time.Now()
	defer func() { metrics.RecordStoreOperation("set", time.Since(start)) }()

	if _, err := s.db.ExecContext(ctx, s.upsertQuery, key, string(value), s.now().UTC()); err != nil {
		return fmt.Errorf("sql store set: %w", err)
	}
	return nil
}

// Delete implements KVStore.
func (s *SQL) Delete(ctx context.Context, key string) error {
	start := time.Now()
	defer func() { metrics.RecordStoreOperation("delete", time.Since(start)) }()

	if _, err := s.db.ExecContext(ctx, s.deleteQuery, key); err != nil {
		return fmt.Errorf("sql store delete: %w", err)
	}
	return nil
}

// Keys implements KVStore.
func (s *SQL) Keys(ctx context.Context, prefix string) ([]string, error) {
	start := time.Now()
	defer func() { metrics.RecordStoreOperation("keys", time.Since(start)) }()

	rows, err := s.db.QueryContext(ctx, s.keysQuery, likePrefix(prefix))
	if err != nil {
		return nil, fmt.Errorf("sql store keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("sql store keys scan: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sql store keys: %w", err)
	}
	return keys, nil
}

// likePrefix escapes LIKE wildcards in prefix and appends %.
func likePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix) + "%"
}

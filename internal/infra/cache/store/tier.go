package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"skillgap-ai/internal/infra/db"
	"skillgap-ai/internal/resilience/circuitbreaker"
	"skillgap-ai/internal/resilience/retry"
)

// Tier is an opened, migrated persistent cache tier.
type Tier struct {
	Name  string // "postgres" or "sqlite"
	DB    *sql.DB
	Store *Guarded
}

// OpenTier opens the named tier with a short retry, creates the cache table
// and wraps the store in a circuit breaker. For "sqlite" the target is a file path,
// for "postgres" a connection URL.
func OpenTier(ctx context.Context, name, target string) (*Tier, error) {
	var (
		driver, dsn string
		dialect     Dialect
	)
	switch name {
	case "postgres":
		driver, dsn, dialect = db.DriverPostgres, target, Postgres
	case "sqlite":
		driver, dsn, dialect = db.DriverSQLite, db.SQLiteDSN(target), SQLite
	default:
		return nil, fmt.Errorf("unknown persistent tier %q", name)
	}

	// Connection failures at startup are usually a database still coming up.
	policy := retry.StoreConfig()
	policy.Classify = func(error) (bool, time.Duration) { return true, 0 }

	var conn *sql.DB
	err := retry.WithBackoff(ctx, policy, func(int) error {
		var err error
		conn, err = db.Open(ctx, driver, dsn)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("open %s tier: %w", name, err)
	}
	if err := db.MigrateUp(conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migrate %s tier: %w", name, err)
	}

	return &Tier{
		Name:  name,
		DB:    conn,
		Store: NewGuarded(NewSQL(conn, dialect), circuitbreaker.NewGuard(circuitbreaker.StoreGuardConfig())),
	}, nil
}

// KVStore returns the tier as a store. A nil tier yields a nil interface,
// never a typed nil.
func (t *Tier) KVStore() KVStore {
	if t == nil || t.Store == nil {
		return nil
	}
	return t.Store
}

// Guard returns the tier's breaker, or nil.
func (t *Tier) Guard() *circuitbreaker.Guard {
	if t == nil || t.Store == nil {
		return nil
	}
	return t.Store.Guard()
}

// Close releases the database handle.
func (t *Tier) Close() error {
	if t == nil || t.DB == nil {
		return nil
	}
	return t.DB.Close()
}

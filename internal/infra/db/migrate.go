package db

import (
	"database/sql"
)

// CacheTable is the table backing the persistent cache tier.
const CacheTable = "ai_cache"

// MigrateUp creates the persistent cache schema.
// The statements are portable between PostgreSQL and SQLite.
func MigrateUp(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS ai_cache (
    cache_key  TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL
)`); err != nil {
		return err
	}

	indexes := []string{
		// 最終更新日時での期限切れ走査用
		`CREATE INDEX IF NOT EXISTS idx_ai_cache_updated_at ON ai_cache(updated_at)`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}

	return nil
}

// MigrateDown drops the persistent cache schema.
func MigrateDown(db *sql.DB) error {
	statements := []string{
		`DROP INDEX IF EXISTS idx_ai_cache_updated_at`,
		`DROP TABLE IF EXISTS ai_cache`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

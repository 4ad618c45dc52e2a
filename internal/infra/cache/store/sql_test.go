package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"sort"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillgap-ai/internal/infra/db"
)

func TestSQL_Get(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	s := NewSQL(conn, Postgres)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT value FROM ai_cache WHERE cache_key = $1")).
		WithArgs("k1").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(`{"a":1}`))

	v, err := s.Get(context.Background(), "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"a":1}`), v)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQL_Get_NotFound(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	s := NewSQL(conn, Postgres)

	mock.ExpectQuery("SELECT value FROM ai_cache").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err = s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQL_Set_Postgres(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	s := NewSQL(conn, Postgres)
	fixed := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO ai_cache (cache_key, value, updated_at) VALUES ($1, $2, $3) ON CONFLICT (cache_key) DO UPDATE")).
		WithArgs("k1", `{"a":1}`, fixed).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Set(context.Background(), "k1", []byte(`{"a":1}`)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQL_Set_SQLitePlaceholders(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	s := NewSQL(conn, SQLite)

	mock.ExpectExec(regexp.QuoteMeta("VALUES (?, ?, ?)")).
		WithArgs("k1", "v", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Set(context.Background(), "k1", []byte("v")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQL_Set_Error(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	s := NewSQL(conn, Postgres)
	boom := errors.New("connection lost")
	mock.ExpectExec("INSERT INTO ai_cache").WillReturnError(boom)

	err = s.Set(context.Background(), "k", []byte("v"))
	assert.ErrorIs(t, err, boom)
}

func TestSQL_Delete(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	s := NewSQL(conn, Postgres)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM ai_cache WHERE cache_key = $1")).
		WithArgs("k1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Delete(context.Background(), "k1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQL_Keys_EscapesWildcards(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	s := NewSQL(conn, Postgres)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT cache_key FROM ai_cache WHERE cache_key LIKE $1")).
		WithArgs(`skillgap\_cache\_%`).
		WillReturnRows(sqlmock.NewRows([]string{"cache_key"}).
			AddRow("skillgap_cache_a").
			AddRow("skillgap_cache_b"))

	keys, err := s.Keys(context.Background(), "skillgap_cache_")
	require.NoError(t, err)
	assert.Equal(t, []string{"skillgap_cache_a", "skillgap_cache_b"}, keys)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLikePrefix(t *testing.T) {
	assert.Equal(t, `a\%b\_c\\d%`, likePrefix(`a%b_c\d`))
	assert.Equal(t, "%", likePrefix(""))
}

func TestSQL_SQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	conn, err := db.Open(ctx, db.DriverSQLite, "file:store_roundtrip?mode=memory&cache=shared")
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()
	require.NoError(t, db.MigrateUp(conn))

	s := NewSQL(conn, SQLite)

	require.NoError(t, s.Set(ctx, "skillgap_cache_x:1", []byte("one")))
	require.NoError(t, s.Set(ctx, "skillgap_cache_x:1", []byte("uno")))
	require.NoError(t, s.Set(ctx, "skillgap_cache_y:2", []byte("two")))
	require.NoError(t, s.Set(ctx, "skillgapXcache_z", []byte("not matched by escaped underscore")))

	v, err := s.Get(ctx, "skillgap_cache_x:1")
	require.NoError(t, err)
	assert.Equal(t, "uno", string(v))

	keys, err := s.Keys(ctx, "skillgap_cache_")
	require.NoError(t, err)
	sort.Strings(keys)
	assert.Equal(t, []string{"skillgap_cache_x:1", "skillgap_cache_y:2"}, keys)

	require.NoError(t, s.Delete(ctx, "skillgap_cache_x:1"))
	_, err = s.Get(ctx, "skillgap_cache_x:1")
	assert.ErrorIs(t, err, ErrNotFound)
}

package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenTier_SQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	tier, err := OpenTier(ctx, "sqlite", path)
	require.NoError(t, err)
	defer func() { _ = tier.Close() }()

	assert.Equal(t, "sqlite", tier.Name)
	require.NotNil(t, tier.Guard())
	assert.False(t, tier.Guard().IsOpen())

	kv := tier.KVStore()
	require.NotNil(t, kv)
	require.NoError(t, kv.Set(ctx, "k", []byte("v")))
	v, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(v))
}

func TestOpenTier_UnknownName(t *testing.T) {
	_, err := OpenTier(context.Background(), "redis", "localhost:6379")
	assert.ErrorContains(t, err, `unknown persistent tier "redis"`)
}

func TestTier_NilSafe(t *testing.T) {
	var tier *Tier
	assert.Nil(t, tier.KVStore())
	assert.Nil(t, tier.Guard())
	assert.NoError(t, tier.Close())
}

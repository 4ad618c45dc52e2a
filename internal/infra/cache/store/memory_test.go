package store

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0)

	_, err := m.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Set(ctx, "a", []byte("1")))
	v, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)

	require.NoError(t, m.Delete(ctx, "a"))
	require.NoError(t, m.Delete(ctx, "a"))
	_, err = m.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, m.Used())
}

func TestMemory_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0)
	require.NoError(t, m.Set(ctx, "k", []byte("abc")))

	v, _ := m.Get(ctx, "k")
	v[0] = 'z'

	again, _ := m.Get(ctx, "k")
	assert.Equal(t, []byte("abc"), again)
}

func TestMemory_Quota(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10)

	require.NoError(t, m.Set(ctx, "a", []byte("1234"))) // 5 bytes
	require.NoError(t, m.Set(ctx, "b", []byte("1234"))) // 10 bytes
	assert.ErrorIs(t, m.Set(ctx, "c", []byte("1")), ErrQuotaExceeded)

	// Overwriting an existing key only counts the difference.
	require.NoError(t, m.Set(ctx, "a", []byte("12")))
	assert.Equal(t, 8, m.Used())
	require.NoError(t, m.Set(ctx, "c", []byte("1")))
	assert.Equal(t, 10, m.Used())
}

func TestMemory_Keys(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0)
	for _, k := range []string{"skillgap_cache_extract:1", "skillgap_cache_gaps:2", "other"} {
		require.NoError(t, m.Set(ctx, k, []byte("x")))
	}

	keys, err := m.Keys(ctx, "skillgap_cache_")
	require.NoError(t, err)
	sort.Strings(keys)
	assert.Equal(t, []string{"skillgap_cache_extract:1", "skillgap_cache_gaps:2"}, keys)
	assert.Equal(t, 3, m.Len())
}

func TestMemory_FailNextSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0)
	boom := errors.New("disk on fire")

	m.FailNextSet(boom)
	assert.ErrorIs(t, m.Set(ctx, "k", []byte("v")), boom)
	assert.NoError(t, m.Set(ctx, "k", []byte("v")))
}

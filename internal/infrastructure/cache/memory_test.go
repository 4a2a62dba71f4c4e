package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hromada-tools/backoffice/internal/infrastructure/cache"
)

func TestMemory_SetGet(t *testing.T) {
	store := cache.NewMemory()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "key", []byte("value"), time.Minute))

	value, ok, err := store.Get(ctx, "key")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("value"), value)

	_, ok, err = store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_ExpiryIsAMiss(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	store := cache.NewMemoryWithClock(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "key", []byte("value"), 5*time.Minute))

	now = now.Add(5 * time.Minute)
	_, ok, err := store.Get(ctx, "key")
	require.NoError(t, err)
	assert.True(t, ok, "entry is still fresh exactly at the deadline")

	now = now.Add(time.Second)
	_, ok, err = store.Get(ctx, "key")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_Delete(t *testing.T) {
	store := cache.NewMemory()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "key", []byte("value"), time.Minute))
	require.NoError(t, store.Delete(ctx, "key"))

	_, ok, err := store.Get(ctx, "key")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting a missing key is a no-op.
	require.NoError(t, store.Delete(ctx, "key"))
}

func TestMemory_Clear(t *testing.T) {
	store := cache.NewMemory()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, store.Set(ctx, "b", []byte("2"), time.Minute))
	require.NoError(t, store.Clear(ctx))

	for _, key := range []string{"a", "b"} {
		_, ok, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestMemory_SetCopiesValue(t *testing.T) {
	store := cache.NewMemory()
	ctx := context.Background()

	original := []byte("value")
	require.NoError(t, store.Set(ctx, "key", original, time.Minute))
	original[0] = 'X'

	value, ok, err := store.Get(ctx, "key")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("value"), value)
}

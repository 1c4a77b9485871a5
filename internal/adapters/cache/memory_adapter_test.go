package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/productar/internal/domain/providers"
)

func TestMemoryAdapter_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryAdapter(8, time.Hour)

	_, err := cache.Get(ctx, "catalog:document")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)

	require.NoError(t, cache.Set(ctx, "catalog:document", []byte("{}"), time.Minute))
	got, err := cache.Get(ctx, "catalog:document")
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), got)

	require.NoError(t, cache.Delete(ctx, "catalog:document"))
	_, err = cache.Get(ctx, "catalog:document")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)
}

func TestMemoryAdapter_EntryExpiresAtOwnTTL(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryAdapter(8, time.Hour)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	require.NoError(t, cache.Set(ctx, "k", []byte("v"), 5*time.Second))

	now = now.Add(4 * time.Second)
	_, err := cache.Get(ctx, "k")
	assert.NoError(t, err)

	now = now.Add(time.Second)
	_, err = cache.Get(ctx, "k")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)
}

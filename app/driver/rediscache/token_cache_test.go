package rediscache

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*TokenCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cache, err := New(context.Background(), mr.Addr(), "", 0, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	return cache, mr
}

func TestTokenCache_RoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.StoreToken(ctx, "ory_st_abc123"))

	token, err := cache.LoadToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ory_st_abc123", token)
}

func TestTokenCache_LoadMissingTokenIsEmpty(t *testing.T) {
	cache, _ := newTestCache(t)

	token, err := cache.LoadToken(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, token)
}

func TestTokenCache_Clear(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.StoreToken(ctx, "ory_st_abc123"))
	require.NoError(t, cache.Clear(ctx))

	token, err := cache.LoadToken(ctx)
	assert.NoError(t, err)
	assert.Empty(t, token)
}

func TestTokenCache_ClearIsIdempotent(t *testing.T) {
	cache, _ := newTestCache(t)

	assert.NoError(t, cache.Clear(context.Background()))
}

func TestTokenCache_StoreSetsExpiry(t *testing.T) {
	cache, mr := newTestCache(t)

	require.NoError(t, cache.StoreToken(context.Background(), "ory_st_abc123"))
	assert.Positive(t, mr.TTL(tokenKey))
}

func TestTokenCache_RedisDownSurfacesError(t *testing.T) {
	cache, mr := newTestCache(t)
	mr.Close()

	_, err := cache.LoadToken(context.Background())
	assert.Error(t, err)

	assert.Error(t, cache.StoreToken(context.Background(), "tok"))
}

func TestNew_UnreachableRedis(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cache, err := New(context.Background(), "127.0.0.1:1", "", 0, logger)
	assert.Error(t, err)
	assert.Nil(t, cache)
}

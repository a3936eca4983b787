package affiliation

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCache(client), mr
}

func TestCacheKey(t *testing.T) {
	require.Equal(t, "affiliation:v1:u:7:p:fleet.view", CacheKey(7, "fleet.view", nil))
	require.Equal(t,
		"affiliation:v1:u:7:p:fleet.view:r:Accountant|Director",
		CacheKey(7, "fleet.view", ParseRoleFilter("director|accountant")),
	)
	// Filter order never changes the key.
	require.Equal(t,
		CacheKey(7, "fleet.view", ParseRoleFilter("director|accountant")),
		CacheKey(7, "fleet.view", ParseRoleFilter("accountant|director")),
	)
}

func TestRedisCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	set := NewEntitySet(Character(1), Corporation(100), Alliance(1000))
	key := CacheKey(7, "fleet.view", nil)

	_, hit, err := cache.Get(ctx, key)
	require.NoError(t, err)
	require.False(t, hit)

	require.NoError(t, cache.Put(ctx, key, set, time.Minute, TagUser(7), TagRules))

	got, hit, err := cache.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, hit)
	require.True(t, got.Equal(set))
}

func TestRedisCacheInvalidateUserTag(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	keyA := CacheKey(7, "fleet.view", nil)
	keyB := CacheKey(8, "fleet.view", nil)

	require.NoError(t, cache.Put(ctx, keyA, NewEntitySet(Character(1)), time.Minute, TagUser(7), TagRules))
	require.NoError(t, cache.Put(ctx, keyB, NewEntitySet(Character(2)), time.Minute, TagUser(8), TagRules))

	require.NoError(t, cache.InvalidateTags(ctx, TagUser(7)))

	_, hit, err := cache.Get(ctx, keyA)
	require.NoError(t, err)
	require.False(t, hit)

	_, hit, err = cache.Get(ctx, keyB)
	require.NoError(t, err)
	require.True(t, hit)
}

func TestRedisCacheInvalidateRulesTagSweepsEverything(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	keyA := CacheKey(7, "fleet.view", nil)
	keyB := CacheKey(8, "assets.view", ParseRoleFilter("director"))

	require.NoError(t, cache.Put(ctx, keyA, NewEntitySet(Character(1)), time.Minute, TagUser(7), TagRules))
	require.NoError(t, cache.Put(ctx, keyB, NewEntitySet(Character(2)), time.Minute, TagUser(8), TagRules))

	require.NoError(t, cache.InvalidateTags(ctx, TagRules))

	for _, key := range []string{keyA, keyB} {
		_, hit, err := cache.Get(ctx, key)
		require.NoError(t, err)
		require.False(t, hit)
	}
}

func TestRedisCacheEntryExpires(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()
	key := CacheKey(7, "fleet.view", nil)

	require.NoError(t, cache.Put(ctx, key, NewEntitySet(Character(1)), time.Minute, TagUser(7)))

	mr.FastForward(2 * time.Minute)

	_, hit, err := cache.Get(ctx, key)
	require.NoError(t, err)
	require.False(t, hit)

	// Tag invalidation tolerates members that already expired.
	require.NoError(t, cache.InvalidateTags(ctx, TagUser(7)))
}

func TestNoopCache(t *testing.T) {
	var cache NoopCache
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "k", NewEntitySet(Character(1)), time.Minute, TagRules))
	_, hit, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, hit)
	require.NoError(t, cache.InvalidateTags(ctx, TagRules))
}

package store

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/AnandSundar/go-likecache"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a mock Redis server for testing
func setupTestRedis(t *testing.T, opts ...RedisOption) (*RedisStore, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	store := NewRedisStore(client, opts...)

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return store, mr
}

func TestRedisStore_SetAndGet(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	checked := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entry := &likecache.Entry{
		UserLiked:   true,
		LikesCount:  12,
		LastChecked: checked,
	}

	err := store.Set(ctx, "post-1", entry)
	require.NoError(t, err)
	assert.True(t, mr.Exists(DefaultKeyPrefix+"post-1"))

	cached, err := store.Get(ctx, "post-1")
	require.NoError(t, err)
	assert.True(t, cached.UserLiked)
	assert.Equal(t, 12, cached.LikesCount)
	assert.True(t, checked.Equal(cached.LastChecked))
}

func TestRedisStore_GetNotFound(t *testing.T) {
	store, _ := setupTestRedis(t)

	_, err := store.Get(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, likecache.ErrNotFound)
}

func TestRedisStore_CorruptValue(t *testing.T) {
	store, mr := setupTestRedis(t)

	require.NoError(t, mr.Set(DefaultKeyPrefix+"post-1", "not json"))

	_, err := store.Get(context.Background(), "post-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, likecache.ErrNotFound)
}

func TestRedisStore_NoRetentionByDefault(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "post-1", &likecache.Entry{LikesCount: 1}))

	mr.FastForward(48 * time.Hour)

	_, err := store.Get(ctx, "post-1")
	assert.NoError(t, err)
}

func TestRedisStore_Retention(t *testing.T) {
	store, mr := setupTestRedis(t, WithRetention(time.Hour))
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "post-1", &likecache.Entry{LikesCount: 1}))

	// Fast-forward time in miniredis
	mr.FastForward(61 * time.Minute)

	_, err := store.Get(ctx, "post-1")
	assert.ErrorIs(t, err, likecache.ErrNotFound)
}

func TestRedisStore_Delete(t *testing.T) {
	store, _ := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "post-1", &likecache.Entry{LikesCount: 1}))
	require.NoError(t, store.Delete(ctx, "post-1"))
	require.NoError(t, store.Delete(ctx, "post-1"))

	_, err := store.Get(ctx, "post-1")
	assert.ErrorIs(t, err, likecache.ErrNotFound)
}

func TestRedisStore_ClearOnlyTouchesPrefix(t *testing.T) {
	store, mr := setupTestRedis(t, WithKeyPrefix("club:likes:"))
	ctx := context.Background()

	// more than one pipeline round
	for i := 0; i < 450; i++ {
		require.NoError(t, store.Set(ctx, "post-"+strconv.Itoa(i), &likecache.Entry{LikesCount: i}))
	}
	require.NoError(t, mr.Set("session:abc", "keep me"))

	require.NoError(t, store.Clear(ctx))

	assert.Equal(t, []string{"session:abc"}, mr.Keys())
}

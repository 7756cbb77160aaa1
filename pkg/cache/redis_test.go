package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *RedisCache {
	t.Helper()

	c, err := NewRedisCache(context.Background(), &RedisConfig{
		Host:        "localhost",
		Port:        6379,
		DB:          15,
		PoolSize:    5,
		DialTimeout: time.Second,
	})
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	require.NoError(t, c.FlushDB(context.Background()))
	t.Cleanup(func() {
		_ = c.FlushDB(context.Background())
		_ = c.Close()
	})
	return c
}

func TestRedisCache_SetGet(t *testing.T) {
	c := setupTestRedis(t)
	ctx := context.Background()

	type payload struct {
		Name string `json:"name"`
	}
	require.NoError(t, c.Set(ctx, "k", payload{Name: "asha"}, time.Minute))

	var got payload
	require.NoError(t, c.Get(ctx, "k", &got))
	assert.Equal(t, "asha", got.Name)

	err := c.Get(ctx, "missing", &got)
	assert.True(t, IsMiss(err))
}

func TestRedisCache_Lock(t *testing.T) {
	c := setupTestRedis(t)
	ctx := context.Background()

	lock, err := c.Lock(ctx, "lock:issue:1", time.Second)
	require.NoError(t, err)

	_, err = c.Lock(ctx, "lock:issue:1", time.Second)
	assert.ErrorIs(t, err, ErrLockNotAcquired)

	stale := &DistributedLock{Key: lock.Key, Value: "someone-else"}
	assert.ErrorIs(t, c.Unlock(ctx, stale), ErrLockNotHeld)

	require.NoError(t, c.Unlock(ctx, lock))

	again, err := c.Lock(ctx, "lock:issue:1", time.Second)
	require.NoError(t, err)
	require.NoError(t, c.Unlock(ctx, again))
}

func TestRedisCache_IncrementWindow(t *testing.T) {
	c := setupTestRedis(t)
	ctx := context.Background()

	count, ttl, err := c.IncrementWindow(ctx, "rate_limit:u1", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, time.Hour, ttl)

	count, ttl, err = c.IncrementWindow(ctx, "rate_limit:u1", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Greater(t, ttl, 59*time.Minute)
}

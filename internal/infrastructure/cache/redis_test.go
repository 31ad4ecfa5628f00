package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/taskmgr/taskmgr-api/internal/infrastructure/config"
)

func setupTestRedis(t *testing.T) (*redisCache, *miniredis.Miniredis, func()) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	cfg := &config.RedisConfig{
		URL:          mr.Addr(),
		DB:           0,
		PoolSize:     5,
		MinIdleConns: 1,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	cache, err := NewRedisCache(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	rc := cache.(*redisCache)

	cleanup := func() {
		cache.Close()
		mr.Close()
	}

	return rc, mr, cleanup
}

func TestNewRedisCache(t *testing.T) {
	t.Run("successful creation", func(t *testing.T) {
		cache, _, cleanup := setupTestRedis(t)
		defer cleanup()

		assert.NotNil(t, cache)
		assert.NotNil(t, cache.client)
	})

	t.Run("nil logger", func(t *testing.T) {
		cfg := &config.RedisConfig{URL: "localhost:6379"}
		_, err := NewRedisCache(cfg, nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "logger is required")
	})

	t.Run("nil config", func(t *testing.T) {
		_, err := NewRedisCache(nil, zaptest.NewLogger(t))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "redis config is required")
	})

	t.Run("connection failure", func(t *testing.T) {
		cfg := &config.RedisConfig{
			URL:         "localhost:1",
			DialTimeout: 100 * time.Millisecond,
		}
		_, err := NewRedisCache(cfg, zaptest.NewLogger(t))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "redis connection failed")
	})
}

func TestRedisCache_BasicOperations(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()

	t.Run("set and get", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, "key1", "value1", 0))

		got, err := cache.Get(ctx, "key1")
		require.NoError(t, err)
		assert.Equal(t, "value1", got)
	})

	t.Run("get missing key", func(t *testing.T) {
		_, err := cache.Get(ctx, "no-such-key")
		require.Error(t, err)
		assert.True(t, IsNotFound(err))
	})

	t.Run("set with ttl", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, "ttl-key", "v", time.Minute))
		assert.InDelta(t, time.Minute, mr.TTL("ttl-key"), float64(time.Second))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, "del-key", "v", 0))
		require.NoError(t, cache.Delete(ctx, "del-key"))

		exists, err := cache.Exists(ctx, "del-key")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("exists", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, "exists-key", "v", 0))

		exists, err := cache.Exists(ctx, "exists-key")
		require.NoError(t, err)
		assert.True(t, exists)
	})
}

func TestRedisCache_SetNX(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()

	ok, err := cache.SetNX(ctx, "lock", "1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "first SetNX should win")

	ok, err = cache.SetNX(ctx, "lock", "1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second SetNX on same key should lose")
}

func TestRedisCache_Increment(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := cache.Increment(ctx, "counter")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestRedisCache_Expire(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "key", "v", 0))
	require.NoError(t, cache.Expire(ctx, "key", time.Hour))
	assert.InDelta(t, time.Hour, mr.TTL("key"), float64(time.Second))

	err := cache.Expire(ctx, "missing", time.Hour)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestRedisCache_JSON(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()

	type payload struct {
		Name  string   `json:"name"`
		Count int      `json:"count"`
		Tags  []string `json:"tags"`
	}

	in := payload{Name: "window", Count: 7, Tags: []string{"a", "b"}}
	require.NoError(t, cache.SetJSON(ctx, "json-key", in, time.Minute))

	var out payload
	require.NoError(t, cache.GetJSON(ctx, "json-key", &out))
	assert.Equal(t, in, out)

	t.Run("missing key", func(t *testing.T) {
		var out payload
		err := cache.GetJSON(ctx, "json-missing", &out)
		require.Error(t, err)
		assert.True(t, IsNotFound(err))
	})

	t.Run("malformed value", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, "json-bad", "{not json", time.Minute))

		var out payload
		err := cache.GetJSON(ctx, "json-bad", &out)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "json unmarshal failed")
	})
}

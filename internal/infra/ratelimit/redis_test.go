package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisLimiter(t *testing.T, limit int, window time.Duration) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLimiter(client, limit, window), mr
}

func TestRedisLimiter_EleventhCallRejected(t *testing.T) {
	rl, mr := newRedisLimiter(t, 10, time.Minute)
	ctx := context.Background()

	for i := 1; i <= 10; i++ {
		ok, err := rl.Allow(ctx, "u-1")
		require.NoError(t, err)
		assert.True(t, ok, "call %d should pass", i)
	}
	ok, err := rl.Allow(ctx, "u-1")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, time.Minute, mr.TTL(keyPrefix+"u-1"))
}

func TestRedisLimiter_WindowResets(t *testing.T) {
	rl, mr := newRedisLimiter(t, 10, time.Minute)
	ctx := context.Background()

	for i := 0; i < 11; i++ {
		_, err := rl.Allow(ctx, "u-1")
		require.NoError(t, err)
	}

	mr.FastForward(time.Minute + time.Second)

	ok, err := rl.Allow(ctx, "u-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLimiter_KeyWithoutExpiryRecovers(t *testing.T) {
	rl, mr := newRedisLimiter(t, 10, time.Minute)
	ctx := context.Background()
	require.NoError(t, mr.Set(keyPrefix+"u-1", "10"))
	require.Zero(t, mr.TTL(keyPrefix+"u-1"))

	ok, err := rl.Allow(ctx, "u-1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, time.Minute, mr.TTL(keyPrefix+"u-1"))

	mr.FastForward(time.Minute + time.Second)

	ok, err = rl.Allow(ctx, "u-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLimiter_LaterHitsKeepTheWindow(t *testing.T) {
	rl, mr := newRedisLimiter(t, 10, time.Minute)
	ctx := context.Background()

	_, err := rl.Allow(ctx, "u-1")
	require.NoError(t, err)
	mr.FastForward(20 * time.Second)
	_, err = rl.Allow(ctx, "u-1")
	require.NoError(t, err)

	assert.Equal(t, 40*time.Second, mr.TTL(keyPrefix+"u-1"))
}

func TestRedisLimiter_ConnectionError(t *testing.T) {
	rl, mr := newRedisLimiter(t, 10, time.Minute)
	mr.Close()

	_, err := rl.Allow(context.Background(), "u-1")
	assert.Error(t, err)
}

func TestRedisLimiter_Ping(t *testing.T) {
	rl, mr := newRedisLimiter(t, 10, time.Minute)
	assert.NoError(t, rl.Ping(context.Background()))

	mr.Close()
	assert.Error(t, rl.Ping(context.Background()))
}

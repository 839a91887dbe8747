package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "ratelimit:create:"

// allowScript increments the counter and gives it an expiry whenever it has
// none, so a key can never outlive its window.
var allowScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if redis.call("PTTL", KEYS[1]) < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

// RedisLimiter shares counters between instances. The first hit of a
// window creates the key and sets its expiry to the window length.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, window: window}
}

func (rl *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := keyPrefix + key

	n, err := allowScript.Run(ctx, rl.client, []string{k}, rl.window.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("incr %s: %w", k, err)
	}
	return n <= int64(rl.limit), nil
}

func (rl *RedisLimiter) Ping(ctx context.Context) error {
	return rl.client.Ping(ctx).Err()
}

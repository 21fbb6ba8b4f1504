package middlewares

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter shares fixed-window counters across API instances.
type RedisRateLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	prefix string
}

func NewRedisRateLimiter(rdb *redis.Client, limit int, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{rdb: rdb, limit: limit, window: window, prefix: "bookinghub:ratelimit"}
}

func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	redisKey := fmt.Sprintf("%s:%s", rl.prefix, key)

	pipe := rl.rdb.Pipeline()
	incr := pipe.Incr(ctx, redisKey)
	ttl := pipe.PTTL(ctx, redisKey)

	if _, err := pipe.Exec(ctx); err != nil {
		return true, 0, fmt.Errorf("redis rate limit: %w", err)
	}

	// first hit of a window, or a key that lost its TTL
	if incr.Val() == 1 || ttl.Val() < 0 {
		if err := rl.rdb.PExpire(ctx, redisKey, rl.window).Err(); err != nil {
			return true, 0, fmt.Errorf("redis rate limit expire: %w", err)
		}
	}

	if incr.Val() <= int64(rl.limit) {
		return true, 0, nil
	}

	retry := ttl.Val()
	if retry <= 0 {
		retry = rl.window
	}
	return false, retry, nil
}

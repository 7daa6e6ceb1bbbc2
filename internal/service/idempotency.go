package service

import (
	"context"
	"fmt"
	"github.com/go-redis/redis/v8"
	"time"
)

// RedisIdempotencyGuard remembers place-order keys in redis.
type RedisIdempotencyGuard struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisIdempotencyGuard(rdb *redis.Client, ttl time.Duration) *RedisIdempotencyGuard {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisIdempotencyGuard{rdb: rdb, ttl: ttl}
}

func idempotentKey(key string) string {
	return fmt.Sprintf("idempotent-key:%s", key)
}

// Claim records key and reports whether this call was the first to use it.
func (g *RedisIdempotencyGuard) Claim(ctx context.Context, key string) (bool, error) {
	return g.rdb.SetNX(ctx, idempotentKey(key), "exists", g.ttl).Result()
}

func (g *RedisIdempotencyGuard) Release(ctx context.Context, key string) error {
	return g.rdb.Del(ctx, idempotentKey(key)).Err()
}

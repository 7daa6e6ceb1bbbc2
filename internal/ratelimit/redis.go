package ratelimit

import (
	"checkout-service/internal/entity"
	"context"
	"fmt"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"os"
	"time"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// RedisLimiter is a fixed window counter shared by every replica.
type RedisLimiter struct {
	rdb    *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

// NewRedisLimiter admits at most limit attempts per key in each window.
func NewRedisLimiter(rdb *redis.Client, prefix string, limit int64, window time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, prefix: prefix, limit: limit, window: window}
}

// Limit fails open when redis is unreachable. A counter found without a TTL
// gets the window re-applied, so a lost EXPIRE cannot block a key forever.
func (l *RedisLimiter) Limit(ctx context.Context, key string) error {
	redisKey := fmt.Sprintf("%s:%s", l.prefix, key)

	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := l.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		ttl = pipe.TTL(ctx, redisKey)
		return nil
	})
	if err != nil {
		logger.Error().Err(err).Msgf("Error counting attempts for %s", redisKey)
		return nil
	}

	// -1 means the key has no expiry
	if ttl.Val() < 0 {
		err = l.rdb.Expire(ctx, redisKey, l.window).Err()
		if err != nil {
			logger.Error().Err(err).Msgf("Error setting window for %s", redisKey)
		}
	}

	if incr.Val() > l.limit {
		return entity.RateLimitExceeded("rate limit exceeded")
	}
	return nil
}

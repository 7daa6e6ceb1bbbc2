package ratelimit

import (
	"checkout-service/internal/config"
	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
	"time"
)

// FromConfig builds the gate for the configured backend. A limiter with no
// rate (memory) or no max (redis) admits everything.
func FromConfig(limits config.LimitsConfig, rdb *redis.Client) *Gate {
	if limits.Backend == "redis" {
		return NewGate(
			redisLimiter(rdb, limits.Processing),
			redisLimiter(rdb, limits.Saving),
		)
	}
	return NewGate(memoryLimiter(limits.Processing), memoryLimiter(limits.Saving))
}

func redisLimiter(rdb *redis.Client, l config.LimitConfig) Limiter {
	if l.Max <= 0 {
		return Unlimited{}
	}
	return NewRedisLimiter(rdb, "checkout-limit", l.Max, l.Window)
}

func memoryLimiter(l config.LimitConfig) Limiter {
	if l.Rate <= 0 {
		return Unlimited{}
	}
	return NewMemoryLimiter(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(l.Rate),
		Burst:     l.Burst,
		ExpiresIn: 3 * time.Minute,
	})
}

package ratelimit

import (
	"checkout-service/internal/entity"
	"context"
	"github.com/labstack/echo/v4/middleware"
)

// MemoryLimiter keeps one token bucket per key in process memory, using the
// same store as the HTTP rate limiter middleware.
type MemoryLimiter struct {
	store *middleware.RateLimiterMemoryStore
}

func NewMemoryLimiter(cfg middleware.RateLimiterMemoryStoreConfig) *MemoryLimiter {
	return &MemoryLimiter{store: middleware.NewRateLimiterMemoryStoreWithConfig(cfg)}
}

func (l *MemoryLimiter) Limit(_ context.Context, key string) error {
	allowed, err := l.store.Allow(key)
	if err != nil {
		return err
	}
	if !allowed {
		return entity.RateLimitExceeded("rate limit exceeded")
	}
	return nil
}

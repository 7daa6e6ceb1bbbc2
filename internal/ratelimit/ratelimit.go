package ratelimit

import (
	"checkout-service/internal/entity"
	"context"
)

// Limiter admits or rejects one attempt for key.
type Limiter interface {
	Limit(ctx context.Context, key string) error
}

// Messages returned to callers when a limiter rejects.
const (
	ProcessingLimitMessage = "Too many payment attempts. Please try again later."
	SavingLimitMessage     = "Too many attempts to save payment information. Please try again later."
)

type actorKey struct{}

// WithActor stores the rate limiting identity for the request.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the identity stored by WithActor, or "anonymous".
func ActorFrom(ctx context.Context) string {
	if a, ok := ctx.Value(actorKey{}).(string); ok && a != "" {
		return a
	}
	return "anonymous"
}

// Gate pairs the checkout attempt limiter with the payment save limiter.
// A nil limiter admits everything.
type Gate struct {
	Processing Limiter
	Saving     Limiter
}

func NewGate(processing, saving Limiter) *Gate {
	return &Gate{Processing: processing, Saving: saving}
}

// LimitProcessing charges one checkout attempt to the request's actor.
func (g *Gate) LimitProcessing(ctx context.Context) error {
	return limit(ctx, g.Processing, "processing:", ProcessingLimitMessage)
}

// LimitSaving charges one payment save to the request's actor.
func (g *Gate) LimitSaving(ctx context.Context) error {
	return limit(ctx, g.Saving, "saving:", SavingLimitMessage)
}

func limit(ctx context.Context, l Limiter, prefix, msg string) error {
	if l == nil {
		return nil
	}
	err := l.Limit(ctx, prefix+ActorFrom(ctx))
	if err == nil {
		return nil
	}
	if entity.KindOf(err) == entity.KindRateLimitExceeded {
		return entity.RateLimitExceeded(msg)
	}
	return err
}

// Unlimited admits every attempt.
type Unlimited struct{}

func (Unlimited) Limit(context.Context, string) error { return nil }

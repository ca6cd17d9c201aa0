package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// IdempotencyGuard hands out one-time form nonces and lets the first
// submission carrying a nonce claim it.
type IdempotencyGuard struct {
	Redis redis.Cmdable
	TTL   time.Duration
}

func NewIdempotencyGuard(redisClient redis.Cmdable, ttl time.Duration) *IdempotencyGuard {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &IdempotencyGuard{Redis: redisClient, TTL: ttl}
}

func (g *IdempotencyGuard) NewNonce() string {
	return uuid.NewString()
}

func nonceKey(nonce string) string {
	return fmt.Sprintf("booking:nonce:%s", nonce)
}

// Claim reports whether this call is the first to present nonce. owner is
// stored for debugging.
func (g *IdempotencyGuard) Claim(ctx context.Context, nonce, owner string) (bool, error) {
	ok, err := g.Redis.SetNX(ctx, nonceKey(nonce), owner, g.TTL).Result()
	if err != nil {
		return false, fmt.Errorf("claim nonce: %w", err)
	}
	return ok, nil
}

// Release frees a claimed nonce so the same form can be submitted again.
func (g *IdempotencyGuard) Release(ctx context.Context, nonce string) error {
	if err := g.Redis.Del(ctx, nonceKey(nonce)).Err(); err != nil {
		return fmt.Errorf("release nonce: %w", err)
	}
	return nil
}

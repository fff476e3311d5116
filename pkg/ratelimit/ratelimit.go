package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter enforces fixed-window request quotas backed by Redis counters. The
// window starts on the first request for a key and resets when the counter key
// expires.
type Limiter struct {
	client *redis.Client
	window time.Duration
}

// NewLimiter builds a limiter sharing the application Redis client.
func NewLimiter(client *redis.Client, window time.Duration) *Limiter {
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{client: client, window: window}
}

// Allow increments the counter for key and reports whether the observed count
// stays within limit. The counter key carries the window TTL, set atomically
// with the first increment.
func (l *Limiter) Allow(ctx context.Context, key string, limit int) (bool, error) {
	if limit <= 0 {
		return true, nil
	}

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit incr %s: %w", key, err)
	}

	return incr.Val() <= int64(limit), nil
}

// Window returns the configured quota window.
func (l *Limiter) Window() time.Duration {
	return l.window
}

package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimiter(t *testing.T) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewLimiter(client, time.Minute), mr
}

func TestAllowWithinLimit(t *testing.T) {
	limiter, _ := newLimiter(t)

	for i := 0; i < 5; i++ {
		allowed, err := limiter.Allow(context.Background(), "ratelimit:test:1.2.3.4", 5)
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := limiter.Allow(context.Background(), "ratelimit:test:1.2.3.4", 5)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestKeysAreIndependent(t *testing.T) {
	limiter, _ := newLimiter(t)

	allowed, err := limiter.Allow(context.Background(), "ratelimit:test:1.2.3.4", 1)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = limiter.Allow(context.Background(), "ratelimit:test:1.2.3.4", 1)
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, err = limiter.Allow(context.Background(), "ratelimit:test:5.6.7.8", 1)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestCounterExpiresWithWindow(t *testing.T) {
	limiter, mr := newLimiter(t)

	allowed, err := limiter.Allow(context.Background(), "ratelimit:test:1.2.3.4", 1)
	require.NoError(t, err)
	assert.True(t, allowed)

	mr.FastForward(61 * time.Second)

	allowed, err = limiter.Allow(context.Background(), "ratelimit:test:1.2.3.4", 1)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestNonPositiveLimitAlwaysAllows(t *testing.T) {
	limiter, _ := newLimiter(t)

	allowed, err := limiter.Allow(context.Background(), "ratelimit:test:1.2.3.4", 0)
	require.NoError(t, err)
	assert.True(t, allowed)
}

package cache_test

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/quotex-api/internal/cache"
	"github.com/noah-isme/quotex-api/internal/resilience"
)

type payload struct {
	Total int `json:"total"`
}

func TestRoundTripAndExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	c := cache.New(client, time.Minute, "dash")
	ctx := context.Background()

	key := c.Key("series", "2026-01-01")
	require.Equal(t, "dash:series:2026-01-01", key)

	var got payload
	ok, err := c.Get(ctx, key, &got)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Set(ctx, key, payload{Total: 7}))
	ok, err = c.Get(ctx, key, &got)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 7, got.Total)

	mr.FastForward(2 * time.Minute)
	ok, err = c.Get(ctx, key, &got)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestBreakerShortCircuitsDeadRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	t.Cleanup(func() { _ = client.Close() })
	breaker := resilience.NewBreaker("cache-test", 2, 0.5, time.Hour)
	c := cache.New(client, time.Minute, "dash").WithBreaker(breaker)
	ctx := context.Background()

	mr.Close()
	var got payload
	for i := 0; i < 2; i++ {
		_, err := c.Get(ctx, "k", &got)
		require.Error(t, err)
	}
	require.Equal(t, resilience.Open, breaker.State())

	_, err := c.Get(ctx, "k", &got)
	require.ErrorIs(t, err, resilience.ErrOpen)
	require.ErrorIs(t, c.Set(ctx, "k", payload{}), resilience.ErrOpen)
}

func TestDisabledCacheIsAMiss(t *testing.T) {
	c := cache.New(nil, time.Minute, "dash")
	ok, err := c.Get(context.Background(), "k", &payload{})
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, c.Set(context.Background(), "k", payload{}))
	require.NoError(t, c.Delete(context.Background(), "k"))
}

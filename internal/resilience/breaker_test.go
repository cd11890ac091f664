package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/quotex-api/internal/obs"
	"github.com/noah-isme/quotex-api/internal/resilience"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestBreakerOpensAndRecovers(t *testing.T) {
	obs.MustRegisterDomainMetrics("quotex_test", prometheus.NewRegistry())
	c := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := resilience.NewBreaker("cache-test", 2, 0.5, time.Minute)
	b.Now = c.now
	ctx := context.Background()
	boom := errors.New("redis down")
	opened := testutil.ToFloat64(obs.BreakerTransitionsTotal.WithLabelValues("cache-test", "closed", "open"))

	require.ErrorIs(t, b.Do(ctx, func(context.Context) error { return boom }), boom)
	require.Equal(t, resilience.Closed, b.State(), "below the minimum call count")
	require.ErrorIs(t, b.Do(ctx, func(context.Context) error { return boom }), boom)
	require.Equal(t, resilience.Open, b.State())

	calls := 0
	err := b.Do(ctx, func(context.Context) error { calls++; return nil })
	require.ErrorIs(t, err, resilience.ErrOpen)
	require.Zero(t, calls)

	c.t = c.t.Add(2 * time.Minute)
	require.True(t, b.Allow(ctx))
	require.Equal(t, resilience.HalfOpen, b.State())
	require.False(t, b.Allow(ctx), "one probe at a time")
	b.Report(ctx, true)
	require.Equal(t, resilience.Closed, b.State())

	require.Equal(t, opened+1, testutil.ToFloat64(obs.BreakerTransitionsTotal.WithLabelValues("cache-test", "closed", "open")))
}

func TestBreakerFailedProbeReopens(t *testing.T) {
	c := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := resilience.NewBreaker("probe", 1, 0.5, time.Second)
	b.Now = c.now
	ctx := context.Background()

	b.Report(ctx, false)
	require.Equal(t, resilience.Open, b.State())
	c.t = c.t.Add(time.Second)
	require.NoError(t, b.Do(ctx, func(context.Context) error { return nil }))
	require.Equal(t, resilience.Closed, b.State())

	b.Report(ctx, false)
	c.t = c.t.Add(time.Second)
	require.Error(t, b.Do(ctx, func(context.Context) error { return errors.New("still down") }))
	require.Equal(t, resilience.Open, b.State())
}

func TestBreakerIgnoresCallerCancellation(t *testing.T) {
	b := resilience.NewBreaker("cancel", 1, 0.5, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := b.Do(ctx, func(ctx context.Context) error { return ctx.Err() })
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, resilience.Closed, b.State())
}

func TestNilBreakerAllows(t *testing.T) {
	var b *resilience.Breaker
	require.True(t, b.Allow(context.Background()))
	require.Equal(t, resilience.Closed, b.State())
}

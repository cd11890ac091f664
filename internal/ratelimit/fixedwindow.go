package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// FixedWindow delegates counting to a ulule/limiter store.
type FixedWindow struct {
	Store limiter.Store
}

// NewFixedWindow builds a FixedWindow backed by Redis under prefix.
func NewFixedWindow(client *redis.Client, prefix string) (FixedWindow, error) {
	if client == nil {
		return FixedWindow{}, errors.New("ratelimit: redis client not configured")
	}
	store, err := limiterredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: prefix})
	if err != nil {
		return FixedWindow{}, err
	}
	return FixedWindow{Store: store}, nil
}

// Allow counts one event against the current window.
func (f FixedWindow) Allow(ctx context.Context, key string, window time.Duration, max int) (Decision, error) {
	if f.Store == nil || max <= 0 || window <= 0 {
		return Decision{Allowed: true, Limit: max, Remaining: max, Reset: time.Now().Add(window)}, nil
	}
	lim := limiter.New(f.Store, limiter.Rate{Period: window, Limit: int64(max)})
	res, err := lim.Get(ctx, key)
	if err != nil {
		return Decision{}, err
	}
	return Decision{
		Allowed:   !res.Reached,
		Limit:     int(res.Limit),
		Remaining: int(res.Remaining),
		Reset:     time.Unix(res.Reset, 0),
	}, nil
}

// New returns the limiter for strategy, defaulting to the sliding window.
func New(strategy string, client *redis.Client, prefix string) (Limiter, error) {
	switch strategy {
	case "", StrategySliding:
		return SlidingWindow{Client: client, Prefix: prefix}, nil
	case StrategyFixed:
		return NewFixedWindow(client, prefix)
	default:
		return nil, fmt.Errorf("ratelimit: unknown strategy %q", strategy)
	}
}

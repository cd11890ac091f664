// Package cache stores JSON documents in Redis with a fixed TTL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/quotex-api/internal/resilience"
)

// JSON wraps Redis helpers for JSON payloads. A nil client or a
// non-positive TTL turns every call into a miss, as does an open breaker.
type JSON struct {
	client  redis.UniversalClient
	ttl     time.Duration
	prefix  string
	breaker *resilience.Breaker
}

// New constructs a cache helper. Keys are stored under prefix.
func New(client redis.UniversalClient, ttl time.Duration, prefix string) *JSON {
	return &JSON{client: client, ttl: ttl, prefix: prefix}
}

// WithBreaker routes every Redis call through b.
func (c *JSON) WithBreaker(b *resilience.Breaker) *JSON {
	if c != nil {
		c.breaker = b
	}
	return c
}

func (c *JSON) guard(ctx context.Context, fn func(context.Context) error) error {
	if c.breaker == nil {
		return fn(ctx)
	}
	return c.breaker.Do(ctx, fn)
}

// Key joins parts with ':' under the cache prefix.
func (c *JSON) Key(parts ...string) string {
	if c == nil || c.prefix == "" {
		return strings.Join(parts, ":")
	}
	return c.prefix + ":" + strings.Join(parts, ":")
}

func (c *JSON) enabled(key string) bool {
	return c != nil && c.client != nil && c.ttl > 0 && key != ""
}

// Get unmarshals a cached payload into dst and reports whether it was found.
func (c *JSON) Get(ctx context.Context, key string, dst any) (bool, error) {
	if !c.enabled(key) {
		return false, nil
	}
	var (
		data  []byte
		found bool
	)
	err := c.guard(ctx, func(ctx context.Context) error {
		var err error
		data, err = c.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		found = err == nil
		return err
	})
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

// Set stores v as JSON with the configured TTL.
func (c *JSON) Set(ctx context.Context, key string, v any) error {
	if !c.enabled(key) {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.guard(ctx, func(ctx context.Context) error {
		return c.client.Set(ctx, key, data, c.ttl).Err()
	})
}

// Delete drops keys from the cache.
func (c *JSON) Delete(ctx context.Context, keys ...string) error {
	if c == nil || c.client == nil || len(keys) == 0 {
		return nil
	}
	return c.guard(ctx, func(ctx context.Context) error {
		return c.client.Del(ctx, keys...).Err()
	})
}

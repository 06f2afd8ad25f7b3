// Package rediscache gives the monitor its two redis-backed
// collaborators: a short-TTL cache for raw flight-offer responses and
// a per-minute provider rate limiter. Both are optional; the monitor
// runs without redis configured.
package rediscache

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

func newClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

// OfferCache holds raw provider search responses, keyed by OfferKey,
// so overlapping flexible-date windows inside one check interval don't
// re-hit the flight API.
type OfferCache struct {
	c *redis.Client
}

func New(addr string) *OfferCache {
	return &OfferCache{c: newClient(addr)}
}

func (r *OfferCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.c.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "redis get")
	}
	return val, true, nil
}

func (r *OfferCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.c.Set(ctx, key, value, ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set")
	}
	return nil
}

func (r *OfferCache) Close() error { return r.c.Close() }

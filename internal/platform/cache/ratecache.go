package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const rateKey = "fx:rate"

// RateCache stores the derived XOF per EUR exchange rate in redis so every
// instance serves the same rate between catalogue changes.
type RateCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRateCache constructs a RateCache.
func NewRateCache(client *redis.Client, ttl time.Duration) *RateCache {
	return &RateCache{client: client, ttl: ttl}
}

// Get returns the cached rate. ok is false on a miss.
func (c *RateCache) Get(ctx context.Context) (decimal.Decimal, bool, error) {
	raw, err := c.client.Get(ctx, rateKey).Result()
	if err == redis.Nil {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, err
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, nil
	}
	return rate, true, nil
}

// Set stores the freshly derived rate.
func (c *RateCache) Set(ctx context.Context, rate decimal.Decimal) error {
	return c.client.Set(ctx, rateKey, rate.String(), c.ttl).Err()
}

// Invalidate drops the cached rate so the next refresh recomputes it.
func (c *RateCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, rateKey).Err()
}

package travel

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tutorroute/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// LegCachePrefix is the prefix used for Redis travel leg keys.
const LegCachePrefix = "travel:"

// cacheStore is the subset of *redis.Client used by CachedProvider.
type cacheStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// CachedProvider memoizes provider answers in Redis across runs. Estimated
// legs are never cached so a recovered provider is asked again.
type CachedProvider struct {
	Next   Provider
	Store  cacheStore
	TTL    time.Duration
	Logger *zap.Logger
}

func NewCachedProvider(next Provider, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedProvider{Next: next, Store: client, TTL: ttl, Logger: logger}
}

func (c *CachedProvider) Leg(ctx context.Context, origin, destination models.Location, mode models.TravelMode) (Leg, error) {
	key := legCacheKey(origin, destination, mode)

	cached, err := c.Store.Get(ctx, key).Result()
	if err == nil && cached != "" {
		var leg Leg
		if err := json.Unmarshal([]byte(cached), &leg); err == nil {
			return leg, nil
		}
		c.Logger.Warn("discarding unreadable cached leg", zap.String("key", key))
	} else if err != nil && err != redis.Nil {
		c.Logger.Warn("travel cache read failed", zap.String("key", key), zap.Error(err))
	}

	leg, err := c.Next.Leg(ctx, origin, destination, mode)
	if err != nil {
		return Leg{}, err
	}
	if leg.Estimated {
		return leg, nil
	}

	data, err := json.Marshal(leg)
	if err == nil {
		if err := c.Store.Set(ctx, key, data, c.TTL).Err(); err != nil {
			c.Logger.Warn("travel cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return leg, nil
}

func legCacheKey(origin, destination models.Location, mode models.TravelMode) string {
	return fmt.Sprintf("%s%s:%.5f,%.5f:%.5f,%.5f", LegCachePrefix, mode, origin.Lat, origin.Lng, destination.Lat, destination.Lng)
}

package service

import (
	"context"
	"encoding/json"
	"time"

	"draws-api/pkg/redis"

	"go.uber.org/zap"
)

// CacheService provides JSON cache-aside helpers over the Redis client.
// A nil Redis client degrades every operation to a miss, so callers never
// branch on cache availability.
type CacheService struct {
	redis  *redis.Client
	logger *zap.Logger
}

func NewCacheService(redisClient *redis.Client, logger *zap.Logger) *CacheService {
	return &CacheService{
		redis:  redisClient,
		logger: logger,
	}
}

// GetJSON loads and unmarshals a cached document, reporting whether it was
// present. Cache errors are logged and treated as misses.
func (c *CacheService) GetJSON(ctx context.Context, key string, dest interface{}) bool {
	if c.redis == nil {
		return false
	}

	raw, err := c.redis.Get(ctx, key)
	if err != nil {
		if !redis.IsNil(err) {
			c.logger.Debug("cache read failed", zap.Error(err))
		}
		return false
	}

	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		c.logger.Warn("cache entry corrupt, ignoring", zap.Error(err))
		return false
	}

	return true
}

// SetJSON marshals and stores a document with the given TTL. Failures are
// logged, never surfaced; the cache is an optimization, not a dependency.
func (c *CacheService) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if c.redis == nil {
		return
	}

	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache marshal failed", zap.Error(err))
		return
	}

	if err := c.redis.Set(ctx, key, raw, ttl); err != nil {
		c.logger.Debug("cache write failed", zap.Error(err))
	}
}

// Invalidate removes cached documents
func (c *CacheService) Invalidate(ctx context.Context, keys ...string) {
	if c.redis == nil || len(keys) == 0 {
		return
	}
	if err := c.redis.Delete(ctx, keys...); err != nil {
		c.logger.Debug("cache invalidation failed", zap.Error(err))
	}
}

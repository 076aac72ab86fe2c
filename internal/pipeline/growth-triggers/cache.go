// internal/pipeline/growth-triggers/cache.go
package growthtriggers

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"martech-enrichment/internal/common/cache"
	"martech-enrichment/internal/common/logger"
	"martech-enrichment/internal/common/metrics"
)

// CacheStats collects process-lifetime hit/lookup counters. It is owned by
// the cache rather than living as package state so the cache stays testable
// in isolation.
type CacheStats struct {
	lookups atomic.Int64
	hits    atomic.Int64
}

func NewCacheStats() *CacheStats {
	return &CacheStats{}
}

func (s *CacheStats) Lookup() {
	s.lookups.Add(1)
}

func (s *CacheStats) Hit() {
	s.hits.Add(1)
}

func (s *CacheStats) Lookups() int64 {
	return s.lookups.Load()
}

func (s *CacheStats) Hits() int64 {
	return s.hits.Load()
}

func (s *CacheStats) HitRate() float64 {
	lookups := s.lookups.Load()
	if lookups == 0 {
		return 0
	}
	return float64(s.hits.Load()) / float64(lookups)
}

// TriggerCache memoizes validated growth-trigger lists keyed by context
// hash. The cache is a performance optimization, never a correctness
// dependency: read failures degrade to a miss and write failures only lose
// memoization.
type TriggerCache struct {
	redis  *cache.RedisClient
	ttl    time.Duration
	stats  *CacheStats
	logger logger.Logger
}

func NewTriggerCache(redisClient *cache.RedisClient, ttl time.Duration, stats *CacheStats, log logger.Logger) *TriggerCache {
	return &TriggerCache{
		redis:  redisClient,
		ttl:    ttl,
		stats:  stats,
		logger: log,
	}
}

// Get returns the cached trigger list for key, reporting the running hit
// rate on every lookup.
func (c *TriggerCache) Get(ctx context.Context, key string) ([]GrowthTrigger, bool) {
	c.stats.Lookup()
	metrics.CacheLookups.WithLabelValues(PipelineName).Inc()

	if c.redis == nil {
		return nil, false
	}

	raw, err := c.redis.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache read failed, treating as miss", map[string]interface{}{
				"cacheKey": key,
				"hitRate":  c.stats.HitRate(),
				"error":    err.Error(),
			})
		} else {
			c.logger.Debug("cache miss", map[string]interface{}{
				"cacheKey": key,
				"hitRate":  c.stats.HitRate(),
			})
		}
		return nil, false
	}

	var triggers []GrowthTrigger
	if err := json.Unmarshal([]byte(raw), &triggers); err != nil {
		c.logger.Warn("cache entry corrupt, treating as miss", map[string]interface{}{
			"cacheKey": key,
			"hitRate":  c.stats.HitRate(),
			"error":    err.Error(),
		})
		return nil, false
	}

	c.stats.Hit()
	metrics.CacheHits.WithLabelValues(PipelineName).Inc()
	c.logger.Info("growth triggers cache hit", map[string]interface{}{
		"cacheKey": key,
		"hitRate":  c.stats.HitRate(),
	})
	return triggers, true
}

// Set memoizes a validated trigger list. Failures are logged and swallowed;
// the fresh result is still returned to the caller.
func (c *TriggerCache) Set(ctx context.Context, key string, triggers []GrowthTrigger) {
	if c.redis == nil {
		return
	}

	payload, err := json.Marshal(triggers)
	if err != nil {
		c.logger.Error("cache payload marshal failed", map[string]interface{}{
			"cacheKey": key,
			"error":    err.Error(),
		})
		return
	}

	if err := c.redis.Set(ctx, key, payload, c.ttl); err != nil {
		c.logger.Warn("cache write failed, result not memoized", map[string]interface{}{
			"cacheKey": key,
			"error":    err.Error(),
		})
	}
}

func (c *TriggerCache) Stats() *CacheStats {
	return c.stats
}

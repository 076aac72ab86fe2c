// internal/pipeline/growth-triggers/cache_test.go
package growthtriggers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"martech-enrichment/internal/common/cache"
	"martech-enrichment/internal/common/logger"
)

func newMiniredisCache(t *testing.T, ttl time.Duration) (*TriggerCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewTriggerCache(cache.NewFromClient(client), ttl, NewCacheStats(), logger.NewNoOpLogger()), mr
}

func TestTriggerCache_MissThenHit(t *testing.T) {
	c, _ := newMiniredisCache(t, time.Hour)
	ctx := context.Background()
	triggers := []GrowthTrigger{{Title: "T", Description: "D"}}

	_, ok := c.Get(ctx, "key")
	assert.False(t, ok)

	c.Set(ctx, "key", triggers)

	got, ok := c.Get(ctx, "key")
	assert.True(t, ok)
	assert.Equal(t, triggers, got)
}

func TestTriggerCache_TTLApplied(t *testing.T) {
	c, mr := newMiniredisCache(t, 48*time.Hour)
	ctx := context.Background()

	c.Set(ctx, "key", []GrowthTrigger{{Title: "T", Description: "D"}})

	assert.Equal(t, 48*time.Hour, mr.TTL("key"))
}

func TestTriggerCache_ExpiredEntryIsMiss(t *testing.T) {
	c, mr := newMiniredisCache(t, time.Hour)
	ctx := context.Background()

	c.Set(ctx, "key", []GrowthTrigger{{Title: "T", Description: "D"}})
	mr.FastForward(2 * time.Hour)

	_, ok := c.Get(ctx, "key")
	assert.False(t, ok)
}

func TestTriggerCache_EmptyListIsCacheable(t *testing.T) {
	c, _ := newMiniredisCache(t, time.Hour)
	ctx := context.Background()

	c.Set(ctx, "key", []GrowthTrigger{})

	got, ok := c.Get(ctx, "key")
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestTriggerCache_CorruptEntryIsMiss(t *testing.T) {
	c, mr := newMiniredisCache(t, time.Hour)
	require.NoError(t, mr.Set("key", "not json at all"))

	_, ok := c.Get(context.Background(), "key")
	assert.False(t, ok)
}

func TestTriggerCache_StatsTrackHitRate(t *testing.T) {
	c, _ := newMiniredisCache(t, time.Hour)
	ctx := context.Background()

	c.Get(ctx, "key")
	c.Set(ctx, "key", []GrowthTrigger{{Title: "T", Description: "D"}})
	c.Get(ctx, "key")

	stats := c.Stats()
	assert.Equal(t, int64(2), stats.Lookups())
	assert.Equal(t, int64(1), stats.Hits())
	assert.Equal(t, 0.5, stats.HitRate())
}

func TestTriggerCache_ReadFailureDegradesToMiss(t *testing.T) {
	client, mock := redismock.NewClientMock()
	mock.ExpectGet("key").SetErr(errors.New("connection refused"))

	c := NewTriggerCache(cache.NewFromClient(client), time.Hour, NewCacheStats(), logger.NewNoOpLogger())

	_, ok := c.Get(context.Background(), "key")
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTriggerCache_WriteFailureIsSwallowed(t *testing.T) {
	triggers := []GrowthTrigger{{Title: "T", Description: "D"}}
	payload, err := json.Marshal(triggers)
	require.NoError(t, err)

	client, mock := redismock.NewClientMock()
	mock.ExpectSet("key", payload, time.Hour).SetErr(errors.New("connection refused"))

	c := NewTriggerCache(cache.NewFromClient(client), time.Hour, NewCacheStats(), logger.NewNoOpLogger())

	assert.NotPanics(t, func() {
		c.Set(context.Background(), "key", triggers)
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTriggerCache_EveryLookupLogsHitRate(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := logger.NewZapAdapter(zap.New(core))
	ctx := context.Background()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	c := NewTriggerCache(cache.NewFromClient(client), time.Hour, NewCacheStats(), log)

	// Plain miss, then a hit, then a corrupt-entry miss.
	c.Get(ctx, "key")
	c.Set(ctx, "key", []GrowthTrigger{{Title: "T", Description: "D"}})
	c.Get(ctx, "key")
	require.NoError(t, mr.Set("corrupt", "not json"))
	c.Get(ctx, "corrupt")

	// Read failure against a mocked client.
	mockClient, mock := redismock.NewClientMock()
	failing := NewTriggerCache(cache.NewFromClient(mockClient), time.Hour, NewCacheStats(), log)
	mock.ExpectGet("key").SetErr(errors.New("connection refused"))
	failing.Get(ctx, "key")

	lookupLogs := 0
	for _, entry := range logs.All() {
		fields := entry.ContextMap()
		if _, ok := fields["cacheKey"]; !ok {
			continue
		}
		lookupLogs++
		assert.Contains(t, fields, "hitRate", "lookup log %q must report the hit rate", entry.Message)
	}
	assert.Equal(t, 4, lookupLogs)
}

func TestTriggerCache_NilClientDegrades(t *testing.T) {
	c := NewTriggerCache(nil, time.Hour, NewCacheStats(), logger.NewNoOpLogger())
	ctx := context.Background()

	_, ok := c.Get(ctx, "key")
	assert.False(t, ok)

	assert.NotPanics(t, func() {
		c.Set(ctx, "key", []GrowthTrigger{{Title: "T", Description: "D"}})
	})
}

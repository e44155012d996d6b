package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/explora/recsys/pkg/models"
)

const cacheKeyPrefix = "recommendations:"

func cacheKey(userID string, k int) string {
	return fmt.Sprintf("%s%s:%d", cacheKeyPrefix, userID, k)
}

// ResultCache stores assembled top-K responses keyed by (user, k). A
// cache entry is only valid for the snapshot that was active when it was
// written; the retraining coordinator calls FlushAll right after every
// snapshot swap, so stale entries are unreachable.
//
// Get returns (nil, nil) on a miss; cache failures degrade to a miss and
// never fail a request.
type ResultCache interface {
	Get(ctx context.Context, userID string, k int) (*models.RecommendationResponse, error)
	Set(ctx context.Context, userID string, k int, resp *models.RecommendationResponse, ttl time.Duration) error
	FlushAll(ctx context.Context) error
}

// RedisResultCache is the production cache.
type RedisResultCache struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewRedisResultCache(client *redis.Client, logger *logrus.Logger) *RedisResultCache {
	return &RedisResultCache{client: client, logger: logger}
}

func (c *RedisResultCache) Get(ctx context.Context, userID string, k int) (*models.RecommendationResponse, error) {
	data, err := c.client.Get(ctx, cacheKey(userID, k)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}

	var resp models.RecommendationResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("cache entry decode: %w", err)
	}
	return &resp, nil
}

func (c *RedisResultCache) Set(ctx context.Context, userID string, k int, resp *models.RecommendationResponse, ttl time.Duration) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("cache entry encode: %w", err)
	}
	return c.client.Set(ctx, cacheKey(userID, k), data, ttl).Err()
}

// FlushAll deletes every recommendation key. SCAN keeps the flush from
// blocking Redis on large key spaces.
func (c *RedisResultCache) FlushAll(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, cacheKeyPrefix+"*", 500).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) >= 500 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("cache flush: %w", err)
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache flush scan: %w", err)
	}
	if len(keys) > 0 {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("cache flush: %w", err)
		}
	}

	c.logger.Debug("Recommendation cache flushed")
	return nil
}

// MemoryResultCache is an in-process cache for tests and for running
// without Redis.
type MemoryResultCache struct {
	mu      sync.RWMutex
	entries map[string]memoryCacheEntry
}

type memoryCacheEntry struct {
	resp      models.RecommendationResponse
	expiresAt time.Time
}

func NewMemoryResultCache() *MemoryResultCache {
	return &MemoryResultCache{entries: make(map[string]memoryCacheEntry)}
}

func (c *MemoryResultCache) Get(ctx context.Context, userID string, k int) (*models.RecommendationResponse, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[cacheKey(userID, k)]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, nil
	}
	resp := entry.resp
	return &resp, nil
}

func (c *MemoryResultCache) Set(ctx context.Context, userID string, k int, resp *models.RecommendationResponse, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(userID, k)] = memoryCacheEntry{resp: *resp, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (c *MemoryResultCache) FlushAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]memoryCacheEntry)
	return nil
}

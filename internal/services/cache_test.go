package services

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/explora/recsys/pkg/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "recommendations:u1:10", cacheKey("u1", 10))
	assert.Equal(t, "recommendations:u1:5", cacheKey("u1", 5))
	// Different K values must never collide.
	assert.NotEqual(t, cacheKey("u1", 10), cacheKey("u1", 5))
}

func TestMemoryResultCache_SetGetFlush(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryResultCache()

	miss, err := cache.Get(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Nil(t, miss)

	resp := &models.RecommendationResponse{
		UserID: "u1",
		Model:  models.ModelCollaborativeFiltering,
		Recommendations: []models.RecommendedItem{
			{ItemID: "i1", Score: 0.9},
		},
	}
	require.NoError(t, cache.Set(ctx, "u1", 10, resp, time.Minute))

	hit, err := cache.Get(ctx, "u1", 10)
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.Equal(t, resp.Recommendations, hit.Recommendations)

	// Same user, different K is a distinct entry.
	otherK, err := cache.Get(ctx, "u1", 5)
	require.NoError(t, err)
	assert.Nil(t, otherK)

	require.NoError(t, cache.FlushAll(ctx))
	flushed, err := cache.Get(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Nil(t, flushed)
}

func TestMemoryResultCache_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryResultCache()

	resp := &models.RecommendationResponse{UserID: "u1"}
	require.NoError(t, cache.Set(ctx, "u1", 10, resp, time.Nanosecond))
	time.Sleep(5 * time.Millisecond)

	expired, err := cache.Get(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Nil(t, expired)
}

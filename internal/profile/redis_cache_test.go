// internal/profile/redis_cache_test.go
package profile

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sahayak-workers/internal/common/database"
	"sahayak-workers/internal/common/logger"
	"sahayak-workers/internal/models"
)

func newCachedTestStore(t *testing.T) (*CachedStore, *MemoryStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	redisClient := &database.RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	t.Cleanup(func() { redisClient.Close() })

	inner := NewMemoryStore()
	cached := NewCachedStore(inner, redisClient, time.Minute, logger.NewTestLogger(t))
	return cached, inner, mr
}

func TestCachedGetFillsAndServesFromCache(t *testing.T) {
	cached, inner, mr := newCachedTestStore(t)
	ctx := context.Background()

	require.NoError(t, inner.Create(ctx, &models.Profile{CitizenID: "citizen-1", Name: "Asha"}))

	p, err := cached.Get(ctx, "citizen-1")
	require.NoError(t, err)
	assert.Equal(t, "Asha", p.Name)
	assert.True(t, mr.Exists(cacheKey("citizen-1")))

	// Change the inner store behind the cache's back; the cached copy wins
	// until invalidated.
	_, err = inner.Update(ctx, "citizen-1", func(p *models.Profile) error {
		p.Name = "Changed"
		return nil
	})
	require.NoError(t, err)

	p, err = cached.Get(ctx, "citizen-1")
	require.NoError(t, err)
	assert.Equal(t, "Asha", p.Name)
}

func TestCachedUpdateInvalidates(t *testing.T) {
	cached, inner, mr := newCachedTestStore(t)
	ctx := context.Background()

	require.NoError(t, inner.Create(ctx, &models.Profile{CitizenID: "citizen-1", Location: "Nagpur"}))

	_, err := cached.Get(ctx, "citizen-1")
	require.NoError(t, err)
	require.True(t, mr.Exists(cacheKey("citizen-1")))

	_, err = cached.Update(ctx, "citizen-1", func(p *models.Profile) error {
		p.Location = "Mumbai"
		return nil
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists(cacheKey("citizen-1")))

	p, err := cached.Get(ctx, "citizen-1")
	require.NoError(t, err)
	assert.Equal(t, "Mumbai", p.Location)
}

func TestCachedAppendHistoryInvalidatesOnlyOnChange(t *testing.T) {
	cached, inner, mr := newCachedTestStore(t)
	ctx := context.Background()

	require.NoError(t, inner.Create(ctx, &models.Profile{CitizenID: "citizen-1"}))

	_, err := cached.Get(ctx, "citizen-1")
	require.NoError(t, err)

	appended, err := cached.AppendHistory(ctx, "citizen-1", "opp-1", models.ActionViewed)
	require.NoError(t, err)
	assert.True(t, appended)
	assert.False(t, mr.Exists(cacheKey("citizen-1")))

	// Re-fill, then repeat the same pair: a no-op append keeps the cache.
	_, err = cached.Get(ctx, "citizen-1")
	require.NoError(t, err)
	require.True(t, mr.Exists(cacheKey("citizen-1")))

	appended, err = cached.AppendHistory(ctx, "citizen-1", "opp-1", models.ActionViewed)
	require.NoError(t, err)
	assert.False(t, appended)
	assert.True(t, mr.Exists(cacheKey("citizen-1")))
}

func TestCachedUpdateSurvivesInvalidateFailure(t *testing.T) {
	db, mock := redismock.NewClientMock()
	redisClient := &database.RedisClient{Client: db}
	inner := NewMemoryStore()
	cached := NewCachedStore(inner, redisClient, time.Minute, logger.NewTestLogger(t))
	ctx := context.Background()

	require.NoError(t, inner.Create(ctx, &models.Profile{CitizenID: "citizen-1", Name: "Asha"}))

	mock.ExpectDel(cacheKey("citizen-1")).SetErr(redis.ErrClosed)

	// The write lands in the inner store; the failed invalidation only logs.
	p, err := cached.Update(ctx, "citizen-1", func(p *models.Profile) error {
		p.Name = "Usha"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Usha", p.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedGetFallsThroughOnRedisDown(t *testing.T) {
	cached, inner, mr := newCachedTestStore(t)
	ctx := context.Background()

	require.NoError(t, inner.Create(ctx, &models.Profile{CitizenID: "citizen-1", Name: "Asha"}))

	mr.Close()

	p, err := cached.Get(ctx, "citizen-1")
	require.NoError(t, err)
	assert.Equal(t, "Asha", p.Name)
}

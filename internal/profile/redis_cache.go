// internal/profile/redis_cache.go
package profile

import (
	"context"
	"encoding/json"
	"time"

	"sahayak-workers/internal/common/database"
	"sahayak-workers/internal/common/logger"
	"sahayak-workers/internal/models"
)

const profileCacheKeyPrefix = "citizen:profile:"

// CachedStore is a read-through cache in front of another Store. Writes go
// to the inner store first and then drop the cached copy, so a populated
// cache entry is always at least as fresh as the last completed write.
// Cache failures degrade to the inner store and are only logged.
type CachedStore struct {
	inner  Store
	redis  *database.RedisClient
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedStore(inner Store, redis *database.RedisClient, ttl time.Duration, log logger.Logger) *CachedStore {
	return &CachedStore{inner: inner, redis: redis, ttl: ttl, logger: log}
}

func cacheKey(citizenID string) string {
	return profileCacheKeyPrefix + citizenID
}

func (s *CachedStore) Get(ctx context.Context, citizenID string) (*models.Profile, error) {
	key := cacheKey(citizenID)

	if raw, err := s.redis.Get(ctx, key); err == nil {
		var p models.Profile
		if err := json.Unmarshal([]byte(raw), &p); err == nil {
			return &p, nil
		}
		// Unreadable entry, fall through to the inner store and rewrite it.
		s.logger.Warn("dropping unreadable profile cache entry", map[string]interface{}{
			"citizenId": citizenID,
		})
	}

	p, err := s.inner.Get(ctx, citizenID)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, key, p)
	return p, nil
}

func (s *CachedStore) Create(ctx context.Context, p *models.Profile) error {
	if err := s.inner.Create(ctx, p); err != nil {
		return err
	}
	s.invalidate(ctx, p.CitizenID)
	return nil
}

func (s *CachedStore) Update(ctx context.Context, citizenID string, mutate func(*models.Profile) error) (*models.Profile, error) {
	p, err := s.inner.Update(ctx, citizenID, mutate)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, citizenID)
	return p, nil
}

func (s *CachedStore) AppendHistory(ctx context.Context, citizenID, opportunityID string, action models.HistoryAction) (bool, error) {
	appended, err := s.inner.AppendHistory(ctx, citizenID, opportunityID, action)
	if err != nil {
		return false, err
	}
	if appended {
		s.invalidate(ctx, citizenID)
	}
	return appended, nil
}

func (s *CachedStore) fill(ctx context.Context, key string, p *models.Profile) {
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, key, string(raw), s.ttl); err != nil {
		s.logger.Warn("failed to cache profile", map[string]interface{}{
			"citizenId": p.CitizenID,
			"error":     err.Error(),
		})
	}
}

func (s *CachedStore) invalidate(ctx context.Context, citizenID string) {
	if err := s.redis.Del(ctx, cacheKey(citizenID)); err != nil {
		s.logger.Warn("failed to invalidate profile cache", map[string]interface{}{
			"citizenId": citizenID,
			"error":     err.Error(),
		})
	}
}

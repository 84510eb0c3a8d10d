// internal/conversation/redis_store.go
package conversation

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/redis/go-redis/v9"

	"sahayak-workers/internal/common/database"
	apperrors "sahayak-workers/internal/common/errors"
	"sahayak-workers/internal/common/logger"
	"sahayak-workers/internal/models"
)

const sessionKeyPrefix = "session:context:"

// RedisSessionStore persists contexts as JSON documents with a TTL. The
// TTL only garbage-collects abandoned sessions; logical expiry is decided
// by the Tracker from LastActivity, so the TTL must comfortably exceed the
// idle timeout.
type RedisSessionStore struct {
	redis  *database.RedisClient
	ttl    time.Duration
	logger logger.Logger
}

func NewRedisSessionStore(client *database.RedisClient, ttl time.Duration, log logger.Logger) *RedisSessionStore {
	return &RedisSessionStore{redis: client, ttl: ttl, logger: log}
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

func (s *RedisSessionStore) Get(ctx context.Context, sessionID string) (*models.ConversationContext, error) {
	raw, err := s.redis.Get(ctx, sessionKey(sessionID))
	if stderrors.Is(err, redis.Nil) {
		return nil, apperrors.NewSessionNotFoundError(sessionID)
	}
	if err != nil {
		return nil, mapRedisError(err)
	}

	var c models.ConversationContext
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		// An unreadable context cannot be resumed; treat it like a missing
		// session so the caller allocates a fresh one.
		s.logger.Warn("dropping unreadable session context", map[string]interface{}{
			"sessionId": sessionID,
		})
		if delErr := s.redis.Del(ctx, sessionKey(sessionID)); delErr != nil {
			s.logger.Warn("failed to drop unreadable session context", map[string]interface{}{
				"sessionId": sessionID,
				"error":     delErr.Error(),
			})
		}
		return nil, apperrors.NewSessionNotFoundError(sessionID)
	}
	return &c, nil
}

func (s *RedisSessionStore) Put(ctx context.Context, c *models.ConversationContext) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := s.redis.Set(ctx, sessionKey(c.SessionID), string(raw), s.ttl); err != nil {
		return mapRedisError(err)
	}
	return nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.redis.Del(ctx, sessionKey(sessionID)); err != nil {
		return mapRedisError(err)
	}
	return nil
}

func mapRedisError(err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewUpstreamTimeoutError("session-store", err)
	}
	return apperrors.NewUpstreamUnavailableError("session-store", err)
}

// internal/conversation/memory.go
package conversation

import (
	"context"
	"sync"

	apperrors "sahayak-workers/internal/common/errors"
	"sahayak-workers/internal/models"
)

// MemorySessionStore keeps contexts in process memory, for tests and local
// development. Snapshots are copied on the way in and out so callers never
// alias stored state.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.ConversationContext
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]*models.ConversationContext)}
}

func (s *MemorySessionStore) Get(ctx context.Context, sessionID string) (*models.ConversationContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.sessions[sessionID]
	if !ok {
		return nil, apperrors.NewSessionNotFoundError(sessionID)
	}
	return copyContext(c), nil
}

func (s *MemorySessionStore) Put(ctx context.Context, c *models.ConversationContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[c.SessionID] = copyContext(c)
	return nil
}

func (s *MemorySessionStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}

func copyContext(c *models.ConversationContext) *models.ConversationContext {
	cp := *c
	cp.Turns = make([]models.Turn, len(c.Turns))
	for i, t := range c.Turns {
		cp.Turns[i] = t
		cp.Turns[i].Surfaced = append([]string(nil), t.Surfaced...)
	}
	cp.Referenced = append([]string(nil), c.Referenced...)
	return &cp
}

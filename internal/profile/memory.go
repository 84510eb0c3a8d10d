// internal/profile/memory.go
package profile

import (
	"context"
	"sync"

	apperrors "sahayak-workers/internal/common/errors"
	"sahayak-workers/internal/models"
)

// MemoryStore keeps profiles in process memory. Used in tests and local
// development; the mutex makes every update linearizable and callers only
// ever see deep copies.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]*models.Profile
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[string]*models.Profile)}
}

func (s *MemoryStore) Get(ctx context.Context, citizenID string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[citizenID]
	if !ok {
		return nil, apperrors.NewProfileNotFoundError(citizenID)
	}
	return p.Clone(), nil
}

func (s *MemoryStore) Create(ctx context.Context, p *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[p.CitizenID]; ok {
		return apperrors.NewValidationError("citizenId", "profile already exists")
	}
	s.profiles[p.CitizenID] = p.Clone()
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, citizenID string, mutate func(*models.Profile) error) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.profiles[citizenID]
	if !ok {
		return nil, apperrors.NewProfileNotFoundError(citizenID)
	}

	// Mutate a copy so a failed update leaves the stored profile intact.
	next := current.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	s.profiles[citizenID] = next
	return next.Clone(), nil
}

func (s *MemoryStore) AppendHistory(ctx context.Context, citizenID, opportunityID string, action models.HistoryAction) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[citizenID]
	if !ok {
		return false, apperrors.NewProfileNotFoundError(citizenID)
	}
	return p.AppendHistory(action, opportunityID), nil
}

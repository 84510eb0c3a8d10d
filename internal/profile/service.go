// internal/profile/service.go
package profile

import (
	"context"
	"time"

	apperrors "sahayak-workers/internal/common/errors"
	"sahayak-workers/internal/common/logger"
	"sahayak-workers/internal/models"
)

const defaultRetryBackoff = 200 * time.Millisecond

// Service is the validation authority over citizen profiles. Every write
// goes through the field-rule table; the injected Store only persists.
// Store failures get one retry with backoff before surfacing as a
// temporarily-unavailable outcome.
type Service struct {
	store        Store
	logger       logger.Logger
	retryBackoff time.Duration
}

func NewService(store Store, log logger.Logger) *Service {
	return &Service{
		store:        store,
		logger:       log,
		retryBackoff: defaultRetryBackoff,
	}
}

func (s *Service) Get(ctx context.Context, citizenID string) (*models.Profile, error) {
	var p *models.Profile
	err := s.withRetry(ctx, "get", func() error {
		var err error
		p, err = s.store.Get(ctx, citizenID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create builds a profile from minimal onboarding answers. Every supplied
// field passes the same rule table as updates; unknown fields are rejected
// before anything is written.
func (s *Service) Create(ctx context.Context, citizenID string, initial map[string]interface{}) (*models.Profile, error) {
	if citizenID == "" {
		return nil, apperrors.NewValidationError("citizenId", "must be a non-empty string")
	}
	for key := range initial {
		if _, ok := fieldRules[key]; !ok {
			return nil, apperrors.NewValidationError(key, "is not an updatable profile field")
		}
	}

	now := time.Now().UTC()
	p := &models.Profile{
		CitizenID:      citizenID,
		CreatedAt:      now,
		UpdatedAt:      now,
		FieldUpdatedAt: make(map[string]time.Time),
	}
	for _, field := range Fields() {
		raw, ok := initial[field]
		if !ok {
			continue
		}
		if err := ApplyField(p, field, raw); err != nil {
			return nil, err
		}
		p.FieldUpdatedAt[field] = now
	}

	err := s.withRetry(ctx, "create", func() error {
		return s.store.Create(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("profile created", map[string]interface{}{
		"citizenId": citizenID,
		"fields":    len(initial),
	})
	return p, nil
}

// UpdateField applies a single-field update. Only the named field changes;
// a validation failure leaves the stored profile untouched. Concurrent
// writes to the same field resolve last-write-wins on updatedAt, and the
// losing caller gets a VALUE_SUPERSEDED error instead of silently winning.
func (s *Service) UpdateField(ctx context.Context, citizenID, field string, value interface{}, updatedAt time.Time) (*models.Profile, error) {
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	var updated *models.Profile
	err := s.withRetry(ctx, "update", func() error {
		p, err := s.store.Update(ctx, citizenID, func(p *models.Profile) error {
			if last, ok := p.FieldUpdatedAt[field]; ok && last.After(updatedAt) {
				return apperrors.NewValueSupersededError(field)
			}
			if err := ApplyField(p, field, value); err != nil {
				return err
			}
			if p.FieldUpdatedAt == nil {
				p.FieldUpdatedAt = make(map[string]time.Time)
			}
			p.FieldUpdatedAt[field] = updatedAt
			p.UpdatedAt = time.Now().UTC()
			return nil
		})
		if err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("profile field updated", map[string]interface{}{
		"citizenId": citizenID,
		"field":     field,
	})
	return updated, nil
}

// AppendHistory records that a citizen viewed, saved or applied to an
// opportunity. Repeating the same pair is a no-op, reported via the bool.
func (s *Service) AppendHistory(ctx context.Context, citizenID, opportunityID string, action models.HistoryAction) (bool, error) {
	switch action {
	case models.ActionViewed, models.ActionSaved, models.ActionApplied:
	default:
		return false, apperrors.NewValidationError("action", "must be one of viewed, saved, applied")
	}
	if opportunityID == "" {
		return false, apperrors.NewValidationError("opportunityId", "must be a non-empty string")
	}

	var appended bool
	err := s.withRetry(ctx, "append-history", func() error {
		var err error
		appended, err = s.store.AppendHistory(ctx, citizenID, opportunityID, action)
		return err
	})
	if err != nil {
		return false, err
	}
	return appended, nil
}

// withRetry runs fn and retries exactly once, after a short backoff, when
// the failure came from the persistence layer rather than the caller.
func (s *Service) withRetry(ctx context.Context, op string, fn func() error) error {
	err := fn()
	if err == nil || !isUpstreamFailure(err) {
		return err
	}

	s.logger.Warn("profile store call failed, retrying once", map[string]interface{}{
		"operation": op,
		"error":     err.Error(),
	})

	select {
	case <-time.After(s.retryBackoff):
	case <-ctx.Done():
		return err
	}
	return fn()
}

func isUpstreamFailure(err error) bool {
	return apperrors.HasCode(err, apperrors.ErrCodeUpstreamTimeout) ||
		apperrors.HasCode(err, apperrors.ErrCodeUpstreamUnavailable)
}

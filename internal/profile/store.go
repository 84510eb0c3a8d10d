// internal/profile/store.go
package profile

import (
	"context"

	"sahayak-workers/internal/models"
)

// Store persists citizen profiles. Implementations own the concurrency
// control that makes single-citizen updates linearizable; all validation
// stays in this package, the store is a pass-through persistence layer.
type Store interface {
	// Get returns the profile or a PROFILE_NOT_FOUND error. Not-found is
	// recoverable and triggers onboarding upstream.
	Get(ctx context.Context, citizenID string) (*models.Profile, error)

	// Create inserts a new profile. Creating an existing citizen fails.
	Create(ctx context.Context, p *models.Profile) error

	// Update loads the profile, applies mutate under the store's own
	// locking, and persists the result. A mutate error aborts the write
	// and leaves the stored profile untouched.
	Update(ctx context.Context, citizenID string, mutate func(*models.Profile) error) (*models.Profile, error)

	// AppendHistory records a (opportunity, action) pair once. Returns
	// true when the pair was newly recorded, false when it was already
	// present.
	AppendHistory(ctx context.Context, citizenID, opportunityID string, action models.HistoryAction) (bool, error)
}

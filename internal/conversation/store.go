// internal/conversation/store.go
package conversation

import (
	"context"

	"sahayak-workers/internal/models"
)

// SessionStore persists conversation contexts. Serialization of operations
// on one session is the Tracker's job; stores only load and save whole
// context snapshots.
type SessionStore interface {
	// Get returns the context or a SESSION_NOT_FOUND error.
	Get(ctx context.Context, sessionID string) (*models.ConversationContext, error)

	// Put writes the full context snapshot.
	Put(ctx context.Context, c *models.ConversationContext) error

	// Delete removes a context. Deleting an absent session is a no-op.
	Delete(ctx context.Context, sessionID string) error
}

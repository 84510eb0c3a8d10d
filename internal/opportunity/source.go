// internal/opportunity/source.go

// Package opportunity adapts the external opportunity catalog to the
// matching core. The catalog owns the documents; this package only reads
// them and maps transport failures onto the upstream error codes.
package opportunity

import (
	"context"

	"sahayak-workers/internal/models"
)

// Source is the read surface over the opportunity catalog. ESSource backs
// it in production; MemorySource serves tests and the e2e flow.
type Source interface {
	// Search returns a bounded candidate list for a category. An empty
	// list is a normal outcome, never an error.
	Search(ctx context.Context, category models.OpportunityType, criteria models.SearchCriteria) ([]models.Opportunity, error)

	// GetByIDs loads opportunities by identifier, skipping unknown ids.
	GetByIDs(ctx context.Context, ids []string) ([]models.Opportunity, error)

	// GetByID loads one opportunity or returns OPPORTUNITY_NOT_FOUND.
	GetByID(ctx context.Context, id string) (*models.Opportunity, error)
}

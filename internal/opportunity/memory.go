// internal/opportunity/memory.go
package opportunity

import (
	"context"
	"strings"
	"sync"

	apperrors "sahayak-workers/internal/common/errors"
	"sahayak-workers/internal/models"
)

// MemorySource serves a fixed catalog from memory. It backs local
// development and in-process tests; deployments use ESSource.
type MemorySource struct {
	mu            sync.RWMutex
	opportunities []models.Opportunity
}

// NewMemorySource builds a source pre-loaded with the given catalog.
func NewMemorySource(opportunities ...models.Opportunity) *MemorySource {
	return &MemorySource{opportunities: opportunities}
}

// Add loads more opportunities into the catalog.
func (s *MemorySource) Add(opportunities ...models.Opportunity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opportunities = append(s.opportunities, opportunities...)
}

// Search applies the same filter semantics as the index: category always,
// location and tags when present, keywords as a case-insensitive match
// against name, description and tags.
func (s *MemorySource) Search(ctx context.Context, category models.OpportunityType, criteria models.SearchCriteria) ([]models.Opportunity, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewUpstreamTimeoutError("opportunity-search", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]models.Opportunity, 0, len(s.opportunities))
	for _, opp := range s.opportunities {
		if opp.Type != category {
			continue
		}
		if criteria.Location != "" && !servesLocation(&opp, criteria.Location) {
			continue
		}
		if len(criteria.Tags) > 0 && !hasAnyTag(&opp, criteria.Tags) {
			continue
		}
		if len(criteria.Keywords) > 0 && !matchesKeywords(&opp, criteria.Keywords) {
			continue
		}
		matched = append(matched, opp)
	}
	return matched, nil
}

// GetByIDs returns the known opportunities in the requested order,
// skipping unknown ids.
func (s *MemorySource) GetByIDs(ctx context.Context, ids []string) ([]models.Opportunity, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewUpstreamTimeoutError("opportunity-search", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	byID := make(map[string]models.Opportunity, len(s.opportunities))
	for _, opp := range s.opportunities {
		byID[opp.ID] = opp
	}
	ordered := make([]models.Opportunity, 0, len(ids))
	for _, id := range ids {
		if opp, ok := byID[id]; ok {
			ordered = append(ordered, opp)
		}
	}
	return ordered, nil
}

// GetByID fetches a single opportunity.
func (s *MemorySource) GetByID(ctx context.Context, id string) (*models.Opportunity, error) {
	found, err := s.GetByIDs(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, apperrors.NewOpportunityNotFoundError(id)
	}
	opp := found[0]
	return &opp, nil
}

func servesLocation(opp *models.Opportunity, location string) bool {
	if len(opp.Locations) == 0 {
		return true
	}
	for _, loc := range opp.Locations {
		if strings.EqualFold(loc, location) {
			return true
		}
	}
	return false
}

func hasAnyTag(opp *models.Opportunity, tags []string) bool {
	for _, want := range tags {
		for _, have := range opp.Tags {
			if strings.EqualFold(have, want) {
				return true
			}
		}
	}
	return false
}

func matchesKeywords(opp *models.Opportunity, keywords []string) bool {
	haystack := strings.ToLower(strings.Join([]string{
		opp.Name.English, opp.Name.Hindi,
		opp.Description.English, opp.Description.Hindi,
		strings.Join(opp.Tags, " "),
	}, " "))
	for _, kw := range keywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" && strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}

// internal/workers/discovery/search-opportunities/models.go
package searchopportunities

import "sahayak-workers/internal/models"

// Input names the citizen, the search category and the raw criteria. The
// extracted entities from routing ride along so the search can fill gaps
// in the explicit criteria before falling back to the stored profile.
type Input struct {
	CitizenID string                `json:"citizenId"`
	Category  string                `json:"category"`
	Criteria  models.SearchCriteria `json:"criteria"`
	Entities  *models.Entities      `json:"entities,omitempty"`
}

type Output struct {
	Results  []models.MatchResult `json:"results"`
	Count    int                  `json:"count"`
	Category string               `json:"category"`
	Surfaced []string             `json:"surfaced"`
}

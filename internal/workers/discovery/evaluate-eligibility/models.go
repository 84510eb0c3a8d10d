// internal/workers/discovery/evaluate-eligibility/models.go
package evaluateeligibility

import (
	"sahayak-workers/internal/eligibility"
	"sahayak-workers/internal/models"
)

// Input names the citizen and the opportunity to evaluate. The
// opportunity may ride along inline (from an earlier search result) or be
// fetched from the catalog by id.
type Input struct {
	CitizenID     string              `json:"citizenId"`
	OpportunityID string              `json:"opportunityId,omitempty"`
	Opportunity   *models.Opportunity `json:"opportunity,omitempty"`
}

type Output struct {
	Result       models.EligibilityResult  `json:"result"`
	Opportunity  *models.Opportunity       `json:"opportunity"`
	Alternatives []eligibility.Alternative `json:"alternatives,omitempty"`
}

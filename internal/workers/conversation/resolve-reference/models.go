// internal/workers/conversation/resolve-reference/models.go
package resolvereference

import "sahayak-workers/internal/models"

type Input struct {
	SessionID string `json:"sessionId"`
	CitizenID string `json:"citizenId,omitempty"`
	Phrase    string `json:"phrase"`
}

// Output reports resolution as data rather than as a job failure: an
// unresolved phrase is a normal conversational outcome that the process
// answers with a clarification turn.
type Output struct {
	Resolved      bool                `json:"resolved"`
	OpportunityID string              `json:"opportunityId,omitempty"`
	Opportunity   *models.Opportunity `json:"opportunity,omitempty"`
	ErrorCode     string              `json:"errorCode,omitempty"`
	Phrase        string              `json:"phrase"`
}

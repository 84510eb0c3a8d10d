// internal/workers/conversation/assemble-response/models.go
package assembleresponse

import (
	"sahayak-workers/internal/eligibility"
	"sahayak-workers/internal/models"
	"sahayak-workers/internal/response"
)

// Input names the payload kind and carries whichever upstream result the
// kind needs: search results, an eligibility verdict, a profile update
// confirmation or a clarification cause.
type Input struct {
	SessionID string `json:"sessionId"`
	CitizenID string `json:"citizenId"`
	Language  string `json:"language,omitempty"`
	Kind      string `json:"kind"`

	// Turn record fields.
	Text   string `json:"text,omitempty"`
	Intent string `json:"intent,omitempty"`

	// search_results
	Results []models.MatchResult `json:"results,omitempty"`

	// details / eligibility
	Opportunity  *models.Opportunity       `json:"opportunity,omitempty"`
	Evaluation   *models.EligibilityResult `json:"evaluation,omitempty"`
	Alternatives []eligibility.Alternative `json:"alternatives,omitempty"`

	// profile_update
	Field      string      `json:"field,omitempty"`
	Value      interface{} `json:"value,omitempty"`
	Superseded bool        `json:"superseded,omitempty"`

	// clarification
	ClarifyCause  string `json:"clarifyCause,omitempty"`
	ClarifyDetail string `json:"clarifyDetail,omitempty"`
}

type Output struct {
	SessionID string            `json:"sessionId"`
	Payload   *response.Payload `json:"payload"`
	SMSOffer  bool              `json:"smsOffer"`
}

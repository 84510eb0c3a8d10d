// internal/workers/communication/send-sms/models.go
package sendsms

import "sahayak-workers/internal/models"

// Input identifies the opportunity whose details go out. The opportunity
// may arrive inline from the previous step or be fetched by id.
type Input struct {
	CitizenID     string              `json:"citizenId"`
	Phone         string              `json:"phone"`
	Language      string              `json:"language,omitempty"`
	OpportunityID string              `json:"opportunityId,omitempty"`
	Opportunity   *models.Opportunity `json:"opportunity,omitempty"`
}

type Output struct {
	Sent      bool   `json:"sent"`
	MessageID string `json:"messageId,omitempty"`
}

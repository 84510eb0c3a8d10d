// internal/workers/citizen/update-profile/models.go
package updateprofile

import (
	"time"

	"sahayak-workers/internal/models"
)

// Operations the worker performs against the profile store.
const (
	OpCreate        = "create"
	OpUpdate        = "update"
	OpAppendHistory = "append-history"
)

type Input struct {
	CitizenID string `json:"citizenId"`
	Operation string `json:"operation"`

	// create
	Initial map[string]interface{} `json:"initial,omitempty"`

	// update
	Field     string      `json:"field,omitempty"`
	Value     interface{} `json:"value,omitempty"`
	UpdatedAt *time.Time  `json:"updatedAt,omitempty"`

	// append-history
	OpportunityID string `json:"opportunityId,omitempty"`
	Action        string `json:"action,omitempty"`
}

// Output reports what happened. Superseded marks an update that lost the
// last-write-wins race: the caller is informed, the newer value stands.
type Output struct {
	CitizenID  string          `json:"citizenId"`
	Operation  string          `json:"operation"`
	Created    bool            `json:"created,omitempty"`
	Field      string          `json:"field,omitempty"`
	Superseded bool            `json:"superseded,omitempty"`
	Appended   bool            `json:"appended,omitempty"`
	Profile    *models.Profile `json:"profile,omitempty"`
}

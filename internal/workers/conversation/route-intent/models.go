// internal/workers/conversation/route-intent/models.go
package routeintent

import "sahayak-workers/internal/models"

// Input arrives from the conversation process. The classification block
// is optional: when the orchestrator has already run the NLU step its
// result rides along; otherwise the handler asks the configured
// classifier endpoint.
type Input struct {
	SessionID      string                 `json:"sessionId,omitempty"`
	CitizenID      string                 `json:"citizenId"`
	Language       string                 `json:"language,omitempty"`
	Text           string                 `json:"text"`
	Classification *models.Classification `json:"classification,omitempty"`
}

// Output carries the routing verdict plus the session bookkeeping the
// downstream gateway branches on.
type Output struct {
	SessionID    string           `json:"sessionId"`
	FreshSession bool             `json:"freshSession"`
	Route        string           `json:"route"`
	Category     string           `json:"category,omitempty"`
	SearchType   string           `json:"searchType,omitempty"`
	Confidence   float64          `json:"confidence"`
	Failure      bool             `json:"failure"`
	Reason       string           `json:"reason,omitempty"`
	TopicChanged bool             `json:"topicChanged"`
	Topic        string           `json:"topic,omitempty"`
	Entities     *models.Entities `json:"entities,omitempty"`
	Simplify     bool             `json:"simplify"`
	Escalate     bool             `json:"escalate"`
}

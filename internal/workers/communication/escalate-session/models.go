// internal/workers/communication/escalate-session/models.go
package escalatesession

type Input struct {
	SessionID string `json:"sessionId"`
	CitizenID string `json:"citizenId"`
	Reason    string `json:"reason,omitempty"`
}

type Output struct {
	Notified  bool   `json:"notified"`
	MessageID string `json:"messageId,omitempty"`
}

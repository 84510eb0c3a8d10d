// internal/models/session.go
package models

import "time"

// Turn records one exchange: what the citizen said, how it was routed, a
// summary of the response, and the ids (never the objects) of the
// opportunities surfaced, in presentation order.
type Turn struct {
	Timestamp       time.Time `json:"timestamp"`
	Input           string    `json:"input"`
	Intent          string    `json:"intent"`
	ResponseSummary string    `json:"responseSummary"`
	Surfaced        []string  `json:"surfaced,omitempty"`
}

// ConversationContext is the bounded, expiring state of one session. A
// context past its idle timeout is discarded and recreated, never reused.
type ConversationContext struct {
	SessionID string `json:"sessionId"`
	CitizenID string `json:"citizenId"`
	Language  string `json:"language"`

	// Turns is a ring of at most the configured maximum; the oldest turn is
	// evicted on overflow.
	Turns []Turn `json:"turns,omitempty"`

	Topic string `json:"topic,omitempty"`

	// Referenced lists recently referenced opportunity ids, most recent
	// first, deduplicated. Cleared on topic change.
	Referenced []string `json:"referenced,omitempty"`

	LastActivity time.Time `json:"lastActivity"`
	CreatedAt    time.Time `json:"createdAt"`

	// ClarificationStreak counts consecutive clarification turns on the
	// current topic; FailureStreak counts consecutive turns where no intent
	// could be resolved at all. Both reset on a successful turn.
	ClarificationStreak int `json:"clarificationStreak"`
	FailureStreak       int `json:"failureStreak"`
}

// Expired reports whether the context has been idle longer than timeout.
func (c *ConversationContext) Expired(now time.Time, timeout time.Duration) bool {
	return now.Sub(c.LastActivity) > timeout
}

// Touch refreshes the last-activity timestamp.
func (c *ConversationContext) Touch(now time.Time) {
	c.LastActivity = now
}

// AppendTurn adds a turn, evicting the oldest once maxTurns is reached, and
// promotes the surfaced ids to the front of the referenced list so that the
// head is the first opportunity presented.
func (c *ConversationContext) AppendTurn(t Turn, maxTurns int) {
	if maxTurns > 0 && len(c.Turns) >= maxTurns {
		kept := c.Turns[len(c.Turns)-maxTurns+1:]
		c.Turns = append(make([]Turn, 0, maxTurns), kept...)
	}
	c.Turns = append(c.Turns, t)
	for i := len(t.Surfaced) - 1; i >= 0; i-- {
		c.PushReference(t.Surfaced[i])
	}
}

// PushReference moves id to the head of the referenced list, keeping the
// list deduplicated.
func (c *ConversationContext) PushReference(id string) {
	out := make([]string, 0, len(c.Referenced)+1)
	out = append(out, id)
	for _, r := range c.Referenced {
		if r != id {
			out = append(out, r)
		}
	}
	c.Referenced = out
}

// ClearReferences empties the referenced list. Called on topic change.
func (c *ConversationContext) ClearReferences() {
	c.Referenced = nil
}

// LastTurn returns the most recent turn, or nil for a fresh context.
func (c *ConversationContext) LastTurn() *Turn {
	if len(c.Turns) == 0 {
		return nil
	}
	return &c.Turns[len(c.Turns)-1]
}

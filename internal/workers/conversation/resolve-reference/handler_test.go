// internal/workers/conversation/resolve-reference/handler_test.go
package resolvereference

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sahayak-workers/internal/common/config"
	apperrors "sahayak-workers/internal/common/errors"
	"sahayak-workers/internal/common/logger"
	"sahayak-workers/internal/conversation"
	"sahayak-workers/internal/models"
	"sahayak-workers/internal/opportunity"
	"sahayak-workers/internal/profile"
)

func createTestConfig() *Config {
	return &Config{Timeout: 5 * time.Second}
}

func testOpportunity(id string) models.Opportunity {
	return models.Opportunity{
		ID:   id,
		Type: models.TypeJob,
		Name: models.LocalizedText{English: "Job " + id},
		Job:  &models.JobDetails{Company: "Acme", SalaryRange: "10k-15k"},
	}
}

func newTestHandler(t *testing.T) (*Handler, *conversation.Tracker, *profile.Service) {
	cfg := config.ConversationConfig{
		SessionTimeoutSeconds: 120,
		MaxTurns:              5,
		SimplifyAfter:         3,
		EscalateAfter:         3,
	}
	tracker := conversation.NewTracker(conversation.NewMemorySessionStore(), cfg, logger.NewTestLogger(t))
	source := opportunity.NewMemorySource(testOpportunity("opp-x"), testOpportunity("opp-y"), testOpportunity("opp-z"))
	profiles := profile.NewService(profile.NewMemoryStore(), logger.NewTestLogger(t))
	h := NewHandler(createTestConfig(), tracker, source, profiles, logger.NewTestLogger(t))
	return h, tracker, profiles
}

func seedSession(t *testing.T, tracker *conversation.Tracker, surfaced []string) string {
	c, err := tracker.CreateSession(context.Background(), "citizen-1", models.LanguageEnglish)
	require.NoError(t, err)
	_, err = tracker.AppendTurn(context.Background(), c.SessionID, models.Turn{
		Input:    "find me a job",
		Intent:   "job",
		Surfaced: surfaced,
	})
	require.NoError(t, err)
	return c.SessionID
}

func TestExecuteResolvesOrdinal(t *testing.T) {
	h, tracker, _ := newTestHandler(t)
	sessionID := seedSession(t, tracker, []string{"opp-x", "opp-y", "opp-z"})

	out, err := h.Execute(context.Background(), &Input{
		SessionID: sessionID,
		CitizenID: "citizen-1",
		Phrase:    "the first one",
	})
	require.NoError(t, err)

	assert.True(t, out.Resolved)
	assert.Equal(t, "opp-x", out.OpportunityID)
	require.NotNil(t, out.Opportunity)
	assert.Equal(t, "Job opp-x", out.Opportunity.Name.English)
}

func TestExecuteResolvesAnaphora(t *testing.T) {
	h, tracker, _ := newTestHandler(t)
	sessionID := seedSession(t, tracker, []string{"opp-x", "opp-y"})

	// The head of the referenced list is the first surfaced opportunity.
	out, err := h.Execute(context.Background(), &Input{
		SessionID: sessionID,
		Phrase:    "that one",
	})
	require.NoError(t, err)
	assert.True(t, out.Resolved)
	assert.Equal(t, "opp-x", out.OpportunityID)
}

func TestExecuteOrdinalOutOfRangeIsUnresolved(t *testing.T) {
	h, tracker, _ := newTestHandler(t)
	sessionID := seedSession(t, tracker, []string{"opp-x", "opp-y"})

	out, err := h.Execute(context.Background(), &Input{
		SessionID: sessionID,
		Phrase:    "the fifth one",
	})
	require.NoError(t, err, "an unresolved phrase is a payload, not a job failure")

	assert.False(t, out.Resolved)
	assert.Equal(t, "REFERENCE_UNRESOLVED", out.ErrorCode)
	assert.Empty(t, out.OpportunityID)
}

func TestExecuteEmptyHistoryIsUnresolved(t *testing.T) {
	h, tracker, _ := newTestHandler(t)
	c, err := tracker.CreateSession(context.Background(), "citizen-1", models.LanguageEnglish)
	require.NoError(t, err)

	out, err := h.Execute(context.Background(), &Input{
		SessionID: c.SessionID,
		Phrase:    "it",
	})
	require.NoError(t, err)
	assert.False(t, out.Resolved)
}

func TestExecuteRecordsViewedHistoryOnce(t *testing.T) {
	h, tracker, profiles := newTestHandler(t)
	_, err := profiles.Create(context.Background(), "citizen-1", map[string]interface{}{"location": "Pune"})
	require.NoError(t, err)
	sessionID := seedSession(t, tracker, []string{"opp-x"})

	for i := 0; i < 2; i++ {
		out, err := h.Execute(context.Background(), &Input{
			SessionID: sessionID,
			CitizenID: "citizen-1",
			Phrase:    "tell me more",
		})
		require.NoError(t, err)
		require.True(t, out.Resolved)
	}

	p, err := profiles.Get(context.Background(), "citizen-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"opp-x"}, p.Viewed, "repeat views append exactly once")
}

func TestExecuteUnknownSessionFails(t *testing.T) {
	h, _, _ := newTestHandler(t)

	_, err := h.Execute(context.Background(), &Input{
		SessionID: "no-such-session",
		Phrase:    "it",
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeSessionNotFound, apperrors.CodeOf(err))
}

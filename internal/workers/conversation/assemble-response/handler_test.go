// internal/workers/conversation/assemble-response/handler_test.go
package assembleresponse

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
	"sahayak-workers/internal/eligibility"
	"sahayak-workers/internal/models"
	"sahayak-workers/internal/response"
)

func createTestConfig() *Config {
	return &Config{Timeout: 5 * time.Second, DefaultLanguage: "english"}
}

func newTestHandler(t *testing.T) (*Handler, *conversation.Tracker) {
	cfg := config.ConversationConfig{
		SessionTimeoutSeconds: 120,
		MaxTurns:              5,
		SimplifyAfter:         3,
		EscalateAfter:         3,
	}
	tracker := conversation.NewTracker(conversation.NewMemorySessionStore(), cfg, logger.NewTestLogger(t))
	assembler := response.NewAssembler(logger.NewTestLogger(t))
	return NewHandler(createTestConfig(), tracker, assembler, logger.NewTestLogger(t)), tracker
}

func newSession(t *testing.T, tracker *conversation.Tracker) string {
	c, err := tracker.CreateSession(context.Background(), "citizen-1", "english")
	require.NoError(t, err)
	return c.SessionID
}

func job(id, title string) models.MatchResult {
	return models.MatchResult{
		Opportunity: models.Opportunity{
			ID:   id,
			Type: models.TypeJob,
			Name: models.LocalizedText{English: title},
			Job:  &models.JobDetails{Company: "Acme"},
		},
		Score: 0.5,
	}
}

func TestExecuteSearchResultsAppendsTurnAndResetsStreaks(t *testing.T) {
	h, tracker := newTestHandler(t)
	sessionID := newSession(t, tracker)

	// A prior failed turn left a streak behind.
	_, err := tracker.RecordOutcome(context.Background(), sessionID, conversation.OutcomeIntentFailure)
	require.NoError(t, err)

	out, err := h.Execute(context.Background(), &Input{
		SessionID: sessionID,
		CitizenID: "citizen-1",
		Kind:      response.KindSearchResults,
		Text:      "jobs near pune",
		Intent:    "search",
		Results:   []models.MatchResult{job("j1", "Plumber"), job("j2", "Electrician")},
	})
	require.NoError(t, err)

	assert.Equal(t, response.KindSearchResults, out.Payload.Kind)
	assert.Equal(t, []string{"j1", "j2"}, out.Payload.Surfaced)
	assert.False(t, out.Payload.Escalate, "a successful turn carries no pressure flags")

	c, err := tracker.GetContext(context.Background(), sessionID)
	require.NoError(t, err)
	require.Len(t, c.Turns, 1)
	assert.Equal(t, "jobs near pune", c.Turns[0].Input)
	assert.Equal(t, []string{"j1", "j2"}, c.Turns[0].Surfaced)
	assert.Zero(t, c.FailureStreak)

	// The surfaced ids are live for ordinal references on the next turn.
	id, err := tracker.ResolveReference(context.Background(), sessionID, "the second one")
	require.NoError(t, err)
	assert.Equal(t, "j2", id)
}

func TestExecuteClarificationKeepsStreaksAndSimplifies(t *testing.T) {
	h, tracker := newTestHandler(t)
	sessionID := newSession(t, tracker)

	for i := 0; i < 3; i++ {
		_, err := tracker.RecordOutcome(context.Background(), sessionID, conversation.OutcomeClarification)
		require.NoError(t, err)
	}

	out, err := h.Execute(context.Background(), &Input{
		SessionID:    sessionID,
		CitizenID:    "citizen-1",
		Kind:         response.KindClarification,
		Text:         "hmm",
		ClarifyCause: string(response.CauseLowConfidence),
	})
	require.NoError(t, err)

	assert.True(t, out.Payload.Simplify, "third consecutive clarification switches to simple wording")

	c, err := tracker.GetContext(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Equal(t, 3, c.ClarificationStreak, "assembling the payload does not count as another clarification")
	assert.Len(t, c.Turns, 1)
}

func TestExecuteUnavailableLeavesHistoryUntouched(t *testing.T) {
	h, tracker := newTestHandler(t)
	sessionID := newSession(t, tracker)

	out, err := h.Execute(context.Background(), &Input{
		SessionID: sessionID,
		CitizenID: "citizen-1",
		Kind:      response.KindUnavailable,
		Text:      "jobs near pune",
	})
	require.NoError(t, err)
	assert.Equal(t, response.KindUnavailable, out.Payload.Kind)

	c, err := tracker.GetContext(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Empty(t, c.Turns, "a degraded upstream never writes history")
	assert.Empty(t, c.Referenced)
}

func TestExecuteEligibilitySurfacesVerdictAndAlternatives(t *testing.T) {
	h, tracker := newTestHandler(t)
	sessionID := newSession(t, tracker)

	opp := models.Opportunity{
		ID:   "s1",
		Type: models.TypeScheme,
		Name: models.LocalizedText{English: "Housing Scheme"},
	}
	alt := models.Opportunity{
		ID:   "s2",
		Type: models.TypeScheme,
		Name: models.LocalizedText{English: "Rental Support"},
	}

	out, err := h.Execute(context.Background(), &Input{
		SessionID:   sessionID,
		CitizenID:   "citizen-1",
		Kind:        response.KindEligibility,
		Opportunity: &opp,
		Evaluation: &models.EligibilityResult{
			OpportunityID: "s1",
			Eligible:      false,
			Matched:       []string{"location"},
			Unmatched:     []models.CriterionFailure{{Criterion: "age", Detail: "age 40 is above the maximum 25"}},
			Explanation:   "Your location matches, but age 40 is above the maximum 25.",
		},
		Alternatives: []eligibility.Alternative{{
			Opportunity:    alt,
			SharedCriteria: []string{"location"},
			Result:         models.EligibilityResult{Eligible: true},
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"s1", "s2"}, out.Payload.Surfaced)
	require.Len(t, out.Payload.Alternatives, 1)
	assert.Equal(t, "s2", out.Payload.Alternatives[0].ID)

	// "Tell me more" right after the verdict points at the verdict's subject.
	id, err := tracker.ResolveReference(context.Background(), sessionID, "tell me more")
	require.NoError(t, err)
	assert.Equal(t, "s1", id)
}

func TestExecuteProfileUpdateSupersededCarriesNotice(t *testing.T) {
	h, tracker := newTestHandler(t)
	sessionID := newSession(t, tracker)

	out, err := h.Execute(context.Background(), &Input{
		SessionID:  sessionID,
		CitizenID:  "citizen-1",
		Kind:       response.KindProfileUpdate,
		Field:      "location",
		Value:      "Nagpur",
		Superseded: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "VALUE_SUPERSEDED", out.Payload.Notice)
	assert.Contains(t, out.Payload.Message, "location")
}

func TestExecuteDetailsPresentsSingleItem(t *testing.T) {
	h, tracker := newTestHandler(t)
	sessionID := newSession(t, tracker)

	opp := job("j1", "Plumber").Opportunity
	out, err := h.Execute(context.Background(), &Input{
		SessionID:   sessionID,
		CitizenID:   "citizen-1",
		Kind:        KindDetails,
		Opportunity: &opp,
	})
	require.NoError(t, err)

	require.Len(t, out.Payload.Items, 1)
	assert.Equal(t, []string{"j1"}, out.Payload.Surfaced)
}

func TestExecuteUnknownKindFails(t *testing.T) {
	h, tracker := newTestHandler(t)
	sessionID := newSession(t, tracker)

	_, err := h.Execute(context.Background(), &Input{SessionID: sessionID, Kind: "poetry"})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeValidation, apperrors.CodeOf(err))
}

func TestExecuteUnknownSessionFails(t *testing.T) {
	h, _ := newTestHandler(t)

	_, err := h.Execute(context.Background(), &Input{
		SessionID: "nope",
		Kind:      response.KindHelp,
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeSessionNotFound, apperrors.CodeOf(err))
}

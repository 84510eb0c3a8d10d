// internal/workers/conversation/route-intent/handler_test.go
package routeintent

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
	"sahayak-workers/internal/intent"
	"sahayak-workers/internal/models"
)

func createTestConfig() *Config {
	return &Config{Timeout: 5 * time.Second, DefaultLanguage: "english"}
}

func newTestTracker(t *testing.T) *conversation.Tracker {
	cfg := config.ConversationConfig{
		SessionTimeoutSeconds: 120,
		MaxTurns:              5,
		SimplifyAfter:         3,
		EscalateAfter:         3,
	}
	return conversation.NewTracker(conversation.NewMemorySessionStore(), cfg, logger.NewTestLogger(t))
}

type fakeClassifier struct {
	classification *models.Classification
	err            error
	calls          int
}

func (f *fakeClassifier) Classify(ctx context.Context, text, language string) (*models.Classification, error) {
	f.calls++
	return f.classification, f.err
}

func newTestHandler(t *testing.T, classifier *fakeClassifier) (*Handler, *conversation.Tracker) {
	tracker := newTestTracker(t)
	router := intent.NewRouter(config.IntentConfig{ConfidenceThreshold: 0.7})
	if classifier != nil {
		return NewHandler(createTestConfig(), tracker, router, classifier, logger.NewTestLogger(t)), tracker
	}
	return NewHandler(createTestConfig(), tracker, router, nil, logger.NewTestLogger(t)), tracker
}

func classification(category models.Category, confidence float64) *models.Classification {
	return &models.Classification{Category: category, Confidence: confidence}
}

func TestExecuteRoutesHighConfidenceSearch(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	out, err := h.Execute(context.Background(), &Input{
		CitizenID:      "citizen-1",
		Text:           "I need a job",
		Classification: classification(models.CategoryJob, 0.92),
	})
	require.NoError(t, err)

	assert.Equal(t, "search", out.Route)
	assert.Equal(t, "job", out.Category)
	assert.Equal(t, "job", out.SearchType)
	assert.True(t, out.FreshSession)
	assert.NotEmpty(t, out.SessionID)
	assert.False(t, out.Failure)
	assert.False(t, out.Escalate)
}

func TestExecuteLowConfidenceIsClarificationFailure(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	out, err := h.Execute(context.Background(), &Input{
		CitizenID:      "citizen-1",
		Text:           "uhh something",
		Classification: classification(models.CategoryJob, 0.4),
	})
	require.NoError(t, err)

	assert.Equal(t, "clarify", out.Route)
	assert.True(t, out.Failure)
}

func TestExecuteTopicChangeSignal(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	first, err := h.Execute(context.Background(), &Input{
		CitizenID:      "citizen-1",
		Text:           "find me a job",
		Classification: classification(models.CategoryJob, 0.9),
	})
	require.NoError(t, err)
	assert.False(t, first.TopicChanged, "setting the first topic is not a change")

	second, err := h.Execute(context.Background(), &Input{
		SessionID:      first.SessionID,
		CitizenID:      "citizen-1",
		Text:           "what about government schemes",
		Classification: classification(models.CategoryScheme, 0.9),
	})
	require.NoError(t, err)
	assert.True(t, second.TopicChanged)
	assert.Equal(t, "scheme", second.Topic)
}

func TestExecuteEscalatesOnFourthConsecutiveFailure(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	var sessionID string
	for i := 0; i < 3; i++ {
		out, err := h.Execute(context.Background(), &Input{
			SessionID:      sessionID,
			CitizenID:      "citizen-1",
			Text:           "mumble",
			Classification: classification(models.CategoryJob, 0.2),
		})
		require.NoError(t, err)
		assert.Equal(t, "clarify", out.Route)
		sessionID = out.SessionID
	}

	// The streak has reached the threshold: the fourth failure routes to
	// escalation instead of another clarification.
	out, err := h.Execute(context.Background(), &Input{
		SessionID:      sessionID,
		CitizenID:      "citizen-1",
		Text:           "mumble again",
		Classification: classification(models.CategoryJob, 0.2),
	})
	require.NoError(t, err)
	assert.Equal(t, "escalate", out.Route)
	assert.True(t, out.Escalate)
}

func TestExecuteSuccessfulTurnResetsStreaks(t *testing.T) {
	h, tracker := newTestHandler(t, nil)

	out, err := h.Execute(context.Background(), &Input{
		CitizenID:      "citizen-1",
		Text:           "mumble",
		Classification: classification(models.CategoryJob, 0.2),
	})
	require.NoError(t, err)
	sessionID := out.SessionID

	// A successful non-clarification turn in between resets the counter.
	_, err = tracker.RecordOutcome(context.Background(), sessionID, conversation.OutcomeSuccess)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		out, err = h.Execute(context.Background(), &Input{
			SessionID:      sessionID,
			CitizenID:      "citizen-1",
			Text:           "mumble",
			Classification: classification(models.CategoryJob, 0.2),
		})
		require.NoError(t, err)
		assert.Equal(t, "clarify", out.Route, "streak restarted from zero after the success")
	}
}

func TestExecuteReferencePhraseSkipsClassifier(t *testing.T) {
	fc := &fakeClassifier{classification: classification(models.CategoryJob, 0.9)}
	h, _ := newTestHandler(t, fc)

	out, err := h.Execute(context.Background(), &Input{
		CitizenID: "citizen-1",
		Text:      "tell me more",
	})
	require.NoError(t, err)

	assert.Equal(t, "reference", out.Route)
	assert.Zero(t, fc.calls, "reference phrases never consult the classifier")
}

func TestExecuteFetchesClassificationWhenMissing(t *testing.T) {
	fc := &fakeClassifier{classification: classification(models.CategoryEducation, 0.85)}
	h, _ := newTestHandler(t, fc)

	out, err := h.Execute(context.Background(), &Input{
		CitizenID: "citizen-1",
		Text:      "courses near me",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, fc.calls)
	assert.Equal(t, "search", out.Route)
	assert.Equal(t, "program", out.SearchType)
}

func TestExecuteClassifierOutageSurfacesUpstreamError(t *testing.T) {
	fc := &fakeClassifier{err: apperrors.NewUpstreamUnavailableError("intent-classifier", nil)}
	h, _ := newTestHandler(t, fc)

	_, err := h.Execute(context.Background(), &Input{
		CitizenID: "citizen-1",
		Text:      "courses near me",
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeUpstreamUnavailable, apperrors.CodeOf(err))
}

func TestExecuteValidatesInput(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	_, err := h.Execute(context.Background(), &Input{Text: "hello"})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeValidation, apperrors.CodeOf(err))

	_, err = h.Execute(context.Background(), &Input{CitizenID: "citizen-1"})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeValidation, apperrors.CodeOf(err))
}

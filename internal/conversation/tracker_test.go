// internal/conversation/tracker_test.go
package conversation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sahayak-workers/internal/common/config"
	apperrors "sahayak-workers/internal/common/errors"
	"sahayak-workers/internal/common/logger"
	"sahayak-workers/internal/models"
)

func testConversationConfig() config.ConversationConfig {
	return config.ConversationConfig{
		SessionTimeoutSeconds: 120,
		MaxTurns:              5,
		SimplifyAfter:         3,
		EscalateAfter:         3,
	}
}

func newTestTracker(t *testing.T) (*Tracker, *MemorySessionStore) {
	store := NewMemorySessionStore()
	tracker := NewTracker(store, testConversationConfig(), logger.NewTestLogger(t))
	return tracker, store
}

func newSession(t *testing.T, tracker *Tracker) *models.ConversationContext {
	c, err := tracker.CreateSession(context.Background(), "citizen-1", models.LanguageHindi)
	require.NoError(t, err)
	return c
}

func TestCreateSessionStartsEmpty(t *testing.T) {
	tracker, _ := newTestTracker(t)
	c := newSession(t, tracker)

	assert.NotEmpty(t, c.SessionID)
	assert.Equal(t, "citizen-1", c.CitizenID)
	assert.Equal(t, models.LanguageHindi, c.Language)
	assert.Empty(t, c.Turns)
	assert.Empty(t, c.Referenced)
	assert.Empty(t, c.Topic)
}

func TestAppendTurnKeepsRingBounded(t *testing.T) {
	tracker, _ := newTestTracker(t)
	c := newSession(t, tracker)

	for i := 1; i <= 6; i++ {
		_, err := tracker.AppendTurn(context.Background(), c.SessionID, models.Turn{
			Input:  fmt.Sprintf("turn %d", i),
			Intent: "job",
		})
		require.NoError(t, err)
	}

	got, err := tracker.GetContext(context.Background(), c.SessionID)
	require.NoError(t, err)
	require.Len(t, got.Turns, 5)
	// The oldest turn was evicted.
	assert.Equal(t, "turn 2", got.Turns[0].Input)
	assert.Equal(t, "turn 6", got.Turns[4].Input)
}

func TestResolveReferenceThroughTracker(t *testing.T) {
	tracker, _ := newTestTracker(t)
	c := newSession(t, tracker)

	_, err := tracker.AppendTurn(context.Background(), c.SessionID, models.Turn{
		Input:    "find jobs",
		Intent:   "job",
		Surfaced: []string{"opp-x", "opp-y", "opp-z"},
	})
	require.NoError(t, err)

	id, err := tracker.ResolveReference(context.Background(), c.SessionID, "the second one")
	require.NoError(t, err)
	assert.Equal(t, "opp-y", id)

	// The resolved opportunity becomes the anaphor target.
	id, err = tracker.ResolveReference(context.Background(), c.SessionID, "it")
	require.NoError(t, err)
	assert.Equal(t, "opp-y", id)
}

func TestResolveReferenceFailureIsRecoverable(t *testing.T) {
	tracker, _ := newTestTracker(t)
	c := newSession(t, tracker)

	_, err := tracker.ResolveReference(context.Background(), c.SessionID, "the first one")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeReferenceUnresolved))
}

func TestDetectTopicChange(t *testing.T) {
	tracker, _ := newTestTracker(t)
	c := newSession(t, tracker)

	// First topic is not a change.
	changed, err := tracker.DetectTopicChange(context.Background(), c.SessionID, models.CategoryJob)
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = tracker.AppendTurn(context.Background(), c.SessionID, models.Turn{
		Input:    "find jobs",
		Intent:   "job",
		Surfaced: []string{"opp-x"},
	})
	require.NoError(t, err)

	// Same topic again is not a change either.
	changed, err = tracker.DetectTopicChange(context.Background(), c.SessionID, models.CategoryJob)
	require.NoError(t, err)
	assert.False(t, changed)

	// Switching to schemes clears the referenced list.
	changed, err = tracker.DetectTopicChange(context.Background(), c.SessionID, models.CategoryScheme)
	require.NoError(t, err)
	assert.True(t, changed)

	got, err := tracker.GetContext(context.Background(), c.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "scheme", got.Topic)
	assert.Empty(t, got.Referenced)
}

func TestTopicNeutralCategoriesLeaveTopicAlone(t *testing.T) {
	tracker, _ := newTestTracker(t)
	c := newSession(t, tracker)

	_, err := tracker.DetectTopicChange(context.Background(), c.SessionID, models.CategoryJob)
	require.NoError(t, err)

	for _, cat := range []models.Category{models.CategoryProfileUpdate, models.CategoryHelp, models.CategoryClarification} {
		changed, err := tracker.DetectTopicChange(context.Background(), c.SessionID, cat)
		require.NoError(t, err)
		assert.False(t, changed)
	}

	got, err := tracker.GetContext(context.Background(), c.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "job", got.Topic)
}

func TestExpiredSessionIsDiscardedOnAccess(t *testing.T) {
	tracker, store := newTestTracker(t)
	c := newSession(t, tracker)

	_, err := tracker.AppendTurn(context.Background(), c.SessionID, models.Turn{Input: "find jobs", Intent: "job"})
	require.NoError(t, err)

	// Age the context past the 120s idle timeout.
	aged, err := store.Get(context.Background(), c.SessionID)
	require.NoError(t, err)
	aged.LastActivity = time.Now().UTC().Add(-121 * time.Second)
	require.NoError(t, store.Put(context.Background(), aged))

	_, err = tracker.GetContext(context.Background(), c.SessionID)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeSessionExpired))

	// Expiry is terminal: the context is gone, not resurrectable.
	_, err = tracker.GetContext(context.Background(), c.SessionID)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeSessionNotFound))
}

func TestEnsureSessionRecreatesAfterExpiry(t *testing.T) {
	tracker, store := newTestTracker(t)
	c := newSession(t, tracker)

	_, err := tracker.AppendTurn(context.Background(), c.SessionID, models.Turn{
		Input:    "find jobs",
		Intent:   "job",
		Surfaced: []string{"opp-x"},
	})
	require.NoError(t, err)

	aged, err := store.Get(context.Background(), c.SessionID)
	require.NoError(t, err)
	aged.LastActivity = time.Now().UTC().Add(-121 * time.Second)
	require.NoError(t, store.Put(context.Background(), aged))

	fresh, refreshed, err := tracker.EnsureSession(context.Background(), c.SessionID, "citizen-1", models.LanguageHindi)
	require.NoError(t, err)
	assert.True(t, refreshed)
	assert.Equal(t, c.SessionID, fresh.SessionID)
	assert.Equal(t, "citizen-1", fresh.CitizenID)
	assert.Empty(t, fresh.Turns)
	assert.Empty(t, fresh.Referenced)
	assert.Empty(t, fresh.Topic)
	assert.Zero(t, fresh.ClarificationStreak)
	assert.Zero(t, fresh.FailureStreak)
}

func TestEnsureSessionKeepsLiveContext(t *testing.T) {
	tracker, _ := newTestTracker(t)
	c := newSession(t, tracker)

	_, err := tracker.AppendTurn(context.Background(), c.SessionID, models.Turn{Input: "hello", Intent: "help"})
	require.NoError(t, err)

	got, refreshed, err := tracker.EnsureSession(context.Background(), c.SessionID, "citizen-1", models.LanguageHindi)
	require.NoError(t, err)
	assert.False(t, refreshed)
	assert.Len(t, got.Turns, 1)
}

func TestEnsureSessionRejectsForeignCitizen(t *testing.T) {
	tracker, _ := newTestTracker(t)
	c := newSession(t, tracker)

	_, _, err := tracker.EnsureSession(context.Background(), c.SessionID, "citizen-2", models.LanguageHindi)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))
}

func TestClarificationStreakSetsSimplify(t *testing.T) {
	tracker, _ := newTestTracker(t)
	c := newSession(t, tracker)

	var flags Flags
	var err error
	for i := 0; i < 3; i++ {
		flags, err = tracker.RecordOutcome(context.Background(), c.SessionID, OutcomeClarification)
		require.NoError(t, err)
	}
	assert.True(t, flags.Simplify)
	assert.False(t, flags.Escalate)
}

func TestEscalateFlagAppearsOnFourthFailure(t *testing.T) {
	tracker, _ := newTestTracker(t)
	c := newSession(t, tracker)

	for i := 0; i < 3; i++ {
		flags, err := tracker.RecordOutcome(context.Background(), c.SessionID, OutcomeIntentFailure)
		require.NoError(t, err)
		assert.False(t, flags.Escalate, "failure %d must not escalate yet", i+1)
	}

	// After three failures the streak is at the threshold and the next
	// failure-path response carries the escalation.
	got, err := tracker.GetContext(context.Background(), c.SessionID)
	require.NoError(t, err)
	assert.True(t, tracker.ShouldEscalate(got))

	flags, err := tracker.RecordOutcome(context.Background(), c.SessionID, OutcomeIntentFailure)
	require.NoError(t, err)
	assert.True(t, flags.Escalate)
}

func TestSuccessResetsBothStreaks(t *testing.T) {
	tracker, _ := newTestTracker(t)
	c := newSession(t, tracker)

	for i := 0; i < 2; i++ {
		_, err := tracker.RecordOutcome(context.Background(), c.SessionID, OutcomeIntentFailure)
		require.NoError(t, err)
	}

	flags, err := tracker.RecordOutcome(context.Background(), c.SessionID, OutcomeSuccess)
	require.NoError(t, err)
	assert.False(t, flags.Simplify)
	assert.False(t, flags.Escalate)

	got, err := tracker.GetContext(context.Background(), c.SessionID)
	require.NoError(t, err)
	assert.Zero(t, got.ClarificationStreak)
	assert.Zero(t, got.FailureStreak)
	assert.False(t, tracker.ShouldEscalate(got))
}

func TestReferenceClarificationDoesNotCountAsIntentFailure(t *testing.T) {
	tracker, _ := newTestTracker(t)
	c := newSession(t, tracker)

	for i := 0; i < 4; i++ {
		_, err := tracker.RecordOutcome(context.Background(), c.SessionID, OutcomeClarification)
		require.NoError(t, err)
	}

	flags, err := tracker.ContextFlags(context.Background(), c.SessionID)
	require.NoError(t, err)
	assert.True(t, flags.Simplify)
	assert.False(t, flags.Escalate)
}

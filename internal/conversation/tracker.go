// internal/conversation/tracker.go
package conversation

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"

	"sahayak-workers/internal/common/config"
	apperrors "sahayak-workers/internal/common/errors"
	"sahayak-workers/internal/common/logger"
	"sahayak-workers/internal/common/metrics"
	"sahayak-workers/internal/models"
)

const sessionLockStripes = 64

// Flags are the conversational pressure signals the response carries:
// Simplify after repeated clarifications on a topic, Escalate after
// repeated total failures to resolve any intent.
type Flags struct {
	Simplify bool `json:"simplify"`
	Escalate bool `json:"escalate"`
}

// Outcome classifies a routed turn for streak bookkeeping.
type Outcome int

const (
	// OutcomeSuccess is a completed, non-clarification turn. Resets both
	// streaks.
	OutcomeSuccess Outcome = iota
	// OutcomeClarification is a clarification turn where the intent itself
	// was resolved, e.g. an unresolved reference.
	OutcomeClarification
	// OutcomeIntentFailure is a turn where no intent could be resolved at
	// all. Counts toward both streaks.
	OutcomeIntentFailure
)

// Tracker owns per-session conversational state. All operations on one
// session are serialized through a striped lock, evaluate idle expiry
// lazily on access, and persist the mutated context before returning.
// Expiry is terminal: an expired context is deleted, never resurrected,
// and the next interaction gets a brand-new context for the same citizen.
type Tracker struct {
	store         SessionStore
	timeout       time.Duration
	maxTurns      int
	simplifyAfter int
	escalateAfter int
	logger        logger.Logger

	locks [sessionLockStripes]sync.Mutex
}

func NewTracker(store SessionStore, cfg config.ConversationConfig, log logger.Logger) *Tracker {
	return &Tracker{
		store:         store,
		timeout:       cfg.SessionTimeout(),
		maxTurns:      cfg.MaxTurns,
		simplifyAfter: cfg.SimplifyAfter,
		escalateAfter: cfg.EscalateAfter,
		logger:        log,
	}
}

func (tr *Tracker) lockFor(sessionID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(sessionID))
	return &tr.locks[h.Sum32()%sessionLockStripes]
}

// CreateSession allocates a new empty context for a citizen.
func (tr *Tracker) CreateSession(ctx context.Context, citizenID, language string) (*models.ConversationContext, error) {
	if citizenID == "" {
		return nil, apperrors.NewValidationError("citizenId", "must be a non-empty string")
	}

	now := time.Now().UTC()
	c := &models.ConversationContext{
		SessionID:    uuid.NewString(),
		CitizenID:    citizenID,
		Language:     language,
		LastActivity: now,
		CreatedAt:    now,
	}
	if err := tr.store.Put(ctx, c); err != nil {
		return nil, err
	}

	tr.logger.Info("session created", map[string]interface{}{
		"sessionId": c.SessionID,
		"citizenId": citizenID,
	})
	return c, nil
}

// GetContext returns the live context, or SESSION_EXPIRED /
// SESSION_NOT_FOUND. Observing an expired context deletes it.
func (tr *Tracker) GetContext(ctx context.Context, sessionID string) (*models.ConversationContext, error) {
	lock := tr.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	return tr.load(ctx, sessionID, time.Now().UTC())
}

// EnsureSession returns the session's live context, allocating a fresh one
// bound to the citizen when the session is missing or expired. The bool
// reports whether a fresh context was allocated.
func (tr *Tracker) EnsureSession(ctx context.Context, sessionID, citizenID, language string) (*models.ConversationContext, bool, error) {
	if sessionID == "" {
		c, err := tr.CreateSession(ctx, citizenID, language)
		return c, true, err
	}

	lock := tr.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	c, err := tr.load(ctx, sessionID, time.Now().UTC())
	if err == nil {
		if c.CitizenID != citizenID {
			return nil, false, apperrors.NewValidationError("sessionId", "session is bound to a different citizen")
		}
		return c, false, nil
	}
	if !apperrors.HasCode(err, apperrors.ErrCodeSessionNotFound) &&
		!apperrors.HasCode(err, apperrors.ErrCodeSessionExpired) {
		return nil, false, err
	}

	now := time.Now().UTC()
	fresh := &models.ConversationContext{
		SessionID:    sessionID,
		CitizenID:    citizenID,
		Language:     language,
		LastActivity: now,
		CreatedAt:    now,
	}
	if err := tr.store.Put(ctx, fresh); err != nil {
		return nil, false, err
	}
	return fresh, true, nil
}

// AppendTurn records a completed exchange, evicting the oldest turn once
// the ring is full. Failed turns are never appended; callers only reach
// this after the turn produced a response.
func (tr *Tracker) AppendTurn(ctx context.Context, sessionID string, t models.Turn) (*models.ConversationContext, error) {
	lock := tr.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now().UTC()
	c, err := tr.load(ctx, sessionID, now)
	if err != nil {
		return nil, err
	}

	if t.Timestamp.IsZero() {
		t.Timestamp = now
	}
	c.AppendTurn(t, tr.maxTurns)
	c.Touch(now)

	if err := tr.store.Put(ctx, c); err != nil {
		return nil, err
	}
	metrics.ConversationTurns.WithLabelValues(t.Intent).Inc()
	return c, nil
}

// ResolveReference maps a reference phrase onto an opportunity id and
// promotes it to the head of the referenced list. An unresolvable phrase
// returns REFERENCE_UNRESOLVED; the caller asks for clarification, it
// never guesses.
func (tr *Tracker) ResolveReference(ctx context.Context, sessionID, phrase string) (string, error) {
	lock := tr.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now().UTC()
	c, err := tr.load(ctx, sessionID, now)
	if err != nil {
		return "", err
	}

	id, ok := resolveReference(c, phrase)
	if !ok {
		return "", apperrors.NewReferenceUnresolvedError(phrase)
	}

	c.PushReference(id)
	c.Touch(now)
	if err := tr.store.Put(ctx, c); err != nil {
		return "", err
	}
	return id, nil
}

// DetectTopicChange updates the topic tag for topic-bearing categories.
// Moving from one topic to another clears the referenced list and reports
// true; setting the very first topic is not a change. Topic-neutral
// categories (profile updates, help, clarification) never touch the tag.
func (tr *Tracker) DetectTopicChange(ctx context.Context, sessionID string, category models.Category) (bool, error) {
	lock := tr.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now().UTC()
	c, err := tr.load(ctx, sessionID, now)
	if err != nil {
		return false, err
	}

	topic := category.Topic()
	if topic == "" || topic == c.Topic {
		return false, nil
	}

	changed := c.Topic != ""
	c.Topic = topic
	if changed {
		c.ClearReferences()
	}
	c.Touch(now)
	if err := tr.store.Put(ctx, c); err != nil {
		return false, err
	}

	if changed {
		tr.logger.Debug("topic changed", map[string]interface{}{
			"sessionId": sessionID,
			"topic":     topic,
		})
	}
	return changed, nil
}

// RecordOutcome updates the clarification and failure streaks and returns
// the flags the next response must carry.
func (tr *Tracker) RecordOutcome(ctx context.Context, sessionID string, outcome Outcome) (Flags, error) {
	lock := tr.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now().UTC()
	c, err := tr.load(ctx, sessionID, now)
	if err != nil {
		return Flags{}, err
	}

	switch outcome {
	case OutcomeSuccess:
		c.ClarificationStreak = 0
		c.FailureStreak = 0
	case OutcomeClarification:
		c.ClarificationStreak++
	case OutcomeIntentFailure:
		c.ClarificationStreak++
		c.FailureStreak++
	}
	c.Touch(now)

	if err := tr.store.Put(ctx, c); err != nil {
		return Flags{}, err
	}

	flags := tr.flags(c)
	if outcome == OutcomeIntentFailure && c.FailureStreak == tr.escalateAfter+1 {
		metrics.EscalationsTriggered.Inc()
		tr.logger.Warn("session escalated after repeated failures", map[string]interface{}{
			"sessionId":     sessionID,
			"failureStreak": c.FailureStreak,
		})
	}
	return flags, nil
}

// ContextFlags reads the current flags without mutating the context.
func (tr *Tracker) ContextFlags(ctx context.Context, sessionID string) (Flags, error) {
	lock := tr.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	c, err := tr.load(ctx, sessionID, time.Now().UTC())
	if err != nil {
		return Flags{}, err
	}
	return tr.flags(c), nil
}

func (tr *Tracker) flags(c *models.ConversationContext) Flags {
	return Flags{
		Simplify: c.ClarificationStreak >= tr.simplifyAfter,
		Escalate: c.FailureStreak > tr.escalateAfter,
	}
}

// ShouldEscalate reports whether the next failure-path response belongs to
// the escalation route: the failure streak has already reached the
// threshold, so another failure is not met with yet another clarification.
func (tr *Tracker) ShouldEscalate(c *models.ConversationContext) bool {
	return c.FailureStreak >= tr.escalateAfter
}

// load fetches a context and applies lazy expiry: a context idle past the
// timeout is deleted and reported as SESSION_EXPIRED. Callers must hold
// the session lock.
func (tr *Tracker) load(ctx context.Context, sessionID string, now time.Time) (*models.ConversationContext, error) {
	c, err := tr.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if c.Expired(now, tr.timeout) {
		if err := tr.store.Delete(ctx, sessionID); err != nil {
			tr.logger.Warn("failed to delete expired session", map[string]interface{}{
				"sessionId": sessionID,
				"error":     err.Error(),
			})
		}
		metrics.SessionExpiries.Inc()
		tr.logger.Info("session expired", map[string]interface{}{
			"sessionId": sessionID,
			"idleFor":   now.Sub(c.LastActivity).String(),
		})
		return nil, apperrors.NewSessionExpiredError(sessionID)
	}
	return c, nil
}

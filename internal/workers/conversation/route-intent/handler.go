// internal/workers/conversation/route-intent/handler.go
package routeintent

import (
	"context"
	"encoding/json"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "sahayak-workers/internal/common/errors"
	"sahayak-workers/internal/common/logger"
	"sahayak-workers/internal/common/metrics"
	"sahayak-workers/internal/conversation"
	"sahayak-workers/internal/intent"
)

const TaskType = "route-intent"

// Handler anchors every turn: it ensures a live session for the citizen,
// obtains a classification (supplied or fetched), routes the utterance
// and applies the tracker side effects of the decision. Clarification and
// failure outcomes are recorded here; successful turns are recorded by
// assemble-response once the payload exists, so a turn that fails midway
// never touches the history.
type Handler struct {
	config     *Config
	tracker    *conversation.Tracker
	router     *intent.Router
	classifier intent.Classifier
	errors     *apperrors.ErrorHandler
	logger     logger.Logger
}

// NewHandler wires the routing worker. classifier may be nil when the
// deployment always supplies classifications in process variables.
func NewHandler(config *Config, tracker *conversation.Tracker, router *intent.Router, classifier intent.Classifier, log logger.Logger) *Handler {
	return &Handler{
		config:     config,
		tracker:    tracker,
		router:     router,
		classifier: classifier,
		errors:     apperrors.NewErrorHandler(log),
		logger:     log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, apperrors.NewValidationError("variables", "must be valid JSON"))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, err)
		return nil
	}

	if err := completeJob(ctx, client, job, output); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return err
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	return nil
}

// Execute is exported for tests; Handle wraps it with job plumbing.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.CitizenID == "" {
		return nil, apperrors.NewValidationError("citizenId", "must be a non-empty string")
	}
	if input.Text == "" {
		return nil, apperrors.NewValidationError("text", "must be a non-empty string")
	}

	language := input.Language
	if language == "" {
		language = h.config.DefaultLanguage
	}

	sessionCtx, fresh, err := h.tracker.EnsureSession(ctx, input.SessionID, input.CitizenID, language)
	if err != nil {
		return nil, err
	}
	sessionID := sessionCtx.SessionID

	classification := input.Classification
	if classification == nil && h.classifier != nil && !conversation.IsReferencePhrase(input.Text) {
		classification, err = h.classifier.Classify(ctx, input.Text, language)
		if err != nil {
			if isUpstream(err) {
				// Let the retry budget play out at the engine level; a
				// second failure surfaces the unavailable outcome.
				return nil, err
			}
			h.logger.Warn("classifier failed, routing without classification", map[string]interface{}{
				"sessionId": sessionID,
				"error":     err.Error(),
			})
			classification = nil
		}
	}

	decision := h.router.Route(input.Text, classification, h.tracker.ShouldEscalate(sessionCtx))

	output := &Output{
		SessionID:    sessionID,
		FreshSession: fresh,
		Route:        string(decision.Route),
		Category:     string(decision.Category),
		SearchType:   string(decision.SearchType),
		Confidence:   decision.Confidence,
		Failure:      decision.Failure,
		Reason:       decision.Reason,
	}
	if classification != nil {
		entities := classification.Entities
		output.Entities = &entities
	}

	if decision.Route == intent.RouteSearch {
		changed, err := h.tracker.DetectTopicChange(ctx, sessionID, decision.Category)
		if err != nil {
			return nil, err
		}
		output.TopicChanged = changed
		output.Topic = decision.Category.Topic()
	}

	var flags conversation.Flags
	switch {
	case decision.Failure:
		flags, err = h.tracker.RecordOutcome(ctx, sessionID, conversation.OutcomeIntentFailure)
		metrics.ClarificationsIssued.WithLabelValues("low_confidence").Inc()
	case decision.Route == intent.RouteClarify:
		flags, err = h.tracker.RecordOutcome(ctx, sessionID, conversation.OutcomeClarification)
		metrics.ClarificationsIssued.WithLabelValues("asked_to_clarify").Inc()
	default:
		flags, err = h.tracker.ContextFlags(ctx, sessionID)
	}
	if err != nil {
		return nil, err
	}
	output.Simplify = flags.Simplify
	output.Escalate = flags.Escalate

	h.logger.Info("turn routed", map[string]interface{}{
		"sessionId": sessionID,
		"route":     output.Route,
		"category":  output.Category,
		"failure":   output.Failure,
	})
	return output, nil
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.CodeOf(err))).Inc()
	h.errors.HandleJobError(context.Background(), client, job, err)
}

func isUpstream(err error) bool {
	code := apperrors.CodeOf(err)
	return code == apperrors.ErrCodeUpstreamTimeout || code == apperrors.ErrCodeUpstreamUnavailable
}

func completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		return err
	}
	_, err = cmd.Send(ctx)
	return err
}

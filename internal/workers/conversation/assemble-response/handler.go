// internal/workers/conversation/assemble-response/handler.go
package assembleresponse

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
	"sahayak-workers/internal/models"
	"sahayak-workers/internal/response"
)

const TaskType = "assemble-response"

// KindDetails requests a single-opportunity presentation, the payload
// behind "tell me more" turns. It renders as a search_results payload
// with one item.
const KindDetails = "details"

// Handler closes each turn: it builds the spoken payload for the turn's
// outcome and settles the session bookkeeping in one place. Success
// payloads reset the streaks and the finished turn is appended to the
// session ring; an unavailable payload leaves history untouched so a
// degraded upstream cannot poison reference resolution.
type Handler struct {
	config    *Config
	tracker   *conversation.Tracker
	assembler *response.Assembler
	errors    *apperrors.ErrorHandler
	logger    logger.Logger
}

func NewHandler(config *Config, tracker *conversation.Tracker, assembler *response.Assembler, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		tracker:   tracker,
		assembler: assembler,
		errors:    apperrors.NewErrorHandler(log),
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
	if input.SessionID == "" {
		return nil, apperrors.NewValidationError("sessionId", "must be a non-empty string")
	}
	if input.Kind == "" {
		return nil, apperrors.NewValidationError("kind", "must name the payload kind")
	}

	language := input.Language
	if language == "" {
		language = h.config.DefaultLanguage
	}

	flags, err := h.settleOutcome(ctx, input)
	if err != nil {
		return nil, err
	}

	payload, err := h.buildPayload(input, language, flags)
	if err != nil {
		return nil, err
	}

	// A degraded-upstream apology is not part of the conversation: the
	// turn never happened as far as references and streaks are concerned.
	if payload.Kind != response.KindUnavailable {
		_, err = h.tracker.AppendTurn(ctx, input.SessionID, models.Turn{
			Input:           input.Text,
			Intent:          input.Intent,
			ResponseSummary: payload.Message,
			Surfaced:        payload.Surfaced,
		})
		if err != nil {
			return nil, err
		}
	}

	return &Output{
		SessionID: input.SessionID,
		Payload:   payload,
		SMSOffer:  payload.SMSOffer,
	}, nil
}

// settleOutcome records the streak effect of the turn and returns the
// flags the payload must carry. Only terminal success kinds reset the
// streaks; clarification and escalation outcomes were already counted by
// the routing worker, so those kinds just read the current flags.
func (h *Handler) settleOutcome(ctx context.Context, input *Input) (conversation.Flags, error) {
	switch input.Kind {
	case response.KindSearchResults, KindDetails, response.KindEligibility,
		response.KindProfileUpdate, response.KindHelp:
		return h.tracker.RecordOutcome(ctx, input.SessionID, conversation.OutcomeSuccess)
	case response.KindClarification, response.KindEscalation, response.KindUnavailable:
		return h.tracker.ContextFlags(ctx, input.SessionID)
	default:
		return conversation.Flags{}, apperrors.NewValidationError("kind", "unknown payload kind: "+input.Kind)
	}
}

func (h *Handler) buildPayload(input *Input, language string, flags conversation.Flags) (*response.Payload, error) {
	switch input.Kind {
	case response.KindSearchResults:
		return h.assembler.SearchResults(language, input.Results, flags), nil

	case KindDetails:
		if input.Opportunity == nil {
			return nil, apperrors.NewValidationError("opportunity", "details payload needs the opportunity")
		}
		return h.assembler.OpportunityDetails(language, models.MatchResult{Opportunity: *input.Opportunity}, flags), nil

	case response.KindEligibility:
		if input.Opportunity == nil || input.Evaluation == nil {
			return nil, apperrors.NewValidationError("evaluation", "eligibility payload needs the opportunity and its verdict")
		}
		return h.assembler.Eligibility(language, input.Opportunity, *input.Evaluation, input.Alternatives, flags), nil

	case response.KindProfileUpdate:
		if input.Field == "" {
			return nil, apperrors.NewValidationError("field", "profile_update payload needs the field name")
		}
		return h.assembler.ProfileUpdated(language, input.Field, input.Value, input.Superseded, flags), nil

	case response.KindClarification:
		return h.assembler.Clarification(language, response.ClarifyCause(input.ClarifyCause), input.ClarifyDetail, flags), nil

	case response.KindEscalation:
		return h.assembler.Escalation(language, flags), nil

	case response.KindHelp:
		return h.assembler.Help(language, flags), nil

	case response.KindUnavailable:
		return h.assembler.Unavailable(language, flags), nil
	}
	return nil, apperrors.NewValidationError("kind", "unknown payload kind: "+input.Kind)
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.CodeOf(err))).Inc()
	h.errors.HandleJobError(context.Background(), client, job, err)
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

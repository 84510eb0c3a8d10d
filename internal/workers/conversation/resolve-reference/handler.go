// internal/workers/conversation/resolve-reference/handler.go
package resolvereference

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
	"sahayak-workers/internal/opportunity"
	"sahayak-workers/internal/profile"
)

const TaskType = "resolve-reference"

// Handler maps pronouns and ordinals onto the opportunity they point at.
// A phrase outside the closed set, an empty referenced list or an
// out-of-range ordinal is answered with resolved:false so the process
// asks for clarification instead of guessing.
type Handler struct {
	config   *Config
	tracker  *conversation.Tracker
	source   opportunity.Source
	profiles *profile.Service
	errors   *apperrors.ErrorHandler
	logger   logger.Logger
}

func NewHandler(config *Config, tracker *conversation.Tracker, source opportunity.Source, profiles *profile.Service, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		tracker:  tracker,
		source:   source,
		profiles: profiles,
		errors:   apperrors.NewErrorHandler(log),
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
	if input.Phrase == "" {
		return nil, apperrors.NewValidationError("phrase", "must be a non-empty string")
	}

	id, err := h.tracker.ResolveReference(ctx, input.SessionID, input.Phrase)
	if err != nil {
		if apperrors.HasCode(err, apperrors.ErrCodeReferenceUnresolved) {
			if _, recErr := h.tracker.RecordOutcome(ctx, input.SessionID, conversation.OutcomeClarification); recErr != nil {
				return nil, recErr
			}
			metrics.ClarificationsIssued.WithLabelValues("unresolved_reference").Inc()
			return &Output{
				Resolved:  false,
				ErrorCode: string(apperrors.ErrCodeReferenceUnresolved),
				Phrase:    input.Phrase,
			}, nil
		}
		return nil, err
	}

	output := &Output{Resolved: true, OpportunityID: id, Phrase: input.Phrase}

	if opp, err := h.source.GetByID(ctx, id); err == nil {
		output.Opportunity = opp
	} else {
		h.logger.Warn("resolved opportunity not loadable from catalog", map[string]interface{}{
			"opportunityId": id,
			"error":         err.Error(),
		})
	}

	// Asking after an opportunity counts as viewing it. Best effort: a
	// history hiccup must not break the resolution.
	if input.CitizenID != "" {
		if _, err := h.profiles.AppendHistory(ctx, input.CitizenID, id, models.ActionViewed); err != nil {
			h.logger.Warn("failed to record viewed history", map[string]interface{}{
				"citizenId":     input.CitizenID,
				"opportunityId": id,
				"error":         err.Error(),
			})
		}
	}

	h.logger.Info("reference resolved", map[string]interface{}{
		"sessionId":     input.SessionID,
		"phrase":        input.Phrase,
		"opportunityId": id,
	})
	return output, nil
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

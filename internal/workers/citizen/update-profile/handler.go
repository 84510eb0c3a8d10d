// internal/workers/citizen/update-profile/handler.go
package updateprofile

import (
	"context"
	"encoding/json"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "sahayak-workers/internal/common/errors"
	"sahayak-workers/internal/common/logger"
	"sahayak-workers/internal/common/metrics"
	"sahayak-workers/internal/models"
	"sahayak-workers/internal/profile"
)

const TaskType = "update-citizen-profile"

// Handler is the single write path to citizen profiles: onboarding
// creation, single-field updates and idempotent history appends. All
// validation lives in the profile service's rule table; this worker only
// translates between process variables and the service.
type Handler struct {
	config   *Config
	profiles *profile.Service
	errors   *apperrors.ErrorHandler
	logger   logger.Logger
}

func NewHandler(config *Config, profiles *profile.Service, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
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
	if input.CitizenID == "" {
		return nil, apperrors.NewValidationError("citizenId", "must be a non-empty string")
	}

	switch input.Operation {
	case OpCreate:
		return h.create(ctx, input)
	case OpUpdate:
		return h.update(ctx, input)
	case OpAppendHistory:
		return h.appendHistory(ctx, input)
	default:
		return nil, apperrors.NewValidationError("operation", "must be one of create, update, append-history")
	}
}

func (h *Handler) create(ctx context.Context, input *Input) (*Output, error) {
	p, err := h.profiles.Create(ctx, input.CitizenID, input.Initial)
	if err != nil {
		return nil, err
	}
	return &Output{
		CitizenID: input.CitizenID,
		Operation: OpCreate,
		Created:   true,
		Profile:   p,
	}, nil
}

func (h *Handler) update(ctx context.Context, input *Input) (*Output, error) {
	if input.Field == "" {
		return nil, apperrors.NewValidationError("field", "must name the profile field to update")
	}

	updatedAt := time.Now().UTC()
	if input.UpdatedAt != nil {
		updatedAt = input.UpdatedAt.UTC()
	}

	p, err := h.profiles.UpdateField(ctx, input.CitizenID, input.Field, input.Value, updatedAt)
	if err != nil {
		// Losing the last-write-wins race is information, not failure:
		// the caller must hear the newer value was kept.
		if apperrors.HasCode(err, apperrors.ErrCodeValueSuperseded) {
			return &Output{
				CitizenID:  input.CitizenID,
				Operation:  OpUpdate,
				Field:      input.Field,
				Superseded: true,
			}, nil
		}
		return nil, err
	}

	return &Output{
		CitizenID: input.CitizenID,
		Operation: OpUpdate,
		Field:     input.Field,
		Profile:   p,
	}, nil
}

func (h *Handler) appendHistory(ctx context.Context, input *Input) (*Output, error) {
	appended, err := h.profiles.AppendHistory(ctx, input.CitizenID, input.OpportunityID, models.HistoryAction(input.Action))
	if err != nil {
		return nil, err
	}
	return &Output{
		CitizenID: input.CitizenID,
		Operation: OpAppendHistory,
		Appended:  appended,
	}, nil
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

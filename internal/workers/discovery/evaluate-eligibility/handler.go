// internal/workers/discovery/evaluate-eligibility/handler.go
package evaluateeligibility

import (
	"context"
	"encoding/json"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "sahayak-workers/internal/common/errors"
	"sahayak-workers/internal/common/logger"
	"sahayak-workers/internal/common/metrics"
	"sahayak-workers/internal/eligibility"
	"sahayak-workers/internal/models"
	"sahayak-workers/internal/opportunity"
	"sahayak-workers/internal/profile"
)

const TaskType = "evaluate-eligibility"

// Handler produces the criteria-by-criteria eligibility verdict for one
// scheme or program, and pairs an ineligible outcome with alternatives
// from the same category that share at least one matched criterion.
type Handler struct {
	config   *Config
	profiles *profile.Service
	source   opportunity.Source
	errors   *apperrors.ErrorHandler
	logger   logger.Logger
}

func NewHandler(config *Config, profiles *profile.Service, source opportunity.Source, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		profiles: profiles,
		source:   source,
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
	if input.Opportunity == nil && input.OpportunityID == "" {
		return nil, apperrors.NewValidationError("opportunityId", "must name an opportunity when none is inlined")
	}

	p, err := h.profiles.Get(ctx, input.CitizenID)
	if err != nil {
		return nil, err
	}

	opp := input.Opportunity
	if opp == nil {
		opp, err = h.source.GetByID(ctx, input.OpportunityID)
		if err != nil {
			return nil, err
		}
	}
	if err := opp.Validate(); err != nil {
		return nil, apperrors.NewValidationError("opportunity", err.Error())
	}

	result := eligibility.Evaluate(p, opp)
	output := &Output{Result: result, Opportunity: opp}

	if !result.Eligible && opp.Type != models.TypeJob {
		output.Alternatives = h.findAlternatives(ctx, p, result, opp.Type)
	}

	h.logger.Info("eligibility evaluated", map[string]interface{}{
		"citizenId":     input.CitizenID,
		"opportunityId": opp.ID,
		"eligible":      result.Eligible,
		"alternatives":  len(output.Alternatives),
	})
	return output, nil
}

// findAlternatives is best effort: the verdict stands even when the
// catalog cannot serve candidates right now.
func (h *Handler) findAlternatives(ctx context.Context, p *models.Profile, failed models.EligibilityResult, category models.OpportunityType) []eligibility.Alternative {
	candidates, err := h.source.Search(ctx, category, models.SearchCriteria{MaxResults: h.config.CandidateLimit})
	if err != nil {
		h.logger.Warn("alternative candidate fetch failed", map[string]interface{}{
			"category": string(category),
			"error":    err.Error(),
		})
		return nil
	}
	return eligibility.FindAlternatives(p, failed, candidates, h.config.MaxAlternatives)
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

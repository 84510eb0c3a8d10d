// internal/workers/discovery/search-opportunities/handler.go
package searchopportunities

import (
	"context"
	"encoding/json"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "sahayak-workers/internal/common/errors"
	"sahayak-workers/internal/common/logger"
	"sahayak-workers/internal/common/metrics"
	"sahayak-workers/internal/intent"
	"sahayak-workers/internal/matching"
	"sahayak-workers/internal/models"
	"sahayak-workers/internal/profile"
)

const TaskType = "search-opportunities"

// Handler loads the citizen's profile, fills the search criteria from the
// extracted entities and the profile, and hands the candidates to the
// matching engine for eligibility-aware ranking. A citizen without a
// profile surfaces PROFILE_NOT_FOUND so the process routes to onboarding.
type Handler struct {
	config   *Config
	profiles *profile.Service
	engine   *matching.Engine
	errors   *apperrors.ErrorHandler
	logger   logger.Logger
}

func NewHandler(config *Config, profiles *profile.Service, engine *matching.Engine, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		profiles: profiles,
		engine:   engine,
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

	searchType, ok := searchTypeOf(input.Category)
	if !ok {
		return nil, apperrors.NewValidationError("category", "must be one of job, scheme, education")
	}

	p, err := h.profiles.Get(ctx, input.CitizenID)
	if err != nil {
		return nil, err
	}

	criteria := mergeCriteria(input.Criteria, input.Entities, p)

	results, err := h.engine.Search(ctx, searchType, p, criteria)
	if err != nil {
		return nil, err
	}

	output := &Output{
		Results:  results,
		Count:    len(results),
		Category: input.Category,
		Surfaced: make([]string, 0, len(results)),
	}
	for _, r := range results {
		output.Surfaced = append(output.Surfaced, r.Opportunity.ID)
	}

	h.logger.Info("opportunity search completed", map[string]interface{}{
		"citizenId": input.CitizenID,
		"category":  input.Category,
		"count":     output.Count,
	})
	return output, nil
}

// searchTypeOf accepts both the classification categories and the
// opportunity type names, since process models pass either.
func searchTypeOf(category string) (models.OpportunityType, bool) {
	if t, ok := intent.SearchTypeFor(models.Category(category)); ok {
		return t, true
	}
	switch models.OpportunityType(category) {
	case models.TypeJob, models.TypeScheme, models.TypeProgram:
		return models.OpportunityType(category), true
	}
	return "", false
}

// mergeCriteria fills gaps in the explicit criteria from the turn's
// extracted entities first, then from the stored profile. Explicit values
// always win.
func mergeCriteria(criteria models.SearchCriteria, entities *models.Entities, p *models.Profile) models.SearchCriteria {
	if entities != nil {
		if criteria.Location == "" {
			criteria.Location = entities.Location
		}
		if len(criteria.Keywords) == 0 && len(entities.Skills) > 0 {
			criteria.Keywords = entities.Skills
		}
		if len(criteria.Keywords) == 0 && len(entities.Interests) > 0 {
			criteria.Keywords = entities.Interests
		}
	}
	if criteria.Location == "" {
		criteria.Location = p.Location
	}
	if len(criteria.Keywords) == 0 && len(p.Skills) > 0 {
		criteria.Keywords = p.Skills
	}
	return criteria
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

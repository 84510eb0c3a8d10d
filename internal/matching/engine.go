// internal/matching/engine.go
package matching

import (
	"context"
	"time"

	"sahayak-workers/internal/common/config"
	apperrors "sahayak-workers/internal/common/errors"
	"sahayak-workers/internal/common/logger"
	"sahayak-workers/internal/common/metrics"
	"sahayak-workers/internal/models"
)

// Source fetches raw opportunity candidates for a category. The backend
// owns keyword and tag filtering; the engine owns eligibility, scoring
// and ordering.
type Source interface {
	Search(ctx context.Context, category models.OpportunityType, criteria models.SearchCriteria) ([]models.Opportunity, error)
}

// Engine turns a category, a profile and raw search criteria into a
// ranked, explained, truncated result list. An empty candidate set is a
// normal outcome and yields an empty list, not an error.
type Engine struct {
	source        Source
	povertyLine   float64
	maxResults    int
	searchTimeout time.Duration
	retryBackoff  time.Duration
	logger        logger.Logger
}

// NewEngine builds an engine over the given source with the configured
// ranking knobs.
func NewEngine(source Source, cfg config.MatchingConfig, log logger.Logger) *Engine {
	return &Engine{
		source:        source,
		povertyLine:   cfg.PovertyLineMonthly,
		maxResults:    cfg.MaxResults,
		searchTimeout: cfg.SearchTimeout(),
		retryBackoff:  cfg.RetryBackoff(),
		logger:        log,
	}
}

// Search queries the source and ranks the candidates for the profile.
// The source call is bounded per attempt and retried once on a transient
// upstream failure; a second failure surfaces the upstream error so the
// caller can tell the citizen the search is temporarily unavailable.
func (e *Engine) Search(ctx context.Context, category models.OpportunityType, p *models.Profile, criteria models.SearchCriteria) ([]models.MatchResult, error) {
	start := time.Now()

	opportunities, err := e.fetch(ctx, category, criteria)
	if err != nil {
		return nil, err
	}

	results := Rank(category, p, opportunities, e.povertyLine)

	limit := e.maxResults
	if criteria.MaxResults > 0 && criteria.MaxResults < limit {
		limit = criteria.MaxResults
	}
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	metrics.MatchDuration.WithLabelValues(string(category)).Observe(time.Since(start).Seconds())
	metrics.OpportunitiesReturned.WithLabelValues(string(category)).Observe(float64(len(results)))

	e.logger.Debug("opportunity search ranked", map[string]interface{}{
		"category":   string(category),
		"candidates": len(opportunities),
		"returned":   len(results),
	})
	return results, nil
}

func (e *Engine) fetch(ctx context.Context, category models.OpportunityType, criteria models.SearchCriteria) ([]models.Opportunity, error) {
	opportunities, err := e.attempt(ctx, category, criteria)
	if err == nil || !isTransient(err) {
		return opportunities, err
	}

	e.logger.Warn("opportunity source failed, retrying once", map[string]interface{}{
		"category": string(category),
		"error":    err.Error(),
	})
	select {
	case <-time.After(e.retryBackoff):
	case <-ctx.Done():
		return nil, apperrors.NewUpstreamTimeoutError("opportunity-search", ctx.Err())
	}
	return e.attempt(ctx, category, criteria)
}

func (e *Engine) attempt(ctx context.Context, category models.OpportunityType, criteria models.SearchCriteria) ([]models.Opportunity, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, e.searchTimeout)
	defer cancel()
	return e.source.Search(attemptCtx, category, criteria)
}

func isTransient(err error) bool {
	code := apperrors.CodeOf(err)
	return code == apperrors.ErrCodeUpstreamTimeout || code == apperrors.ErrCodeUpstreamUnavailable
}

// internal/intent/router_test.go
package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sahayak-workers/internal/common/config"
	"sahayak-workers/internal/models"
)

func newTestRouter() *Router {
	return NewRouter(config.IntentConfig{ConfidenceThreshold: 0.7})
}

func classified(category models.Category, confidence float64) *models.Classification {
	return &models.Classification{Category: category, Confidence: confidence}
}

func TestRouteByCategory(t *testing.T) {
	router := newTestRouter()

	tests := []struct {
		name           string
		utterance      string
		classification *models.Classification
		escalateNow    bool
		wantRoute      RouteKind
		wantSearchType models.OpportunityType
		wantFailure    bool
	}{
		{
			name:           "job search",
			utterance:      "i need work near me",
			classification: classified(models.CategoryJob, 0.92),
			wantRoute:      RouteSearch,
			wantSearchType: models.TypeJob,
		},
		{
			name:           "scheme search",
			utterance:      "any government help for housing",
			classification: classified(models.CategoryScheme, 0.81),
			wantRoute:      RouteSearch,
			wantSearchType: models.TypeScheme,
		},
		{
			name:           "education maps to programs",
			utterance:      "i want to study tailoring",
			classification: classified(models.CategoryEducation, 0.88),
			wantRoute:      RouteSearch,
			wantSearchType: models.TypeProgram,
		},
		{
			name:           "profile update",
			utterance:      "i moved to pune",
			classification: classified(models.CategoryProfileUpdate, 0.9),
			wantRoute:      RouteProfileUpdate,
		},
		{
			name:           "help",
			utterance:      "what can you do",
			classification: classified(models.CategoryHelp, 0.95),
			wantRoute:      RouteHelp,
		},
		{
			name:           "clarification request is not a failure",
			utterance:      "what do you mean by that",
			classification: classified(models.CategoryClarification, 0.85),
			wantRoute:      RouteClarify,
			wantFailure:    false,
		},
		{
			name:           "low confidence fails to clarify",
			utterance:      "umm something",
			classification: classified(models.CategoryJob, 0.4),
			wantRoute:      RouteClarify,
			wantFailure:    true,
		},
		{
			name:           "confidence exactly at threshold passes",
			utterance:      "jobs please",
			classification: classified(models.CategoryJob, 0.7),
			wantRoute:      RouteSearch,
			wantSearchType: models.TypeJob,
		},
		{
			name:           "unrecognized category fails",
			utterance:      "whatever this is",
			classification: classified(models.Category("weather"), 0.99),
			wantRoute:      RouteClarify,
			wantFailure:    true,
		},
		{
			name:        "missing classification fails",
			utterance:   "hello",
			wantRoute:   RouteClarify,
			wantFailure: true,
		},
		{
			name:           "failure escalates once the streak is at the threshold",
			utterance:      "umm something",
			classification: classified(models.CategoryJob, 0.3),
			escalateNow:    true,
			wantRoute:      RouteEscalate,
			wantFailure:    true,
		},
		{
			name:           "success never escalates",
			utterance:      "i need work",
			classification: classified(models.CategoryJob, 0.95),
			escalateNow:    true,
			wantRoute:      RouteSearch,
			wantSearchType: models.TypeJob,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := router.Route(tt.utterance, tt.classification, tt.escalateNow)

			assert.Equal(t, tt.wantRoute, d.Route)
			assert.Equal(t, tt.wantSearchType, d.SearchType)
			assert.Equal(t, tt.wantFailure, d.Failure)
			if tt.wantFailure {
				assert.NotEmpty(t, d.Reason)
			}
		})
	}
}

func TestReferencePhrasesBypassTheClassifier(t *testing.T) {
	router := newTestRouter()

	for _, utterance := range []string{"tell me more", "  The SECOND one! ", "it", "that one?"} {
		d := router.Route(utterance, nil, false)

		assert.Equal(t, RouteReference, d.Route, "utterance %q", utterance)
		assert.False(t, d.Failure)
	}
}

func TestReferencePhraseWinsOverClassification(t *testing.T) {
	router := newTestRouter()

	// Even a confident classification does not override the closed set.
	d := router.Route("more details", classified(models.CategoryJob, 0.99), false)

	assert.Equal(t, RouteReference, d.Route)
}

func TestSearchTypeFor(t *testing.T) {
	tests := []struct {
		category models.Category
		want     models.OpportunityType
		ok       bool
	}{
		{models.CategoryJob, models.TypeJob, true},
		{models.CategoryScheme, models.TypeScheme, true},
		{models.CategoryEducation, models.TypeProgram, true},
		{models.CategoryHelp, "", false},
		{models.CategoryProfileUpdate, "", false},
	}

	for _, tt := range tests {
		got, ok := SearchTypeFor(tt.category)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.ok, ok)
	}
}

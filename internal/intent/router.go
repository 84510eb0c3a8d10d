// internal/intent/router.go

// Package intent turns NLU classifications into routing decisions. The
// classification itself is externally supplied and treated as
// probabilistic input; routing is deterministic on top of it.
package intent

import (
	"sahayak-workers/internal/common/config"
	"sahayak-workers/internal/conversation"
	"sahayak-workers/internal/models"
)

// RouteKind is the closed set of paths a turn can take.
type RouteKind string

const (
	RouteSearch        RouteKind = "search"
	RouteProfileUpdate RouteKind = "profile_update"
	RouteReference     RouteKind = "reference"
	RouteHelp          RouteKind = "help"
	RouteClarify       RouteKind = "clarify"
	RouteEscalate      RouteKind = "escalate"
)

// Decision is the routing verdict for one utterance. Failure marks turns
// where no intent could be resolved at all; those count toward the
// escalation streak, while a clarification request with a resolved intent
// does not.
type Decision struct {
	Route      RouteKind              `json:"route"`
	Category   models.Category        `json:"category,omitempty"`
	SearchType models.OpportunityType `json:"searchType,omitempty"`
	Confidence float64                `json:"confidence"`
	Failure    bool                   `json:"failure"`
	Reason     string                 `json:"reason,omitempty"`
}

// SearchTypeFor maps a topic-bearing category onto the opportunity
// variant it searches.
func SearchTypeFor(category models.Category) (models.OpportunityType, bool) {
	switch category {
	case models.CategoryJob:
		return models.TypeJob, true
	case models.CategoryScheme:
		return models.TypeScheme, true
	case models.CategoryEducation:
		return models.TypeProgram, true
	default:
		return "", false
	}
}

// Router applies the confidence threshold and the closed category set.
type Router struct {
	threshold float64
}

func NewRouter(cfg config.IntentConfig) *Router {
	return &Router{threshold: cfg.ConfidenceThreshold}
}

// Route decides the path for one utterance. Reference phrases bypass the
// classifier entirely: their set is closed and resolution is
// deterministic. escalateNow says the failure streak has already reached
// the threshold, so a further failure routes to escalation instead of yet
// another clarification; successful turns are never escalated.
func (r *Router) Route(utterance string, classification *models.Classification, escalateNow bool) Decision {
	if conversation.IsReferencePhrase(utterance) {
		return Decision{Route: RouteReference, Reason: "reference phrase"}
	}

	if classification == nil {
		return r.failure(nil, "no classification available", escalateNow)
	}
	if classification.Confidence < r.threshold {
		return r.failure(classification, "confidence below threshold", escalateNow)
	}

	decision := Decision{
		Category:   classification.Category,
		Confidence: classification.Confidence,
	}
	switch classification.Category {
	case models.CategoryJob, models.CategoryScheme, models.CategoryEducation:
		decision.Route = RouteSearch
		decision.SearchType, _ = SearchTypeFor(classification.Category)
	case models.CategoryProfileUpdate:
		decision.Route = RouteProfileUpdate
	case models.CategoryHelp:
		decision.Route = RouteHelp
	case models.CategoryClarification:
		// The intent is resolved: the citizen wants the last answer
		// explained. Not a failure.
		decision.Route = RouteClarify
		decision.Reason = "citizen asked to clarify"
	default:
		return r.failure(classification, "unrecognized category", escalateNow)
	}
	return decision
}

func (r *Router) failure(classification *models.Classification, reason string, escalateNow bool) Decision {
	d := Decision{Route: RouteClarify, Failure: true, Reason: reason}
	if classification != nil {
		d.Category = classification.Category
		d.Confidence = classification.Confidence
	}
	if escalateNow {
		d.Route = RouteEscalate
	}
	return d
}

// internal/models/match.go
package models

// CriterionFailure explains one unmatched criterion, distinguishing a
// profile that lacks the attribute entirely from one whose value fails the
// predicate.
type CriterionFailure struct {
	Criterion string `json:"criterion"`
	Missing   bool   `json:"missing"`
	Detail    string `json:"detail"`
}

// EligibilityResult is the per-opportunity outcome of criteria evaluation.
// Transient: produced per request, never persisted.
type EligibilityResult struct {
	OpportunityID string             `json:"opportunityId"`
	Eligible      bool               `json:"eligible"`
	Matched       []string           `json:"matched,omitempty"`
	Unmatched     []CriterionFailure `json:"unmatched,omitempty"`
	Explanation   string             `json:"explanation"`
}

// UnmatchedNames returns just the criterion names of the failures.
func (r *EligibilityResult) UnmatchedNames() []string {
	if len(r.Unmatched) == 0 {
		return nil
	}
	names := make([]string, len(r.Unmatched))
	for i, f := range r.Unmatched {
		names[i] = f.Criterion
	}
	return names
}

// MatchResult pairs an opportunity with its relevance score and the ordered
// reason fragments that placed it at its rank. Eligible is nil for jobs,
// which carry no eligibility criteria. Transient, never persisted.
type MatchResult struct {
	Opportunity Opportunity `json:"opportunity"`
	Score       float64     `json:"score"`
	Eligible    *bool       `json:"eligible,omitempty"`
	Reasons     []string    `json:"reasons"`
}

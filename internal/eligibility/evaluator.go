// internal/eligibility/evaluator.go

// Package eligibility decides whether a citizen meets an opportunity's
// declared criteria. Evaluation is a pure function of profile and
// criteria: every criterion is evaluated independently, absence of a
// profile attribute never satisfies a requirement, and the result proves
// its verdict criterion by criterion.
package eligibility

import (
	"fmt"
	"sort"
	"strings"

	"sahayak-workers/internal/models"
)

// Evaluate compares a profile against every criterion the opportunity
// declares. Eligible is true only when all of them match; a partial match
// never passes. Opportunities without criteria (jobs, open schemes) are
// eligible by definition.
func Evaluate(p *models.Profile, opp *models.Opportunity) models.EligibilityResult {
	result := models.EligibilityResult{
		OpportunityID: opp.ID,
		Eligible:      true,
	}

	for _, criterion := range opp.Criteria {
		matched, failure := evaluateCriterion(p, criterion)
		if matched {
			result.Matched = append(result.Matched, criterion.Name)
			continue
		}
		result.Eligible = false
		result.Unmatched = append(result.Unmatched, failure)
	}

	result.Explanation = explain(&result, len(opp.Criteria))
	return result
}

// evaluateCriterion applies one predicate. Unrecognized criterion names
// and kinds are conservatively unmatched rather than guessed at.
func evaluateCriterion(p *models.Profile, c models.Criterion) (bool, models.CriterionFailure) {
	switch c.Name {
	case models.CriterionAge:
		var value *float64
		if p.Age != nil {
			v := float64(*p.Age)
			value = &v
		}
		return evaluateNumeric(c, value)
	case models.CriterionIncome:
		return evaluateNumeric(c, p.MonthlyIncome)
	case models.CriterionGender:
		return evaluateText(c, p.Gender)
	case models.CriterionCaste:
		return evaluateText(c, p.Caste)
	case models.CriterionLocation:
		return evaluateText(c, p.Location)
	case models.CriterionEducation:
		return evaluateText(c, p.EducationLevel)
	case models.CriterionEmployment:
		return evaluateText(c, p.EmploymentStatus)
	default:
		return false, models.CriterionFailure{
			Criterion: c.Name,
			Detail:    "unrecognized criterion",
		}
	}
}

func evaluateNumeric(c models.Criterion, value *float64) (bool, models.CriterionFailure) {
	if value == nil {
		return false, models.CriterionFailure{
			Criterion: c.Name,
			Missing:   true,
			Detail:    "profile missing this attribute",
		}
	}

	switch c.Kind {
	case models.CriterionRange:
		if c.Min != nil && *value < *c.Min {
			return false, models.CriterionFailure{
				Criterion: c.Name,
				Detail:    fmt.Sprintf("value %g below minimum %g", *value, *c.Min),
			}
		}
		if c.Max != nil && *value > *c.Max {
			return false, models.CriterionFailure{
				Criterion: c.Name,
				Detail:    fmt.Sprintf("value %g above maximum %g", *value, *c.Max),
			}
		}
		return true, models.CriterionFailure{}
	default:
		return false, models.CriterionFailure{
			Criterion: c.Name,
			Detail:    fmt.Sprintf("criterion kind %q not applicable to %s", c.Kind, c.Name),
		}
	}
}

func evaluateText(c models.Criterion, value string) (bool, models.CriterionFailure) {
	if strings.TrimSpace(value) == "" {
		return false, models.CriterionFailure{
			Criterion: c.Name,
			Missing:   true,
			Detail:    "profile missing this attribute",
		}
	}
	normalized := strings.ToLower(strings.TrimSpace(value))

	switch c.Kind {
	case models.CriterionMembership:
		for _, allowed := range c.Values {
			if normalized == strings.ToLower(strings.TrimSpace(allowed)) {
				return true, models.CriterionFailure{}
			}
		}
		return false, models.CriterionFailure{
			Criterion: c.Name,
			Detail:    fmt.Sprintf("value %q not in allowed set", value),
		}
	case models.CriterionEquality:
		if normalized == strings.ToLower(strings.TrimSpace(c.Value)) {
			return true, models.CriterionFailure{}
		}
		return false, models.CriterionFailure{
			Criterion: c.Name,
			Detail:    fmt.Sprintf("value %q does not equal %q", value, c.Value),
		}
	default:
		return false, models.CriterionFailure{
			Criterion: c.Name,
			Detail:    fmt.Sprintf("criterion kind %q not applicable to %s", c.Kind, c.Name),
		}
	}
}

// explain builds the audit text. A mixed verdict names at least one
// concrete matched and one concrete unmatched criterion.
func explain(r *models.EligibilityResult, declared int) string {
	if declared == 0 {
		return "No eligibility criteria declared."
	}
	if r.Eligible {
		return fmt.Sprintf("Meets all criteria: %s.", strings.Join(r.Matched, ", "))
	}

	var b strings.Builder
	if len(r.Matched) > 0 {
		fmt.Fprintf(&b, "Meets: %s. ", strings.Join(r.Matched, ", "))
	}
	parts := make([]string, len(r.Unmatched))
	for i, f := range r.Unmatched {
		parts[i] = fmt.Sprintf("%s (%s)", f.Criterion, f.Detail)
	}
	fmt.Fprintf(&b, "Does not meet: %s.", strings.Join(parts, ", "))
	return b.String()
}

// Alternative is a substitute suggestion for an ineligible opportunity: a
// candidate on which the profile matches at least one of the criteria it
// also matched on the failed one. Never an arbitrary fallback.
type Alternative struct {
	Opportunity    models.Opportunity       `json:"opportunity"`
	SharedCriteria []string                 `json:"sharedCriteria"`
	Result         models.EligibilityResult `json:"result"`
}

// FindAlternatives evaluates every candidate and keeps those sharing a
// matched criterion with the failed result. Eligible alternatives rank
// first, then more shared criteria, then id for a stable order.
func FindAlternatives(p *models.Profile, failed models.EligibilityResult, candidates []models.Opportunity, limit int) []Alternative {
	matchedOnFailed := make(map[string]bool, len(failed.Matched))
	for _, name := range failed.Matched {
		matchedOnFailed[name] = true
	}
	if len(matchedOnFailed) == 0 {
		return nil
	}

	var alternatives []Alternative
	for _, candidate := range candidates {
		if candidate.ID == failed.OpportunityID {
			continue
		}
		result := Evaluate(p, &candidate)

		var shared []string
		for _, name := range result.Matched {
			if matchedOnFailed[name] {
				shared = append(shared, name)
			}
		}
		if len(shared) == 0 {
			continue
		}
		alternatives = append(alternatives, Alternative{
			Opportunity:    candidate,
			SharedCriteria: shared,
			Result:         result,
		})
	}

	sort.SliceStable(alternatives, func(i, j int) bool {
		if alternatives[i].Result.Eligible != alternatives[j].Result.Eligible {
			return alternatives[i].Result.Eligible
		}
		if len(alternatives[i].SharedCriteria) != len(alternatives[j].SharedCriteria) {
			return len(alternatives[i].SharedCriteria) > len(alternatives[j].SharedCriteria)
		}
		return alternatives[i].Opportunity.ID < alternatives[j].Opportunity.ID
	})

	if limit > 0 && len(alternatives) > limit {
		alternatives = alternatives[:limit]
	}
	return alternatives
}

// internal/matching/ranker.go

// Package matching filters, scores and ranks opportunities against a
// citizen's profile. Ranking is pure and deterministic: identical inputs
// always produce the identical order, and every result explains the
// dominant factor behind its rank.
package matching

import (
	"fmt"
	"sort"
	"strings"

	"sahayak-workers/internal/eligibility"
	"sahayak-workers/internal/models"
)

const softDimensions = 3

// Education levels ordered from least to most advanced. Unrecognized
// levels fall back to exact comparison.
var educationRank = map[string]int{
	"none":             0,
	"primary":          1,
	"secondary":        2,
	"higher-secondary": 3,
	"diploma":          4,
	"graduate":         5,
	"postgraduate":     6,
}

type candidate struct {
	opp         models.Opportunity
	score       float64
	eligible    *bool
	eligExplain string
	urgentTag   bool
	scholarship bool
	reasons     []string
}

// Rank orders opportunities of one category for a profile. The base score
// is the satisfied share of three soft dimensions (skills/interests
// overlap, location tier, education fit). For schemes and programs,
// eligibility dominates: every eligible candidate ranks above every
// ineligible one regardless of base score. Ties break on the
// immediate-assistance tag under urgent need, scholarships under
// financial need for education search, closer deadline, then id.
func Rank(category models.OpportunityType, p *models.Profile, opportunities []models.Opportunity, povertyLine float64) []models.MatchResult {
	urgent := p.UrgentNeed(povertyLine)
	financial := p.FinancialNeed(povertyLine)

	candidates := make([]candidate, 0, len(opportunities))
	for _, opp := range opportunities {
		if opp.Type != category {
			continue
		}
		candidates = append(candidates, buildCandidate(category, p, opp, urgent, financial))
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := &candidates[i], &candidates[j]

		if a.eligible != nil && b.eligible != nil && *a.eligible != *b.eligible {
			return *a.eligible
		}
		if a.score != b.score {
			return a.score > b.score
		}
		if urgent && a.urgentTag != b.urgentTag {
			return a.urgentTag
		}
		if category == models.TypeProgram && financial && a.scholarship != b.scholarship {
			return a.scholarship
		}
		ad, bd := a.opp.Deadline, b.opp.Deadline
		switch {
		case ad != nil && bd != nil:
			if !ad.Equal(*bd) {
				return ad.Before(*bd)
			}
		case ad != nil:
			return true
		case bd != nil:
			return false
		}
		return a.opp.ID < b.opp.ID
	})

	results := make([]models.MatchResult, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, models.MatchResult{
			Opportunity: c.opp,
			Score:       c.score,
			Eligible:    c.eligible,
			Reasons:     c.reasons,
		})
	}
	return results
}

func buildCandidate(category models.OpportunityType, p *models.Profile, opp models.Opportunity, urgent, financial bool) candidate {
	c := candidate{opp: opp}

	switch category {
	case models.TypeScheme, models.TypeProgram:
		res := eligibility.Evaluate(p, &opp)
		eligible := res.Eligible
		c.eligible = &eligible
		c.eligExplain = res.Explanation
	case models.TypeJob:
		// Jobs carry no eligibility criteria; relevance alone ranks them.
	}

	c.urgentTag = opp.HasTag(models.TagImmediateAssistance)
	c.scholarship = opp.Program != nil && opp.Program.Scholarship

	satisfied := 0
	skillReason, skillOK := skillsOverlap(p, &opp)
	if skillOK {
		satisfied++
	}
	locationReason, locationOK := locationFit(p, &opp)
	if locationOK {
		satisfied++
	}
	educationOK := educationFit(p, &opp)
	if educationOK {
		satisfied++
	}
	c.score = float64(satisfied) / softDimensions

	// Reasons, dominant factor first.
	switch {
	case c.eligible != nil && *c.eligible && c.urgentTag && urgent:
		c.reasons = append(c.reasons, "eligible and tagged as immediate assistance")
	case c.eligible != nil && *c.eligible:
		c.reasons = append(c.reasons, "meets all eligibility criteria")
	case c.eligible != nil:
		c.reasons = append(c.reasons, "does not meet all eligibility criteria")
	case c.urgentTag && urgent:
		c.reasons = append(c.reasons, "tagged as immediate assistance")
	}
	if category == models.TypeProgram && c.scholarship && financial {
		c.reasons = append(c.reasons, "scholarship available")
	}
	if skillOK {
		c.reasons = append(c.reasons, skillReason)
	}
	if locationOK {
		c.reasons = append(c.reasons, locationReason)
	}
	if educationOK && opp.MinEducation != "" {
		c.reasons = append(c.reasons, "meets the education requirement")
	}
	if opp.Deadline != nil {
		c.reasons = append(c.reasons, fmt.Sprintf("apply by %s", opp.Deadline.Format("2006-01-02")))
	}
	if len(c.reasons) == 0 {
		c.reasons = append(c.reasons, fmt.Sprintf("listed under %s opportunities", category))
	}
	return c
}

// skillsOverlap reports whether any profile skill or interest appears in
// the opportunity's tags or job requirements, naming the first hit.
// Skills name concrete requirements, so they are checked before interests.
func skillsOverlap(p *models.Profile, opp *models.Opportunity) (string, bool) {
	terms := make(map[string]bool, len(opp.Tags))
	for _, tag := range opp.Tags {
		terms[strings.ToLower(tag)] = true
	}
	if opp.Job != nil {
		for _, req := range opp.Job.Requirements {
			terms[strings.ToLower(req)] = true
		}
	}
	if len(terms) == 0 {
		return "", false
	}

	for _, skill := range p.Skills {
		if terms[strings.ToLower(skill)] {
			return fmt.Sprintf("matches required skill: %s", skill), true
		}
	}
	for _, interest := range p.Interests {
		if terms[strings.ToLower(interest)] {
			return fmt.Sprintf("matches your interest: %s", interest), true
		}
	}
	return "", false
}

// locationFit applies the proximity tier: an opportunity without location
// restrictions serves everywhere; otherwise the profile location must
// appear in its list.
func locationFit(p *models.Profile, opp *models.Opportunity) (string, bool) {
	if len(opp.Locations) == 0 {
		return "not restricted by location", true
	}
	if p.Location == "" {
		return "", false
	}
	for _, loc := range opp.Locations {
		if strings.EqualFold(loc, p.Location) {
			return fmt.Sprintf("available in %s", p.Location), true
		}
	}
	return "", false
}

// educationFit checks the profile's education level against the
// opportunity's minimum on the level ladder.
func educationFit(p *models.Profile, opp *models.Opportunity) bool {
	if opp.MinEducation == "" {
		return true
	}
	if p.EducationLevel == "" {
		return false
	}
	have, haveOK := educationRank[strings.ToLower(p.EducationLevel)]
	need, needOK := educationRank[strings.ToLower(opp.MinEducation)]
	if !haveOK || !needOK {
		return strings.EqualFold(p.EducationLevel, opp.MinEducation)
	}
	return have >= need
}

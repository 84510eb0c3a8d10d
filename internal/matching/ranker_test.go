// internal/matching/ranker_test.go
package matching

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sahayak-workers/internal/models"
)

const testPovertyLine = 12000.0

func intPtr(v int) *int             { return &v }
func floatPtr(v float64) *float64   { return &v }
func timePtr(v time.Time) *time.Time { return &v }

// urgentProfile is unemployed and below the poverty line.
func urgentProfile() *models.Profile {
	return &models.Profile{
		CitizenID:        "cit-1",
		Age:              intPtr(24),
		Location:         "nagpur",
		EducationLevel:   "secondary",
		EmploymentStatus: models.EmploymentUnemployed,
		MonthlyIncome:    floatPtr(7000),
		Skills:           []string{"plumbing"},
		Interests:        []string{"construction"},
	}
}

// settledProfile is employed, above the line, no dependents.
func settledProfile() *models.Profile {
	p := urgentProfile()
	p.EmploymentStatus = models.EmploymentEmployed
	p.MonthlyIncome = floatPtr(45000)
	p.Dependents = 0
	return p
}

func scheme(id string, criteria ...models.Criterion) models.Opportunity {
	return models.Opportunity{
		ID:       id,
		Type:     models.TypeScheme,
		Name:     models.LocalizedText{English: id},
		Criteria: criteria,
		Scheme:   &models.SchemeDetails{Process: "apply at the block office"},
	}
}

func job(id string, requirements ...string) models.Opportunity {
	return models.Opportunity{
		ID:   id,
		Type: models.TypeJob,
		Name: models.LocalizedText{English: id},
		Job:  &models.JobDetails{Company: "acme", Requirements: requirements},
	}
}

func program(id string, scholarship bool) models.Opportunity {
	return models.Opportunity{
		ID:      id,
		Type:    models.TypeProgram,
		Name:    models.LocalizedText{English: id},
		Program: &models.ProgramDetails{Institution: "district iti", Scholarship: scholarship},
	}
}

func ageRange(min, max float64) models.Criterion {
	return models.Criterion{Name: models.CriterionAge, Kind: models.CriterionRange, Min: &min, Max: &max}
}

func ids(results []models.MatchResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Opportunity.ID
	}
	return out
}

func TestEligibilityDominatesBaseScore(t *testing.T) {
	// The ineligible scheme wins every soft dimension; the eligible one
	// wins none. Eligibility still puts the eligible one first.
	ineligible := scheme("scheme-relevant", ageRange(40, 50))
	ineligible.Tags = []string{"plumbing"}

	eligible := scheme("scheme-plain", ageRange(18, 30))
	eligible.Locations = []string{"mumbai"}
	eligible.MinEducation = "graduate"

	results := Rank(models.TypeScheme, urgentProfile(), []models.Opportunity{ineligible, eligible}, testPovertyLine)

	require.Equal(t, []string{"scheme-plain", "scheme-relevant"}, ids(results))
	require.NotNil(t, results[0].Eligible)
	assert.True(t, *results[0].Eligible)
	assert.False(t, *results[1].Eligible)
	assert.Greater(t, results[1].Score, results[0].Score)
}

func TestImmediateAssistanceTagPromotesForUrgentNeed(t *testing.T) {
	tagged := scheme("scheme-z", ageRange(18, 30))
	tagged.Tags = []string{models.TagImmediateAssistance}
	plain := scheme("scheme-a", ageRange(18, 30))

	results := Rank(models.TypeScheme, urgentProfile(), []models.Opportunity{plain, tagged}, testPovertyLine)

	require.Equal(t, []string{"scheme-z", "scheme-a"}, ids(results))
	assert.Contains(t, results[0].Reasons[0], "immediate assistance")
}

func TestImmediateAssistanceTagIgnoredWithoutUrgentNeed(t *testing.T) {
	tagged := scheme("scheme-z", ageRange(18, 30))
	tagged.Tags = []string{models.TagImmediateAssistance}
	plain := scheme("scheme-a", ageRange(18, 30))

	results := Rank(models.TypeScheme, settledProfile(), []models.Opportunity{plain, tagged}, testPovertyLine)

	assert.Equal(t, []string{"scheme-a", "scheme-z"}, ids(results), "without urgent need the tie falls through to id order")
}

func TestScholarshipPromotedForNeedyEducationSearch(t *testing.T) {
	needy := urgentProfile()
	needy.Dependents = 2

	withScholarship := program("program-z", true)
	without := program("program-a", false)

	results := Rank(models.TypeProgram, needy, []models.Opportunity{without, withScholarship}, testPovertyLine)

	require.Equal(t, []string{"program-z", "program-a"}, ids(results))
	assert.Contains(t, results[0].Reasons, "scholarship available")
}

func TestScholarshipIgnoredWithoutFinancialNeed(t *testing.T) {
	withScholarship := program("program-z", true)
	without := program("program-a", false)

	results := Rank(models.TypeProgram, settledProfile(), []models.Opportunity{without, withScholarship}, testPovertyLine)

	assert.Equal(t, []string{"program-a", "program-z"}, ids(results))
}

func TestCloserDeadlineRanksFirst(t *testing.T) {
	soon := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	later := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)

	jobSoon := job("job-z")
	jobSoon.Deadline = timePtr(soon)
	jobLater := job("job-a")
	jobLater.Deadline = timePtr(later)
	jobOpen := job("job-c")

	results := Rank(models.TypeJob, urgentProfile(), []models.Opportunity{jobOpen, jobLater, jobSoon}, testPovertyLine)

	assert.Equal(t, []string{"job-z", "job-a", "job-c"}, ids(results), "dated postings outrank open-ended ones")
}

func TestRankIsDeterministic(t *testing.T) {
	opportunities := []models.Opportunity{job("job-c"), job("job-a"), job("job-b")}

	first := Rank(models.TypeJob, urgentProfile(), opportunities, testPovertyLine)
	second := Rank(models.TypeJob, urgentProfile(), opportunities, testPovertyLine)

	assert.Equal(t, []string{"job-a", "job-b", "job-c"}, ids(first))
	assert.Equal(t, first, second)
}

func TestBaseScoreCountsSoftDimensions(t *testing.T) {
	full := job("job-full", "plumbing")
	full.Locations = []string{"Nagpur"}
	full.MinEducation = "secondary"

	partial := job("job-partial")
	partial.Locations = []string{"Nagpur"}
	partial.MinEducation = "graduate"

	none := job("job-none")
	none.Locations = []string{"mumbai"}
	none.MinEducation = "graduate"

	results := Rank(models.TypeJob, urgentProfile(), []models.Opportunity{none, partial, full}, testPovertyLine)

	require.Equal(t, []string{"job-full", "job-partial", "job-none"}, ids(results))
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.InDelta(t, 1.0/3, results[1].Score, 1e-9)
	assert.InDelta(t, 0.0, results[2].Score, 1e-9)
}

func TestInterestOverlapScoresLikeSkills(t *testing.T) {
	tagged := job("job-tagged")
	tagged.Tags = []string{"construction"}
	plain := job("job-plain")

	results := Rank(models.TypeJob, urgentProfile(), []models.Opportunity{plain, tagged}, testPovertyLine)

	require.Equal(t, "job-tagged", results[0].Opportunity.ID)
	assert.Contains(t, results[0].Reasons, "matches your interest: construction")
}

func TestJobsCarryNoEligibilityVerdict(t *testing.T) {
	results := Rank(models.TypeJob, urgentProfile(), []models.Opportunity{job("job-1", "plumbing")}, testPovertyLine)

	require.Len(t, results, 1)
	assert.Nil(t, results[0].Eligible)
	assert.Contains(t, results[0].Reasons, "matches required skill: plumbing")
}

func TestForeignCategoryEntriesAreSkipped(t *testing.T) {
	mixed := []models.Opportunity{job("job-1"), scheme("scheme-1"), program("program-1", false)}

	results := Rank(models.TypeJob, urgentProfile(), mixed, testPovertyLine)

	assert.Equal(t, []string{"job-1"}, ids(results))
}

func TestEveryResultCarriesAReason(t *testing.T) {
	opportunities := []models.Opportunity{
		job("job-bare"),
		scheme("scheme-fail", ageRange(40, 50)),
		scheme("scheme-pass", ageRange(18, 30)),
	}

	for _, category := range []models.OpportunityType{models.TypeJob, models.TypeScheme} {
		for _, r := range Rank(category, urgentProfile(), opportunities, testPovertyLine) {
			assert.NotEmpty(t, r.Reasons, "opportunity %s must explain its rank", r.Opportunity.ID)
		}
	}
}

func TestIneligibleSchemeReasonSaysSo(t *testing.T) {
	results := Rank(models.TypeScheme, urgentProfile(), []models.Opportunity{scheme("scheme-1", ageRange(40, 50))}, testPovertyLine)

	require.Len(t, results, 1)
	assert.Equal(t, "does not meet all eligibility criteria", results[0].Reasons[0])
}

func TestRankEmptyInput(t *testing.T) {
	results := Rank(models.TypeScheme, urgentProfile(), nil, testPovertyLine)

	assert.NotNil(t, results)
	assert.Empty(t, results)
}

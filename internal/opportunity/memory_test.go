// internal/opportunity/memory_test.go
package opportunity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "sahayak-workers/internal/common/errors"
	"sahayak-workers/internal/models"
)

func testJob(id, name string, tags ...string) models.Opportunity {
	return models.Opportunity{
		ID:   id,
		Type: models.TypeJob,
		Name: models.LocalizedText{English: name},
		Tags: tags,
		Job:  &models.JobDetails{Company: "acme"},
	}
}

func testScheme(id, name string) models.Opportunity {
	return models.Opportunity{
		ID:     id,
		Type:   models.TypeScheme,
		Name:   models.LocalizedText{English: name},
		Scheme: &models.SchemeDetails{Process: "apply online"},
	}
}

func TestMemorySourceFiltersByCategory(t *testing.T) {
	source := NewMemorySource(testJob("job-1", "electrician wanted"), testScheme("scheme-1", "housing support"))

	jobs, err := source.Search(context.Background(), models.TypeJob, models.SearchCriteria{})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "job-1", jobs[0].ID)

	schemes, err := source.Search(context.Background(), models.TypeScheme, models.SearchCriteria{})
	require.NoError(t, err)
	require.Len(t, schemes, 1)
	assert.Equal(t, "scheme-1", schemes[0].ID)
}

func TestMemorySourceLocationFilter(t *testing.T) {
	local := testJob("job-local", "shop assistant")
	local.Locations = []string{"Nagpur"}
	elsewhere := testJob("job-far", "shop assistant")
	elsewhere.Locations = []string{"Mumbai"}
	anywhere := testJob("job-anywhere", "delivery rider")

	source := NewMemorySource(local, elsewhere, anywhere)

	results, err := source.Search(context.Background(), models.TypeJob, models.SearchCriteria{Location: "nagpur"})
	require.NoError(t, err)

	got := make([]string, len(results))
	for i, r := range results {
		got[i] = r.ID
	}
	assert.ElementsMatch(t, []string{"job-local", "job-anywhere"}, got,
		"unrestricted opportunities serve every location")
}

func TestMemorySourceKeywordAndTagFilters(t *testing.T) {
	source := NewMemorySource(
		testJob("job-1", "electrician wanted", "electrical"),
		testJob("job-2", "plumber needed", "plumbing"),
	)

	byKeyword, err := source.Search(context.Background(), models.TypeJob, models.SearchCriteria{Keywords: []string{"plumber"}})
	require.NoError(t, err)
	require.Len(t, byKeyword, 1)
	assert.Equal(t, "job-2", byKeyword[0].ID)

	byTag, err := source.Search(context.Background(), models.TypeJob, models.SearchCriteria{Tags: []string{"electrical"}})
	require.NoError(t, err)
	require.Len(t, byTag, 1)
	assert.Equal(t, "job-1", byTag[0].ID)
}

func TestMemorySourceNoMatchesIsEmptyNotError(t *testing.T) {
	source := NewMemorySource(testJob("job-1", "electrician wanted"))

	results, err := source.Search(context.Background(), models.TypeJob, models.SearchCriteria{Keywords: []string{"astronaut"}})

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMemorySourceGetByIDsPreservesRequestOrder(t *testing.T) {
	source := NewMemorySource(testJob("job-1", "a"), testJob("job-2", "b"), testJob("job-3", "c"))

	found, err := source.GetByIDs(context.Background(), []string{"job-3", "job-1", "job-missing"})

	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "job-3", found[0].ID)
	assert.Equal(t, "job-1", found[1].ID)
}

func TestMemorySourceGetByIDMissing(t *testing.T) {
	source := NewMemorySource(testJob("job-1", "a"))

	_, err := source.GetByID(context.Background(), "job-404")

	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeOpportunityNotFound))
}

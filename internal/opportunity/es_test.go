// internal/opportunity/es_test.go
package opportunity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sahayak-workers/internal/common/database"
	apperrors "sahayak-workers/internal/common/errors"
	"sahayak-workers/internal/common/logger"
	"sahayak-workers/internal/models"
)

// newStubES runs a fake Elasticsearch endpoint. The product header keeps
// the v8 client's compatibility check happy.
func newStubES(t *testing.T, handler http.HandlerFunc) *ESSource {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{server.URL}})
	require.NoError(t, err)
	return NewESSource(&database.ElasticsearchClient{Client: client}, "opportunities", logger.NewTestLogger(t))
}

func hitsBody(t *testing.T, opportunities ...models.Opportunity) []byte {
	t.Helper()
	hits := make([]map[string]interface{}, len(opportunities))
	for i, opp := range opportunities {
		hits[i] = map[string]interface{}{"_source": opp}
	}
	body, err := json.Marshal(map[string]interface{}{
		"hits": map[string]interface{}{
			"total": map[string]interface{}{"value": len(opportunities)},
			"hits":  hits,
		},
	})
	require.NoError(t, err)
	return body
}

func TestESSourceSearchQueriesTheIndex(t *testing.T) {
	var captured map[string]interface{}
	var path string

	source := newStubES(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write(hitsBody(t, testJob("job-1", "electrician wanted")))
	})

	criteria := models.SearchCriteria{Keywords: []string{"electrician"}, Location: "Nagpur", Tags: []string{"electrical"}}
	results, err := source.Search(context.Background(), models.TypeJob, criteria)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "job-1", results[0].ID)
	assert.Equal(t, "/opportunities/_search", path)

	queryJSON, err := json.Marshal(captured)
	require.NoError(t, err)
	assert.Contains(t, string(queryJSON), `"multi_match"`)
	assert.Contains(t, string(queryJSON), `"electrician"`)
	assert.Contains(t, string(queryJSON), `"type":"job"`)
	assert.Contains(t, string(queryJSON), `"locations":"nagpur"`)
	assert.Contains(t, string(queryJSON), `"tags":["electrical"]`)
}

func TestESSourceMatchAllWithoutKeywords(t *testing.T) {
	var captured map[string]interface{}
	source := newStubES(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write(hitsBody(t))
	})

	_, err := source.Search(context.Background(), models.TypeScheme, models.SearchCriteria{})

	require.NoError(t, err)
	queryJSON, _ := json.Marshal(captured)
	assert.Contains(t, string(queryJSON), `"match_all"`)
}

func TestESSourceSkipsMalformedDocuments(t *testing.T) {
	// Type says job but the job details are missing.
	broken := models.Opportunity{ID: "job-broken", Type: models.TypeJob, Name: models.LocalizedText{English: "?"}}

	source := newStubES(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(hitsBody(t, broken, testJob("job-good", "electrician wanted")))
	})

	results, err := source.Search(context.Background(), models.TypeJob, models.SearchCriteria{})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "job-good", results[0].ID)
}

func TestESSourceErrorStatusIsUnavailable(t *testing.T) {
	source := newStubES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"boom"}`))
	})

	_, err := source.Search(context.Background(), models.TypeJob, models.SearchCriteria{})

	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeUpstreamUnavailable))
}

func TestESSourceDeadlineIsTimeout(t *testing.T) {
	source := newStubES(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write(hitsBody(t))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := source.Search(ctx, models.TypeJob, models.SearchCriteria{})

	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeUpstreamTimeout))
}

func TestESSourceGetByIDsPreservesRequestOrder(t *testing.T) {
	var captured map[string]interface{}
	source := newStubES(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		// Index answers in its own order; the source restores ours.
		w.Write(hitsBody(t, testJob("job-1", "a"), testJob("job-2", "b")))
	})

	found, err := source.GetByIDs(context.Background(), []string{"job-2", "job-1", "job-missing"})

	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "job-2", found[0].ID)
	assert.Equal(t, "job-1", found[1].ID)

	queryJSON, _ := json.Marshal(captured)
	assert.Contains(t, string(queryJSON), `"ids"`)
	assert.Contains(t, string(queryJSON), `"job-missing"`)
}

func TestESSourceGetByIDsEmptyInputSkipsTheIndex(t *testing.T) {
	called := false
	source := newStubES(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.Write(hitsBody(t))
	})

	found, err := source.GetByIDs(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, found)
	assert.False(t, called)
}

func TestESSourceGetByIDMissing(t *testing.T) {
	source := newStubES(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(hitsBody(t))
	})

	_, err := source.GetByID(context.Background(), "job-404")

	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeOpportunityNotFound))
}

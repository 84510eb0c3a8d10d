// internal/opportunity/es.go

// Package opportunity provides read access to the opportunity catalog.
// The catalog is owned and mutated by the registry ingestion pipeline;
// this package only searches and fetches.
package opportunity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"sahayak-workers/internal/common/database"
	apperrors "sahayak-workers/internal/common/errors"
	"sahayak-workers/internal/common/logger"
	"sahayak-workers/internal/models"
)

// searchWindow is how many candidates one query pulls for ranking. The
// ranker sees the full window and truncates afterwards, so this only
// needs to comfortably exceed the configured result limit.
const searchWindow = 50

// ESSource searches the opportunity index in Elasticsearch.
type ESSource struct {
	client *database.ElasticsearchClient
	index  string
	logger logger.Logger
}

// NewESSource builds a source over the given index.
func NewESSource(client *database.ElasticsearchClient, index string, log logger.Logger) *ESSource {
	return &ESSource{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "opportunity-source", "index": index}),
	}
}

// Search runs a filtered relevance query for one category. Keyword terms
// score against the localized name, description and tags; type, location
// and tag filters narrow the candidate set without affecting relevance.
func (s *ESSource) Search(ctx context.Context, category models.OpportunityType, criteria models.SearchCriteria) ([]models.Opportunity, error) {
	body, err := json.Marshal(buildSearchQuery(category, criteria))
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("marshal search query: %w", err))
	}

	size := searchWindow
	from := 0
	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
		From:  &from,
		Size:  &size,
	}

	res, err := req.Do(ctx, s.client.Client)
	if err != nil {
		return nil, s.mapError(ctx, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, apperrors.NewUpstreamUnavailableError("opportunity-search",
			fmt.Errorf("search failed: %s", res.Status()))
	}

	return s.decodeHits(res)
}

// GetByIDs fetches opportunities by id, preserving the requested order and
// silently skipping ids the index no longer has.
func (s *ESSource) GetByIDs(ctx context.Context, ids []string) ([]models.Opportunity, error) {
	if len(ids) == 0 {
		return []models.Opportunity{}, nil
	}

	query := map[string]interface{}{
		"query": map[string]interface{}{
			"ids": map[string]interface{}{"values": ids},
		},
	}
	body, err := json.Marshal(query)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("marshal ids query: %w", err))
	}

	size := len(ids)
	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
		Size:  &size,
	}

	res, err := req.Do(ctx, s.client.Client)
	if err != nil {
		return nil, s.mapError(ctx, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, apperrors.NewUpstreamUnavailableError("opportunity-search",
			fmt.Errorf("ids fetch failed: %s", res.Status()))
	}

	fetched, err := s.decodeHits(res)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]models.Opportunity, len(fetched))
	for _, opp := range fetched {
		byID[opp.ID] = opp
	}
	ordered := make([]models.Opportunity, 0, len(ids))
	for _, id := range ids {
		if opp, ok := byID[id]; ok {
			ordered = append(ordered, opp)
		}
	}
	return ordered, nil
}

// GetByID fetches a single opportunity.
func (s *ESSource) GetByID(ctx context.Context, id string) (*models.Opportunity, error) {
	found, err := s.GetByIDs(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, apperrors.NewOpportunityNotFoundError(id)
	}
	opp := found[0]
	return &opp, nil
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source models.Opportunity `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (s *ESSource) decodeHits(res *esapi.Response) ([]models.Opportunity, error) {
	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, apperrors.NewUpstreamUnavailableError("opportunity-search",
			fmt.Errorf("decode search response: %w", err))
	}

	opportunities := make([]models.Opportunity, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		opp := hit.Source
		if err := opp.Validate(); err != nil {
			// Malformed catalog documents are skipped, never fatal.
			s.logger.Warn("skipping malformed opportunity document", map[string]interface{}{
				"opportunityId": opp.ID,
				"error":         err.Error(),
			})
			continue
		}
		opportunities = append(opportunities, opp)
	}
	return opportunities, nil
}

func (s *ESSource) mapError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
		return apperrors.NewUpstreamTimeoutError("opportunity-search", err)
	}
	return apperrors.NewUpstreamUnavailableError("opportunity-search", err)
}

// buildSearchQuery assembles the bool query: keyword relevance in must,
// hard filters in filter. Opportunities without a locations field serve
// every location, so the location filter is a should pair.
func buildSearchQuery(category models.OpportunityType, criteria models.SearchCriteria) map[string]interface{} {
	mustClauses := []interface{}{}
	filterClauses := []interface{}{
		map[string]interface{}{
			"term": map[string]interface{}{"type": string(category)},
		},
	}

	if keywords := strings.TrimSpace(strings.Join(criteria.Keywords, " ")); keywords != "" {
		mustClauses = append(mustClauses, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query": keywords,
				"fields": []string{
					"name.english^3", "name.hindi^3",
					"description.english^2", "description.hindi^2",
					"tags",
				},
				"type": "best_fields",
			},
		})
	}
	if len(mustClauses) == 0 {
		mustClauses = append(mustClauses, map[string]interface{}{"match_all": map[string]interface{}{}})
	}

	if criteria.Location != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"bool": map[string]interface{}{
				"should": []interface{}{
					map[string]interface{}{
						"term": map[string]interface{}{"locations": strings.ToLower(criteria.Location)},
					},
					map[string]interface{}{
						"bool": map[string]interface{}{
							"must_not": map[string]interface{}{
								"exists": map[string]interface{}{"field": "locations"},
							},
						},
					},
				},
				"minimum_should_match": 1,
			},
		})
	}

	if len(criteria.Tags) > 0 {
		terms := make([]string, 0, len(criteria.Tags))
		for _, tag := range criteria.Tags {
			if t := strings.ToLower(strings.TrimSpace(tag)); t != "" {
				terms = append(terms, t)
			}
		}
		if len(terms) > 0 {
			filterClauses = append(filterClauses, map[string]interface{}{
				"terms": map[string]interface{}{"tags": terms},
			})
		}
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   mustClauses,
				"filter": filterClauses,
			},
		},
	}
}

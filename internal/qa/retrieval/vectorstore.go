// internal/qa/retrieval/vectorstore.go
package retrieval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"newsqa/internal/models"
)

var ErrMissingIndex = errors.New("index name is required")

// VectorStore is the similarity-search contract consumed by the search
// handlers. The production implementation runs against the news article
// index; tests substitute spies.
type VectorStore interface {
	Search(ctx context.Context, query string, topK int, filters map[string]interface{}) ([]models.SearchResult, error)
}

// ESVectorStore implements VectorStore on Elasticsearch.
type ESVectorStore struct {
	client *elasticsearch.Client
	index  string
}

func NewESVectorStore(client *elasticsearch.Client, index string) *ESVectorStore {
	return &ESVectorStore{client: client, index: index}
}

// Search runs a relevance query over the news index. Filters, when present,
// become term clauses; the handlers in this package pass nil.
func (s *ESVectorStore) Search(ctx context.Context, query string, topK int, filters map[string]interface{}) ([]models.SearchResult, error) {
	if s.index == "" {
		return nil, ErrMissingIndex
	}

	body, err := json.Marshal(buildSearchBody(query, topK, filters))
	if err != nil {
		return nil, fmt.Errorf("marshal query body: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  strings.NewReader(string(body)),
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch search error: %s", res.Status())
	}

	return parseSearchResponse(res)
}

func buildSearchBody(query string, topK int, filters map[string]interface{}) map[string]interface{} {
	mustClauses := []interface{}{
		map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"title^2", "content"},
				"type":   "best_fields",
			},
		},
	}

	filterClauses := []interface{}{}
	for field, value := range filters {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{field: value},
		})
	}

	return map[string]interface{}{
		"size": topK,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   mustClauses,
				"filter": filterClauses,
			},
		},
	}
}

func parseSearchResponse(res *esapi.Response) ([]models.SearchResult, error) {
	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string                 `json:"_id"`
				Score  float64                `json:"_score"`
				Source map[string]interface{} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}

	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	results := make([]models.SearchResult, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		content, _ := hit.Source["content"].(string)
		if title, ok := hit.Source["title"].(string); ok && title != "" {
			content = title + "\n" + content
		}

		metadata := map[string]interface{}{}
		for _, field := range []string{"category", "importance", "source", "url"} {
			if v, ok := hit.Source[field]; ok {
				metadata[field] = v
			}
		}
		if v, ok := hit.Source["published_at"]; ok {
			metadata["date"] = v
		}

		results = append(results, models.SearchResult{
			DocID:    hit.ID,
			Content:  content,
			Score:    hit.Score,
			Metadata: metadata,
		})
	}

	return results, nil
}

// internal/repository/search/prospects.go
package search

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"leadfollow/internal/common/errors"
	"leadfollow/internal/common/logger"
	"leadfollow/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const defaultSearchSize = 25

const indexMapping = `{
	"mappings": {
		"properties": {
			"id":       {"type": "keyword"},
			"userId":   {"type": "keyword"},
			"name":     {"type": "text"},
			"email":    {"type": "text", "fields": {"raw": {"type": "keyword"}}},
			"company":  {"type": "text"},
			"position": {"type": "text"},
			"status":   {"type": "keyword"},
			"category": {"type": "keyword"},
			"lastContactDate": {"type": "date"},
			"createdAt": {"type": "date"}
		}
	}
}`

// ProspectIndex keeps a search copy of prospects in Elasticsearch. Postgres
// stays the source of truth; documents are keyed by prospect id.
type ProspectIndex struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewProspectIndex(client *elasticsearch.Client, index string, log logger.Logger) *ProspectIndex {
	return &ProspectIndex{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "prospect-search", "index": index}),
	}
}

// EnsureIndex creates the index with its mapping when it does not exist.
func (p *ProspectIndex) EnsureIndex(ctx context.Context) error {
	res, err := p.client.Indices.Exists([]string{p.index}, p.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return errors.NewElasticsearchConnectionFailedError(err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = p.client.Indices.Create(
		p.index,
		p.client.Indices.Create.WithContext(ctx),
		p.client.Indices.Create.WithBody(strings.NewReader(indexMapping)),
	)
	if err != nil {
		return errors.NewElasticsearchConnectionFailedError(err)
	}
	defer res.Body.Close()

	// another replica may have created it between the two calls
	if res.IsError() && !strings.Contains(readBody(res), "resource_already_exists_exception") {
		return errors.NewIndexingFailedError(p.index, fmt.Errorf("create index: %s", res.Status()))
	}
	p.logger.Info("prospect index ready", nil)
	return nil
}

// Index upserts the document for prospect.
func (p *ProspectIndex) Index(ctx context.Context, prospect models.Prospect) error {
	body, err := json.Marshal(prospect)
	if err != nil {
		return errors.NewIndexingFailedError(p.index, err)
	}

	req := esapi.IndexRequest{
		Index:      p.index,
		DocumentID: prospect.ID,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, p.client)
	if err != nil {
		return errors.NewElasticsearchConnectionFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return errors.NewIndexingFailedError(p.index, fmt.Errorf("%s: %s", res.Status(), readBody(res)))
	}
	return nil
}

// Delete removes the prospect document. A missing document is not an error.
func (p *ProspectIndex) Delete(ctx context.Context, prospectID string) error {
	req := esapi.DeleteRequest{Index: p.index, DocumentID: prospectID}
	res, err := req.Do(ctx, p.client)
	if err != nil {
		return errors.NewElasticsearchConnectionFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return errors.NewIndexingFailedError(p.index, fmt.Errorf("delete: %s", res.Status()))
	}
	return nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string          `json:"_id"`
			Source models.Prospect `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search runs a full-text query over userID's prospects, best match first.
func (p *ProspectIndex) Search(ctx context.Context, userID, query string, size int) ([]models.Prospect, error) {
	if size <= 0 {
		size = defaultSearchSize
	}

	body, _ := json.Marshal(buildSearchQuery(userID, query))
	req := esapi.SearchRequest{
		Index: []string{p.index},
		Body:  bytes.NewReader(body),
		Size:  &size,
	}

	res, err := req.Do(ctx, p.client)
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			return nil, errors.NewTimeoutError("elasticsearch", err)
		}
		return nil, errors.NewElasticsearchConnectionFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, errors.NewSearchQueryFailedError(p.index, fmt.Errorf("%s: %s", res.Status(), readBody(res)))
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, errors.NewSearchQueryFailedError(p.index, fmt.Errorf("decode response: %w", err))
	}

	prospects := make([]models.Prospect, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		doc := hit.Source
		// the stored document is authoritative only for ownership
		if doc.UserID != userID {
			continue
		}
		if doc.ID == "" {
			doc.ID = hit.ID
		}
		prospects = append(prospects, doc)
	}

	p.logger.Debug("prospect search", map[string]interface{}{
		"userId": userID,
		"query":  query,
		"hits":   len(prospects),
	})
	return prospects, nil
}

func buildSearchQuery(userID, query string) map[string]interface{} {
	must := []interface{}{}
	if q := strings.TrimSpace(query); q != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     q,
				"fields":    []string{"name^3", "email^2", "company^2", "position", "category"},
				"type":      "best_fields",
				"fuzziness": "AUTO",
			},
		})
	} else {
		must = append(must, map[string]interface{}{"match_all": map[string]interface{}{}})
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": must,
				"filter": []interface{}{
					map[string]interface{}{"term": map[string]interface{}{"userId": userID}},
				},
			},
		},
	}
}

func readBody(res *esapi.Response) string {
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(res.Body)
	return buf.String()
}

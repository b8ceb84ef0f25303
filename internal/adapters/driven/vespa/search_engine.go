package vespa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-core/internal/core/domain"
	"github.com/custodia-labs/sercha-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SearchEngine = (*SearchEngine)(nil)

// SearchEngine implements driven.SearchEngine using Vespa as the alternate
// (non-Postgres) Search Query Planner backend (§4.9).
type SearchEngine struct {
	baseURL    string
	httpClient *http.Client
}

// Config holds Vespa connection configuration
type Config struct {
	// BaseURL is the Vespa endpoint (e.g., http://localhost:19071)
	BaseURL string

	// Timeout for HTTP requests
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL: baseURL,
		Timeout: 30 * time.Second,
	}
}

// NewSearchEngine creates a new Vespa-backed SearchEngine
func NewSearchEngine(cfg Config) *SearchEngine {
	return &SearchEngine{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// vespaDocument represents a document in Vespa's evidence schema
type vespaDocument struct {
	Fields vespaFields `json:"fields"`
}

type vespaFields struct {
	ID             string    `json:"id"`
	MatterID       string    `json:"matter_id"`
	Subject        string    `json:"subject"`
	BodyText       string    `json:"body_text"`
	Custodian      string    `json:"custodian_id"`
	Classification string    `json:"classification,omitempty"`
	CollectedAt    int64     `json:"collected_at"`
	Embedding      []float32 `json:"embedding,omitempty"`
}

// Index upserts a document's searchable fields (text + embedding)
func (s *SearchEngine) Index(ctx context.Context, doc *domain.Document) error {
	fields := vespaFields{
		ID:          doc.ID,
		MatterID:    doc.MatterID,
		Subject:     doc.Subject,
		BodyText:    doc.BodyText,
		Custodian:   doc.CustodianID,
		CollectedAt: doc.CollectedAt.Unix(),
	}
	if doc.Enrichment != nil {
		fields.Embedding = doc.Enrichment.Embedding
		if doc.Enrichment.Responsive {
			fields.Classification = "relevant"
		}
	}

	body, err := json.Marshal(vespaDocument{Fields: fields})
	if err != nil {
		return err
	}

	docURL := fmt.Sprintf("%s/document/v1/sercha/evidence/docid/%s", s.baseURL, doc.ID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, docURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("vespa index failed: %s - %s", resp.Status, string(respBody))
	}

	return nil
}

// Search performs the hybrid text/vector search plan (§4.9) against Vespa.
func (s *SearchEngine) Search(ctx context.Context, query domain.SearchQuery, queryEmbedding []float32) (*domain.SearchResult, error) {
	start := time.Now()
	yql := s.buildYQL(query)

	limit := query.Limit
	if limit <= 0 {
		limit = 20
	}

	searchReq := map[string]interface{}{
		"yql":  yql,
		"hits": limit,
	}

	if len(queryEmbedding) > 0 {
		searchReq["input.query(embedding)"] = queryEmbedding
		searchReq["ranking.profile"] = "hybrid"
	} else if query.HasTextQuery() {
		searchReq["ranking.profile"] = "bm25"
	} else {
		searchReq["ranking.profile"] = "unranked"
	}

	body, err := json.Marshal(searchReq)
	if err != nil {
		return nil, err
	}

	searchURL := fmt.Sprintf("%s/search/", s.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, searchURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("vespa search failed: %s - %s", resp.Status, string(respBody))
	}

	var searchResp vespaSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, err
	}

	scoreKind := "fallback"
	if len(queryEmbedding) > 0 {
		scoreKind = "vector"
	} else if query.HasTextQuery() {
		scoreKind = "text"
	}

	hits := make([]*domain.SearchHit, 0, len(searchResp.Root.Children))
	for _, hit := range searchResp.Root.Children {
		doc := &domain.Document{
			ID:          hit.Fields.ID,
			MatterID:    hit.Fields.MatterID,
			Subject:     hit.Fields.Subject,
			BodyText:    hit.Fields.BodyText,
			CustodianID: hit.Fields.Custodian,
		}
		hits = append(hits, &domain.SearchHit{
			Document:  doc,
			Score:     hit.Relevance,
			ScoreKind: scoreKind,
		})
	}

	return &domain.SearchResult{
		Query:      query,
		Hits:       hits,
		TotalCount: int(searchResp.Root.Fields.TotalCount),
		Took:       time.Since(start),
	}, nil
}

func (s *SearchEngine) buildYQL(query domain.SearchQuery) string {
	var conditions []string

	if query.QueryText != "" {
		escaped := strings.ReplaceAll(query.QueryText, "\"", "\\\"")
		conditions = append(conditions, fmt.Sprintf("(subject contains \"%s\" or body_text contains \"%s\" or ({targetHits:100}nearestNeighbor(embedding,embedding)))", escaped, escaped))
	}
	if query.Custodian != "" {
		conditions = append(conditions, fmt.Sprintf("custodian_id contains \"%s\"", query.Custodian))
	}
	if query.Classification != "" {
		conditions = append(conditions, fmt.Sprintf("classification contains \"%s\"", query.Classification))
	}
	if query.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("collected_at >= %d", query.DateFrom.Unix()))
	}
	if query.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("collected_at <= %d", query.DateTo.Unix()))
	}

	whereClause := "true"
	if len(conditions) > 0 {
		whereClause = strings.Join(conditions, " and ")
	}

	return fmt.Sprintf("select * from evidence where %s", whereClause)
}

// vespaSearchResponse represents Vespa's search response format
type vespaSearchResponse struct {
	Root struct {
		Fields struct {
			TotalCount int64 `json:"totalCount"`
		} `json:"fields"`
		Children []struct {
			Relevance float64     `json:"relevance"`
			Fields    vespaFields `json:"fields"`
		} `json:"children"`
	} `json:"root"`
}

// Delete removes a document from the index.
func (s *SearchEngine) Delete(ctx context.Context, documentID string) error {
	docURL := fmt.Sprintf("%s/document/v1/sercha/evidence/docid/%s", s.baseURL, documentID)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, docURL, nil)
	if err != nil {
		return err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// 404 is OK - document already deleted
	if resp.StatusCode >= 400 && resp.StatusCode != 404 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("vespa delete failed: %s - %s", resp.Status, string(respBody))
	}

	return nil
}

// HealthCheck verifies the search engine is available
func (s *SearchEngine) HealthCheck(ctx context.Context) error {
	healthURL := fmt.Sprintf("%s/state/v1/health", s.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL, nil)
	if err != nil {
		return err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("vespa health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("vespa unhealthy: %s", resp.Status)
	}

	return nil
}

// Count returns the total number of indexed documents in Vespa
func (s *SearchEngine) Count(ctx context.Context) (int64, error) {
	searchReq := map[string]interface{}{
		"yql":  "select * from evidence where true",
		"hits": 0,
	}

	body, err := json.Marshal(searchReq)
	if err != nil {
		return 0, err
	}

	searchURL := fmt.Sprintf("%s/search/", s.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, searchURL, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("vespa count query failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("vespa count query failed: %s - %s", resp.Status, string(respBody))
	}

	var searchResp vespaSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return 0, err
	}

	return searchResp.Root.Fields.TotalCount, nil
}

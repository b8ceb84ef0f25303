package domain

import "time"

// SearchQuery is the input to the Search Query Planner (§4.9). All filter
// fields are optional (nil/zero means "no constraint"); non-null filters
// combine as AND predicates.
type SearchQuery struct {
	QueryText      string        `json:"query_text,omitempty"`
	Custodian      string        `json:"custodian,omitempty"`
	DateFrom       *time.Time    `json:"date_from,omitempty"`
	DateTo         *time.Time    `json:"date_to,omitempty"`
	Classification string        `json:"classification,omitempty"`
	MinRelevance   *int          `json:"min_relevance,omitempty"`
	FileCategory   FileCategory  `json:"file_category,omitempty"`
	DataQuality    DataQuality   `json:"data_quality,omitempty"`
	Limit          int           `json:"limit"`
}

// DefaultSearchQuery returns a query with only the limit set.
func DefaultSearchQuery() SearchQuery {
	return SearchQuery{Limit: 20}
}

// HasTextQuery reports whether relevance ranking should be driven by
// text/vector search rather than the relevance-score fallback ordering.
func (q SearchQuery) HasTextQuery() bool {
	return q.QueryText != ""
}

// SearchHit is one ranked result row: a document plus the planner's
// relevance score and any left-joined review/enrichment/tag data.
type SearchHit struct {
	Document        *Document `json:"document"`
	Score           float64   `json:"score"`
	ScoreKind       string    `json:"score_kind"` // "vector", "text", or "fallback"
	UserRelevance   *int      `json:"user_relevance,omitempty"`
	AIRelevance     *int      `json:"ai_relevance,omitempty"`
	Tags            []string  `json:"tags,omitempty"`
	ReviewStatus    string    `json:"review_status,omitempty"`
}

// SearchResult is the full response to a SearchQuery.
type SearchResult struct {
	Query      SearchQuery `json:"query"`
	Hits       []*SearchHit `json:"hits"`
	TotalCount int          `json:"total_count"`
	Took       time.Duration `json:"took" swaggertype:"integer" example:"1500000"`
}

package driving

import (
	"context"

	"github.com/custodia-labs/sercha-core/internal/core/domain"
)

// SearchService runs the Search Query Planner (§4.9) against whichever
// backend is active (PostgreSQL full-text/vector, or Vespa).
type SearchService interface {
	// Search plans and executes a query, embedding query_text if an
	// embedding service is configured and at least one indexed document
	// carries an embedding; falls back to text ranking otherwise.
	Search(ctx context.Context, query domain.SearchQuery) (*domain.SearchResult, error)
}

package driven

import (
	"context"

	"github.com/custodia-labs/sercha-core/internal/core/domain"
)

// SearchEngine is the alternate (non-Postgres) backend the Search Query
// Planner can target — Vespa, in this system. It implements the same
// §4.9 plan as MetadataStore.Search but against a document-oriented index
// rather than relational tables.
type SearchEngine interface {
	// Index upserts a document's searchable fields (text + embedding).
	Index(ctx context.Context, doc *domain.Document) error

	// Search performs the hybrid text/vector search plan for a query.
	Search(ctx context.Context, query domain.SearchQuery, queryEmbedding []float32) (*domain.SearchResult, error)

	// Delete removes a document from the index.
	Delete(ctx context.Context, documentID string) error

	// HealthCheck verifies the search engine is available.
	HealthCheck(ctx context.Context) error

	// Count returns the number of documents currently indexed.
	Count(ctx context.Context) (int64, error)
}

// VectorIndex handles vector similarity search in isolation. In Vespa this
// is integrated with SearchEngine; this interface exists for backends
// that separate vector search from the main index (e.g. pgvector behind
// MetadataStore uses raw SQL directly and does not need this port).
type VectorIndex interface {
	Index(ctx context.Context, id string, embedding []float32) error
	IndexBatch(ctx context.Context, ids []string, embeddings [][]float32) error
	Search(ctx context.Context, embedding []float32, k int) ([]string, []float64, error)
	Delete(ctx context.Context, id string) error
	DeleteBatch(ctx context.Context, ids []string) error
}

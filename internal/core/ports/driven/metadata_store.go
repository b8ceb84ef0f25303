package driven

import (
	"context"

	"github.com/custodia-labs/sercha-core/internal/core/domain"
)

// MetadataStore indexes document metadata for text / vector / filter
// search and serves as the system of record for custodians, attachments,
// custody events, enrichment, tags, and review state per §4.6.
type MetadataStore interface {
	// Index upserts a single document by document_id.
	Index(ctx context.Context, doc *domain.Document) error

	// BulkIndex upserts a batch of documents in a single transaction:
	// upsert each custodian, upsert the document, delete-then-insert its
	// attachments, insert custody events (ON CONFLICT DO NOTHING).
	// Rollback on any failure — no partial batch is visible.
	BulkIndex(ctx context.Context, docs []*domain.Document) error

	// Search executes the plan built by the Search Query Planner (§4.9).
	Search(ctx context.Context, query domain.SearchQuery, runtime *domain.RuntimeConfig) (*domain.SearchResult, error)

	// GetDocument retrieves a document by its document_id.
	GetDocument(ctx context.Context, documentID string) (*domain.Document, error)

	// GetDocumentsByCustodian retrieves documents for a custodian with pagination.
	GetDocumentsByCustodian(ctx context.Context, custodianID string, limit, offset int) ([]*domain.Document, error)

	// Count returns the total indexed document count.
	Count(ctx context.Context) (int, error)

	// UnenrichedDocumentIDs returns document ids with no ai_analysis row,
	// up to limit, for the Enrichment Worker to pick up.
	UnenrichedDocumentIDs(ctx context.Context, matterID string, limit int) ([]string, error)

	// UnembeddedDocumentIDs returns document ids with a NULL embedding
	// column, up to limit, for the embedding generator worker.
	UnembeddedDocumentIDs(ctx context.Context, matterID string, limit int) ([]string, error)

	// UpsertEnrichment writes the ai_analysis row for a document.
	UpsertEnrichment(ctx context.Context, documentID string, enrichment *domain.Enrichment) error

	// UpsertEmbedding writes the embedding vector and model name for a document.
	UpsertEmbedding(ctx context.Context, documentID string, embedding []float32, model string) error

	// AppendReviewNote appends text to user_review.review_notes, creating
	// the row if absent, prefixed with a separator sentinel per §4.8 step 7.
	AppendReviewNote(ctx context.Context, documentID string, note string) error

	// InsertTags inserts classification/priority/topic tags for a document
	// (ON CONFLICT DO NOTHING on (document_id, tag_name)).
	InsertTags(ctx context.Context, documentID string, tags []domain.Tag) error

	// HealthCheck verifies the backing store is reachable.
	HealthCheck(ctx context.Context) error
}

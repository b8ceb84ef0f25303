package driven

import "context"

// EmbeddingService generates fixed-dimension text embeddings for the
// embedding generator worker (§4.8) and for the Search Query Planner's
// vector-similarity scoring (§4.9).
type EmbeddingService interface {
	// Embed generates embeddings for a batch of texts (document subject+body).
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a search query.
	EmbedQuery(ctx context.Context, query string) ([]float32, error)

	// Dimensions returns the embedding dimension size.
	Dimensions() int

	// Model returns the model name being used.
	Model() string

	// HealthCheck verifies the embedding service is available.
	HealthCheck(ctx context.Context) error

	// Close releases resources held by the embedding service.
	Close() error
}

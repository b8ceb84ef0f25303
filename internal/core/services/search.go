package services

import (
	"context"
	"log/slog"

	"github.com/custodia-labs/sercha-core/internal/core/domain"
	"github.com/custodia-labs/sercha-core/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-core/internal/core/ports/driving"
)

var _ driving.SearchService = (*searchService)(nil)

// SearchServiceConfig holds the dependencies for the Search Query Planner.
type SearchServiceConfig struct {
	MetadataStore driven.MetadataStore

	// SearchEngine is the alternate Vespa backend. When UseSearchEngine is
	// true this plans queries against it instead of MetadataStore, falling
	// back to MetadataStore transparently on failure.
	SearchEngine    driven.SearchEngine
	UseSearchEngine bool

	Embedding driven.EmbeddingService
	Runtime   *domain.RuntimeConfig

	Logger *slog.Logger
}

// searchService implements the Search Query Planner (§4.9): build and
// execute the plan against whichever backend is configured, embedding the
// query text when vector scoring is available and falling back to
// text-rank transparently when it is not.
type searchService struct {
	metadataStore   driven.MetadataStore
	searchEngine    driven.SearchEngine
	useSearchEngine bool
	embedding       driven.EmbeddingService
	runtime         *domain.RuntimeConfig
	logger          *slog.Logger
}

// NewSearchService creates a Search Query Planner.
func NewSearchService(cfg SearchServiceConfig) driving.SearchService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rt := cfg.Runtime
	if rt == nil {
		rt = domain.NewRuntimeConfig("postgres")
	}

	return &searchService{
		metadataStore:   cfg.MetadataStore,
		searchEngine:    cfg.SearchEngine,
		useSearchEngine: cfg.UseSearchEngine && cfg.SearchEngine != nil,
		embedding:       cfg.Embedding,
		runtime:         rt,
		logger:          logger.With("component", "search"),
	}
}

// Search executes query against the configured backend, per §4.9's plan.
func (s *searchService) Search(ctx context.Context, query domain.SearchQuery) (*domain.SearchResult, error) {
	if query.Limit <= 0 {
		query.Limit = 20
	}

	if !s.useSearchEngine {
		return s.metadataStore.Search(ctx, query, s.runtime)
	}

	var queryEmbedding []float32
	if query.HasTextQuery() && s.runtime.EmbeddingAvailable() && s.embedding != nil {
		embedding, err := s.embedding.EmbedQuery(ctx, query.QueryText)
		if err != nil {
			s.logger.Warn("query embedding failed, falling back to text rank", "error", err)
		} else {
			queryEmbedding = embedding
		}
	}

	result, err := s.searchEngine.Search(ctx, query, queryEmbedding)
	if err != nil {
		s.logger.Warn("search engine query failed, falling back to metadata store", "error", err)
		return s.metadataStore.Search(ctx, query, s.runtime)
	}
	return result, nil
}

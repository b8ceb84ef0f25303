package driven

import (
	"context"

	"github.com/custodia-labs/sercha-core/internal/core/domain"
)

// Processor transforms an ordered batch of documents into an ordered
// batch of documents. A processor may drop, reorder, merge, or enrich;
// it must be deterministic given the same input batch and its own
// internal state per §4.4.
type Processor interface {
	// Name identifies the processor for logging and for ProcessingConfig
	// toggle lookups (e.g. "deduplication", "file_analysis").
	Name() string

	Process(ctx context.Context, docs []*domain.Document) ([]*domain.Document, error)
}

// ProcessorChain assembles the enabled processors, in declared order, from
// a ProcessingConfig. Disabled processors are absent from the chain
// entirely, never bypassed at runtime.
type ProcessorChain interface {
	Processors() []Processor
}

package processors

import (
	"github.com/custodia-labs/sercha-core/internal/core/domain"
	"github.com/custodia-labs/sercha-core/internal/core/ports/driven"
)

var _ driven.ProcessorChain = (*Chain)(nil)

// Chain assembles the enabled processors, in a fixed declared order, from
// a ProcessingConfig: file analysis always runs (every document needs a
// category/quality verdict before it can be reviewed), deduplication runs
// next so the remaining, more expensive stages never see a dropped
// duplicate, then the optional OCR/entity-extraction/privilege-detection
// skeletons per their toggles.
type Chain struct {
	processors []driven.Processor
}

// NewChain builds a Chain from cfg. Disabled processors are absent from
// the chain entirely, never bypassed at runtime.
func NewChain(cfg domain.ProcessingConfig) *Chain {
	chain := []driven.Processor{NewFileAnalyzer()}

	if cfg.EnableDeduplication {
		chain = append(chain, NewDeduplicator())
	}
	if cfg.EnableOCR {
		chain = append(chain, NewOCRProcessor())
	}
	if cfg.EnableEntityExtraction {
		chain = append(chain, NewEntityExtractionProcessor())
	}
	if cfg.EnablePrivilegeDetection {
		chain = append(chain, NewPrivilegeDetectionProcessor())
	}

	return &Chain{processors: chain}
}

func (c *Chain) Processors() []driven.Processor {
	return c.processors
}

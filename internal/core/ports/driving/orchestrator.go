package driving

import (
	"context"

	"github.com/custodia-labs/sercha-core/internal/core/domain"
)

// Orchestrator runs the ingestion pipeline (§4.7): for each enabled
// connector, fetch documents, push them through the processor chain,
// persist each to the object store, and bulk-index the survivors into
// the metadata store. A connector-level failure aborts that connector's
// run but never the others.
type Orchestrator interface {
	// Run executes one pass over every enabled connector and returns one
	// result per connector, in configuration order.
	Run(ctx context.Context) ([]*domain.ConnectorRunResult, error)

	// RunConnector executes a single connector by name.
	RunConnector(ctx context.Context, connectorName string) (*domain.ConnectorRunResult, error)

	// State returns the last known run state for every configured connector.
	State(ctx context.Context) ([]*domain.ConnectorRunState, error)
}

// Scheduler drives periodic work from one ticker: each tick runs every
// enabled connector, then sweeps each matter whose
// Settings.EnrichmentSweepIntervalMinutes has elapsed. The loop exits
// cleanly on Stop or when the context passed to Start is cancelled.
type Scheduler interface {
	// Start begins the scheduling loops. Returns once they are running;
	// does not block.
	Start(ctx context.Context) error

	// Stop signals the scheduling loops to exit and waits for them to do so.
	Stop(ctx context.Context) error
}

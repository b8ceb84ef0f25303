package driving

import (
	"context"

	"github.com/custodia-labs/sercha-core/internal/core/domain"
)

// EnrichmentService drives the Enrichment Worker pool (§4.8): submitting
// jobs, reporting progress, and running the continuous sweep that enriches
// documents the orchestrator has indexed but not yet classified.
type EnrichmentService interface {
	// Submit enqueues a job and returns immediately; workers process it
	// in the background.
	Submit(ctx context.Context, job *domain.EnrichmentJob) error

	// Progress returns the current progress record for a job.
	// Returns ErrNotFound if the job is unknown.
	Progress(ctx context.Context, jobID string) (*domain.JobProgress, error)

	// RunSweep finds unenriched (and unembedded) documents for a matter
	// and submits jobs for them. Called on the Scheduler's enrichment
	// sweep interval, and directly for an on-demand sweep.
	RunSweep(ctx context.Context, matterID string) (*domain.EnrichmentJob, error)
}

package domain

import "time"

// RunStatus represents the current state of a connector ingestion run.
type RunStatus string

const (
	RunStatusIdle      RunStatus = "idle"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// ConnectorRunState tracks the ingestion state for a single connector
// across orchestrator passes.
type ConnectorRunState struct {
	ConnectorName string     `json:"connector_name"`
	Status        RunStatus  `json:"status"`
	LastRunAt     *time.Time `json:"last_run_at,omitempty"`
	NextRunAt     *time.Time `json:"next_run_at,omitempty"`
	Cursor        string     `json:"cursor,omitempty"` // opaque incremental-fetch cursor
	Stats         RunStats   `json:"stats"`
	Error         string     `json:"error,omitempty"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// RunStats holds counters for a single connector pass.
type RunStats struct {
	DocumentsAdded    int `json:"documents_added"`
	DocumentsUpdated  int `json:"documents_updated"`
	DocumentsDeleted  int `json:"documents_deleted"`
	DocumentsIndexed  int `json:"documents_indexed"`
	DocumentsSkipped  int `json:"documents_skipped"` // persistence failures per §4.7's failure policy
	Errors            int `json:"errors"`
}

// ChangeType indicates what happened to a document in the source system.
type ChangeType string

const (
	ChangeTypeAdded    ChangeType = "added"
	ChangeTypeModified ChangeType = "modified"
	ChangeTypeDeleted  ChangeType = "deleted"
)

// Change represents a document change surfaced by a connector that
// supports incremental (cursor-based) fetch.
type Change struct {
	Type       ChangeType `json:"type"`
	Document   *Document  `json:"document,omitempty"`   // for added/modified
	DeletedID  string     `json:"deleted_id,omitempty"` // for deleted
	ExternalID string     `json:"external_id"`
}

// ConnectorRunResult is the per-connector outcome the Pipeline
// Orchestrator emits at the end of its run, per the `run` contract:
// a list of {connector_name, processed_documents}.
type ConnectorRunResult struct {
	ConnectorName      string   `json:"connector_name"`
	ProcessedDocuments int      `json:"processed_documents"`
	Success            bool     `json:"success"`
	Stats              RunStats `json:"stats"`
	Error              string   `json:"error,omitempty"`
	DurationSeconds    float64  `json:"duration_seconds"`
	Cursor             string   `json:"cursor,omitempty"`
}

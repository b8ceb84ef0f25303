package domain

import "time"

// RedactionMode controls whether a second, redaction-focused LLM call is
// made for each document in an EnrichmentJob.
type RedactionMode string

const (
	RedactionModeOff  RedactionMode = ""
	RedactionModeFull RedactionMode = "full"
)

// EnrichmentJobOptions are the per-run options a caller supplies when
// submitting documents for enrichment.
type EnrichmentJobOptions struct {
	CreateTags      bool          `json:"create_tags"`
	RedactionMode   RedactionMode `json:"redaction_mode,omitempty"`
	RedactionPrompt string        `json:"redaction_prompt,omitempty"`
}

// EnrichmentJob is a unit of work submitted to the Enrichment Worker pool:
// a fixed list of document IDs to classify with a shared prompt and options.
type EnrichmentJob struct {
	ID          string                `json:"id"`
	MatterID    string                `json:"matter_id"`
	DocumentIDs []string              `json:"document_ids"`
	Prompt      string                `json:"prompt"`
	Options     EnrichmentJobOptions  `json:"options"`
	CreatedAt   time.Time             `json:"created_at"`
}

// NewEnrichmentJob creates a job ready to submit to the worker pool.
func NewEnrichmentJob(matterID, prompt string, documentIDs []string, opts EnrichmentJobOptions) *EnrichmentJob {
	return &EnrichmentJob{
		ID:          GenerateID(),
		MatterID:    matterID,
		DocumentIDs: documentIDs,
		Prompt:      prompt,
		Options:     opts,
		CreatedAt:   time.Now(),
	}
}

// DocumentResult is one document's classification outcome within a job.
type DocumentResult struct {
	DocumentID     string   `json:"document_id"`
	Subject        string   `json:"subject"`
	Relevance      int      `json:"relevance"`       // 0-100
	PrivilegeRisk  int      `json:"privilege_risk"`  // 0-100
	Classification string   `json:"classification"`  // relevant|not-relevant|needs-review
	KeyFindings    string   `json:"key_findings"`
	Analysis       string   `json:"analysis"`
	Topics         []string `json:"topics,omitempty"`
	RawResponse    string   `json:"raw_response,omitempty"`
	Error          string   `json:"error,omitempty"`
}

// Redaction is the output of the optional second, redaction-focused LLM
// call for a document. It is never written back to the canonical document;
// it lives only inside the job's progress record.
type Redaction struct {
	DocumentID      string `json:"document_id"`
	Summary         string `json:"summary"`
	RedactedSubject string `json:"redacted_subject"`
	RedactedBody    string `json:"redacted_body"`
}

// JobProgress is the mutable progress record for an in-flight
// EnrichmentJob. All mutations (Processed++, appends to Results/
// Redactions) must happen under the owning worker pool's progress lock —
// JobProgress itself has no internal locking.
type JobProgress struct {
	JobID           string            `json:"job_id"`
	Total           int               `json:"total"`
	Processed       int               `json:"processed"`
	CurrentDocument string            `json:"current_document,omitempty"`
	CurrentSubject  string            `json:"current_subject,omitempty"`
	Results         []DocumentResult  `json:"results"`
	Redactions      []Redaction       `json:"redactions,omitempty"`
	Completed       bool              `json:"completed"`
	StartedAt       time.Time         `json:"started_at"`
	FinishedAt      *time.Time        `json:"finished_at,omitempty"`
}

// NewJobProgress initializes a progress record for a job about to start.
func NewJobProgress(jobID string, total int) *JobProgress {
	return &JobProgress{
		JobID:     jobID,
		Total:     total,
		StartedAt: time.Now(),
	}
}

// RecordResult appends a document's classification result and advances
// Processed. Caller must hold the progress lock.
func (p *JobProgress) RecordResult(r DocumentResult) {
	p.Results = append(p.Results, r)
	p.Processed++
	p.CurrentDocument = r.DocumentID
	p.CurrentSubject = r.Subject
	if p.Processed >= p.Total {
		p.markCompleted()
	}
}

// RecordRedaction appends a redaction to the job's side-channel output.
// Caller must hold the progress lock.
func (p *JobProgress) RecordRedaction(r Redaction) {
	p.Redactions = append(p.Redactions, r)
}

func (p *JobProgress) markCompleted() {
	now := time.Now()
	p.Completed = true
	p.FinishedAt = &now
}

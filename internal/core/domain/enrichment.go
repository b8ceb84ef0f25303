package domain

import "time"

// Enrichment holds the LLM- and embedding-derived analysis for a document,
// produced by the Enrichment Worker (§4.8). A document with no Enrichment
// has not yet been through the enrichment pipeline.
type Enrichment struct {
	DocumentID string `json:"document_id"`

	Summary    string   `json:"summary,omitempty"`
	Entities   []string `json:"entities,omitempty"`
	Privileged bool     `json:"privileged"`
	Responsive bool     `json:"responsive"`
	Hot        bool     `json:"hot"`

	Embedding []float32 `json:"embedding,omitempty"`

	// RawLLMResponse is kept when the response didn't parse against the
	// expected grammar (ErrLLMParse), so the failure can be triaged later.
	RawLLMResponse string `json:"raw_llm_response,omitempty"`

	EnrichedAt time.Time `json:"enriched_at"`
	Model      string    `json:"model"`
}

// Tag is a user-applied label on a document, independent of automated
// enrichment.
type Tag struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Label      string    `json:"label"`
	AppliedBy  string    `json:"applied_by"`
	AppliedAt  time.Time `json:"applied_at"`
}

// ReviewStatus tracks a document's position in a manual review workflow.
type ReviewStatus string

const (
	ReviewStatusUnreviewed ReviewStatus = "unreviewed"
	ReviewStatusInReview   ReviewStatus = "in_review"
	ReviewStatusReviewed   ReviewStatus = "reviewed"
	ReviewStatusProduced   ReviewStatus = "produced"
	ReviewStatusWithheld   ReviewStatus = "withheld"
)

// Review records a reviewer's decision on a document.
type Review struct {
	ID         string       `json:"id"`
	DocumentID string       `json:"document_id"`
	Status     ReviewStatus `json:"status"`
	Reviewer   string       `json:"reviewer"`
	Notes      string       `json:"notes,omitempty"`
	ReviewedAt time.Time    `json:"reviewed_at"`
}

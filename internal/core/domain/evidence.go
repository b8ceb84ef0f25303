package domain

import "time"

// Custodian is the person or system account evidence was collected from.
type Custodian struct {
	ID           string `json:"id"`
	DisplayName  string `json:"display_name"`
	Email        string `json:"email"`
	Department   string `json:"department,omitempty"`
	Title        string `json:"title,omitempty"`
	MatterID     string `json:"matter_id"`
	IsActive     bool   `json:"is_active"`
}

// CustodyEvent records one link in a document's chain of custody.
type CustodyEvent struct {
	ID         string            `json:"id"`
	DocumentID string            `json:"document_id"`
	Action     string            `json:"action"` // collected, processed, reviewed, produced, persisted
	Actor      string            `json:"actor"`  // system component or user ID
	Timestamp  time.Time         `json:"timestamp"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Attachment is a file embedded in or attached to a parent document.
// Payload is the raw attachment bytes: written once by the source
// connector that produced the attachment, read by the File Analyzer and
// by the object store's Persist, and never mutated afterward. It is
// excluded from JSON serialization — attachment content is written as a
// separate blob alongside the metadata sidecar, never inlined into it.
// FileAnalysis is populated by the File Analyzer (§4.2) and is nil until
// that step runs.
type Attachment struct {
	ID           string        `json:"id"`
	ParentID     string        `json:"parent_id"`
	Filename     string        `json:"filename"`
	ContentType  string        `json:"content_type"`
	SizeBytes    int64         `json:"size_bytes"`
	Payload      []byte        `json:"-"`
	SHA256       string        `json:"sha256"`
	ObjectKey    string        `json:"object_key"`
	FileAnalysis *FileAnalysis `json:"file_analysis,omitempty"`
}

// Document is the canonical evidence unit: an email, a file, a chat message,
// or any other collected item. Per the resolved open question in §9, the
// canonical Document always carries the File Analyzer's attachment-derived
// fields (FileCategory, DataQuality) directly rather than only on nested
// Attachment records — a document with no attachments still gets analyzed
// as a single-body unit.
type Document struct {
	ID          string `json:"id"`
	MatterID    string `json:"matter_id"`
	TenantID    string `json:"tenant_id"`
	Source      string `json:"source"` // name of the connector that produced it (ConnectorConfig.Name)
	ExternalID  string `json:"external_id"`

	CustodianID string `json:"custodian_id"`
	Subject     string `json:"subject,omitempty"`
	BodyText    string `json:"body_text,omitempty"`

	CollectedAt time.Time `json:"collected_at"`
	SentAt      *time.Time `json:"sent_at,omitempty"`

	Attachments   []*Attachment   `json:"attachments,omitempty"`
	CustodyEvents []*CustodyEvent `json:"custody_events,omitempty"`

	// FileCategory and DataQuality classify the document's own body content
	// (not its attachments), produced by the File Analyzer in the same pass
	// used for attachments.
	FileCategory FileCategory `json:"file_category,omitempty"`
	DataQuality  DataQuality  `json:"data_quality,omitempty"`

	SHA256    string `json:"content_sha256,omitempty"`
	ObjectKey string `json:"object_key,omitempty"`

	// Metadata carries free-form, source- and enrichment-derived fields,
	// including the bates_number stamped by the Pipeline Orchestrator.
	Metadata map[string]string `json:"metadata,omitempty"`

	Enrichment *Enrichment `json:"enrichment,omitempty"`

	IndexedAt *time.Time `json:"indexed_at,omitempty"`
}

// HasAttachments reports whether the document carries any attachment.
func (d *Document) HasAttachments() bool {
	return len(d.Attachments) > 0
}

// AppendCustodyEvent records a new chain-of-custody link, preserving
// insertion order — custody events are never reordered or deduplicated.
func (d *Document) AppendCustodyEvent(action, actor string, at time.Time, metadata map[string]string) {
	d.CustodyEvents = append(d.CustodyEvents, &CustodyEvent{
		DocumentID: d.ID,
		Action:     action,
		Actor:      actor,
		Timestamp:  at,
		Metadata:   metadata,
	})
}

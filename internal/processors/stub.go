package processors

import (
	"context"

	"github.com/custodia-labs/sercha-core/internal/core/domain"
	"github.com/custodia-labs/sercha-core/internal/core/ports/driven"
)

var _ driven.Processor = (*OCRProcessor)(nil)
var _ driven.Processor = (*EntityExtractionProcessor)(nil)
var _ driven.Processor = (*PrivilegeDetectionProcessor)(nil)

// OCRProcessor is a documented skeleton: ProcessingConfig.EnableOCR can
// be turned on, but this build vendors no OCR engine to run against
// scanned image/PDF attachments. It records that OCR was requested and
// skipped rather than silently doing nothing.
type OCRProcessor struct{}

func NewOCRProcessor() *OCRProcessor { return &OCRProcessor{} }

func (p *OCRProcessor) Name() string { return "ocr" }

func (p *OCRProcessor) Process(ctx context.Context, docs []*domain.Document) ([]*domain.Document, error) {
	for _, doc := range docs {
		for _, att := range doc.Attachments {
			if att.FileAnalysis != nil && att.FileAnalysis.Category == domain.FileCategoryImage {
				setMetadata(doc, "ocr_status", "skipped_no_engine")
			}
		}
	}
	return docs, nil
}

// EntityExtractionProcessor is a documented skeleton: this build carries
// no named-entity-recognition model. The Enrichment Worker's LLM-backed
// classification (§4.8) is the real extraction path for matters with an
// LLM configured; this processor exists so
// ProcessingConfig.EnableEntityExtraction has somewhere to attach without
// pretending ingestion-time NER runs.
type EntityExtractionProcessor struct{}

func NewEntityExtractionProcessor() *EntityExtractionProcessor {
	return &EntityExtractionProcessor{}
}

func (p *EntityExtractionProcessor) Name() string { return "entity_extraction" }

func (p *EntityExtractionProcessor) Process(ctx context.Context, docs []*domain.Document) ([]*domain.Document, error) {
	for _, doc := range docs {
		setMetadata(doc, "entity_extraction_status", "deferred_to_enrichment")
	}
	return docs, nil
}

// PrivilegeDetectionProcessor is a documented skeleton: ingestion-time
// privilege screening (keyword/pattern based, ahead of any LLM call)
// is not implemented in this build. Privilege risk is instead scored by
// the Enrichment Worker's PRIVILEGE_RISK grammar field once a matter has
// an LLM configured.
type PrivilegeDetectionProcessor struct{}

func NewPrivilegeDetectionProcessor() *PrivilegeDetectionProcessor {
	return &PrivilegeDetectionProcessor{}
}

func (p *PrivilegeDetectionProcessor) Name() string { return "privilege_detection" }

func (p *PrivilegeDetectionProcessor) Process(ctx context.Context, docs []*domain.Document) ([]*domain.Document, error) {
	for _, doc := range docs {
		setMetadata(doc, "privilege_detection_status", "deferred_to_enrichment")
	}
	return docs, nil
}

func setMetadata(doc *domain.Document, key, value string) {
	if doc.Metadata == nil {
		doc.Metadata = make(map[string]string)
	}
	doc.Metadata[key] = value
}

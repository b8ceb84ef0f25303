// Package processors implements the driven.Processor chain the Pipeline
// Orchestrator runs a fetched batch through before persisting it: content
// deduplication, file type/quality analysis, and an extension point for
// processors that have no wired implementation yet.
package processors

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/custodia-labs/sercha-core/internal/core/domain"
	"github.com/custodia-labs/sercha-core/internal/core/ports/driven"
)

var _ driven.Processor = (*Deduplicator)(nil)

// Deduplicator drops documents whose body content hashes to a SHA256
// already seen earlier in the same batch, keeping the first occurrence.
// It has no cross-run memory: dedup is scoped to one connector Fetch's
// batch, matching the mock_email connector's "no two documents share a
// content hash" comment.
type Deduplicator struct{}

// NewDeduplicator creates a content-hash deduplication processor.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{}
}

func (d *Deduplicator) Name() string {
	return "deduplication"
}

// Process computes each document's SHA256 (if not already set by the
// connector) and drops later documents whose hash repeats an earlier one.
func (d *Deduplicator) Process(ctx context.Context, docs []*domain.Document) ([]*domain.Document, error) {
	seen := make(map[string]bool, len(docs))
	out := make([]*domain.Document, 0, len(docs))

	for _, doc := range docs {
		if doc.SHA256 == "" {
			doc.SHA256 = contentHash(doc)
		}
		if seen[doc.SHA256] {
			continue
		}
		seen[doc.SHA256] = true
		out = append(out, doc)
	}

	return out, nil
}

// contentHash hashes the fields that define a document's content
// identity: subject and body, so two copies of the same message collapse
// to the same SHA256 whatever their external IDs or collection times.
func contentHash(doc *domain.Document) string {
	h := sha256.New()
	h.Write([]byte(doc.Subject))
	h.Write([]byte(doc.BodyText))
	return hex.EncodeToString(h.Sum(nil))
}

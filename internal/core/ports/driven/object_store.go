package driven

import (
	"context"

	"github.com/custodia-labs/sercha-core/internal/core/domain"
)

// ObjectStore persists raw evidence payloads and attachments immutably
// under the key scheme <source>/<matter_id|default>/<document_id>/ per
// §4.5. After a successful write the store appends a
// CustodyEvent(action="persisted") to the document's chain of custody —
// the only mutation of the document performed by the store.
//
// Writes are all-or-nothing from the caller's perspective: any failure
// aborts persistence for that document and the metadata store must not
// be updated for it.
type ObjectStore interface {
	// Persist writes body.txt, metadata.json, attachments/<filename>,
	// and custody_chain.json for the document, then appends the
	// "persisted" custody event.
	Persist(ctx context.Context, doc *domain.Document) error

	// Get retrieves the persisted artifacts for a document by its
	// object key (domain.Document.ObjectKey).
	Get(ctx context.Context, objectKey string) (*PersistedObject, error)

	// HealthCheck verifies the backing store is reachable and writable.
	HealthCheck(ctx context.Context) error
}

// PersistedObject is the set of artifacts Get returns for one document.
type PersistedObject struct {
	BodyText       string
	MetadataJSON   []byte
	Attachments    map[string][]byte // filename -> payload
	CustodyChain   []byte            // custody_chain.json at persist-time
}

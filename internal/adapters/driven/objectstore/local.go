// Package objectstore implements driven.ObjectStore for the "local_fs" and
// "s3" backends selected by domain.ObjectStoreConfig.Type.
package objectstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/custodia-labs/sercha-core/internal/core/domain"
	"github.com/custodia-labs/sercha-core/internal/core/ports/driven"
)

var _ driven.ObjectStore = (*LocalStore)(nil)

// LocalStore persists evidence artifacts under a root directory on the
// local filesystem, keyed <source>/<matter_id|default>/<document_id>/ per
// §4.5. It backs the "local_fs" ObjectStoreConfig type.
type LocalStore struct {
	root string
}

// NewLocalStore creates a LocalStore rooted at dir. The directory is
// created on first Persist call if it does not already exist.
func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{root: dir}
}

func objectKeyFor(doc *domain.Document) string {
	matter := doc.MatterID
	if matter == "" {
		matter = "default"
	}
	source := doc.Source
	if source == "" {
		source = "unknown"
	}
	return filepath.Join(source, matter, doc.ExternalID)
}

// Persist writes body.txt, metadata.json, attachments/<filename>, and
// custody_chain.json for the document, then appends the "persisted"
// custody event. Any failure aborts the whole write: the document
// directory is removed before returning so a retry starts clean and no
// partial artifact set is left for Get to discover.
func (s *LocalStore) Persist(ctx context.Context, doc *domain.Document) error {
	if doc.ExternalID == "" {
		return fmt.Errorf("%w: document has no external_id to key the object store on", domain.ErrConfig)
	}

	key := objectKeyFor(doc)
	dir := filepath.Join(s.root, key)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create object directory: %w", err)
	}

	if err := s.writeArtifacts(ctx, dir, doc); err != nil {
		_ = os.RemoveAll(dir)
		return err
	}

	doc.ObjectKey = key
	doc.AppendCustodyEvent("persisted", "object_store", time.Now(), map[string]string{"location": key})

	chain, err := json.MarshalIndent(doc.CustodyEvents, "", "  ")
	if err != nil {
		_ = os.RemoveAll(dir)
		return fmt.Errorf("marshal custody chain: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "custody_chain.json"), chain, 0o644); err != nil {
		_ = os.RemoveAll(dir)
		return fmt.Errorf("write custody chain: %w", err)
	}

	return nil
}

// documentMetadata is what metadata.json holds: the document's own
// fields plus its attachment manifest, separate from body.txt and the
// attachment payloads themselves.
type documentMetadata struct {
	Subject      string               `json:"subject,omitempty"`
	CustodianID  string               `json:"custodian_id,omitempty"`
	CollectedAt  time.Time            `json:"collected_at"`
	FileCategory domain.FileCategory  `json:"file_category,omitempty"`
	DataQuality  domain.DataQuality   `json:"data_quality,omitempty"`
	Attachments  []*domain.Attachment `json:"attachments,omitempty"`
	Fields       map[string]string    `json:"fields,omitempty"`
}

func (s *LocalStore) writeArtifacts(ctx context.Context, dir string, doc *domain.Document) error {
	if err := os.WriteFile(filepath.Join(dir, "body.txt"), []byte(doc.BodyText), 0o644); err != nil {
		return fmt.Errorf("write body: %w", err)
	}

	metaJSON, err := json.MarshalIndent(documentMetadata{
		Subject:      doc.Subject,
		CustodianID:  doc.CustodianID,
		CollectedAt:  doc.CollectedAt,
		FileCategory: doc.FileCategory,
		DataQuality:  doc.DataQuality,
		Attachments:  doc.Attachments,
		Fields:       doc.Metadata,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "metadata.json"), metaJSON, 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}

	if len(doc.Attachments) > 0 {
		attachmentsDir := filepath.Join(dir, "attachments")
		if err := os.MkdirAll(attachmentsDir, 0o755); err != nil {
			return fmt.Errorf("create attachments directory: %w", err)
		}
		for _, att := range doc.Attachments {
			if att.Filename == "" {
				continue
			}
			if err := os.WriteFile(filepath.Join(attachmentsDir, att.Filename), att.Payload, 0o644); err != nil {
				return fmt.Errorf("write attachment %q: %w", att.Filename, err)
			}
		}
	}

	return ctx.Err()
}

// Get retrieves the persisted artifacts for a document by its object key.
func (s *LocalStore) Get(ctx context.Context, objectKey string) (*driven.PersistedObject, error) {
	dir := filepath.Join(s.root, objectKey)

	body, err := os.ReadFile(filepath.Join(dir, "body.txt"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("read body: %w", err)
	}

	metaJSON, err := os.ReadFile(filepath.Join(dir, "metadata.json"))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read metadata: %w", err)
	}

	chain, err := os.ReadFile(filepath.Join(dir, "custody_chain.json"))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read custody chain: %w", err)
	}

	attachments := map[string][]byte{}
	entries, err := os.ReadDir(filepath.Join(dir, "attachments"))
	if err == nil {
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			payload, err := os.ReadFile(filepath.Join(dir, "attachments", entry.Name()))
			if err != nil {
				return nil, fmt.Errorf("read attachment %q: %w", entry.Name(), err)
			}
			attachments[entry.Name()] = payload
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("list attachments: %w", err)
	}

	return &driven.PersistedObject{
		BodyText:     string(body),
		MetadataJSON: metaJSON,
		Attachments:  attachments,
		CustodyChain: chain,
	}, nil
}

// HealthCheck verifies the root directory exists and is writable by
// touching and removing a probe file.
func (s *LocalStore) HealthCheck(ctx context.Context) error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("object store root %q not usable: %w", s.root, err)
	}
	probe := filepath.Join(s.root, ".healthcheck")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return fmt.Errorf("object store root %q not writable: %w", s.root, err)
	}
	return os.Remove(probe)
}

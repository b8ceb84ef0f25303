package objectstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/custodia-labs/sercha-core/internal/core/domain"
)

func testDocument() *domain.Document {
	return &domain.Document{
		ID:          "doc-1",
		MatterID:    "matter-42",
		TenantID:    "tenant-1",
		Source:      "mock_email",
		ExternalID:  "ext-1",
		CustodianID: "custodian-1",
		Subject:     "Q3 risk review",
		BodyText:    "please see attached",
		CollectedAt: time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC),
		Metadata:    map[string]string{"thread_id": "falcon"},
		Attachments: []*domain.Attachment{
			{Filename: "status.txt", ContentType: "text/plain", SizeBytes: 12, Payload: []byte("status body!"), SHA256: "abc123"},
		},
	}
}

func TestLocalStore_PersistAndGet(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	doc := testDocument()

	if err := store.Persist(context.Background(), doc); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	wantKey := filepath.Join("mock_email", "matter-42", "ext-1")
	if doc.ObjectKey != wantKey {
		t.Errorf("ObjectKey: got %q, want %q", doc.ObjectKey, wantKey)
	}

	if len(doc.CustodyEvents) != 1 || doc.CustodyEvents[0].Action != "persisted" {
		t.Fatalf("expected one 'persisted' custody event, got %+v", doc.CustodyEvents)
	}

	obj, err := store.Get(context.Background(), doc.ObjectKey)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if obj.BodyText != doc.BodyText {
		t.Errorf("BodyText: got %q, want %q", obj.BodyText, doc.BodyText)
	}

	var meta documentMetadata
	if err := json.Unmarshal(obj.MetadataJSON, &meta); err != nil {
		t.Fatalf("unmarshal metadata.json: %v", err)
	}
	if meta.Subject != doc.Subject {
		t.Errorf("metadata subject: got %q, want %q", meta.Subject, doc.Subject)
	}
	if len(meta.Attachments) != 1 || meta.Attachments[0].Filename != "status.txt" {
		t.Errorf("metadata attachments: got %+v", meta.Attachments)
	}

	var chain []*domain.CustodyEvent
	if err := json.Unmarshal(obj.CustodyChain, &chain); err != nil {
		t.Fatalf("unmarshal custody_chain.json: %v", err)
	}
	if len(chain) != 1 || chain[0].Action != "persisted" {
		t.Errorf("custody chain: got %+v", chain)
	}
	if chain[0].Metadata["location"] != doc.ObjectKey {
		t.Errorf("custody event metadata location: got %+v, want %q", chain[0].Metadata, doc.ObjectKey)
	}

	payload, ok := obj.Attachments["status.txt"]
	if !ok {
		t.Fatalf("expected attachments[\"status.txt\"] blob, got %+v", obj.Attachments)
	}
	if string(payload) != "status body!" {
		t.Errorf("attachment payload: got %q, want %q", payload, "status body!")
	}
}

func TestLocalStore_PersistRequiresExternalID(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	doc := testDocument()
	doc.ExternalID = ""

	if err := store.Persist(context.Background(), doc); err == nil {
		t.Fatal("expected error for document with no external_id")
	}
}

func TestLocalStore_GetMissingReturnsNotFound(t *testing.T) {
	store := NewLocalStore(t.TempDir())

	_, err := store.Get(context.Background(), "nowhere/matters/doc")
	if err != domain.ErrNotFound {
		t.Fatalf("got %v, want domain.ErrNotFound", err)
	}
}

func TestLocalStore_PersistFailureLeavesNoPartialState(t *testing.T) {
	root := t.TempDir()
	store := NewLocalStore(root)
	doc := testDocument()

	// Make the destination directory unwritable by pre-creating it as a
	// file, so MkdirAll/WriteFile underneath it fails deterministically.
	key := objectKeyFor(doc)
	blocked := filepath.Join(root, key)
	if err := os.MkdirAll(filepath.Dir(blocked), 0o755); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := os.WriteFile(blocked, []byte("occupied"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if err := store.Persist(context.Background(), doc); err == nil {
		t.Fatal("expected Persist to fail when the object directory path is occupied by a file")
	}

	if doc.ObjectKey != "" {
		t.Errorf("ObjectKey = %q after failed Persist, want empty", doc.ObjectKey)
	}
	for _, ev := range doc.CustodyEvents {
		if ev.Action == "persisted" {
			t.Error("failed Persist appended a persisted custody event")
		}
	}
	if got, err := os.ReadFile(blocked); err != nil || string(got) != "occupied" {
		t.Errorf("blocking file changed: content %q, err %v", got, err)
	}
}

func TestLocalStore_HealthCheck(t *testing.T) {
	store := NewLocalStore(filepath.Join(t.TempDir(), "nested", "root"))
	if err := store.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
}

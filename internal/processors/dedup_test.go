package processors

import (
	"context"
	"testing"

	"github.com/custodia-labs/sercha-core/internal/core/domain"
)

func TestDeduplicator_DropsRepeatedContent(t *testing.T) {
	docs := []*domain.Document{
		{ID: "a", Source: "mock", ExternalID: "1", Subject: "Hello", BodyText: "same body"},
		{ID: "b", Source: "mock", ExternalID: "1", Subject: "Hello", BodyText: "same body"},
		{ID: "c", Source: "mock", ExternalID: "2", Subject: "Different", BodyText: "other body"},
	}

	out, err := NewDeduplicator().Process(context.Background(), docs)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2", len(out))
	}
	if out[0].ID != "a" || out[1].ID != "c" {
		t.Errorf("unexpected survivors: %q, %q", out[0].ID, out[1].ID)
	}
}

func TestDeduplicator_PreservesConnectorAssignedHash(t *testing.T) {
	docs := []*domain.Document{
		{ID: "a", SHA256: "fixed-hash"},
		{ID: "b", SHA256: "fixed-hash"},
	}

	out, err := NewDeduplicator().Process(context.Background(), docs)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("len(out) = %d, want 1", len(out))
	}
}

func TestDeduplicator_Name(t *testing.T) {
	if got := NewDeduplicator().Name(); got != "deduplication" {
		t.Errorf("Name() = %q, want %q", got, "deduplication")
	}
}

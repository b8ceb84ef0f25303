package postgres

import (
	"database/sql"
	"fmt"
	"testing"
	"time"
)

// fakeRow is a rowScanner backed by a fixed slice of values, used to test
// scanDocument's field mapping without a live database connection. Values
// must line up positionally and by type with the dest pointers passed to
// Scan by the code under test.
type fakeRow struct {
	values []any
	err    error
}

func (r *fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("fakeRow: %d dest, %d values", len(dest), len(r.values))
	}
	for i, d := range dest {
		switch ptr := d.(type) {
		case *string:
			*ptr = r.values[i].(string)
		case *sql.NullString:
			*ptr = r.values[i].(sql.NullString)
		case *sql.NullTime:
			*ptr = r.values[i].(sql.NullTime)
		case *time.Time:
			*ptr = r.values[i].(time.Time)
		case *[]byte:
			*ptr = r.values[i].([]byte)
		default:
			return fmt.Errorf("fakeRow: unsupported dest type %T at index %d", d, i)
		}
	}
	return nil
}

func TestScanDocument(t *testing.T) {
	collected := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	sentAt := time.Date(2026, 2, 1, 12, 5, 0, 0, time.UTC)

	row := &fakeRow{values: []any{
		"doc-1", "matter-1", sql.NullString{String: "tenant-1", Valid: true},
		"mock_email", "ext-1", sql.NullString{String: "custodian-1", Valid: true},
		sql.NullString{String: "subject line", Valid: true},
		sql.NullString{String: "body text", Valid: true},
		sql.NullString{String: "mock_email/matter-1/ext-1", Valid: true},
		sql.NullString{String: "abcd", Valid: true},
		sql.NullString{String: "email", Valid: true},
		sql.NullString{String: "high", Valid: true},
		collected,
		sql.NullTime{Time: sentAt, Valid: true},
		[]byte(`{"thread_id":"falcon"}`),
		sql.NullTime{},
	}}

	doc, err := scanDocument(row)
	if err != nil {
		t.Fatalf("scanDocument: %v", err)
	}

	if doc.ID != "doc-1" || doc.MatterID != "matter-1" || doc.TenantID != "tenant-1" {
		t.Errorf("identity fields: got %+v", doc)
	}
	if doc.Subject != "subject line" || doc.BodyText != "body text" {
		t.Errorf("content fields: got %+v", doc)
	}
	if doc.SentAt == nil || !doc.SentAt.Equal(sentAt) {
		t.Errorf("SentAt: got %v, want %v", doc.SentAt, sentAt)
	}
	if doc.IndexedAt != nil {
		t.Errorf("IndexedAt: got %v, want nil", doc.IndexedAt)
	}
	if doc.Metadata["thread_id"] != "falcon" {
		t.Errorf("Metadata: got %+v", doc.Metadata)
	}
}

func TestScanDocumentNotFound(t *testing.T) {
	row := &fakeRow{err: sql.ErrNoRows}
	_, err := scanDocument(row)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestVectorLiteral(t *testing.T) {
	got := vectorLiteral([]float32{0.1, 0.2, -1})
	want := "[0.1,0.2,-1]"
	if got != want {
		t.Errorf("vectorLiteral: got %q, want %q", got, want)
	}
}

func TestVectorLiteralEmpty(t *testing.T) {
	if got := vectorLiteral(nil); got != "[]" {
		t.Errorf("vectorLiteral(nil): got %q, want \"[]\"", got)
	}
}

func TestFirstNonZero(t *testing.T) {
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := firstNonZero(fixed); !got.Equal(fixed) {
		t.Errorf("firstNonZero(fixed): got %v, want %v", got, fixed)
	}
	if got := firstNonZero(time.Time{}); got.IsZero() {
		t.Error("firstNonZero(zero) should default to time.Now(), got zero")
	}
}

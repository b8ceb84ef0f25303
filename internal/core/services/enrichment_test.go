package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/custodia-labs/sercha-core/internal/core/domain"
)

type fakeLLM struct {
	mu        sync.Mutex
	responses map[string]string
	calls     int
}

func (f *fakeLLM) Complete(_ context.Context, systemPrompt, userContent string, _ int) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if r, ok := f.responses[userContent]; ok {
		return r, nil
	}
	return "RELEVANCE:75\nPRIVILEGE_RISK:10\nCLASSIFICATION:relevant\nKEY FINDINGS:discusses a contract\nANALYSIS:looks routine", nil
}

func (f *fakeLLM) Model() string { return "fake-llm" }

func (f *fakeLLM) Ping(_ context.Context) error { return nil }

func (f *fakeLLM) Close() error { return nil }

func newEnrichmentMetadataStore(docs ...*domain.Document) *fakeMetadataStore {
	m := &fakeMetadataStore{}
	m.indexed = append(m.indexed, docs...)
	return m
}

func TestEnrichmentService_Submit_ProcessesAllDocuments(t *testing.T) {
	store := newEnrichmentMetadataStore(
		&domain.Document{ID: "doc-1", Subject: "Q3 contract renewal", BodyText: "please review the attached contract"},
		&domain.Document{ID: "doc-2", Subject: "Lunch plans", BodyText: "want to grab lunch?"},
	)
	llm := &fakeLLM{responses: map[string]string{}}

	svc := NewEnrichmentService(EnrichmentServiceConfig{
		MetadataStore: store,
		LLM:           llm,
		WorkerCount:   2,
	})

	job := domain.NewEnrichmentJob("matter-1", "classify for relevance", []string{"doc-1", "doc-2"}, domain.EnrichmentJobOptions{CreateTags: true})
	if err := svc.Submit(context.Background(), job); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	progress := waitForCompletion(t, svc, job.ID)
	if progress.Processed != 2 {
		t.Errorf("expected 2 processed, got %d", progress.Processed)
	}
	if len(progress.Results) != 2 {
		t.Errorf("expected 2 results, got %d", len(progress.Results))
	}
}

func TestEnrichmentService_Submit_EmptyJob(t *testing.T) {
	svc := NewEnrichmentService(EnrichmentServiceConfig{
		MetadataStore: &fakeMetadataStore{},
		LLM:           &fakeLLM{},
	})

	job := domain.NewEnrichmentJob("matter-1", "prompt", nil, domain.EnrichmentJobOptions{})
	if err := svc.Submit(context.Background(), job); err == nil {
		t.Error("expected error for job with no document ids")
	}
}

func TestEnrichmentService_Progress_UnknownJob(t *testing.T) {
	svc := NewEnrichmentService(EnrichmentServiceConfig{
		MetadataStore: &fakeMetadataStore{},
		LLM:           &fakeLLM{},
	})

	if _, err := svc.Progress(context.Background(), "nonexistent"); err != domain.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestEnrichmentService_RunSweep_NoPendingDocuments(t *testing.T) {
	svc := NewEnrichmentService(EnrichmentServiceConfig{
		MetadataStore: &fakeMetadataStore{},
		LLM:           &fakeLLM{},
	})

	if _, err := svc.RunSweep(context.Background(), "matter-1"); err != domain.ErrNotFound {
		t.Errorf("expected ErrNotFound when nothing pending, got %v", err)
	}
}

func TestParseClassification_Defaults(t *testing.T) {
	result := parseClassification("not a structured response at all")
	if result.Relevance != 50 {
		t.Errorf("expected default relevance 50, got %d", result.Relevance)
	}
	if result.PrivilegeRisk != 0 {
		t.Errorf("expected default privilege_risk 0, got %d", result.PrivilegeRisk)
	}
	if result.Classification != "needs-review" {
		t.Errorf("expected default classification needs-review, got %s", result.Classification)
	}
	if result.KeyFindings != "" {
		t.Errorf("expected empty key findings, got %q", result.KeyFindings)
	}
}

func TestParseClassification_FullResponse(t *testing.T) {
	raw := "RELEVANCE:92\nPRIVILEGE_RISK:60\nCLASSIFICATION:needs-review\nKEY FINDINGS:- mentions a settlement\n- references litigation\nANALYSIS:this document is sensitive"
	result := parseClassification(raw)
	if result.Relevance != 92 {
		t.Errorf("expected relevance 92, got %d", result.Relevance)
	}
	if result.PrivilegeRisk != 60 {
		t.Errorf("expected privilege_risk 60, got %d", result.PrivilegeRisk)
	}
	if result.Classification != "needs-review" {
		t.Errorf("expected needs-review, got %s", result.Classification)
	}
	if result.Analysis != "this document is sensitive" {
		t.Errorf("expected analysis text, got %q", result.Analysis)
	}
}

// TestEnrichment_ParseFailureScenario is spec.md §8 scenario 5: an LLM
// response that doesn't match the structured-output grammar at all still
// produces a reviewable result instead of an error.
func TestEnrichment_ParseFailureScenario(t *testing.T) {
	raw := "I cannot answer."
	result := parseClassification(raw)
	if result.Relevance != 50 {
		t.Errorf("relevance = %d, want 50", result.Relevance)
	}
	if result.Classification != "needs-review" {
		t.Errorf("classification = %q, want needs-review", result.Classification)
	}

	note := reviewNoteSeparator + raw
	if note != "Custom Analysis:\nI cannot answer." {
		t.Errorf("review note = %q, want %q", note, "Custom Analysis:\nI cannot answer.")
	}

	tags := buildTags("doc-1", result)
	if len(tags) != 2 {
		t.Fatalf("expected 2 tags (classification + priority), got %d: %+v", len(tags), tags)
	}
	if tags[0].Label != "AI: Needs Review" {
		t.Errorf("classification tag = %q, want %q", tags[0].Label, "AI: Needs Review")
	}
	if tags[1].Label != "Medium Priority" {
		t.Errorf("priority tag = %q, want %q", tags[1].Label, "Medium Priority")
	}
}

func TestBuildTags_PriorityThresholds(t *testing.T) {
	cases := []struct {
		relevance int
		want      string
	}{
		{95, "High Priority"},
		{80, "High Priority"},
		{50, "Medium Priority"},
		{40, "Medium Priority"},
		{10, "Low Priority"},
	}
	for _, c := range cases {
		tags := buildTags("doc-1", domain.DocumentResult{Classification: "relevant", Relevance: c.relevance})
		if tags[1].Label != c.want {
			t.Errorf("relevance %d: priority tag = %q, want %q", c.relevance, tags[1].Label, c.want)
		}
	}
}

func TestDeriveTopics(t *testing.T) {
	topics := deriveTopics("This settlement discusses litigation risk and a pending merger.")
	found := map[string]bool{}
	for _, topic := range topics {
		found[topic] = true
	}
	if !found["litigation"] {
		t.Error("expected litigation topic")
	}
	if !found["corporate"] {
		t.Error("expected corporate topic")
	}
}

func waitForCompletion(t *testing.T, svc interface {
	Progress(ctx context.Context, jobID string) (*domain.JobProgress, error)
}, jobID string) *domain.JobProgress {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		p, err := svc.Progress(context.Background(), jobID)
		if err == nil && p.Completed {
			return p
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s did not complete in time", jobID)
	return nil
}

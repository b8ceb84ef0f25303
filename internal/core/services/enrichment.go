package services

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-core/internal/core/domain"
	"github.com/custodia-labs/sercha-core/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-core/internal/core/ports/driving"
)

var _ driving.EnrichmentService = (*enrichmentService)(nil)

const (
	defaultWorkerCount    = 8
	defaultMaxTokens      = 700
	defaultSweepBatchSize = 50
)

// structuredOutputPreamble is appended to every caller-supplied prompt so
// the LLM's response parses against the fixed grammar §4.8 expects.
const structuredOutputPreamble = `
Respond in exactly this format:
RELEVANCE:<0-100>
PRIVILEGE_RISK:<0-100>
CLASSIFICATION:<relevant|not-relevant|needs-review>
KEY FINDINGS:<bullets>
ANALYSIS:<text>`

var (
	relevancePattern     = regexp.MustCompile(`(?i)RELEVANCE:\s*(\d{1,3})`)
	privilegeRiskPattern = regexp.MustCompile(`(?i)PRIVILEGE_RISK:\s*(\d{1,3})`)
	classificationPattern = regexp.MustCompile(`(?i)CLASSIFICATION:\s*(relevant|not-relevant|needs-review)`)
	keyFindingsPattern   = regexp.MustCompile(`(?is)KEY FINDINGS:\s*(.*?)(?:\nANALYSIS:|$)`)
	analysisPattern      = regexp.MustCompile(`(?is)ANALYSIS:\s*(.*)$`)

	redactionSummaryPattern = regexp.MustCompile(`(?i)REDACTION_SUMMARY:\s*(.*)`)
	redactedSubjectPattern  = regexp.MustCompile(`(?i)REDACTED_SUBJECT:\s*(.*)`)
	redactedBodyPattern     = regexp.MustCompile(`(?is)REDACTED_BODY:\s*(.*)$`)
)

// topicRules maps a keyword (case-insensitive substring match against the
// LLM's raw response) to the topic tag it implies. Configurable in the
// sense that this table is the single place new rules are added; there is
// no runtime rule-editing surface in this implementation.
var topicRules = map[string]string{
	"contract":    "contracts",
	"invoice":     "finance",
	"merger":      "corporate",
	"litigation":  "litigation",
	"settlement":  "litigation",
	"privileged":  "privilege",
	"attorney":    "privilege",
	"harassment":  "hr",
	"termination": "hr",
}

// reviewNoteSeparator prefixes every appended enrichment response so
// AppendReviewNote's accumulating text stays human-readable.
const reviewNoteSeparator = "Custom Analysis:\n"

// classificationLabels maps a parsed classification to the human-facing
// tag label §4.8 step 8 applies to the document.
var classificationLabels = map[string]string{
	"relevant":     "AI: Relevant",
	"not-relevant": "AI: Not Relevant",
	"needs-review": "AI: Needs Review",
}

func classificationTag(classification string) string {
	if label, ok := classificationLabels[classification]; ok {
		return label
	}
	return "AI: " + classification
}

// priorityTag derives a priority label from the relevance score, matching
// the Hot threshold processDocument already uses for result.Relevance >= 80.
func priorityTag(relevance int) string {
	switch {
	case relevance >= 80:
		return "High Priority"
	case relevance >= 40:
		return "Medium Priority"
	default:
		return "Low Priority"
	}
}

// EnrichmentServiceConfig holds the dependencies and tunables for the
// Enrichment Worker.
type EnrichmentServiceConfig struct {
	MetadataStore driven.MetadataStore
	LLM           driven.LLMService
	Embedding     driven.EmbeddingService

	// WorkerCount sizes the fixed worker pool (default 8, per §4.8's
	// 5-10 guidance).
	WorkerCount int

	// SweepBatchSize bounds how many unenriched documents RunSweep pulls
	// per invocation.
	SweepBatchSize int

	Logger *slog.Logger
}

// enrichmentService implements driving.EnrichmentService: a fixed-size
// worker pool classifies documents via LLM and writes structured
// enrichment back, per §4.8.
type enrichmentService struct {
	metadataStore  driven.MetadataStore
	llm            driven.LLMService
	embedding      driven.EmbeddingService
	workerCount    int
	sweepBatchSize int
	logger         *slog.Logger

	mu   sync.RWMutex
	jobs map[string]*domain.JobProgress
}

// NewEnrichmentService creates an Enrichment Worker service.
func NewEnrichmentService(cfg EnrichmentServiceConfig) driving.EnrichmentService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := cfg.WorkerCount
	if workers <= 0 {
		workers = defaultWorkerCount
	}
	batch := cfg.SweepBatchSize
	if batch <= 0 {
		batch = defaultSweepBatchSize
	}

	return &enrichmentService{
		metadataStore:  cfg.MetadataStore,
		llm:            cfg.LLM,
		embedding:      cfg.Embedding,
		workerCount:    workers,
		sweepBatchSize: batch,
		logger:         logger.With("component", "enrichment"),
		jobs:           make(map[string]*domain.JobProgress),
	}
}

// Submit registers the job's progress record and dispatches its documents
// to the worker pool. It returns once dispatch has started; callers poll
// Progress for completion. Work continues independent of ctx's lifetime —
// callers submitting from a request-scoped context should not expect
// cancellation to stop in-flight documents.
func (s *enrichmentService) Submit(ctx context.Context, job *domain.EnrichmentJob) error {
	if job == nil || len(job.DocumentIDs) == 0 {
		return fmt.Errorf("%w: job has no document ids", domain.ErrConfig)
	}

	progress := domain.NewJobProgress(job.ID, len(job.DocumentIDs))

	s.mu.Lock()
	s.jobs[job.ID] = progress
	s.mu.Unlock()

	go s.runJob(context.Background(), job, progress)
	return nil
}

// Progress returns the current progress record for a submitted job.
func (s *enrichmentService) Progress(ctx context.Context, jobID string) (*domain.JobProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// RunSweep pulls a batch of unenriched documents for a matter, submits
// them as one job, and returns it. Returns domain.ErrNotFound when there
// is nothing pending — callers (the Scheduler's sweep loop) treat that as
// a no-op, not a failure.
func (s *enrichmentService) RunSweep(ctx context.Context, matterID string) (*domain.EnrichmentJob, error) {
	ids, err := s.metadataStore.UnenrichedDocumentIDs(ctx, matterID, s.sweepBatchSize)
	if err != nil {
		return nil, fmt.Errorf("list unenriched documents: %w", err)
	}
	if len(ids) == 0 {
		return nil, domain.ErrNotFound
	}

	job := domain.NewEnrichmentJob(matterID, defaultSweepPrompt, ids, domain.EnrichmentJobOptions{CreateTags: true})
	if err := s.Submit(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

const defaultSweepPrompt = "Review this document for relevance, privilege risk, and classification for legal review."

// RunEmbeddingSweep is the embedding generator worker (§4.8): a batched
// pull of documents with a NULL embedding, run through the external
// embedding API, upserted back with the model name. It follows the same
// job/progress shape as enrichment but is not part of driving.
// EnrichmentService — embeddings are an internal scoring input, not
// something a caller submits or polls progress on directly.
func (s *enrichmentService) RunEmbeddingSweep(ctx context.Context, matterID string) (int, error) {
	if s.embedding == nil {
		return 0, nil
	}

	ids, err := s.metadataStore.UnembeddedDocumentIDs(ctx, matterID, s.sweepBatchSize)
	if err != nil {
		return 0, fmt.Errorf("list unembedded documents: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	texts := make([]string, 0, len(ids))
	docs := make([]*domain.Document, 0, len(ids))
	for _, id := range ids {
		doc, err := s.metadataStore.GetDocument(ctx, id)
		if err != nil {
			s.logger.Warn("failed to load document for embedding", "document_id", id, "error", err)
			continue
		}
		docs = append(docs, doc)
		texts = append(texts, doc.Subject+"\n\n"+doc.BodyText)
	}
	if len(docs) == 0 {
		return 0, nil
	}

	embeddings, err := s.embedding.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed batch: %w", err)
	}

	embedded := 0
	for i, doc := range docs {
		if i >= len(embeddings) {
			break
		}
		if err := s.metadataStore.UpsertEmbedding(ctx, doc.ID, embeddings[i], s.embedding.Model()); err != nil {
			s.logger.Error("upsert embedding failed", "document_id", doc.ID, "error", err)
			continue
		}
		embedded++
	}
	return embedded, nil
}

// runJob fans job.DocumentIDs out across the fixed worker pool and
// serializes progress mutations through progressMu.
func (s *enrichmentService) runJob(ctx context.Context, job *domain.EnrichmentJob, progress *domain.JobProgress) {
	ids := make(chan string, len(job.DocumentIDs))
	for _, id := range job.DocumentIDs {
		ids <- id
	}
	close(ids)

	var progressMu sync.Mutex
	var wg sync.WaitGroup

	workers := s.workerCount
	if workers > len(job.DocumentIDs) {
		workers = len(job.DocumentIDs)
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for documentID := range ids {
				result, redaction := s.processDocument(ctx, job, documentID)

				progressMu.Lock()
				progress.RecordResult(result)
				if redaction != nil {
					progress.RecordRedaction(*redaction)
				}
				progressMu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.logger.Info("enrichment job completed", "job_id", job.ID, "documents", len(job.DocumentIDs))
}

// processDocument runs the §4.8 per-document procedure for one document
// id, steps 1-9 (step 10, the progress update, happens in the caller
// under the shared progress lock).
func (s *enrichmentService) processDocument(ctx context.Context, job *domain.EnrichmentJob, documentID string) (domain.DocumentResult, *domain.Redaction) {
	doc, err := s.metadataStore.GetDocument(ctx, documentID)
	if err != nil {
		return domain.DocumentResult{DocumentID: documentID, Error: err.Error()}, nil
	}

	systemPrompt := job.Prompt + structuredOutputPreamble
	userContent := doc.Subject + "\n\n" + doc.BodyText

	raw, err := s.llm.Complete(ctx, systemPrompt, userContent, defaultMaxTokens)
	if err != nil {
		s.logger.Warn("llm call failed", "document_id", documentID, "error", err)
		return domain.DocumentResult{DocumentID: documentID, Subject: doc.Subject, Error: err.Error()}, nil
	}

	result := parseClassification(raw)
	result.DocumentID = documentID
	result.Subject = doc.Subject
	result.Topics = deriveTopics(raw)

	enrichment := &domain.Enrichment{
		DocumentID:     documentID,
		Summary:        result.KeyFindings,
		Entities:       result.Topics,
		Privileged:     result.PrivilegeRisk >= 50,
		Responsive:     result.Classification == "relevant",
		Hot:            result.Relevance >= 80,
		RawLLMResponse: raw,
		EnrichedAt:     time.Now(),
		Model:          s.llm.Model(),
	}
	if err := s.metadataStore.UpsertEnrichment(ctx, documentID, enrichment); err != nil {
		s.logger.Error("upsert enrichment failed", "document_id", documentID, "error", err)
	}

	note := reviewNoteSeparator + raw
	if err := s.metadataStore.AppendReviewNote(ctx, documentID, note); err != nil {
		s.logger.Error("append review note failed", "document_id", documentID, "error", err)
	}

	if job.Options.CreateTags {
		tags := buildTags(documentID, result)
		if err := s.metadataStore.InsertTags(ctx, documentID, tags); err != nil {
			s.logger.Error("insert tags failed", "document_id", documentID, "error", err)
		}
	}

	var redaction *domain.Redaction
	if job.Options.RedactionMode == domain.RedactionModeFull {
		redaction = s.runRedaction(ctx, job, doc)
	}

	return result, redaction
}

func (s *enrichmentService) runRedaction(ctx context.Context, job *domain.EnrichmentJob, doc *domain.Document) *domain.Redaction {
	userContent := doc.Subject + "\n\n" + doc.BodyText
	raw, err := s.llm.Complete(ctx, job.Options.RedactionPrompt, userContent, defaultMaxTokens)
	if err != nil {
		s.logger.Warn("redaction llm call failed", "document_id", doc.ID, "error", err)
		return nil
	}
	return parseRedaction(doc.ID, raw)
}

// parseClassification scans raw against the §4.8 structured-output
// grammar with regular expressions, per-field, falling back to the
// spec's defaults for any field that doesn't match.
func parseClassification(raw string) domain.DocumentResult {
	result := domain.DocumentResult{
		Relevance:      50,
		PrivilegeRisk:  0,
		Classification: "needs-review",
		RawResponse:    raw,
	}

	if m := relevancePattern.FindStringSubmatch(raw); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			result.Relevance = clamp(v, 0, 100)
		}
	}
	if m := privilegeRiskPattern.FindStringSubmatch(raw); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			result.PrivilegeRisk = clamp(v, 0, 100)
		}
	}
	if m := classificationPattern.FindStringSubmatch(raw); m != nil {
		result.Classification = strings.ToLower(m[1])
	}
	if m := keyFindingsPattern.FindStringSubmatch(raw); m != nil {
		result.KeyFindings = strings.TrimSpace(m[1])
	}
	if m := analysisPattern.FindStringSubmatch(raw); m != nil {
		result.Analysis = strings.TrimSpace(m[1])
	}

	return result
}

func parseRedaction(documentID, raw string) *domain.Redaction {
	r := &domain.Redaction{DocumentID: documentID}
	if m := redactionSummaryPattern.FindStringSubmatch(raw); m != nil {
		r.Summary = strings.TrimSpace(m[1])
	}
	if m := redactedSubjectPattern.FindStringSubmatch(raw); m != nil {
		r.RedactedSubject = strings.TrimSpace(m[1])
	}
	if m := redactedBodyPattern.FindStringSubmatch(raw); m != nil {
		r.RedactedBody = strings.TrimSpace(m[1])
	}
	return r
}

func deriveTopics(raw string) []string {
	lower := strings.ToLower(raw)
	var topics []string
	seen := make(map[string]bool)
	for keyword, topic := range topicRules {
		if strings.Contains(lower, keyword) && !seen[topic] {
			topics = append(topics, topic)
			seen[topic] = true
		}
	}
	return topics
}

func buildTags(documentID string, result domain.DocumentResult) []domain.Tag {
	now := time.Now()
	tags := []domain.Tag{
		{ID: domain.GenerateID(), DocumentID: documentID, Label: classificationTag(result.Classification), AppliedBy: "enrichment-worker", AppliedAt: now},
		{ID: domain.GenerateID(), DocumentID: documentID, Label: priorityTag(result.Relevance), AppliedBy: "enrichment-worker", AppliedAt: now},
	}
	for _, topic := range result.Topics {
		tags = append(tags, domain.Tag{ID: domain.GenerateID(), DocumentID: documentID, Label: "topic:" + topic, AppliedBy: "enrichment-worker", AppliedAt: now})
	}
	return tags
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

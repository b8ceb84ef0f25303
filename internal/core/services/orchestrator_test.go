package services

import (
	"context"
	"errors"
	"testing"

	"github.com/custodia-labs/sercha-core/internal/core/domain"
	"github.com/custodia-labs/sercha-core/internal/core/ports/driven"
)

type fakeSourceConnector struct {
	connectorType domain.ConnectorType
	docs          []*domain.Document
	nextCursor    string
	fetchErr      error
}

func (c *fakeSourceConnector) Type() domain.ConnectorType { return c.connectorType }

func (c *fakeSourceConnector) Fetch(_ context.Context, _ string) ([]*domain.Document, string, error) {
	if c.fetchErr != nil {
		return nil, "", c.fetchErr
	}
	return c.docs, c.nextCursor, nil
}

func (c *fakeSourceConnector) TestConnection(_ context.Context) error { return nil }

type fakeConnectorFactory struct {
	connectors map[string]*fakeSourceConnector
	createErr  error
}

func (f *fakeConnectorFactory) Register(driven.ConnectorBuilder) {}

func (f *fakeConnectorFactory) Create(_ context.Context, cfg domain.ConnectorConfig) (driven.SourceConnector, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	c, ok := f.connectors[cfg.Name]
	if !ok {
		return nil, domain.ErrConfig
	}
	return c, nil
}

func (f *fakeConnectorFactory) SupportedTypes() []domain.ConnectorType { return nil }

func (f *fakeConnectorFactory) GetBuilder(domain.ConnectorType) (driven.ConnectorBuilder, error) {
	return nil, domain.ErrConfig
}

type passthroughProcessor struct {
	name string
	fn   func(docs []*domain.Document) ([]*domain.Document, error)
}

func (p *passthroughProcessor) Name() string { return p.name }

func (p *passthroughProcessor) Process(_ context.Context, docs []*domain.Document) ([]*domain.Document, error) {
	if p.fn != nil {
		return p.fn(docs)
	}
	return docs, nil
}

type fakeObjectStore struct {
	persisted map[string]*domain.Document
	failIDs   map[string]bool
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{persisted: make(map[string]*domain.Document), failIDs: make(map[string]bool)}
}

func (s *fakeObjectStore) Persist(_ context.Context, doc *domain.Document) error {
	if s.failIDs[doc.ID] {
		return errors.New("simulated persist failure")
	}
	s.persisted[doc.ID] = doc
	return nil
}

func (s *fakeObjectStore) Get(_ context.Context, objectKey string) (*driven.PersistedObject, error) {
	return nil, domain.ErrNotFound
}

func (s *fakeObjectStore) HealthCheck(_ context.Context) error { return nil }

type fakeMetadataStore struct {
	indexed   []*domain.Document
	bulkErr   error
}

func (m *fakeMetadataStore) Index(_ context.Context, doc *domain.Document) error {
	m.indexed = append(m.indexed, doc)
	return nil
}

func (m *fakeMetadataStore) BulkIndex(_ context.Context, docs []*domain.Document) error {
	if m.bulkErr != nil {
		return m.bulkErr
	}
	m.indexed = append(m.indexed, docs...)
	return nil
}

func (m *fakeMetadataStore) Search(_ context.Context, _ domain.SearchQuery, _ *domain.RuntimeConfig) (*domain.SearchResult, error) {
	return &domain.SearchResult{}, nil
}

func (m *fakeMetadataStore) GetDocument(_ context.Context, documentID string) (*domain.Document, error) {
	for _, d := range m.indexed {
		if d.ID == documentID {
			return d, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *fakeMetadataStore) GetDocumentsByCustodian(_ context.Context, _ string, _, _ int) ([]*domain.Document, error) {
	return nil, nil
}

func (m *fakeMetadataStore) Count(_ context.Context) (int, error) { return len(m.indexed), nil }

func (m *fakeMetadataStore) UnenrichedDocumentIDs(_ context.Context, _ string, _ int) ([]string, error) {
	return nil, nil
}

func (m *fakeMetadataStore) UnembeddedDocumentIDs(_ context.Context, _ string, _ int) ([]string, error) {
	return nil, nil
}

func (m *fakeMetadataStore) UpsertEnrichment(_ context.Context, _ string, _ *domain.Enrichment) error {
	return nil
}

func (m *fakeMetadataStore) UpsertEmbedding(_ context.Context, _ string, _ []float32, _ string) error {
	return nil
}

func (m *fakeMetadataStore) AppendReviewNote(_ context.Context, _ string, _ string) error { return nil }

func (m *fakeMetadataStore) InsertTags(_ context.Context, _ string, _ []domain.Tag) error { return nil }

func (m *fakeMetadataStore) HealthCheck(_ context.Context) error { return nil }

func TestOrchestrator_Run_SingleConnector(t *testing.T) {
	docs := []*domain.Document{
		{ID: "doc-1", CustodianID: "alice"},
		{ID: "doc-2", CustodianID: "bob"},
	}
	connectors := map[string]*fakeSourceConnector{
		"mail": {connectorType: domain.ConnectorTypeMailAPI, docs: docs, nextCursor: "cursor-1"},
	}
	objStore := newFakeObjectStore()
	metaStore := &fakeMetadataStore{}

	orch := NewOrchestrator(OrchestratorConfig{
		ConnectorConfigs: []domain.ConnectorConfig{{Name: "mail", Type: "mail_api", Enabled: true}},
		ConnectorFactory: &fakeConnectorFactory{connectors: connectors},
		ObjectStore:      objStore,
		MetadataStore:    metaStore,
		BatesPrefix:      "TEST",
	})

	results, err := orch.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	r := results[0]
	if !r.Success {
		t.Fatalf("expected success, got error %q", r.Error)
	}
	if r.ProcessedDocuments != 2 {
		t.Errorf("expected 2 processed documents, got %d", r.ProcessedDocuments)
	}
	if len(objStore.persisted) != 2 {
		t.Errorf("expected 2 persisted documents, got %d", len(objStore.persisted))
	}
	if len(metaStore.indexed) != 2 {
		t.Errorf("expected 2 indexed documents, got %d", len(metaStore.indexed))
	}
	for _, d := range docs {
		if d.Metadata["bates_number"] == "" {
			t.Errorf("expected bates_number stamped on %s", d.ID)
		}
	}
	if docs[0].Metadata["bates_number"] != "TEST-000001" {
		t.Errorf("expected TEST-000001, got %s", docs[0].Metadata["bates_number"])
	}
}

func TestOrchestrator_Run_SkipsDisabledConnectors(t *testing.T) {
	connectors := map[string]*fakeSourceConnector{
		"mail": {connectorType: domain.ConnectorTypeMailAPI, docs: nil},
	}
	orch := NewOrchestrator(OrchestratorConfig{
		ConnectorConfigs: []domain.ConnectorConfig{{Name: "mail", Type: "mail_api", Enabled: false}},
		ConnectorFactory: &fakeConnectorFactory{connectors: connectors},
		ObjectStore:      newFakeObjectStore(),
		MetadataStore:    &fakeMetadataStore{},
	})

	results, err := orch.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected disabled connector to be skipped, got %d results", len(results))
	}
}

func TestOrchestrator_Run_PersistFailureSkipsDocument(t *testing.T) {
	docs := []*domain.Document{
		{ID: "doc-1"},
		{ID: "doc-2"},
	}
	connectors := map[string]*fakeSourceConnector{
		"mail": {connectorType: domain.ConnectorTypeMailAPI, docs: docs},
	}
	objStore := newFakeObjectStore()
	objStore.failIDs["doc-1"] = true
	metaStore := &fakeMetadataStore{}

	orch := NewOrchestrator(OrchestratorConfig{
		ConnectorConfigs: []domain.ConnectorConfig{{Name: "mail", Type: "mail_api", Enabled: true}},
		ConnectorFactory: &fakeConnectorFactory{connectors: connectors},
		ObjectStore:      objStore,
		MetadataStore:    metaStore,
	})

	results, err := orch.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	r := results[0]
	if !r.Success {
		t.Fatalf("expected connector-level success despite one skipped doc, got error %q", r.Error)
	}
	if r.ProcessedDocuments != 1 {
		t.Errorf("expected 1 processed document, got %d", r.ProcessedDocuments)
	}
	if r.Stats.DocumentsSkipped != 1 {
		t.Errorf("expected 1 skipped document, got %d", r.Stats.DocumentsSkipped)
	}
}

func TestOrchestrator_Run_FetchFailureAbortsConnectorOnly(t *testing.T) {
	connectors := map[string]*fakeSourceConnector{
		"broken": {connectorType: domain.ConnectorTypeMailAPI, fetchErr: errors.New("boom")},
		"ok":     {connectorType: domain.ConnectorTypeMailAPI, docs: []*domain.Document{{ID: "doc-1"}}},
	}
	orch := NewOrchestrator(OrchestratorConfig{
		ConnectorConfigs: []domain.ConnectorConfig{
			{Name: "broken", Type: "mail_api", Enabled: true},
			{Name: "ok", Type: "mail_api", Enabled: true},
		},
		ConnectorFactory: &fakeConnectorFactory{connectors: connectors},
		ObjectStore:      newFakeObjectStore(),
		MetadataStore:    &fakeMetadataStore{},
	})

	results, err := orch.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Success {
		t.Error("expected broken connector to fail")
	}
	if !results[1].Success {
		t.Errorf("expected ok connector to still succeed, got error %q", results[1].Error)
	}
}

func TestOrchestrator_RunConnector_UnknownName(t *testing.T) {
	orch := NewOrchestrator(OrchestratorConfig{
		ConnectorConfigs: []domain.ConnectorConfig{{Name: "mail", Type: "mail_api", Enabled: true}},
		ConnectorFactory: &fakeConnectorFactory{connectors: map[string]*fakeSourceConnector{}},
		ObjectStore:      newFakeObjectStore(),
		MetadataStore:    &fakeMetadataStore{},
	})

	if _, err := orch.RunConnector(context.Background(), "nonexistent"); !errors.Is(err, domain.ErrConfig) {
		t.Errorf("expected ErrConfig, got %v", err)
	}
}

func TestOrchestrator_State_TracksLastRun(t *testing.T) {
	connectors := map[string]*fakeSourceConnector{
		"mail": {connectorType: domain.ConnectorTypeMailAPI, docs: []*domain.Document{{ID: "doc-1"}}},
	}
	orch := NewOrchestrator(OrchestratorConfig{
		ConnectorConfigs: []domain.ConnectorConfig{{Name: "mail", Type: "mail_api", Enabled: true}},
		ConnectorFactory: &fakeConnectorFactory{connectors: connectors},
		ObjectStore:      newFakeObjectStore(),
		MetadataStore:    &fakeMetadataStore{},
	})

	states, err := orch.State(context.Background())
	if err != nil {
		t.Fatalf("State() error = %v", err)
	}
	if states[0].Status != domain.RunStatusIdle {
		t.Errorf("expected idle before any run, got %s", states[0].Status)
	}

	if _, err := orch.RunConnector(context.Background(), "mail"); err != nil {
		t.Fatalf("RunConnector() error = %v", err)
	}

	states, err = orch.State(context.Background())
	if err != nil {
		t.Fatalf("State() error = %v", err)
	}
	if states[0].Status != domain.RunStatusCompleted {
		t.Errorf("expected completed after run, got %s", states[0].Status)
	}
	if states[0].Stats.DocumentsAdded != 1 {
		t.Errorf("expected 1 document added in state, got %d", states[0].Stats.DocumentsAdded)
	}
}

package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-core/internal/core/domain"
	"github.com/custodia-labs/sercha-core/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-core/internal/core/ports/driving"
)

var _ driving.Orchestrator = (*orchestrator)(nil)

// OrchestratorConfig holds the dependencies for the Pipeline Orchestrator.
type OrchestratorConfig struct {
	ConnectorConfigs []domain.ConnectorConfig
	ConnectorFactory driven.ConnectorFactory
	Processors       []driven.Processor
	ObjectStore      driven.ObjectStore
	MetadataStore    driven.MetadataStore

	// SearchEngine is the alternate Vespa index; when set, every
	// successfully indexed document is mirrored to it best-effort.
	SearchEngine driven.SearchEngine

	// BatesPrefix seeds the zero-padded PREFIX-000001 stamp applied to
	// every document persisted during a run.
	BatesPrefix string

	Logger *slog.Logger
}

// orchestrator drives connectors through the processor chain to the
// object store and metadata store, per §4.7: fetch, process, persist,
// bulk-index, one connector at a time.
type orchestrator struct {
	connectorConfigs []domain.ConnectorConfig
	connectorFactory driven.ConnectorFactory
	processors       []driven.Processor
	objectStore      driven.ObjectStore
	metadataStore    driven.MetadataStore
	searchEngine     driven.SearchEngine
	batesPrefix      string
	logger           *slog.Logger

	mu     sync.RWMutex
	cursor map[string]string
	state  map[string]*domain.ConnectorRunState
}

// NewOrchestrator creates a Pipeline Orchestrator over the given
// statically-configured connectors.
func NewOrchestrator(cfg OrchestratorConfig) driving.Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	prefix := cfg.BatesPrefix
	if prefix == "" {
		prefix = "SERCHA"
	}

	o := &orchestrator{
		connectorConfigs: cfg.ConnectorConfigs,
		connectorFactory: cfg.ConnectorFactory,
		processors:       cfg.Processors,
		objectStore:      cfg.ObjectStore,
		metadataStore:    cfg.MetadataStore,
		searchEngine:     cfg.SearchEngine,
		batesPrefix:      prefix,
		logger:           logger.With("component", "orchestrator"),
		cursor:           make(map[string]string),
		state:            make(map[string]*domain.ConnectorRunState),
	}
	for _, c := range cfg.ConnectorConfigs {
		o.state[c.Name] = &domain.ConnectorRunState{ConnectorName: c.Name, Status: domain.RunStatusIdle}
	}
	return o
}

// Run executes every enabled connector, in config order, under one bates
// sequence. A connector-level failure aborts that connector only.
func (o *orchestrator) Run(ctx context.Context) ([]*domain.ConnectorRunResult, error) {
	bates := &batesCounter{prefix: o.batesPrefix}

	var results []*domain.ConnectorRunResult
	for _, cfg := range o.connectorConfigs {
		if !cfg.Enabled {
			continue
		}
		results = append(results, o.runOne(ctx, cfg, bates))
	}
	return results, nil
}

// RunConnector runs a single named connector, starting a fresh bates
// sequence scoped to this run.
func (o *orchestrator) RunConnector(ctx context.Context, connectorName string) (*domain.ConnectorRunResult, error) {
	cfg, ok := o.findConfig(connectorName)
	if !ok {
		return nil, fmt.Errorf("%w: unknown connector %q", domain.ErrConfig, connectorName)
	}
	bates := &batesCounter{prefix: o.batesPrefix}
	return o.runOne(ctx, cfg, bates), nil
}

// State reports the last known run state for every configured connector.
func (o *orchestrator) State(ctx context.Context) ([]*domain.ConnectorRunState, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	out := make([]*domain.ConnectorRunState, 0, len(o.connectorConfigs))
	for _, cfg := range o.connectorConfigs {
		s := *o.state[cfg.Name]
		out = append(out, &s)
	}
	return out, nil
}

func (o *orchestrator) findConfig(name string) (domain.ConnectorConfig, bool) {
	for _, c := range o.connectorConfigs {
		if c.Name == name {
			return c, true
		}
	}
	return domain.ConnectorConfig{}, false
}

func (o *orchestrator) runOne(ctx context.Context, cfg domain.ConnectorConfig, bates *batesCounter) *domain.ConnectorRunResult {
	start := time.Now()
	logger := o.logger.With("connector", cfg.Name, "type", cfg.Type)

	o.setState(cfg.Name, domain.RunStatusRunning, nil)

	result := &domain.ConnectorRunResult{ConnectorName: cfg.Name}
	fail := func(err error) *domain.ConnectorRunResult {
		result.Error = err.Error()
		result.Success = false
		result.DurationSeconds = time.Since(start).Seconds()
		o.setState(cfg.Name, domain.RunStatusFailed, result)
		logger.Error("connector run failed", "error", err)
		return result
	}

	connector, err := o.connectorFactory.Create(ctx, cfg)
	if err != nil {
		return fail(fmt.Errorf("create connector: %w", err))
	}

	cursor := o.cursorFor(cfg.Name)
	docs, nextCursor, err := connector.Fetch(ctx, cursor)
	if err != nil {
		return fail(fmt.Errorf("fetch: %w", err))
	}

	for _, p := range o.processors {
		docs, err = p.Process(ctx, docs)
		if err != nil {
			return fail(fmt.Errorf("processor %q: %w", p.Name(), err))
		}
	}

	var stats domain.RunStats
	persisted := make([]*domain.Document, 0, len(docs))
	for _, doc := range docs {
		bates.stamp(doc)
		if err := o.objectStore.Persist(ctx, doc); err != nil {
			logger.Warn("document persist failed, skipping", "document_id", doc.ID, "error", err)
			stats.DocumentsSkipped++
			stats.Errors++
			continue
		}
		persisted = append(persisted, doc)
	}

	if len(persisted) > 0 {
		if err := o.metadataStore.BulkIndex(ctx, persisted); err != nil {
			return fail(fmt.Errorf("bulk index: %w", err))
		}
		if o.searchEngine != nil {
			for _, doc := range persisted {
				if err := o.searchEngine.Index(ctx, doc); err != nil {
					logger.Warn("search engine mirror failed", "document_id", doc.ID, "error", err)
				}
			}
		}
	}

	stats.DocumentsAdded = len(persisted)
	stats.DocumentsIndexed = len(persisted)

	result.ProcessedDocuments = len(persisted)
	result.Success = true
	result.Stats = stats
	result.Cursor = nextCursor
	result.DurationSeconds = time.Since(start).Seconds()

	o.setCursor(cfg.Name, nextCursor)
	o.setState(cfg.Name, domain.RunStatusCompleted, result)

	logger.Info("connector run completed", "processed", result.ProcessedDocuments, "skipped", stats.DocumentsSkipped)
	return result
}

func (o *orchestrator) cursorFor(name string) string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.cursor[name]
}

func (o *orchestrator) setCursor(name, cursor string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cursor[name] = cursor
}

func (o *orchestrator) setState(name string, status domain.RunStatus, result *domain.ConnectorRunResult) {
	o.mu.Lock()
	defer o.mu.Unlock()

	s, ok := o.state[name]
	if !ok {
		s = &domain.ConnectorRunState{ConnectorName: name}
		o.state[name] = s
	}
	now := time.Now()
	s.Status = status
	switch status {
	case domain.RunStatusRunning:
		s.StartedAt = &now
		s.Error = ""
	case domain.RunStatusCompleted, domain.RunStatusFailed:
		s.CompletedAt = &now
		s.LastRunAt = &now
		if result != nil {
			s.Stats = result.Stats
			s.Error = result.Error
			s.Cursor = result.Cursor
		}
	}
}

// batesCounter stamps a sequential, zero-padded bates_number into each
// document's metadata, scoped to a single orchestrator run.
type batesCounter struct {
	mu     sync.Mutex
	prefix string
	n      int
}

func (b *batesCounter) stamp(doc *domain.Document) {
	b.mu.Lock()
	b.n++
	n := b.n
	b.mu.Unlock()

	if doc.Metadata == nil {
		doc.Metadata = make(map[string]string)
	}
	doc.Metadata["bates_number"] = fmt.Sprintf("%s-%06d", b.prefix, n)
}

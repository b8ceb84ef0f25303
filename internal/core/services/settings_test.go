package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/custodia-labs/sercha-core/internal/core/domain"
	"github.com/custodia-labs/sercha-core/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-core/internal/core/ports/driving"
)

// mockSettingsStore implements driven.SettingsStore for testing
type mockSettingsStore struct {
	settings   *domain.Settings
	aiSettings *domain.AISettings
	saveErr    error
}

func (m *mockSettingsStore) GetSettings(ctx context.Context, matterID string) (*domain.Settings, error) {
	if m.settings == nil {
		return nil, domain.ErrNotFound
	}
	return m.settings, nil
}

func (m *mockSettingsStore) SaveSettings(ctx context.Context, settings *domain.Settings) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.settings = settings
	return nil
}

func (m *mockSettingsStore) GetAISettings(ctx context.Context, matterID string) (*domain.AISettings, error) {
	if m.aiSettings == nil {
		return nil, domain.ErrNotFound
	}
	return m.aiSettings, nil
}

func (m *mockSettingsStore) SaveAISettings(ctx context.Context, matterID string, settings *domain.AISettings) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.aiSettings = settings
	return nil
}

// mockAIFactory implements driven.AIServiceFactory for testing
type mockAIFactory struct {
	embeddingErr error
	llmErr       error
}

func (m *mockAIFactory) CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}
	if m.embeddingErr != nil {
		return nil, m.embeddingErr
	}
	return &mockEmbeddingService{}, nil
}

func (m *mockAIFactory) CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}
	if m.llmErr != nil {
		return nil, m.llmErr
	}
	return &mockLLMService{}, nil
}

// mockEmbeddingService for testing
type mockEmbeddingService struct {
	healthCheckErr error
}

func (m *mockEmbeddingService) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, nil
}

func (m *mockEmbeddingService) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	return nil, nil
}

func (m *mockEmbeddingService) Dimensions() int {
	return 384
}

func (m *mockEmbeddingService) Model() string {
	return "test-embedding"
}

func (m *mockEmbeddingService) HealthCheck(ctx context.Context) error {
	return m.healthCheckErr
}

func (m *mockEmbeddingService) Close() error {
	return nil
}

// mockLLMService for testing
type mockLLMService struct {
	pingErr error
}

func (m *mockLLMService) Complete(ctx context.Context, systemPrompt, userContent string, maxTokens int) (string, error) {
	return "", nil
}

func (m *mockLLMService) Model() string {
	return "test-llm"
}

func (m *mockLLMService) Ping(ctx context.Context) error {
	return m.pingErr
}

func (m *mockLLMService) Close() error {
	return nil
}

func TestSettingsService_Get(t *testing.T) {
	store := &mockSettingsStore{
		settings: &domain.Settings{
			MatterID:       "matter-1",
			ResultsPerPage: 20,
		},
	}
	svc := NewSettingsService(store, &mockAIFactory{})

	settings, err := svc.Get(context.Background(), "matter-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.MatterID != "matter-1" {
		t.Errorf("expected matter-1, got %s", settings.MatterID)
	}
}

func TestSettingsService_Update(t *testing.T) {
	store := &mockSettingsStore{}
	svc := NewSettingsService(store, &mockAIFactory{})

	resultsPerPage := 50
	req := driving.UpdateSettingsRequest{
		ResultsPerPage: &resultsPerPage,
	}

	settings, err := svc.Update(context.Background(), "matter-1", req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.ResultsPerPage != 50 {
		t.Errorf("expected results per page 50, got %d", settings.ResultsPerPage)
	}
}

func TestSettingsService_Update_AllFields(t *testing.T) {
	store := &mockSettingsStore{
		settings: domain.DefaultSettings("matter-1"),
	}
	svc := NewSettingsService(store, &mockAIFactory{})

	searchMode := domain.SearchModeHybrid
	resultsPerPage := 30
	sweepInterval := 120
	sweepEnabled := false
	semanticEnabled := true
	autoSuggest := true

	req := driving.UpdateSettingsRequest{
		DefaultSearchMode:              &searchMode,
		ResultsPerPage:                 &resultsPerPage,
		EnrichmentSweepIntervalMinutes: &sweepInterval,
		EnrichmentSweepEnabled:         &sweepEnabled,
		SemanticSearchEnabled:          &semanticEnabled,
		AutoSuggestEnabled:             &autoSuggest,
	}

	settings, err := svc.Update(context.Background(), "matter-1", req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if settings.DefaultSearchMode != domain.SearchModeHybrid {
		t.Errorf("expected hybrid mode, got %s", settings.DefaultSearchMode)
	}
	if settings.EnrichmentSweepIntervalMinutes != 120 {
		t.Errorf("expected sweep interval 120, got %d", settings.EnrichmentSweepIntervalMinutes)
	}
	if settings.EnrichmentSweepEnabled {
		t.Error("expected sweep disabled")
	}
}

func TestSettingsService_GetAISettings(t *testing.T) {
	store := &mockSettingsStore{
		aiSettings: &domain.AISettings{
			MatterID: "matter-1",
			Embedding: domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI,
				Model:    "text-embedding-3-small",
				APIKey:   "sk-test",
			},
		},
	}
	svc := NewSettingsService(store, &mockAIFactory{})

	aiSettings, err := svc.GetAISettings(context.Background(), "matter-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if aiSettings.Embedding.Provider != domain.AIProviderOpenAI {
		t.Errorf("expected openai provider, got %s", aiSettings.Embedding.Provider)
	}
}

func TestSettingsService_UpdateAISettings(t *testing.T) {
	store := &mockSettingsStore{}
	factory := &mockAIFactory{}
	svc := NewSettingsService(store, factory)

	req := driving.UpdateAISettingsRequest{
		Embedding: &driving.EmbeddingSettingsInput{
			Provider: domain.AIProviderOpenAI,
			Model:    "text-embedding-3-small",
			APIKey:   "sk-test",
		},
	}

	status, err := svc.UpdateAISettings(context.Background(), "matter-1", req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !status.Embedding.Available {
		t.Error("expected embedding to be available")
	}
}

func TestSettingsService_UpdateAISettings_FactoryError(t *testing.T) {
	store := &mockSettingsStore{}
	factory := &mockAIFactory{
		embeddingErr: errors.New("failed to create service"),
	}
	svc := NewSettingsService(store, factory)

	req := driving.UpdateAISettingsRequest{
		Embedding: &driving.EmbeddingSettingsInput{
			Provider: domain.AIProviderOpenAI,
			Model:    "text-embedding-3-small",
			APIKey:   "sk-test",
		},
	}

	status, err := svc.UpdateAISettings(context.Background(), "matter-1", req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.Embedding.Available {
		t.Error("expected embedding to be unavailable when factory fails")
	}
}

func TestSettingsService_UpdateAISettings_DisableService(t *testing.T) {
	store := &mockSettingsStore{}
	factory := &mockAIFactory{}
	svc := NewSettingsService(store, factory)

	// Configure embedding first
	enableReq := driving.UpdateAISettingsRequest{
		Embedding: &driving.EmbeddingSettingsInput{
			Provider: domain.AIProviderOpenAI,
			Model:    "text-embedding-3-small",
			APIKey:   "sk-test",
		},
	}
	if _, err := svc.UpdateAISettings(context.Background(), "matter-1", enableReq); err != nil {
		t.Fatalf("setup: unexpected error: %v", err)
	}

	// Update with empty embedding (should disable)
	disableReq := driving.UpdateAISettingsRequest{
		Embedding: nil,
	}

	status, err := svc.UpdateAISettings(context.Background(), "matter-1", disableReq)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.Embedding.Available {
		t.Error("expected embedding to be unavailable after disabling")
	}
}

func TestSettingsService_GetAIStatus(t *testing.T) {
	store := &mockSettingsStore{
		aiSettings: &domain.AISettings{
			MatterID: "matter-1",
			Embedding: domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI,
				Model:    "text-embedding-3-small",
				APIKey:   "sk-test",
			},
		},
	}
	svc := NewSettingsService(store, &mockAIFactory{})

	// Hot-reload the embedding service for this matter first
	req := driving.UpdateAISettingsRequest{
		Embedding: &driving.EmbeddingSettingsInput{
			Provider: domain.AIProviderOpenAI,
			Model:    "text-embedding-3-small",
			APIKey:   "sk-test",
		},
	}
	if _, err := svc.UpdateAISettings(context.Background(), "matter-1", req); err != nil {
		t.Fatalf("setup: unexpected error: %v", err)
	}

	status, err := svc.GetAIStatus(context.Background(), "matter-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !status.Embedding.Available {
		t.Error("expected embedding to be available")
	}
	if status.Embedding.Model != "test-embedding" {
		t.Errorf("expected test-embedding model, got %s", status.Embedding.Model)
	}
}

func TestSettingsService_GetAIStatus_NoServicesConfigured(t *testing.T) {
	store := &mockSettingsStore{}
	svc := NewSettingsService(store, &mockAIFactory{})

	status, err := svc.GetAIStatus(context.Background(), "matter-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.Embedding.Available {
		t.Error("expected embedding unavailable")
	}
	if status.LLM.Available {
		t.Error("expected llm unavailable")
	}
}

func TestSettingsService_TestConnection(t *testing.T) {
	t.Run("no services configured", func(t *testing.T) {
		store := &mockSettingsStore{}
		svc := NewSettingsService(store, &mockAIFactory{})

		if err := svc.TestConnection(context.Background(), "matter-1"); err != nil {
			t.Errorf("expected no error when no services configured, got %v", err)
		}
	})

	t.Run("embedding unhealthy", func(t *testing.T) {
		store := &mockSettingsStore{}
		factory := &mockAIFactory{}
		svc := NewSettingsService(store, factory)

		svcImpl := svc.(*settingsService)
		rt := svcImpl.runtimeFor("matter-1")
		rt.SetEmbeddingService(&mockEmbeddingService{healthCheckErr: errors.New("connection failed")})

		if err := svc.TestConnection(context.Background(), "matter-1"); err == nil {
			t.Error("expected error for unhealthy service")
		}
	})

	t.Run("llm unhealthy", func(t *testing.T) {
		store := &mockSettingsStore{}
		factory := &mockAIFactory{}
		svc := NewSettingsService(store, factory)

		svcImpl := svc.(*settingsService)
		rt := svcImpl.runtimeFor("matter-1")
		rt.SetLLMService(&mockLLMService{pingErr: errors.New("connection failed")})

		if err := svc.TestConnection(context.Background(), "matter-1"); err == nil {
			t.Error("expected error for unhealthy service")
		}
	})
}

func TestSettingsService_UpdateAISettings_WithLLM(t *testing.T) {
	store := &mockSettingsStore{}
	factory := &mockAIFactory{}
	svc := NewSettingsService(store, factory)

	req := driving.UpdateAISettingsRequest{
		LLM: &driving.LLMSettingsInput{
			Provider: domain.AIProviderOpenAI,
			Model:    "gpt-4o-mini",
			APIKey:   "sk-test",
		},
	}

	status, err := svc.UpdateAISettings(context.Background(), "matter-1", req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !status.LLM.Available {
		t.Error("expected LLM to be available")
	}
}

func TestSettingsService_UpdateAISettings_SaveError(t *testing.T) {
	store := &mockSettingsStore{
		saveErr: errors.New("database error"),
	}
	factory := &mockAIFactory{}
	svc := NewSettingsService(store, factory)

	req := driving.UpdateAISettingsRequest{
		Embedding: &driving.EmbeddingSettingsInput{
			Provider: domain.AIProviderOpenAI,
			Model:    "text-embedding-3-small",
			APIKey:   "sk-test",
		},
	}

	_, err := svc.UpdateAISettings(context.Background(), "matter-1", req)
	if err == nil {
		t.Error("expected error when save fails")
	}
}

func TestSettingsService_Update_ExistingSettings(t *testing.T) {
	store := &mockSettingsStore{
		settings: &domain.Settings{
			MatterID:       "matter-1",
			ResultsPerPage: 10,
			UpdatedAt:      time.Now().Add(-time.Hour),
		},
	}
	svc := NewSettingsService(store, &mockAIFactory{})

	resultsPerPage := 25
	req := driving.UpdateSettingsRequest{
		ResultsPerPage: &resultsPerPage,
	}

	settings, err := svc.Update(context.Background(), "matter-1", req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.ResultsPerPage != 25 {
		t.Errorf("expected 25, got %d", settings.ResultsPerPage)
	}
}

func TestSettingsService_MattersAreIsolated(t *testing.T) {
	store := &mockSettingsStore{}
	svc := NewSettingsService(store, &mockAIFactory{})

	req := driving.UpdateAISettingsRequest{
		Embedding: &driving.EmbeddingSettingsInput{
			Provider: domain.AIProviderOpenAI,
			Model:    "text-embedding-3-small",
			APIKey:   "sk-test",
		},
	}
	if _, err := svc.UpdateAISettings(context.Background(), "matter-1", req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	status, err := svc.GetAIStatus(context.Background(), "matter-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.Embedding.Available {
		t.Error("expected matter-2's embedding service to be unaffected by matter-1's configuration")
	}
}

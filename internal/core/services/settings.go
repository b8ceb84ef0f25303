package services

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-core/internal/core/domain"
	"github.com/custodia-labs/sercha-core/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-core/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-core/internal/runtime"
)

// Ensure settingsService implements SettingsService
var _ driving.SettingsService = (*settingsService)(nil)

// settingsService implements the SettingsService interface, scoped per
// matter on every call rather than to a single team the way the original
// single-tenant version was. Each matter gets its own hot-reloadable AI
// service registry, since one matter's embedding/LLM provider choice must
// not bleed into another's.
type settingsService struct {
	settingsStore driven.SettingsStore
	aiFactory     driven.AIServiceFactory

	mu       sync.Mutex
	services map[string]*runtime.Services
}

// NewSettingsService creates a new SettingsService.
func NewSettingsService(
	settingsStore driven.SettingsStore,
	aiFactory driven.AIServiceFactory,
) driving.SettingsService {
	return &settingsService{
		settingsStore: settingsStore,
		aiFactory:     aiFactory,
		services:      make(map[string]*runtime.Services),
	}
}

// runtimeFor returns (creating if necessary) the AI service registry for
// a matter. Registries are never torn down once created; the services
// they hold are swapped in place as settings change.
func (s *settingsService) runtimeFor(matterID string) *runtime.Services {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rt, ok := s.services[matterID]; ok {
		return rt
	}
	rt := runtime.NewServices(domain.NewRuntimeConfig("postgres"))
	s.services[matterID] = rt
	return rt
}

// Get retrieves the current settings for a matter.
func (s *settingsService) Get(ctx context.Context, matterID string) (*domain.Settings, error) {
	return s.settingsStore.GetSettings(ctx, matterID)
}

// Update updates settings for a matter (ops only).
func (s *settingsService) Update(ctx context.Context, matterID string, req driving.UpdateSettingsRequest) (*domain.Settings, error) {
	settings, err := s.settingsStore.GetSettings(ctx, matterID)
	if err != nil {
		settings = domain.DefaultSettings(matterID)
	}

	if req.DefaultSearchMode != nil {
		settings.DefaultSearchMode = *req.DefaultSearchMode
	}
	if req.ResultsPerPage != nil {
		settings.ResultsPerPage = *req.ResultsPerPage
	}
	if req.EnrichmentSweepIntervalMinutes != nil {
		settings.EnrichmentSweepIntervalMinutes = *req.EnrichmentSweepIntervalMinutes
	}
	if req.EnrichmentSweepEnabled != nil {
		settings.EnrichmentSweepEnabled = *req.EnrichmentSweepEnabled
	}
	if req.SemanticSearchEnabled != nil {
		settings.SemanticSearchEnabled = *req.SemanticSearchEnabled
	}
	if req.AutoSuggestEnabled != nil {
		settings.AutoSuggestEnabled = *req.AutoSuggestEnabled
	}

	settings.UpdatedAt = time.Now()

	if err := s.settingsStore.SaveSettings(ctx, settings); err != nil {
		return nil, err
	}

	return settings, nil
}

// GetAISettings retrieves the current AI configuration for a matter.
func (s *settingsService) GetAISettings(ctx context.Context, matterID string) (*domain.AISettings, error) {
	return s.settingsStore.GetAISettings(ctx, matterID)
}

// UpdateAISettings updates AI configuration for a matter and hot-reloads
// that matter's embedding/LLM services.
func (s *settingsService) UpdateAISettings(ctx context.Context, matterID string, req driving.UpdateAISettingsRequest) (*driving.AISettingsStatus, error) {
	aiSettings, err := s.settingsStore.GetAISettings(ctx, matterID)
	if err != nil {
		aiSettings = &domain.AISettings{MatterID: matterID}
	}

	if req.Embedding != nil {
		aiSettings.Embedding = domain.EmbeddingSettings{
			Provider: req.Embedding.Provider,
			Model:    req.Embedding.Model,
			APIKey:   req.Embedding.APIKey,
			BaseURL:  req.Embedding.BaseURL,
		}
	}

	if req.LLM != nil {
		aiSettings.LLM = domain.LLMSettings{
			Provider: req.LLM.Provider,
			Model:    req.LLM.Model,
			APIKey:   req.LLM.APIKey,
			BaseURL:  req.LLM.BaseURL,
		}
	}

	if err := aiSettings.Validate(); err != nil {
		return nil, err
	}

	aiSettings.UpdatedAt = time.Now()

	if err := s.settingsStore.SaveAISettings(ctx, matterID, aiSettings); err != nil {
		return nil, err
	}

	rt := s.runtimeFor(matterID)
	status := &driving.AISettingsStatus{}

	if aiSettings.Embedding.IsConfigured() {
		embSvc, err := s.aiFactory.CreateEmbeddingService(&aiSettings.Embedding)
		if err != nil {
			status.Embedding = driving.AIServiceStatus{Available: false}
		} else if err := rt.ValidateAndSetEmbedding(ctx, embSvc); err != nil {
			status.Embedding = driving.AIServiceStatus{Available: false}
		} else {
			status.Embedding = driving.AIServiceStatus{
				Available: true,
				Provider:  aiSettings.Embedding.Provider,
				Model:     aiSettings.Embedding.Model,
			}
		}
	} else {
		rt.SetEmbeddingService(nil)
		status.Embedding = driving.AIServiceStatus{Available: false}
	}

	if aiSettings.LLM.IsConfigured() {
		llmSvc, err := s.aiFactory.CreateLLMService(&aiSettings.LLM)
		if err != nil {
			status.LLM = driving.AIServiceStatus{Available: false}
		} else if err := rt.ValidateAndSetLLM(ctx, llmSvc); err != nil {
			status.LLM = driving.AIServiceStatus{Available: false}
		} else {
			status.LLM = driving.AIServiceStatus{
				Available: true,
				Provider:  aiSettings.LLM.Provider,
				Model:     aiSettings.LLM.Model,
			}
		}
	} else {
		rt.SetLLMService(nil)
		status.LLM = driving.AIServiceStatus{Available: false}
	}

	status.EffectiveSearchMode = rt.Config().EffectiveSearchMode()

	return status, nil
}

// GetAIStatus returns the current status of a matter's AI services.
func (s *settingsService) GetAIStatus(ctx context.Context, matterID string) (*driving.AISettingsStatus, error) {
	aiSettings, _ := s.settingsStore.GetAISettings(ctx, matterID)
	rt := s.runtimeFor(matterID)

	status := &driving.AISettingsStatus{
		EffectiveSearchMode: rt.Config().EffectiveSearchMode(),
	}

	if embSvc := rt.EmbeddingService(); embSvc != nil {
		status.Embedding = driving.AIServiceStatus{
			Available: true,
			Model:     embSvc.Model(),
		}
		if aiSettings != nil {
			status.Embedding.Provider = aiSettings.Embedding.Provider
		}
	}

	if llmSvc := rt.LLMService(); llmSvc != nil {
		status.LLM = driving.AIServiceStatus{
			Available: true,
			Model:     llmSvc.Model(),
		}
		if aiSettings != nil {
			status.LLM.Provider = aiSettings.LLM.Provider
		}
	}

	return status, nil
}

// TestConnection tests a matter's configured AI provider connections.
func (s *settingsService) TestConnection(ctx context.Context, matterID string) error {
	rt := s.runtimeFor(matterID)

	if embSvc := rt.EmbeddingService(); embSvc != nil {
		if err := embSvc.HealthCheck(ctx); err != nil {
			return err
		}
	}

	if llmSvc := rt.LLMService(); llmSvc != nil {
		if err := llmSvc.Ping(ctx); err != nil {
			return err
		}
	}

	return nil
}

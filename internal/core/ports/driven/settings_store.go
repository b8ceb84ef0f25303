package driven

import (
	"context"

	"github.com/custodia-labs/sercha-core/internal/core/domain"
)

// SettingsStore persists matter and AI settings
type SettingsStore interface {
	// GetSettings retrieves settings for a matter
	GetSettings(ctx context.Context, matterID string) (*domain.Settings, error)

	// SaveSettings persists matter settings
	SaveSettings(ctx context.Context, settings *domain.Settings) error

	// GetAISettings retrieves AI-specific settings for a matter
	GetAISettings(ctx context.Context, matterID string) (*domain.AISettings, error)

	// SaveAISettings persists AI-specific settings
	SaveAISettings(ctx context.Context, matterID string, settings *domain.AISettings) error
}

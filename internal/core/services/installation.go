package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-core/internal/core/domain"
	"github.com/custodia-labs/sercha-core/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-core/internal/core/ports/driving"
)

// Ensure installationService implements InstallationService
var _ driving.InstallationService = (*installationService)(nil)

// InstallationServiceConfig holds configuration for the installation service.
type InstallationServiceConfig struct {
	// InstallationStore manages installation persistence.
	InstallationStore driven.InstallationStore

	// TokenProviderFactory creates token providers for testing connections.
	TokenProviderFactory driven.TokenProviderFactory
}

// installationService implements the InstallationService interface.
type installationService struct {
	installationStore    driven.InstallationStore
	tokenProviderFactory driven.TokenProviderFactory
}

// NewInstallationService creates a new installation service.
func NewInstallationService(cfg InstallationServiceConfig) driving.InstallationService {
	return &installationService{
		installationStore:    cfg.InstallationStore,
		tokenProviderFactory: cfg.TokenProviderFactory,
	}
}

// List returns all installations (summaries without secrets).
func (s *installationService) List(ctx context.Context) ([]*domain.InstallationSummary, error) {
	return s.installationStore.List(ctx)
}

// Get retrieves an installation by ID (summary without secrets).
func (s *installationService) Get(ctx context.Context, id string) (*domain.InstallationSummary, error) {
	inst, err := s.installationStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return inst.ToSummary(), nil
}

// Delete removes an installation. Connector configs that reference it by
// ConnectorConfig.Params["installation_id"] will fail to build a
// TokenProvider on their next run; that shows up as the connector's failed
// run, not as an error here.
func (s *installationService) Delete(ctx context.Context, id string) error {
	return s.installationStore.Delete(ctx, id)
}

// ListByConnectorType returns installations for a specific connector type.
func (s *installationService) ListByConnectorType(ctx context.Context, connectorType domain.ConnectorType) ([]*domain.InstallationSummary, error) {
	return s.installationStore.GetByConnectorType(ctx, connectorType)
}

// TestConnection tests if the installation's credentials are still valid.
func (s *installationService) TestConnection(ctx context.Context, id string) error {
	inst, err := s.installationStore.Get(ctx, id)
	if err != nil {
		return err
	}

	if s.tokenProviderFactory == nil {
		return fmt.Errorf("token provider factory not available")
	}

	creds := &domain.Credentials{
		ID:            inst.ID,
		ConnectorType: inst.ConnectorType,
		AuthMethod:    inst.AuthMethod,
		Name:          inst.AccountID,
	}
	if inst.Secrets != nil {
		creds.AccessToken = inst.Secrets.AccessToken
		creds.RefreshToken = inst.Secrets.RefreshToken
		creds.APIKey = inst.Secrets.APIKey
	}

	tokenProvider, err := s.tokenProviderFactory.CreateFromCredentials(ctx, creds)
	if err != nil {
		return fmt.Errorf("create token provider: %w", err)
	}

	if _, err := tokenProvider.GetAccessToken(ctx); err != nil {
		return fmt.Errorf("credentials invalid: %w", err)
	}

	_ = s.installationStore.UpdateLastUsed(ctx, id)

	return nil
}

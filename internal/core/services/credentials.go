package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-core/internal/core/domain"
	"github.com/custodia-labs/sercha-core/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-core/internal/core/ports/driving"
)

// Ensure credentialsService implements CredentialsService
var _ driving.CredentialsService = (*credentialsService)(nil)

// CredentialsServiceConfig holds configuration for the credentials service.
type CredentialsServiceConfig struct {
	// CredentialsStore persists credentials (PostgreSQL, encrypted at rest).
	CredentialsStore driven.CredentialsStore

	// Refresher renews OAuth2 tokens. Nil is fine: Refresh then fails with
	// ErrConfig for OAuth2 credentials and is a no-op for everything else.
	Refresher driven.TokenRefresher
}

// credentialsService implements the CredentialsService interface.
type credentialsService struct {
	store     driven.CredentialsStore
	refresher driven.TokenRefresher
}

// NewCredentialsService creates a new credentials service.
func NewCredentialsService(cfg CredentialsServiceConfig) driving.CredentialsService {
	return &credentialsService{
		store:     cfg.CredentialsStore,
		refresher: cfg.Refresher,
	}
}

// Create stores new credentials.
func (s *credentialsService) Create(ctx context.Context, creds *domain.Credentials) error {
	if creds.ID == "" {
		return fmt.Errorf("%w: credentials id required", domain.ErrConfig)
	}
	if creds.CreatedAt.IsZero() {
		creds.CreatedAt = time.Now()
	}
	creds.UpdatedAt = time.Now()
	return s.store.Save(ctx, creds)
}

// Get retrieves credentials by ID.
func (s *credentialsService) Get(ctx context.Context, id string) (*domain.Credentials, error) {
	return s.store.Get(ctx, id)
}

// List retrieves summaries for all stored credentials.
func (s *credentialsService) List(ctx context.Context) ([]*domain.CredentialSummary, error) {
	creds, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]*domain.CredentialSummary, 0, len(creds))
	for _, c := range creds {
		summaries = append(summaries, c.ToSummary())
	}
	return summaries, nil
}

// Update updates existing credentials.
func (s *credentialsService) Update(ctx context.Context, creds *domain.Credentials) error {
	if _, err := s.store.Get(ctx, creds.ID); err != nil {
		return err
	}
	creds.UpdatedAt = time.Now()
	return s.store.Save(ctx, creds)
}

// Delete deletes credentials.
func (s *credentialsService) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// Refresh refreshes OAuth tokens if needed, persisting the result. For
// non-OAuth auth methods the stored credentials are returned unchanged.
func (s *credentialsService) Refresh(ctx context.Context, id string) (*domain.Credentials, error) {
	creds, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if creds.AuthMethod != domain.AuthMethodOAuth2 {
		return creds, nil
	}
	if !creds.NeedsRefresh() {
		return creds, nil
	}
	if s.refresher == nil {
		return nil, fmt.Errorf("%w: no token refresher configured for oauth2 credentials", domain.ErrConfig)
	}

	refreshed, err := s.refresher.Refresh(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAuth, err)
	}
	refreshed.UpdatedAt = time.Now()
	if err := s.store.Save(ctx, refreshed); err != nil {
		return nil, err
	}
	return refreshed, nil
}

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-core/internal/core/domain"
	"github.com/custodia-labs/sercha-core/internal/core/ports/driven"
)

// Ensure TokenProviderFactory implements the interface.
var _ driven.TokenProviderFactory = (*TokenProviderFactory)(nil)

// OAuthRefreshFunc exchanges a stored refresh token for a new access
// token; oauthapi.OAuthHandler.RefreshToken already has this shape.
type OAuthRefreshFunc func(ctx context.Context, refreshToken string) (*driven.OAuthToken, error)

// TokenProviderFactory resolves a connector config's configured
// installation or credential ID into a TokenProvider. mail_api and
// workspace_api connectors authenticate through an Installation
// (ConnectorConfig.Params["installation_id"]); cloud_storage and other
// ad hoc connectors authenticate through stored Credentials
// (ConnectorConfig.Params["credential_id"]).
type TokenProviderFactory struct {
	installationStore driven.InstallationStore
	credentialsStore  driven.CredentialsStore
	refreshers        map[domain.ConnectorType]OAuthRefreshFunc
}

// NewTokenProviderFactory creates a new TokenProviderFactory.
func NewTokenProviderFactory(
	installationStore driven.InstallationStore,
	credentialsStore driven.CredentialsStore,
) *TokenProviderFactory {
	return &TokenProviderFactory{
		installationStore: installationStore,
		credentialsStore:  credentialsStore,
		refreshers:        make(map[domain.ConnectorType]OAuthRefreshFunc),
	}
}

// RegisterRefresher registers the OAuth refresh call for a connector type.
func (f *TokenProviderFactory) RegisterRefresher(connectorType domain.ConnectorType, refresh OAuthRefreshFunc) {
	f.refreshers[connectorType] = refresh
}

// Create resolves cfg's configured installation or credential and builds
// a TokenProvider for it.
func (f *TokenProviderFactory) Create(ctx context.Context, cfg domain.ConnectorConfig) (driven.TokenProvider, error) {
	if instID := cfg.Params["installation_id"]; instID != "" {
		if f.installationStore == nil {
			return nil, fmt.Errorf("%w: no installation store configured", domain.ErrConfig)
		}
		inst, err := f.installationStore.Get(ctx, instID)
		if err != nil {
			return nil, fmt.Errorf("get installation %q: %w", instID, err)
		}
		return f.CreateFromCredentials(ctx, credentialsFromInstallation(inst))
	}

	if credID := cfg.Params["credential_id"]; credID != "" {
		if f.credentialsStore == nil {
			return nil, fmt.Errorf("%w: no credentials store configured", domain.ErrConfig)
		}
		creds, err := f.credentialsStore.Get(ctx, credID)
		if err != nil {
			return nil, fmt.Errorf("get credentials %q: %w", credID, err)
		}
		return f.CreateFromCredentials(ctx, creds)
	}

	return nil, fmt.Errorf("%w: connector %q has neither params.installation_id nor params.credential_id", domain.ErrConfig, cfg.Name)
}

// CreateFromCredentials wraps creds in the TokenProvider matching its auth
// method. OAuth2 credentials get an auto-refreshing provider backed by the
// connector type's registered refresh call, if any; everything else is a
// static provider.
func (f *TokenProviderFactory) CreateFromCredentials(ctx context.Context, creds *domain.Credentials) (driven.TokenProvider, error) {
	if creds == nil {
		return nil, fmt.Errorf("%w: nil credentials", domain.ErrConfig)
	}

	if creds.AuthMethod != domain.AuthMethodOAuth2 {
		return driven.NewStaticTokenProvider(creds), nil
	}

	refresh := f.refreshers[creds.ConnectorType]
	if refresh == nil {
		return driven.NewStaticTokenProvider(creds), nil
	}

	return driven.NewOAuthTokenProvider(creds, &oauthTokenRefresher{refresh: refresh}, f.credentialsStore), nil
}

// credentialsFromInstallation adapts an Installation's decrypted secrets
// into the domain.Credentials shape TokenProvider construction expects.
func credentialsFromInstallation(inst *domain.Installation) *domain.Credentials {
	creds := &domain.Credentials{
		ID:            inst.ID,
		ConnectorType: inst.ConnectorType,
		AuthMethod:    inst.AuthMethod,
		Name:          inst.AccountID,
		TokenExpiry:   inst.OAuthExpiry,
		Scopes:        inst.OAuthScopes,
		CreatedAt:     inst.CreatedAt,
		UpdatedAt:     inst.UpdatedAt,
	}
	if inst.Secrets != nil {
		creds.AccessToken = inst.Secrets.AccessToken
		creds.RefreshToken = inst.Secrets.RefreshToken
		creds.APIKey = inst.Secrets.APIKey
		creds.ServiceAccountJSON = inst.Secrets.ServiceAccountJSON
	}
	return creds
}

// oauthTokenRefresher adapts an OAuthRefreshFunc to driven.TokenRefresher.
type oauthTokenRefresher struct {
	refresh OAuthRefreshFunc
}

func (r *oauthTokenRefresher) Refresh(ctx context.Context, creds *domain.Credentials) (*domain.Credentials, error) {
	tok, err := r.refresh(ctx, creds.RefreshToken)
	if err != nil {
		return nil, err
	}

	refreshed := *creds
	refreshed.AccessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		refreshed.RefreshToken = tok.RefreshToken
	}
	if tok.ExpiresIn > 0 {
		expiry := time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
		refreshed.TokenExpiry = &expiry
	}
	return &refreshed, nil
}

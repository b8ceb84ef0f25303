package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-core/internal/core/domain"
	"github.com/custodia-labs/sercha-core/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-core/internal/core/ports/driving"
)

// Ensure oauthService implements OAuthService
var _ driving.OAuthService = (*oauthService)(nil)

// OAuthServiceConfig holds configuration for the OAuth service.
type OAuthServiceConfig struct {
	// ConnectorRegistry resolves OAuth-capable connectors and drives the
	// authorization-code exchange.
	ConnectorRegistry driving.ConnectorRegistry

	// OAuthStateStore manages OAuth flow state.
	OAuthStateStore driven.OAuthStateStore

	// InstallationStore persists connector installations.
	InstallationStore driven.InstallationStore

	// RedirectURL is the fixed callback URL registered with the mail_api /
	// workspace_api OAuth application (e.g. "https://ops.example.com/api/v1/oauth/callback").
	RedirectURL string
}

// oauthService implements the OAuthService interface. It is driven by the
// HTTP surface, not a browser dashboard: an admin requests an
// AuthorizationURL from the authorize route, completes consent, and the
// provider's redirect to the public callback route completes Callback.
type oauthService struct {
	connectorRegistry driving.ConnectorRegistry
	oauthStateStore   driven.OAuthStateStore
	installationStore driven.InstallationStore
	redirectURL       string
}

// NewOAuthService creates a new OAuth service.
func NewOAuthService(cfg OAuthServiceConfig) driving.OAuthService {
	return &oauthService{
		connectorRegistry: cfg.ConnectorRegistry,
		oauthStateStore:   cfg.OAuthStateStore,
		installationStore: cfg.InstallationStore,
		redirectURL:       cfg.RedirectURL,
	}
}

// Authorize starts an OAuth authorization flow: generates CSRF state,
// stores it, and returns the authorization URL.
func (s *oauthService) Authorize(ctx context.Context, req driving.AuthorizeRequest) (*driving.AuthorizeResponse, error) {
	if !s.connectorRegistry.IsAvailable(req.ConnectorType) {
		return nil, driving.ErrOAuthProviderNotFound
	}
	if !s.connectorRegistry.SupportsOAuth(req.ConnectorType) {
		return nil, driving.ErrOAuthProviderDisabled
	}

	state, err := generateRandomHex(32)
	if err != nil {
		return nil, fmt.Errorf("generate state: %w", err)
	}

	expiresAt := time.Now().Add(10 * time.Minute)
	oauthState := &driven.OAuthState{
		State:         state,
		ConnectorType: string(req.ConnectorType),
		RedirectURI:   s.redirectURL,
		CreatedAt:     time.Now(),
		ExpiresAt:     expiresAt,
	}
	if err := s.oauthStateStore.Save(ctx, oauthState); err != nil {
		return nil, fmt.Errorf("save oauth state: %w", err)
	}

	authURL, err := s.connectorRegistry.BuildAuthURL(req.ConnectorType, state, s.redirectURL)
	if err != nil {
		return nil, fmt.Errorf("build auth url: %w", err)
	}

	return &driving.AuthorizeResponse{
		AuthorizationURL: authURL,
		State:            state,
		ExpiresAt:        expiresAt.Format(time.RFC3339),
	}, nil
}

// Callback validates state, exchanges the code for tokens, and creates or
// refreshes an installation.
func (s *oauthService) Callback(ctx context.Context, req driving.CallbackRequest) (*driving.CallbackResponse, error) {
	if req.Error != "" {
		return nil, &driving.OAuthError{Code: req.Error, Description: req.ErrorDescription}
	}

	oauthState, err := s.oauthStateStore.GetAndDelete(ctx, req.State)
	if err != nil {
		return nil, fmt.Errorf("get oauth state: %w", err)
	}
	if oauthState == nil {
		return nil, driving.ErrOAuthInvalidState
	}

	connectorType := domain.ConnectorType(oauthState.ConnectorType)

	token, err := s.connectorRegistry.ExchangeCode(ctx, connectorType, req.Code, oauthState.RedirectURI)
	if err != nil {
		return nil, &driving.OAuthError{Code: "exchange_failed", Description: err.Error()}
	}

	userInfo, err := s.connectorRegistry.GetUserInfo(ctx, connectorType, token.AccessToken)
	if err != nil {
		return nil, &driving.OAuthError{Code: "user_info_failed", Description: err.Error()}
	}

	accountID := userInfo.ID
	existing, err := s.installationStore.GetByAccountID(ctx, connectorType, accountID)
	if err != nil {
		return nil, fmt.Errorf("check existing installation: %w", err)
	}

	var expiry *time.Time
	if token.ExpiresIn > 0 {
		t := time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
		expiry = &t
	}

	var installation *domain.Installation
	if existing != nil {
		if err := s.installationStore.UpdateSecrets(ctx, existing.ID, &domain.InstallationSecrets{
			AccessToken:  token.AccessToken,
			RefreshToken: token.RefreshToken,
		}, expiry); err != nil {
			return nil, fmt.Errorf("update installation secrets: %w", err)
		}
		installation = existing
		installation.OAuthExpiry = expiry
	} else {
		installationID, err := generateInstallationID()
		if err != nil {
			return nil, fmt.Errorf("generate installation id: %w", err)
		}

		name := fmt.Sprintf("%s (%s)", connectorType, accountID)
		if userInfo.Name != "" {
			name = fmt.Sprintf("%s (%s)", connectorType, userInfo.Name)
		}

		installation = &domain.Installation{
			ID:             installationID,
			Name:           name,
			ConnectorType:  connectorType,
			AuthMethod:     domain.AuthMethodOAuth2,
			AccountID:      accountID,
			OAuthTokenType: token.TokenType,
			OAuthExpiry:    expiry,
			OAuthScopes:    splitScopes(token.Scope),
			Secrets: &domain.InstallationSecrets{
				AccessToken:  token.AccessToken,
				RefreshToken: token.RefreshToken,
			},
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		if err := s.installationStore.Save(ctx, installation); err != nil {
			return nil, fmt.Errorf("save installation: %w", err)
		}
	}

	accountDisplay := accountID
	if userInfo.Email != "" {
		accountDisplay = userInfo.Email
	}

	return &driving.CallbackResponse{
		Installation: installation.ToSummary(),
		Message:      fmt.Sprintf("Successfully connected %s as %s", connectorType, accountDisplay),
	}, nil
}

func generateRandomHex(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes)[:length], nil
}

func generateInstallationID() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return "inst_" + hex.EncodeToString(bytes), nil
}

func splitScopes(scope string) []string {
	if scope == "" {
		return nil
	}
	var scopes []string
	var current string
	for _, c := range scope {
		if c == ' ' || c == ',' {
			if current != "" {
				scopes = append(scopes, current)
				current = ""
			}
		} else {
			current += string(c)
		}
	}
	if current != "" {
		scopes = append(scopes, current)
	}
	return scopes
}

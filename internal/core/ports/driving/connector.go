package driving

import (
	"context"

	"github.com/custodia-labs/sercha-core/internal/core/domain"
	"github.com/custodia-labs/sercha-core/internal/core/ports/driven"
)

// ConnectorRegistry reports which connector types are compiled into the
// running binary and drives their OAuth flow, if any. Used by the HTTP
// connector and OAuth handlers.
type ConnectorRegistry interface {
	// List returns the connector types registered in this build.
	List() []domain.ConnectorType

	// IsAvailable checks if a connector type is registered.
	IsAvailable(connectorType domain.ConnectorType) bool

	// SupportsOAuth returns true if the connector type supports OAuth.
	SupportsOAuth(connectorType domain.ConnectorType) bool

	// GetOAuthConfig returns OAuth configuration for a connector type.
	// Returns nil if the connector doesn't support OAuth.
	GetOAuthConfig(connectorType domain.ConnectorType) *driven.OAuthConfig

	// BuildAuthURL builds an OAuth authorization URL for the connector.
	// The state parameter should be cryptographically random for CSRF protection.
	BuildAuthURL(connectorType domain.ConnectorType, state, redirectURL string) (string, error)

	// ExchangeCode exchanges an OAuth authorization code for tokens.
	ExchangeCode(ctx context.Context, connectorType domain.ConnectorType, code, redirectURL string) (*driven.OAuthToken, error)

	// GetUserInfo identifies the account an access token belongs to.
	GetUserInfo(ctx context.Context, connectorType domain.ConnectorType, accessToken string) (*driven.OAuthUserInfo, error)

	// ValidateConfig validates a connector configuration before it is persisted.
	ValidateConfig(connectorType domain.ConnectorType, config domain.ConnectorConfig) error
}

// CredentialsService manages stored connector credentials (API keys, OAuth
// tokens, PATs). Used by the HTTP credentials handlers.
type CredentialsService interface {
	// Create stores new credentials.
	Create(ctx context.Context, creds *domain.Credentials) error

	// Get retrieves credentials by ID.
	Get(ctx context.Context, id string) (*domain.Credentials, error)

	// List retrieves summaries for all stored credentials.
	List(ctx context.Context) ([]*domain.CredentialSummary, error)

	// Update updates credentials.
	Update(ctx context.Context, creds *domain.Credentials) error

	// Delete deletes credentials.
	Delete(ctx context.Context, id string) error

	// Refresh refreshes OAuth tokens if needed, persisting the result.
	Refresh(ctx context.Context, id string) (*domain.Credentials, error)
}

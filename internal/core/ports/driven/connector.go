package driven

import (
	"context"

	"github.com/custodia-labs/sercha-core/internal/core/domain"
)

// SourceConnector produces a lazy, finite sequence of evidence documents
// from one external system. Connectors must attach at least one
// CustodyEvent(action="collected") per document and compute attachment
// checksums themselves.
type SourceConnector interface {
	// Type returns the connector type this instance was built for.
	Type() domain.ConnectorType

	// Fetch streams documents from the source. Implementations that
	// support incremental fetch accept a cursor (empty string means a
	// full pull) and return the cursor to resume from on the next call.
	Fetch(ctx context.Context, cursor string) (docs []*domain.Document, nextCursor string, err error)

	// TestConnection verifies the connector can reach its source with
	// the credentials it was built with.
	TestConnection(ctx context.Context) error
}

// ConnectorBuilder constructs SourceConnector instances for a specific
// connector type, resolving credentials through a TokenProvider.
type ConnectorBuilder interface {
	Type() domain.ConnectorType

	// Build creates a connector bound to a single ConnectorConfig.
	Build(ctx context.Context, cfg domain.ConnectorConfig, tokenProvider TokenProvider) (SourceConnector, error)

	// SupportsOAuth reports whether this connector type authenticates via OAuth2.
	SupportsOAuth() bool

	// OAuthConfig returns OAuth endpoint/scope configuration, or nil if
	// SupportsOAuth is false.
	OAuthConfig() *OAuthConfig
}

// OAuthConfig contains OAuth settings for a connector type.
type OAuthConfig struct {
	AuthURL  string
	TokenURL string
	Scopes   []string
}

// ConnectorFactory resolves connector type strings to connector
// constructors through a registry; unknown types fail with
// domain.ErrConfig per §4.3.
type ConnectorFactory interface {
	Register(builder ConnectorBuilder)

	Create(ctx context.Context, cfg domain.ConnectorConfig) (SourceConnector, error)

	SupportedTypes() []domain.ConnectorType

	GetBuilder(connectorType domain.ConnectorType) (ConnectorBuilder, error)
}

// OAuthHandler drives the authorization-code OAuth2 flow for a connector
// type that requires interactive consent (mail_api, workspace_api).
type OAuthHandler interface {
	BuildAuthURL(state string, redirectURL string) string

	ExchangeCode(ctx context.Context, code string, redirectURL string) (*OAuthToken, error)

	RefreshToken(ctx context.Context, refreshToken string) (*OAuthToken, error)

	// GetUserInfo identifies the authenticated account so the resulting
	// installation can be named and deduplicated against existing ones.
	GetUserInfo(ctx context.Context, accessToken string) (*OAuthUserInfo, error)
}

// OAuthToken represents tokens returned from an OAuth2 token endpoint.
type OAuthToken struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
	TokenType    string
	Scope        string
}

// OAuthUserInfo identifies the account an OAuth token was issued for.
type OAuthUserInfo struct {
	ID    string
	Name  string
	Email string
}

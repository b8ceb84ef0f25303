package driving

import (
	"context"

	"github.com/custodia-labs/sercha-core/internal/core/domain"
)

// AuthService validates the bearer tokens presented to the ops HTTP surface
// (the /api/v1 search, settings, connector, orchestrator and enrichment routes).
// There is no login flow: tokens are issued out-of-band by whatever identity
// provider operates the deployment, and validated here against its signing key.
type AuthService interface {
	// ValidateToken validates a JWT bearer token and returns the caller's
	// auth context. Returns ErrTokenInvalid if the token is empty or does not
	// parse, ErrTokenExpired if it or its session has expired, and
	// ErrSessionNotFound if its session is unknown.
	ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error)
}

package driven

import "github.com/custodia-labs/sercha-core/internal/core/domain"

// AuthAdapter handles JWT operations for the ops HTTP surface.
// This does NOT handle storage - use SessionStore for session persistence.
type AuthAdapter interface {
	// GenerateToken mints a bearer token for a new ops session (not
	// reachable from any login endpoint).
	GenerateToken(claims *domain.TokenClaims) (string, error)

	// ParseToken validates a bearer token's signature and decodes its claims.
	ParseToken(token string) (*domain.TokenClaims, error)
}

package driven

import (
	"context"

	"github.com/custodia-labs/sercha-core/internal/core/domain"
)

// CredentialsStore handles credential persistence (PostgreSQL, encrypted)
type CredentialsStore interface {
	// Save stores credentials (encrypts sensitive fields)
	Save(ctx context.Context, creds *domain.Credentials) error

	// Get retrieves credentials by ID
	Get(ctx context.Context, id string) (*domain.Credentials, error)

	// List retrieves all credentials
	List(ctx context.Context) ([]*domain.Credentials, error)

	// Delete deletes credentials
	Delete(ctx context.Context, id string) error

	// GetByConnectorType retrieves credentials for a connector type
	GetByConnectorType(ctx context.Context, connectorType domain.ConnectorType) ([]*domain.Credentials, error)
}

package driving

import (
	"context"

	"github.com/custodia-labs/sercha-core/internal/core/domain"
)

// InstallationService manages connector installations (OAuth connections,
// API keys, service accounts). An installation is the authenticated
// connection a connector config references via ConnectorConfig.Params["installation_id"].
type InstallationService interface {
	// List returns all installations (summaries without secrets).
	List(ctx context.Context) ([]*domain.InstallationSummary, error)

	// Get retrieves an installation by ID (summary without secrets).
	Get(ctx context.Context, id string) (*domain.InstallationSummary, error)

	// Delete removes an installation.
	// Returns ErrNotFound if installation doesn't exist.
	Delete(ctx context.Context, id string) error

	// ListByConnectorType returns installations for a specific connector type.
	ListByConnectorType(ctx context.Context, connectorType domain.ConnectorType) ([]*domain.InstallationSummary, error)

	// TestConnection tests if the installation's credentials are still valid.
	TestConnection(ctx context.Context, id string) error
}

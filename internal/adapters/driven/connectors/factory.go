// Package connectors provides the connector registry shared by every
// Source Connector implementation (§4.3) and the driving.ConnectorRegistry
// adapter used by the HTTP connector and OAuth handlers.
package connectors

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/sercha-core/internal/core/domain"
	"github.com/custodia-labs/sercha-core/internal/core/ports/driven"
)

// Ensure Factory implements the interface.
var _ driven.ConnectorFactory = (*Factory)(nil)

// Factory resolves connector type strings to connector constructors
// through a registry; unknown types fail with domain.ErrConfig per §4.3.
type Factory struct {
	mu                   sync.RWMutex
	builders             map[domain.ConnectorType]driven.ConnectorBuilder
	oauthHandlers        map[domain.ConnectorType]driven.OAuthHandler
	tokenProviderFactory driven.TokenProviderFactory
}

// NewFactory creates a connector factory.
func NewFactory(tokenProviderFactory driven.TokenProviderFactory) *Factory {
	return &Factory{
		builders:             make(map[domain.ConnectorType]driven.ConnectorBuilder),
		oauthHandlers:        make(map[domain.ConnectorType]driven.OAuthHandler),
		tokenProviderFactory: tokenProviderFactory,
	}
}

// Register registers a connector builder for a connector type.
func (f *Factory) Register(builder driven.ConnectorBuilder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.builders[builder.Type()] = builder
}

// RegisterOAuthHandler registers an OAuth handler for a connector type.
func (f *Factory) RegisterOAuthHandler(connectorType domain.ConnectorType, handler driven.OAuthHandler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.oauthHandlers[connectorType] = handler
}

// Create builds a connector for the given config, resolving its
// credentials (if any) through the token provider factory first.
func (f *Factory) Create(ctx context.Context, cfg domain.ConnectorConfig) (driven.SourceConnector, error) {
	if !domain.ConnectorType(cfg.Type).IsValid() {
		return nil, fmt.Errorf("%w: unknown connector type %q", domain.ErrConfig, cfg.Type)
	}

	f.mu.RLock()
	builder, ok := f.builders[domain.ConnectorType(cfg.Type)]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: no builder registered for connector type %q", domain.ErrConfig, cfg.Type)
	}

	var tokenProvider driven.TokenProvider
	if domain.ConnectorType(cfg.Type).RequiresAuth() {
		tp, err := f.tokenProviderFactory.Create(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("create token provider for %q: %w", cfg.Name, err)
		}
		tokenProvider = tp
	}

	connector, err := builder.Build(ctx, cfg, tokenProvider)
	if err != nil {
		return nil, fmt.Errorf("build connector %q: %w", cfg.Name, err)
	}

	return connector, nil
}

// SupportedTypes returns all registered connector types.
func (f *Factory) SupportedTypes() []domain.ConnectorType {
	f.mu.RLock()
	defer f.mu.RUnlock()
	types := make([]domain.ConnectorType, 0, len(f.builders))
	for t := range f.builders {
		types = append(types, t)
	}
	return types
}

// GetBuilder returns the builder for a connector type.
func (f *Factory) GetBuilder(connectorType domain.ConnectorType) (driven.ConnectorBuilder, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	builder, ok := f.builders[connectorType]
	if !ok {
		return nil, fmt.Errorf("%w: no builder registered for connector type %q", domain.ErrConfig, connectorType)
	}
	return builder, nil
}

// SupportsOAuth returns true if the connector type supports OAuth authentication.
func (f *Factory) SupportsOAuth(connectorType domain.ConnectorType) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	builder, ok := f.builders[connectorType]
	if !ok {
		return false
	}
	return builder.SupportsOAuth()
}

// GetOAuthConfig returns OAuth configuration for a connector type.
// Returns nil if the connector doesn't support OAuth.
func (f *Factory) GetOAuthConfig(connectorType domain.ConnectorType) *driven.OAuthConfig {
	f.mu.RLock()
	defer f.mu.RUnlock()
	builder, ok := f.builders[connectorType]
	if !ok {
		return nil
	}
	return builder.OAuthConfig()
}

// GetOAuthHandler returns the OAuth handler for a connector type.
// Returns nil if no handler is registered.
func (f *Factory) GetOAuthHandler(connectorType domain.ConnectorType) driven.OAuthHandler {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.oauthHandlers[connectorType]
}

// BuildAuthURL delegates to the registered OAuth handler for connectorType.
func (f *Factory) BuildAuthURL(connectorType domain.ConnectorType, state, redirectURL string) (string, error) {
	handler := f.GetOAuthHandler(connectorType)
	if handler == nil {
		return "", fmt.Errorf("%w: connector type %q does not support OAuth", domain.ErrConfig, connectorType)
	}
	return handler.BuildAuthURL(state, redirectURL), nil
}

// ExchangeCode delegates to the registered OAuth handler for connectorType.
func (f *Factory) ExchangeCode(ctx context.Context, connectorType domain.ConnectorType, code, redirectURL string) (*driven.OAuthToken, error) {
	handler := f.GetOAuthHandler(connectorType)
	if handler == nil {
		return nil, fmt.Errorf("%w: connector type %q does not support OAuth", domain.ErrConfig, connectorType)
	}
	return handler.ExchangeCode(ctx, code, redirectURL)
}

// GetUserInfo delegates to the registered OAuth handler for connectorType.
func (f *Factory) GetUserInfo(ctx context.Context, connectorType domain.ConnectorType, accessToken string) (*driven.OAuthUserInfo, error) {
	handler := f.GetOAuthHandler(connectorType)
	if handler == nil {
		return nil, fmt.Errorf("%w: connector type %q does not support OAuth", domain.ErrConfig, connectorType)
	}
	return handler.GetUserInfo(ctx, accessToken)
}

// List returns the connector types registered in this build.
func (f *Factory) List() []domain.ConnectorType {
	return f.SupportedTypes()
}

// IsAvailable checks if a connector type is registered.
func (f *Factory) IsAvailable(connectorType domain.ConnectorType) bool {
	_, err := f.GetBuilder(connectorType)
	return err == nil
}

// ValidateConfig validates a connector configuration against its builder's
// requirements before it is persisted.
func (f *Factory) ValidateConfig(connectorType domain.ConnectorType, config domain.ConnectorConfig) error {
	if _, err := f.GetBuilder(connectorType); err != nil {
		return err
	}
	if config.Name == "" {
		return fmt.Errorf("%w: connector name is required", domain.ErrConfig)
	}
	return nil
}

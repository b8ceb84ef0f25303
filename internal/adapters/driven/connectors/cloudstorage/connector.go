// Package cloudstorage implements the cloud_storage connector skeleton
// for S3-compatible object stores. Fetch is intentionally unimplemented:
// a real implementation needs a vendored cloud SDK and streaming-list
// credentials this deployment doesn't carry yet (see DESIGN.md).
package cloudstorage

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-core/internal/core/domain"
	"github.com/custodia-labs/sercha-core/internal/core/ports/driven"
)

var _ driven.SourceConnector = (*Connector)(nil)
var _ driven.ConnectorBuilder = (*Builder)(nil)

// Connector targets a single bucket/prefix pair in an S3-compatible store.
type Connector struct {
	name     string
	provider string
	bucket   string
	prefix   string
}

// New creates a cloud_storage connector scoped to one bucket and prefix.
func New(name, provider, bucket, prefix string) *Connector {
	return &Connector{name: name, provider: provider, bucket: bucket, prefix: prefix}
}

func (c *Connector) Type() domain.ConnectorType {
	return domain.ConnectorTypeCloudStorage
}

// Fetch is unimplemented: cloud object listing requires streaming the
// bucket, computing checksums per object, and tracking a continuation
// token as the incremental cursor, none of which this build wires to a
// real SDK yet.
func (c *Connector) Fetch(ctx context.Context, cursor string) ([]*domain.Document, string, error) {
	return nil, "", fmt.Errorf("%w: cloud_storage connector %q (%s/%s/%s) has no wired object-store client", domain.ErrConfig, c.name, c.provider, c.bucket, c.prefix)
}

// TestConnection reports the same unimplemented state Fetch would hit,
// so `connector test` surfaces it without attempting a real call.
func (c *Connector) TestConnection(ctx context.Context) error {
	if c.bucket == "" {
		return fmt.Errorf("%w: cloud_storage connector %q requires params.bucket", domain.ErrConfig, c.name)
	}
	return fmt.Errorf("cloud_storage connector %q has no wired object-store client", c.name)
}

// Builder constructs cloud_storage connectors.
type Builder struct{}

// NewBuilder creates the cloud_storage connector builder.
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) Type() domain.ConnectorType {
	return domain.ConnectorTypeCloudStorage
}

func (b *Builder) Build(ctx context.Context, cfg domain.ConnectorConfig, tokenProvider driven.TokenProvider) (driven.SourceConnector, error) {
	bucket := cfg.Params["bucket"]
	if bucket == "" {
		return nil, fmt.Errorf("%w: cloud_storage connector %q requires params.bucket", domain.ErrConfig, cfg.Name)
	}
	provider := cfg.Params["provider"]
	if provider == "" {
		provider = "aws_s3"
	}
	return New(cfg.Name, provider, bucket, cfg.Params["prefix"]), nil
}

func (b *Builder) SupportsOAuth() bool {
	return false
}

func (b *Builder) OAuthConfig() *driven.OAuthConfig {
	return nil
}

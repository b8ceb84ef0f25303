package objectstore

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-core/internal/core/domain"
	"github.com/custodia-labs/sercha-core/internal/core/ports/driven"
)

var _ driven.ObjectStore = (*RemoteStore)(nil)

// RemoteStore targets an S3-compatible bucket for the "s3" ObjectStoreConfig
// type. It is a skeleton: this build carries no vendored cloud SDK, the
// same gap documented for the cloud_storage source connector.
type RemoteStore struct {
	bucket string
	prefix string
}

// NewRemoteStore creates an S3-compatible object store targeting one
// bucket and key prefix.
func NewRemoteStore(bucket, prefix string) *RemoteStore {
	return &RemoteStore{bucket: bucket, prefix: prefix}
}

// Persist always fails: writing evidence artifacts to S3 requires a
// multipart-upload client this deployment doesn't wire yet.
func (s *RemoteStore) Persist(ctx context.Context, doc *domain.Document) error {
	return fmt.Errorf("%w: s3 object store (bucket %q) has no wired client", domain.ErrConfig, s.bucket)
}

// Get always fails for the same reason as Persist.
func (s *RemoteStore) Get(ctx context.Context, objectKey string) (*driven.PersistedObject, error) {
	return nil, fmt.Errorf("%w: s3 object store (bucket %q) has no wired client", domain.ErrConfig, s.bucket)
}

// HealthCheck reports the same unimplemented state so startup health
// probes surface it without attempting a real call.
func (s *RemoteStore) HealthCheck(ctx context.Context) error {
	if s.bucket == "" {
		return fmt.Errorf("%w: s3 object store requires params.bucket", domain.ErrConfig)
	}
	return fmt.Errorf("%w: s3 object store (bucket %q) has no wired client", domain.ErrConfig, s.bucket)
}

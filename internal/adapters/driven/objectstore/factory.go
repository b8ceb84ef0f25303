package objectstore

import (
	"fmt"

	"github.com/custodia-labs/sercha-core/internal/core/domain"
	"github.com/custodia-labs/sercha-core/internal/core/ports/driven"
)

// New resolves a domain.ObjectStoreConfig to its backing driven.ObjectStore.
// Type "local_fs" requires params.dir; "s3" requires params.bucket and
// accepts an optional params.prefix.
func New(cfg domain.ObjectStoreConfig) (driven.ObjectStore, error) {
	switch cfg.Type {
	case "local_fs":
		dir := cfg.Params["dir"]
		if dir == "" {
			return nil, fmt.Errorf("%w: local_fs object store requires params.dir", domain.ErrConfig)
		}
		return NewLocalStore(dir), nil
	case "s3":
		bucket := cfg.Params["bucket"]
		if bucket == "" {
			return nil, fmt.Errorf("%w: s3 object store requires params.bucket", domain.ErrConfig)
		}
		return NewRemoteStore(bucket, cfg.Params["prefix"]), nil
	default:
		return nil, fmt.Errorf("%w: unknown object store type %q", domain.ErrConfig, cfg.Type)
	}
}

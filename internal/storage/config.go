package storage

import (
	"context"

	"github.com/kyleking/schemasync/internal/config"
	"github.com/kyleking/schemasync/internal/logging"
)

// NewStoreFromConfig opens the configured database and brings its
// bookkeeping tables up to date
func NewStoreFromConfig(ctx context.Context, cfg *config.DatabaseConfig, logger *logging.Logger) (*Store, error) {
	store, err := NewStore(ctx, *cfg, WithStoreLogger(logger))
	if err != nil {
		return nil, err
	}

	if err := store.Initialize(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	return store, nil
}

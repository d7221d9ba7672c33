package cmd

import (
	"context"
	"fmt"

	"github.com/kyleking/schemasync/internal/config"
	"github.com/kyleking/schemasync/internal/logging"
	"github.com/kyleking/schemasync/internal/storage"
)

// initializeStorage opens the configured database with its journal ready.
// The caller closes both the repository and the logger.
func initializeStorage(ctx context.Context, cfg *config.Config) (storage.Repository, *logging.Logger, error) {
	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	repo, err := storage.NewStoreFromConfig(ctx, &cfg.Database, logger)
	if err != nil {
		_ = logger.Close()
		return nil, nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	return repo, logger, nil
}

// withStorage runs fn against the configured database
func withStorage(ctx context.Context, cfg *config.Config, fn func(storage.Repository) error) error {
	repo, logger, err := initializeStorage(ctx, cfg)
	if err != nil {
		return err
	}

	defer func() { _ = logger.Close() }()
	defer repo.Close()

	return fn(repo)
}

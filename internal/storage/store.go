package storage

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kyleking/schemasync/internal/config"
	"github.com/kyleking/schemasync/internal/errors"
	"github.com/kyleking/schemasync/internal/logging"
	"github.com/kyleking/schemasync/internal/migrate"
	"github.com/kyleking/schemasync/internal/registry"
	"github.com/kyleking/schemasync/internal/schema"
)

var _ Repository = (*Store)(nil)

// Store owns a connection pool and synchronizes declared tables through it.
// Each table is migrated inside its own transaction together with its
// journal row.
type Store struct {
	db           *sql.DB
	dialect      Dialect
	path         string
	queryTimeout time.Duration
	logger       *logging.Logger
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithStoreLogger sets the logger used for migrations and bookkeeping
func WithStoreLogger(logger *logging.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore opens the database described by cfg
func NewStore(ctx context.Context, cfg config.DatabaseConfig, opts ...StoreOption) (*Store, error) {
	dialect, err := ParseDialect(cfg.Driver)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeConfig, "invalid database driver").
			WithSuggestion("Set database.driver to sqlite or duckdb")
	}

	db, err := openDB(ctx, dialect, cfg)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrTypeDatabase, "failed to open %s database at %s", dialect, cfg.Path)
	}

	s := &Store{
		db:           db,
		dialect:      dialect,
		path:         cfg.Path,
		queryTimeout: cfg.QueryTimeoutDuration(),
		logger:       logging.Discard(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Initialize creates or upgrades the bookkeeping tables
func (s *Store) Initialize(ctx context.Context) error {
	if err := NewMigrationManager(s.db, s.logger).MigrateUp(ctx); err != nil {
		return errors.Wrap(err, errors.ErrTypeDatabase, "failed to initialize journal")
	}

	return nil
}

// Database returns a synchronizer collaborator over the pool itself, outside
// any transaction
func (s *Store) Database() *SQLDatabase {
	return NewSQLDatabase(s.db, s.dialect, s.queryTimeout)
}

// Info describes the driver in use
func (s *Store) Info() DriverInfo {
	return Driver(s.dialect)
}

// Sync migrates every physical table of reg in declaration order. A failing
// table is rolled back and reported; the remaining tables still run.
func (s *Store) Sync(ctx context.Context, reg *registry.Registry, opts SyncOptions) (*Report, error) {
	report := &Report{
		RunID:  uuid.NewString(),
		DryRun: opts.DryRun,
	}

	logger := s.logger.WithRun(report.RunID)
	logger.WithFields(map[string]any{
		"tables":  len(reg.PhysicalTables()),
		"dry_run": opts.DryRun,
	}).Info("Starting sync")

	var errs []error

	for _, table := range reg.PhysicalTables() {
		res, err := s.syncTable(ctx, report.RunID, table, opts)
		if err != nil {
			report.Failed = append(report.Failed, table.Name())
			errs = append(errs, err)

			continue
		}

		report.Results = append(report.Results, res)
	}

	logger.WithFields(map[string]any{
		"changed": report.Changed(),
		"failed":  len(report.Failed),
	}).Info("Sync finished")

	return report, stderrors.Join(errs...)
}

func (s *Store) syncTable(ctx context.Context, runID string, declared *schema.Table, opts SyncOptions) (migrate.Result, error) {
	table, err := s.dialect.declaredShape(declared)
	if err != nil {
		return migrate.Result{Table: declared.Name()}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return migrate.Result{Table: table.Name()},
			errors.Wrapf(err, errors.ErrTypeDatabase, "failed to begin transaction for %s", table.Name())
	}

	defer func() { _ = tx.Rollback() }()

	exec := migrate.NewExecutor(
		NewSQLDatabase(tx, s.dialect, s.queryTimeout),
		migrate.WithLogger(s.logger),
		migrate.WithRunID(runID),
		migrate.WithDryRun(opts.DryRun),
	)

	res, err := exec.Sync(ctx, table)
	if err != nil {
		return res, err
	}

	if opts.DryRun {
		return res, nil
	}

	if !opts.SkipJournal && res.Outcome != migrate.UpToDate {
		if _, err := recordJournal(ctx, tx, runID, res); err != nil {
			return res, errors.Wrap(err, errors.ErrTypeDatabase, "failed to record journal")
		}
	}

	if err := tx.Commit(); err != nil {
		return res, errors.Wrapf(err, errors.ErrTypeDatabase, "failed to commit migration of %s", table.Name())
	}

	return res, nil
}

// Inspect reads the live shape of a table
func (s *Store) Inspect(ctx context.Context, table string) (*TableInfo, error) {
	db := s.Database()
	info := &TableInfo{Name: table}

	exists, err := db.TableExists(ctx, table)
	if err != nil {
		return nil, err
	}

	if !exists {
		return info, nil
	}

	info.Exists = true

	if info.Columns, err = db.Introspect(ctx, table); err != nil {
		return nil, err
	}

	if info.HasRows, err = db.HasRows(ctx, table); err != nil {
		return nil, err
	}

	return info, nil
}

// ListTables returns the user tables in the database, bookkeeping excluded
func (s *Store) ListTables(ctx context.Context) ([]string, error) {
	query := "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name"
	if s.dialect == DialectDuckDB {
		query = "SELECT table_name FROM information_schema.tables WHERE table_type = 'BASE TABLE' ORDER BY table_name"
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeDatabase, "failed to list tables")
	}
	defer rows.Close()

	var tables []string

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, errors.ErrTypeDatabase, "failed to scan table name")
		}

		if !IsBookkeepingTable(name) {
			tables = append(tables, name)
		}
	}

	return tables, rows.Err()
}

// History lists journal entries, newest first. limit <= 0 returns all.
func (s *Store) History(ctx context.Context, limit int) ([]JournalEntry, error) {
	entries, err := listJournal(ctx, s.db, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeDatabase, "failed to read journal").
			WithSuggestion("Run 'schemasync sync' once to create the journal")
	}

	return entries, nil
}

// MigrationStatus reports which bookkeeping migrations are applied
func (s *Store) MigrationStatus(ctx context.Context) ([]MigrationStatus, error) {
	return NewMigrationManager(s.db, s.logger).GetMigrationStatus(ctx)
}

// Close closes the connection pool
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}

package migrate

import (
	"context"
	stderrors "errors"

	"github.com/google/uuid"

	"github.com/kyleking/schemasync/internal/errors"
	"github.com/kyleking/schemasync/internal/logging"
	"github.com/kyleking/schemasync/internal/registry"
	"github.com/kyleking/schemasync/internal/schema"
)

// Executor runs migrations against one Database and logs every table it
// touches under a shared run ID.
type Executor struct {
	db     Database
	logger *logging.Logger
	runID  string
	dryRun bool
}

// ExecutorOption configures an Executor
type ExecutorOption func(*Executor)

// WithLogger sets the logger; the default discards everything
func WithLogger(logger *logging.Logger) ExecutorOption {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRunID reuses an existing run ID instead of generating one
func WithRunID(runID string) ExecutorOption {
	return func(e *Executor) {
		if runID != "" {
			e.runID = runID
		}
	}
}

// WithDryRun makes Sync plan without executing
func WithDryRun(dryRun bool) ExecutorOption {
	return func(e *Executor) {
		e.dryRun = dryRun
	}
}

// NewExecutor creates an executor over db
func NewExecutor(db Database, opts ...ExecutorOption) *Executor {
	e := &Executor{
		db:     db,
		logger: logging.Discard(),
		runID:  uuid.NewString(),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.logger = e.logger.WithRun(e.runID)

	return e
}

// RunID returns the identifier shared by every table this executor syncs
func (e *Executor) RunID() string {
	return e.runID
}

// DryRun reports whether statements are only planned
func (e *Executor) DryRun() bool {
	return e.dryRun
}

// Sync migrates one table, or plans it when the executor is a dry run
func (e *Executor) Sync(ctx context.Context, table *schema.Table) (Result, error) {
	logger := e.logger.WithTable(table.Name())

	var (
		res Result
		err error
	)

	if e.dryRun {
		res, err = Simulate(ctx, e.db, table)
	} else {
		res, err = SyncSchema(ctx, e.db, table)
	}

	if err != nil {
		fields := map[string]any{"error_type": string(errors.GetType(err))}
		if step, ok := FailedStep(err); ok {
			fields["step"] = string(step)
		}

		logger.WithFields(fields).ErrorWithErr("Table sync failed", err)

		return res, err
	}

	logger = logger.WithFields(map[string]any{
		"action":        res.Outcome.String(),
		"columns_added": res.ColumnsAdded,
		"statements":    len(res.Statements),
		"dry_run":       e.dryRun,
	})

	if res.Outcome == UpToDate {
		logger.Debug("Table up to date")
	} else {
		logger.Info("Table synced")
	}

	for _, stmt := range res.Statements {
		logger.WithField("step", string(stmt.Step)).Debug(stmt.SQL)
	}

	return res, nil
}

// SyncAll syncs every physical table of reg in declaration order. Failures
// are collected per table and returned joined.
func (e *Executor) SyncAll(ctx context.Context, reg *registry.Registry) ([]Result, error) {
	var (
		results []Result
		errs    []error
	)

	for _, table := range reg.PhysicalTables() {
		res, err := e.Sync(ctx, table)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		results = append(results, res)
	}

	return results, stderrors.Join(errs...)
}

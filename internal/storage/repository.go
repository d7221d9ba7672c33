package storage

import (
	"context"

	"github.com/kyleking/schemasync/internal/migrate"
	"github.com/kyleking/schemasync/internal/registry"
	"github.com/kyleking/schemasync/internal/schema"
)

// Repository defines the database operations the CLI depends on
type Repository interface {
	Initialize(ctx context.Context) error
	Sync(ctx context.Context, reg *registry.Registry, opts SyncOptions) (*Report, error)
	Inspect(ctx context.Context, table string) (*TableInfo, error)
	ListTables(ctx context.Context) ([]string, error)
	History(ctx context.Context, limit int) ([]JournalEntry, error)
	MigrationStatus(ctx context.Context) ([]MigrationStatus, error)
	Info() DriverInfo
	Close() error
}

// SyncOptions controls a synchronization run
type SyncOptions struct {
	// DryRun plans every table and rolls back instead of committing
	DryRun bool
	// SkipJournal leaves the journal untouched
	SkipJournal bool
}

// Report is the outcome of one synchronization run
type Report struct {
	RunID   string           `json:"run_id"`
	DryRun  bool             `json:"dry_run"`
	Results []migrate.Result `json:"results"`
	Failed  []string         `json:"failed,omitempty"`
}

// Changed returns the number of tables that were created, altered or rebuilt
func (r *Report) Changed() int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome != migrate.UpToDate {
			n++
		}
	}

	return n
}

// TableInfo is the live shape of one table
type TableInfo struct {
	Name    string          `json:"name"`
	Exists  bool            `json:"exists"`
	HasRows bool            `json:"has_rows"`
	Columns []schema.Column `json:"columns"`
}

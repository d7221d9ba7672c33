// Package migrate brings live tables in line with their declared descriptors.
//
// SQLite cannot drop or redefine a column in place, so each table either
// gets new columns appended with ALTER TABLE ADD COLUMN or is rebuilt: a
// temporary table is created with the declared shape, the shared columns are
// copied over, the original is dropped and the temporary table is renamed.
//
// Every operation runs sequentially on the Database it is given. The caller
// owns that handle; nothing here closes it.
package migrate

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"

	"github.com/kyleking/schemasync/internal/ddl"
	"github.com/kyleking/schemasync/internal/diff"
	"github.com/kyleking/schemasync/internal/errors"
	"github.com/kyleking/schemasync/internal/registry"
	"github.com/kyleking/schemasync/internal/schema"
)

// Database is the connection the synchronizer works through.
type Database interface {
	// Execute runs one statement that returns no rows.
	Execute(ctx context.Context, stmt string) error
	// Introspect returns the live columns of a table in physical order,
	// or an empty list when the table does not exist.
	Introspect(ctx context.Context, table string) ([]schema.Column, error)
	// TableExists reports whether a table with this name exists.
	TableExists(ctx context.Context, table string) (bool, error)
	// HasRows reports whether the table holds at least one row.
	HasRows(ctx context.Context, table string) (bool, error)
}

// Step names the statement a migration was executing when it failed.
type Step string

const (
	StepCreateTable     Step = "CreateTable"
	StepAddColumn       Step = "AddColumn"
	StepCreateTempTable Step = "CreateTempTable"
	StepCopyRows        Step = "CopyRows"
	StepDropOriginal    Step = "DropOriginal"
	StepRenameTemp      Step = "RenameTemp"
)

// Outcome is what happened to a table.
type Outcome int

const (
	UpToDate Outcome = iota
	Created
	Altered
	Rebuilt
)

// String returns the string representation of the outcome
func (o Outcome) String() string {
	switch o {
	case UpToDate:
		return "up_to_date"
	case Created:
		return "created"
	case Altered:
		return "altered"
	case Rebuilt:
		return "rebuilt"
	default:
		return "unknown"
	}
}

// MarshalText encodes the outcome by name
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Statement is one SQL statement of a migration together with its step.
type Statement struct {
	Step Step   `json:"step"`
	SQL  string `json:"sql"`
}

// Result describes the migration of one table.
type Result struct {
	Table        string      `json:"table"`
	Outcome      Outcome     `json:"outcome"`
	ColumnsAdded int         `json:"columns_added"`
	TempTable    string      `json:"temp_table,omitempty"`
	Statements   []Statement `json:"statements,omitempty"`
}

// StepError is the cause carried by a schema_migration_failed error.
// A failure after the first rebuild statement leaves the database between
// states; it is reported as is and never retried here.
type StepError struct {
	Table     string
	Step      Step
	Statement string
	Err       error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("table %q step %s: %v", e.Table, e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// FailedStep extracts the step at which a migration failed.
func FailedStep(err error) (Step, bool) {
	var stepErr *StepError
	if stderrors.As(err, &stepErr) {
		return stepErr.Step, true
	}

	return "", false
}

// SyncSchema migrates one physical table to its declared shape.
func SyncSchema(ctx context.Context, db Database, table *schema.Table) (Result, error) {
	res, err := plan(ctx, db, table)
	if err != nil {
		return res, err
	}

	for _, stmt := range res.Statements {
		if err := db.Execute(ctx, stmt.SQL); err != nil {
			return res, errors.Wrapf(
				&StepError{Table: table.Name(), Step: stmt.Step, Statement: stmt.SQL, Err: err},
				errors.ErrTypeSchemaMigrationFailed, "migrate table %q", table.Name(),
			).WithSuggestion("Inspect the table before retrying; a partial rebuild may have left a temporary table behind")
		}
	}

	return res, nil
}

// Simulate computes the migration SyncSchema would perform without
// executing any statement.
func Simulate(ctx context.Context, db Database, table *schema.Table) (Result, error) {
	return plan(ctx, db, table)
}

// SyncAll migrates every physical table of the registry in declaration
// order. A failing table does not stop the others; all failures are
// returned joined together.
func SyncAll(ctx context.Context, db Database, reg *registry.Registry) ([]Result, error) {
	var (
		results []Result
		errs    []error
	)

	for _, table := range reg.PhysicalTables() {
		res, err := SyncSchema(ctx, db, table)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		results = append(results, res)
	}

	return results, stderrors.Join(errs...)
}

// plan inspects the live table and lists the statements that migrate it.
// UnsafeAlter is detected here, before any statement runs.
func plan(ctx context.Context, db Database, table *schema.Table) (Result, error) {
	res := Result{Table: table.Name()}

	if table.IsSubquery() {
		return res, errors.Newf(errors.ErrTypeValidation,
			"table %q is the result of subquery %q and has no physical table", table.Name(), table.Label())
	}

	exists, err := db.TableExists(ctx, table.Name())
	if err != nil {
		return res, fmt.Errorf("check table %q exists: %w", table.Name(), err)
	}

	if !exists {
		return planCreate(res, table)
	}

	live, err := db.Introspect(ctx, table.Name())
	if err != nil {
		return res, fmt.Errorf("introspect table %q: %w", table.Name(), err)
	}

	d := diff.Compare(table, live)

	switch d.Action() {
	case diff.AdditiveAlter:
		return planAlter(ctx, db, res, table, d.ColumnsToAdd)
	case diff.Rebuild:
		return planRebuild(ctx, db, res, table, live)
	default:
		res.Outcome = UpToDate
		return res, nil
	}
}

func planCreate(res Result, table *schema.Table) (Result, error) {
	stmt, err := ddl.CreateTable(table.Name(), table.Columns())
	if err != nil {
		return res, errors.Wrapf(err, errors.ErrTypeValidation, "table %q", table.Name())
	}

	res.Outcome = Created
	res.Statements = []Statement{{Step: StepCreateTable, SQL: stmt}}

	return res, nil
}

func planAlter(ctx context.Context, db Database, res Result, table *schema.Table, add []schema.Column) (Result, error) {
	if err := checkUnsafe(ctx, db, table.Name(), add); err != nil {
		return res, err
	}

	for _, c := range add {
		stmt, err := ddl.AddColumn(table.Name(), c)
		if err != nil {
			return res, errors.Wrapf(err, errors.ErrTypeValidation, "table %q", table.Name())
		}

		res.Statements = append(res.Statements, Statement{Step: StepAddColumn, SQL: stmt})
	}

	res.Outcome = Altered
	res.ColumnsAdded = len(add)

	return res, nil
}

func planRebuild(ctx context.Context, db Database, res Result, table *schema.Table, live []schema.Column) (Result, error) {
	if err := checkUnsafe(ctx, db, table.Name(), diff.MissingColumns(table, live)); err != nil {
		return res, err
	}

	tmp, err := tempName(ctx, db, table.Name())
	if err != nil {
		return res, err
	}

	create, err := ddl.CreateTable(tmp, table.Columns())
	if err != nil {
		return res, errors.Wrapf(err, errors.ErrTypeValidation, "table %q", table.Name())
	}

	res.TempTable = tmp
	res.Statements = append(res.Statements, Statement{Step: StepCreateTempTable, SQL: create})

	var shared []string
	for _, c := range diff.SharedColumns(table, live) {
		shared = append(shared, c.Name)
	}

	if len(shared) > 0 {
		copyRows, err := ddl.CopyRows(tmp, table.Name(), shared)
		if err != nil {
			return res, errors.Wrapf(err, errors.ErrTypeValidation, "table %q", table.Name())
		}

		res.Statements = append(res.Statements, Statement{Step: StepCopyRows, SQL: copyRows})
	}

	res.Statements = append(res.Statements,
		Statement{Step: StepDropOriginal, SQL: ddl.DropTable(table.Name())},
		Statement{Step: StepRenameTemp, SQL: ddl.RenameTable(tmp, table.Name())},
	)
	res.Outcome = Rebuilt

	return res, nil
}

// checkUnsafe fails when a NOT NULL column without a default would have to
// be filled in for rows that already exist.
func checkUnsafe(ctx context.Context, db Database, table string, added []schema.Column) error {
	var unsafe []string
	for _, c := range added {
		if c.NotNull && !c.HasDefault() {
			unsafe = append(unsafe, c.Name)
		}
	}

	if len(unsafe) == 0 {
		return nil
	}

	hasRows, err := db.HasRows(ctx, table)
	if err != nil {
		return fmt.Errorf("count rows of table %q: %w", table, err)
	}

	if !hasRows {
		return nil
	}

	return errors.Newf(errors.ErrTypeUnsafeAlter,
		"cannot add NOT NULL column(s) %v without a default to non-empty table %q", unsafe, table).
		WithSuggestion("Declare a default value for the column").
		WithSuggestion("Declare the column as nullable")
}

// tempName picks an unused name for the rebuild table: <table>_backup,
// then <table>_backup1, <table>_backup2, ...
func tempName(ctx context.Context, db Database, table string) (string, error) {
	base := table + "_backup"
	name := base

	for i := 1; ; i++ {
		exists, err := db.TableExists(ctx, name)
		if err != nil {
			return "", fmt.Errorf("check table %q exists: %w", name, err)
		}

		if !exists {
			return name, nil
		}

		name = base + strconv.Itoa(i)
	}
}

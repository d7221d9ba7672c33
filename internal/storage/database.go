package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/kyleking/schemasync/internal/ddl"
	"github.com/kyleking/schemasync/internal/errors"
	"github.com/kyleking/schemasync/internal/schema"
)

// Querier is the subset of *sql.DB, *sql.Conn and *sql.Tx the synchronizer needs
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLDatabase answers the synchronizer's catalog questions over database/sql.
// It does not own q and never closes it.
type SQLDatabase struct {
	q            Querier
	dialect      Dialect
	queryTimeout time.Duration
}

// NewSQLDatabase wraps q. A zero queryTimeout leaves the caller's context as is.
func NewSQLDatabase(q Querier, dialect Dialect, queryTimeout time.Duration) *SQLDatabase {
	return &SQLDatabase{q: q, dialect: dialect, queryTimeout: queryTimeout}
}

func (d *SQLDatabase) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.queryTimeout <= 0 {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, d.queryTimeout)
}

// Execute runs one statement that returns no rows
func (d *SQLDatabase) Execute(ctx context.Context, stmt string) error {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	if _, err := d.q.ExecContext(ctx, stmt); err != nil {
		return errors.Wrap(err, errors.ErrTypeDatabase, "failed to execute statement")
	}

	return nil
}

// Introspect reads PRAGMA table_info. Both engines answer it, but SQLite
// reports notnull and pk as integers while DuckDB reports booleans.
func (d *SQLDatabase) Introspect(ctx context.Context, table string) ([]schema.Column, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	rows, err := d.q.QueryContext(ctx, ddl.TableInfo(table))
	if err != nil {
		if d.dialect == DialectDuckDB && isMissingTable(err) {
			return nil, nil
		}

		return nil, errors.Wrapf(err, errors.ErrTypeDatabase, "failed to introspect table %q", table)
	}
	defer rows.Close()

	var columns []schema.Column

	for rows.Next() {
		var (
			cid        any
			name       string
			columnType sql.NullString
			notNull    any
			dfltValue  any
			primaryKey any
		)

		if err := rows.Scan(&cid, &name, &columnType, &notNull, &dfltValue, &primaryKey); err != nil {
			return nil, errors.Wrapf(err, errors.ErrTypeDatabase, "failed to scan column of table %q", table)
		}

		columns = append(columns, schema.Column{
			Name:         name,
			Type:         columnType.String,
			NotNull:      truthy(notNull),
			PrimaryKey:   truthy(primaryKey),
			DefaultValue: defaultText(dfltValue),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, errors.ErrTypeDatabase, "failed to read columns of table %q", table)
	}

	return columns, nil
}

// TableExists reports whether a base table with this name exists. Both
// engines resolve table names case-insensitively, so the lookup does too.
func (d *SQLDatabase) TableExists(ctx context.Context, table string) (bool, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	query := "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ? COLLATE NOCASE"
	if d.dialect == DialectDuckDB {
		query = "SELECT COUNT(*) FROM information_schema.tables WHERE lower(table_name) = lower(?)"
	}

	var count int
	if err := d.q.QueryRowContext(ctx, query, table).Scan(&count); err != nil {
		return false, errors.Wrapf(err, errors.ErrTypeDatabase, "failed to check table %q", table)
	}

	return count > 0, nil
}

// HasRows reports whether the table holds at least one row
func (d *SQLDatabase) HasRows(ctx context.Context, table string) (bool, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	var exists any
	if err := d.q.QueryRowContext(ctx, ddl.HasRows(table)).Scan(&exists); err != nil {
		return false, errors.Wrapf(err, errors.ErrTypeDatabase, "failed to count rows of table %q", table)
	}

	return truthy(exists), nil
}

// truthy normalizes the integer and boolean flags drivers return
func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case int64:
		return b != 0
	case int32:
		return b != 0
	case int:
		return b != 0
	case []byte:
		return string(b) != "0" && !strings.EqualFold(string(b), "false") && len(b) > 0
	case string:
		return b != "0" && !strings.EqualFold(b, "false") && b != ""
	default:
		return false
	}
}

// defaultText returns the default expression text, or "" when there is none
func defaultText(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprint(s)
	}
}

func isMissingTable(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "does not exist") || strings.Contains(msg, "not found")
}

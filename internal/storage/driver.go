package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb" // DuckDB driver

	"github.com/kyleking/schemasync/internal/config"
	"github.com/kyleking/schemasync/internal/schema"
)

// Dialect selects the catalog queries that differ between engines
type Dialect string

const (
	DialectSQLite Dialect = "sqlite"
	DialectDuckDB Dialect = "duckdb"
)

// DriverInfo describes the database/sql driver behind a dialect
type DriverInfo struct {
	Dialect    Dialect `json:"dialect"`
	DriverName string  `json:"driver_name"`
	DriverType string  `json:"driver_type"`
}

// Driver returns the driver used for a dialect in this build. SQLite uses
// modernc.org/sqlite unless built with -tags cgo_sqlite.
func Driver(dialect Dialect) DriverInfo {
	if dialect == DialectDuckDB {
		return DriverInfo{Dialect: dialect, DriverName: "duckdb", DriverType: "cgo"}
	}

	return DriverInfo{Dialect: DialectSQLite, DriverName: sqliteDriverName, DriverType: sqliteDriverType}
}

// ParseDialect maps a configured driver name onto a dialect
func ParseDialect(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "", config.DriverSQLite, "sqlite3":
		return DialectSQLite, nil
	case config.DriverDuckDB:
		return DialectDuckDB, nil
	default:
		return "", fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// declaredShape adapts a declared table to what the engine reports back.
// DuckDB introspects every primary key column as NOT NULL, so on DuckDB key
// columns are declared, created and compared as NOT NULL.
func (d Dialect) declaredShape(table *schema.Table) (*schema.Table, error) {
	if d != DialectDuckDB {
		return table, nil
	}

	columns := table.Columns()
	changed := false

	for i, c := range columns {
		if c.PrimaryKey && !c.NotNull {
			columns[i].NotNull = true
			changed = true
		}
	}

	if !changed {
		return table, nil
	}

	opts := []schema.TableOption{schema.WithColumns(columns...)}
	if !table.RecordType().IsVoid() {
		opts = append(opts, schema.MappedTo(table.RecordType()))
	}

	return schema.NewTable(table.Name(), opts...)
}

// openDB opens and pings a connection pool for the configured engine
func openDB(ctx context.Context, dialect Dialect, cfg config.DatabaseConfig) (*sql.DB, error) {
	if !isMemoryPath(cfg.Path) {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	var (
		db  *sql.DB
		err error
	)

	switch dialect {
	case DialectDuckDB:
		path := cfg.Path
		if path == ":memory:" {
			path = ""
		}

		db, err = sql.Open("duckdb", path)
	default:
		db, err = sql.Open(sqliteDriverName, sqliteDSN(cfg.Path, cfg.BusyTimeoutDuration()))
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	maxConns := cfg.MaxConnections
	if maxConns <= 0 {
		maxConns = 1
	}

	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

func isMemoryPath(path string) bool {
	return path == "" || path == ":memory:" || strings.HasPrefix(path, "file::memory:")
}

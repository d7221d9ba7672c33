package storage

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"time"

	"github.com/kyleking/schemasync/internal/logging"
)

// Migration is one version of the bookkeeping schema. Statements run in
// order inside a single transaction.
type Migration struct {
	Version     int
	Description string
	Up          []string
	Down        []string
}

// MigrationManager versions the tables schemasync keeps for itself. User
// tables are never touched here; they are synchronized from declarations.
type MigrationManager struct {
	db     *sql.DB
	logger *logging.Logger
}

// NewMigrationManager creates a new migration manager
func NewMigrationManager(db *sql.DB, logger *logging.Logger) *MigrationManager {
	if logger == nil {
		logger = logging.Discard()
	}

	return &MigrationManager{db: db, logger: logger}
}

// GetMigrations returns all available migrations in order
func (m *MigrationManager) GetMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create sync journal",
			Up: []string{
				`CREATE TABLE IF NOT EXISTS ` + journalTable + ` (
					id VARCHAR NOT NULL,
					run_id VARCHAR NOT NULL,
					table_name VARCHAR NOT NULL,
					action VARCHAR NOT NULL,
					columns_added INTEGER NOT NULL DEFAULT 0,
					applied_at VARCHAR NOT NULL
				)`,
			},
			Down: []string{
				`DROP TABLE IF EXISTS ` + journalTable,
			},
		},
		{
			Version:     2,
			Description: "Record statement count and temporary table",
			Up: []string{
				`ALTER TABLE ` + journalTable + ` ADD COLUMN statements INTEGER DEFAULT 0`,
				`ALTER TABLE ` + journalTable + ` ADD COLUMN temp_table VARCHAR DEFAULT ''`,
			},
			Down: []string{
				`ALTER TABLE ` + journalTable + ` DROP COLUMN temp_table`,
				`ALTER TABLE ` + journalTable + ` DROP COLUMN statements`,
			},
		},
		{
			// DuckDB refuses ALTER TABLE on indexed tables, so indexes come last
			Version:     3,
			Description: "Index journal by run and table",
			Up: []string{
				`CREATE UNIQUE INDEX IF NOT EXISTS idx_schemasync_journal_id ON ` + journalTable + ` (id)`,
				`CREATE INDEX IF NOT EXISTS idx_schemasync_journal_run ON ` + journalTable + ` (run_id)`,
				`CREATE INDEX IF NOT EXISTS idx_schemasync_journal_table ON ` + journalTable + ` (table_name)`,
			},
			Down: []string{
				`DROP INDEX IF EXISTS idx_schemasync_journal_table`,
				`DROP INDEX IF EXISTS idx_schemasync_journal_run`,
				`DROP INDEX IF EXISTS idx_schemasync_journal_id`,
			},
		},
	}
}

// LatestVersion returns the highest known migration version
func (m *MigrationManager) LatestVersion() int {
	latest := 0
	for _, migration := range m.GetMigrations() {
		latest = max(latest, migration.Version)
	}

	return latest
}

// InitializeMigrationTable creates the migration tracking table
func (m *MigrationManager) InitializeMigrationTable(ctx context.Context) error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS ` + migrationsTable + ` (
		version INTEGER PRIMARY KEY,
		description VARCHAR NOT NULL,
		applied_at VARCHAR NOT NULL
	)`

	if _, err := m.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create migration table: %w", err)
	}

	return nil
}

// GetAppliedMigrations returns a list of applied migration versions
func (m *MigrationManager) GetAppliedMigrations(ctx context.Context) ([]int, error) {
	rows, err := m.db.QueryContext(ctx, "SELECT version FROM "+migrationsTable+" ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	var versions []int

	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}

		versions = append(versions, version)
	}

	return versions, rows.Err()
}

// CurrentVersion returns the highest applied version, 0 when none
func (m *MigrationManager) CurrentVersion(ctx context.Context) (int, error) {
	versions, err := m.GetAppliedMigrations(ctx)
	if err != nil {
		return 0, err
	}

	if len(versions) == 0 {
		return 0, nil
	}

	return slices.Max(versions), nil
}

// IsMigrationApplied checks if a specific migration version has been applied
func (m *MigrationManager) IsMigrationApplied(ctx context.Context, version int) (bool, error) {
	var count int

	err := m.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+migrationsTable+" WHERE version = ?", version,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check migration status: %w", err)
	}

	return count > 0, nil
}

// ApplyMigration applies a single migration
func (m *MigrationManager) ApplyMigration(ctx context.Context, migration Migration) error {
	applied, err := m.IsMigrationApplied(ctx, migration.Version)
	if err != nil {
		return err
	}

	if applied {
		return fmt.Errorf("migration %d already applied", migration.Version)
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() { _ = tx.Rollback() }()

	for _, stmt := range migration.Up {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute migration %d: %w", migration.Version, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO "+migrationsTable+" (version, description, applied_at) VALUES (?, ?, ?)",
		migration.Version, migration.Description, formatTimestamp(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
	}

	return tx.Commit()
}

// RollbackMigration rolls back a single migration
func (m *MigrationManager) RollbackMigration(ctx context.Context, migration Migration) error {
	applied, err := m.IsMigrationApplied(ctx, migration.Version)
	if err != nil {
		return err
	}

	if !applied {
		return fmt.Errorf("migration %d not applied", migration.Version)
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() { _ = tx.Rollback() }()

	for _, stmt := range migration.Down {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to rollback migration %d: %w", migration.Version, err)
		}
	}

	_, err = tx.ExecContext(ctx, "DELETE FROM "+migrationsTable+" WHERE version = ?", migration.Version)
	if err != nil {
		return fmt.Errorf("failed to remove migration record %d: %w", migration.Version, err)
	}

	return tx.Commit()
}

// MigrateUp applies all pending migrations
func (m *MigrationManager) MigrateUp(ctx context.Context) error {
	if err := m.InitializeMigrationTable(ctx); err != nil {
		return err
	}

	appliedVersions, err := m.GetAppliedMigrations(ctx)
	if err != nil {
		return err
	}

	migrations := m.GetMigrations()
	slices.SortFunc(migrations, func(a, b Migration) int { return a.Version - b.Version })

	for _, migration := range migrations {
		if slices.Contains(appliedVersions, migration.Version) {
			continue
		}

		m.logger.WithField("version", migration.Version).Infof("Applying migration: %s", migration.Description)

		if err := m.ApplyMigration(ctx, migration); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// MigrateDown rolls back migrations above targetVersion, newest first
func (m *MigrationManager) MigrateDown(ctx context.Context, targetVersion int) error {
	appliedVersions, err := m.GetAppliedMigrations(ctx)
	if err != nil {
		return err
	}

	migrationMap := make(map[int]Migration)
	for _, migration := range m.GetMigrations() {
		migrationMap[migration.Version] = migration
	}

	slices.Sort(appliedVersions)
	slices.Reverse(appliedVersions)

	for _, version := range appliedVersions {
		if version <= targetVersion {
			break
		}

		migration, exists := migrationMap[version]
		if !exists {
			return fmt.Errorf("migration %d not found", version)
		}

		m.logger.WithField("version", version).Infof("Rolling back migration: %s", migration.Description)

		if err := m.RollbackMigration(ctx, migration); err != nil {
			return fmt.Errorf("failed to rollback migration %d: %w", version, err)
		}
	}

	return nil
}

// GetMigrationStatus returns the current migration status
func (m *MigrationManager) GetMigrationStatus(ctx context.Context) ([]MigrationStatus, error) {
	if err := m.InitializeMigrationTable(ctx); err != nil {
		return nil, err
	}

	appliedVersions, err := m.GetAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}

	var status []MigrationStatus
	for _, migration := range m.GetMigrations() {
		status = append(status, MigrationStatus{
			Version:     migration.Version,
			Description: migration.Description,
			Applied:     slices.Contains(appliedVersions, migration.Version),
		})
	}

	return status, nil
}

// MigrationStatus represents the status of a migration
type MigrationStatus struct {
	Version     int    `json:"version"`
	Description string `json:"description"`
	Applied     bool   `json:"applied"`
}

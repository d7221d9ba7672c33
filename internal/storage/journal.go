package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kyleking/schemasync/internal/migrate"
)

const (
	journalTable    = "schemasync_journal"
	migrationsTable = "schemasync_migrations"

	// Fixed width so that text order is time order
	timestampLayout = "2006-01-02T15:04:05.000000000Z"
)

// JournalEntry is one applied table migration
type JournalEntry struct {
	ID           string    `json:"id"`
	RunID        string    `json:"run_id"`
	Table        string    `json:"table"`
	Action       string    `json:"action"`
	ColumnsAdded int       `json:"columns_added"`
	Statements   int       `json:"statements"`
	TempTable    string    `json:"temp_table,omitempty"`
	AppliedAt    time.Time `json:"applied_at"`
}

// IsBookkeepingTable reports whether name is one of the tables schemasync
// keeps for itself
func IsBookkeepingTable(name string) bool {
	return name == journalTable || name == migrationsTable
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(s string) (time.Time, error) {
	return time.Parse(timestampLayout, s)
}

// recordJournal appends one row for res. It runs on the same transaction as
// the migration so both commit or neither does.
func recordJournal(ctx context.Context, q Querier, runID string, res migrate.Result) (JournalEntry, error) {
	entry := JournalEntry{
		ID:           uuid.NewString(),
		RunID:        runID,
		Table:        res.Table,
		Action:       res.Outcome.String(),
		ColumnsAdded: res.ColumnsAdded,
		Statements:   len(res.Statements),
		TempTable:    res.TempTable,
		AppliedAt:    time.Now().UTC(),
	}

	_, err := q.ExecContext(ctx,
		`INSERT INTO `+journalTable+` (id, run_id, table_name, action, columns_added, statements, temp_table, applied_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.RunID, entry.Table, entry.Action, entry.ColumnsAdded,
		entry.Statements, entry.TempTable, formatTimestamp(entry.AppliedAt),
	)
	if err != nil {
		return entry, fmt.Errorf("failed to record journal entry for %s: %w", res.Table, err)
	}

	return entry, nil
}

// listJournal returns the most recent entries first
func listJournal(ctx context.Context, q Querier, limit int) ([]JournalEntry, error) {
	query := `SELECT id, run_id, table_name, action, columns_added,
		COALESCE(statements, 0), COALESCE(temp_table, ''), applied_at
		FROM ` + journalTable + ` ORDER BY applied_at DESC, id`

	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	var entries []JournalEntry

	for rows.Next() {
		var (
			entry     JournalEntry
			appliedAt string
		)

		if err := rows.Scan(
			&entry.ID, &entry.RunID, &entry.Table, &entry.Action, &entry.ColumnsAdded,
			&entry.Statements, &entry.TempTable, &appliedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}

		if entry.AppliedAt, err = parseTimestamp(appliedAt); err != nil {
			return nil, fmt.Errorf("invalid journal timestamp %q: %w", appliedAt, err)
		}

		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

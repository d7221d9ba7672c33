package migrate

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyleking/schemasync/internal/logging"
	"github.com/kyleking/schemasync/internal/registry"
	"github.com/kyleking/schemasync/internal/testutil"
)

func logEntries(t *testing.T, buf *bytes.Buffer) []logging.LogEntry {
	t.Helper()

	var entries []logging.LogEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}

		var entry logging.LogEntry
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}

	return entries
}

func TestNewExecutorGeneratesRunID(t *testing.T) {
	e := NewExecutor(testutil.NewMockDatabase())

	_, err := uuid.Parse(e.RunID())
	require.NoError(t, err)
	assert.NotEqual(t, e.RunID(), NewExecutor(testutil.NewMockDatabase()).RunID())

	assert.Equal(t, "fixed", NewExecutor(testutil.NewMockDatabase(), WithRunID("fixed")).RunID())
}

func TestExecutorSyncLogsOutcome(t *testing.T) {
	var buf bytes.Buffer

	db := testutil.NewMockDatabase(testutil.WithLiveTable("users", idCol))
	e := NewExecutor(db, WithLogger(logging.New(&buf, "info", "json")), WithRunID("run-1"))

	res, err := e.Sync(context.Background(), testutil.NewTable(t, "users", idCol, nameCol))
	require.NoError(t, err)
	assert.Equal(t, Altered, res.Outcome)
	assert.Len(t, db.Executed(), 1)

	entries := logEntries(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "Table synced", entries[0].Message)
	assert.Equal(t, "run-1", entries[0].Fields["run_id"])
	assert.Equal(t, "users", entries[0].Fields["table"])
	assert.Equal(t, "altered", entries[0].Fields["action"])
}

func TestExecutorDryRun(t *testing.T) {
	db := testutil.NewMockDatabase()
	e := NewExecutor(db, WithDryRun(true))
	assert.True(t, e.DryRun())

	res, err := e.Sync(context.Background(), testutil.NewTable(t, "users", idCol))
	require.NoError(t, err)

	assert.Equal(t, Created, res.Outcome)
	assert.Len(t, res.Statements, 1)
	assert.Empty(t, db.Executed())
}

func TestExecutorSyncAllLogsFailures(t *testing.T) {
	var buf bytes.Buffer

	users := testutil.NewTable(t, "users", idCol, nameCol)
	orders := testutil.NewTable(t, "orders", idCol)
	reg, err := registry.Build(users, orders)
	require.NoError(t, err)

	db := testutil.NewMockDatabase(
		testutil.WithLiveTable("users", idCol, testutil.NewColumn("name")),
		testutil.FailExecuteAt(2, assert.AnError),
	)
	e := NewExecutor(db, WithLogger(logging.New(&buf, "info", "json")))

	results, err := e.SyncAll(context.Background(), reg)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	require.Len(t, results, 1)
	assert.Equal(t, "orders", results[0].Table)

	entries := logEntries(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "ERROR", entries[0].Level)
	assert.Equal(t, "users", entries[0].Fields["table"])
	assert.Equal(t, "CopyRows", entries[0].Fields["step"])
	assert.Equal(t, "schema_migration_failed", entries[0].Fields["error_type"])
	assert.Equal(t, "orders", entries[1].Fields["table"])
}

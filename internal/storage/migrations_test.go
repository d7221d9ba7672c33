package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyleking/schemasync/internal/logging"
)

func TestMigrationManagerMigrateUp(t *testing.T) {
	ctx := context.Background()
	store := NewTestStore(t)
	manager := NewMigrationManager(store.db, logging.Discard())

	version, err := manager.CurrentVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, manager.LatestVersion(), version, "NewTestStore initializes the journal")

	// Running again is a no-op
	require.NoError(t, manager.MigrateUp(ctx))

	applied, err := manager.GetAppliedMigrations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, applied)

	status, err := store.MigrationStatus(ctx)
	require.NoError(t, err)
	require.Len(t, status, len(manager.GetMigrations()))

	for _, s := range status {
		assert.True(t, s.Applied, "migration %d", s.Version)
		assert.NotEmpty(t, s.Description)
	}
}

func TestMigrationManagerApplyTwiceFails(t *testing.T) {
	ctx := context.Background()
	store := NewTestStore(t)
	manager := NewMigrationManager(store.db, nil)

	err := manager.ApplyMigration(ctx, manager.GetMigrations()[0])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already applied")
}

func TestMigrationManagerMigrateDown(t *testing.T) {
	ctx := context.Background()
	store := NewTestStore(t)
	manager := NewMigrationManager(store.db, nil)

	require.NoError(t, manager.MigrateDown(ctx, 1))

	version, err := manager.CurrentVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, version)

	columns, err := store.Database().Introspect(ctx, journalTable)
	require.NoError(t, err)

	var names []string
	for _, c := range columns {
		names = append(names, c.Name)
	}

	assert.NotContains(t, names, "statements")
	assert.NotContains(t, names, "temp_table")

	require.NoError(t, manager.MigrateDown(ctx, 0))

	exists, err := store.Database().TableExists(ctx, journalTable)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, manager.MigrateUp(ctx))

	version, err = manager.CurrentVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, manager.LatestVersion(), version)
}

func TestMigrationManagerRollbackUnapplied(t *testing.T) {
	ctx := context.Background()
	store := NewTestStore(t)
	manager := NewMigrationManager(store.db, nil)

	require.NoError(t, manager.MigrateDown(ctx, 2))

	err := manager.RollbackMigration(ctx, manager.GetMigrations()[2])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not applied")
}

func TestTimestampRoundTripKeepsOrder(t *testing.T) {
	earlier := formatTimestamp(time.Date(2024, 1, 2, 3, 4, 5, 1, time.UTC))
	later := formatTimestamp(time.Date(2024, 1, 2, 3, 4, 5, 100_000_000, time.UTC))

	assert.Less(t, earlier, later)

	parsed, err := parseTimestamp(later)
	require.NoError(t, err)
	assert.Equal(t, later, formatTimestamp(parsed))
}

package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kyleking/schemasync/internal/registry"
	"github.com/kyleking/schemasync/internal/storage"
)

// MockRepository implements storage.Repository for testing
type MockRepository struct {
	report   *storage.Report
	syncErr  error
	tables   map[string]*storage.TableInfo
	history  []storage.JournalEntry
	status   []storage.MigrationStatus
	lastSync storage.SyncOptions
	closed   bool
}

var _ storage.Repository = (*MockRepository)(nil)

func (m *MockRepository) Initialize(_ context.Context) error {
	return nil
}

func (m *MockRepository) Sync(_ context.Context, _ *registry.Registry, opts storage.SyncOptions) (*storage.Report, error) {
	m.lastSync = opts

	if m.report == nil {
		return &storage.Report{RunID: "mock-run", DryRun: opts.DryRun}, m.syncErr
	}

	return m.report, m.syncErr
}

func (m *MockRepository) Inspect(_ context.Context, table string) (*storage.TableInfo, error) {
	if info, ok := m.tables[table]; ok {
		return info, nil
	}

	return &storage.TableInfo{Name: table}, nil
}

func (m *MockRepository) ListTables(_ context.Context) ([]string, error) {
	var names []string
	for name := range m.tables {
		names = append(names, name)
	}

	return names, nil
}

func (m *MockRepository) History(_ context.Context, limit int) ([]storage.JournalEntry, error) {
	if limit > 0 && limit < len(m.history) {
		return m.history[:limit], nil
	}

	return m.history, nil
}

func (m *MockRepository) MigrationStatus(_ context.Context) ([]storage.MigrationStatus, error) {
	return m.status, nil
}

func (m *MockRepository) Info() storage.DriverInfo {
	return storage.Driver(storage.DialectSQLite)
}

func (m *MockRepository) Close() error {
	m.closed = true
	return nil
}

const testSchema = `
tables:
  - name: users
    record: app.User
    columns:
      - name: id
        type: INTEGER
        primary_key: true
        not_null: true
      - name: email
        type: TEXT
        not_null: true
        default: "''"
ctes:
  - name: active_users
    label: active
    inferred:
      - name: id
      - expr: lower(email)
    explicit:
      - position: 1
        name: email_lower
`

// writeSchema writes a declaration file into a temporary directory
func writeSchema(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	return path
}

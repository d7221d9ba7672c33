package declare

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyleking/schemasync/internal/errors"
	"github.com/kyleking/schemasync/internal/registry"
	"github.com/kyleking/schemasync/internal/schema"
)

const sampleDeclarations = `
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
  - name: orders
    record: app.Order
    columns:
      - name: id
        type: INTEGER
        primary_key: true
      - name: user_id
        type: INTEGER
ctes:
  - name: recent_users
    label: recent
    inferred:
      - name: id
      - name: email
      - expr: count(*)
    explicit:
      - position: 2
        name: order_count
`

func writeFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	return path
}

func TestLoadRegistry(t *testing.T) {
	reg, err := LoadRegistry(writeFile(t, sampleDeclarations))
	require.NoError(t, err)

	assert.Equal(t, 3, reg.Len())
	require.Len(t, reg.PhysicalTables(), 2)

	users, err := reg.Resolve(registry.TypeKey(schema.TypeID("app.User")))
	require.NoError(t, err)
	assert.Equal(t, "users", users.Name())
	assert.Equal(t, []string{"id"}, users.PrimaryKey())

	email, ok := users.Column("email")
	require.True(t, ok)
	assert.True(t, email.NotNull)
	assert.Equal(t, "''", email.DefaultValue)

	recent, err := reg.Resolve(registry.LabelKey(schema.Label("recent")))
	require.NoError(t, err)
	assert.True(t, recent.IsSubquery())
	assert.Equal(t, []schema.ColumnRef{
		{Position: 0, Name: "id"},
		{Position: 1, Name: "email"},
		{Position: 2, Name: "order_count"},
	}, recent.ColumnRefs())
}

func TestParseEmpty(t *testing.T) {
	file, err := Parse(strings.NewReader(""))
	require.NoError(t, err)

	tables, err := file.Descriptors()
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func TestDeclarationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errType errors.ErrorType
		errMsg  string
	}{
		{
			name:    "unknown field",
			content: "tables:\n  - name: users\n    colums: []\n",
			errType: errors.ErrTypeConfig,
			errMsg:  "colums",
		},
		{
			name:    "table without columns",
			content: "tables:\n  - name: users\n",
			errType: errors.ErrTypeConfig,
			errMsg:  "declares no columns",
		},
		{
			name:    "invalid column type",
			content: "tables:\n  - name: users\n    columns:\n      - name: id\n        type: \"INT; DROP TABLE x\"\n",
			errType: errors.ErrTypeConfig,
			errMsg:  "invalid characters",
		},
		{
			name:    "default with statement separator",
			content: "tables:\n  - name: users\n    columns:\n      - name: id\n        default: \"1; DROP TABLE users\"\n",
			errType: errors.ErrTypeConfig,
			errMsg:  "statement separator",
		},
		{
			name:    "duplicate column",
			content: "tables:\n  - name: users\n    columns:\n      - name: id\n      - name: id\n",
			errType: errors.ErrTypeConfig,
			errMsg:  "declared twice",
		},
		{
			name:    "explicit ref out of range",
			content: "ctes:\n  - name: r\n    label: r\n    inferred:\n      - name: a\n    explicit:\n      - position: 1\n        name: b\n",
			errType: errors.ErrTypeColumnCountMismatch,
			errMsg:  "ctes[0]",
		},
		{
			name:    "subquery without label",
			content: "ctes:\n  - name: r\n    inferred:\n      - name: a\n",
			errType: errors.ErrTypeConfig,
			errMsg:  "label is required",
		},
		{
			name: "same record twice",
			content: "tables:\n" +
				"  - name: a\n    record: app.User\n    columns:\n      - name: id\n" +
				"  - name: b\n    record: app.User\n    columns:\n      - name: id\n",
			errType: errors.ErrTypeAmbiguousMapping,
			errMsg:  "app.User",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadRegistry(writeFile(t, tt.content))
			require.Error(t, err)
			assert.True(t, errors.IsType(err, tt.errType), "got %v", err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestParseSubqueryWithUnaliasedColumns(t *testing.T) {
	const content = `
ctes:
  - name: order_counts
    label: counts
    inferred:
      - name: user_id
      - expr: count(*)
      - name: user_id
`

	file, err := Parse(strings.NewReader(content))
	require.NoError(t, err)

	reg, err := file.Registry()
	require.NoError(t, err)

	counts, err := reg.Resolve(registry.LabelKey("counts"))
	require.NoError(t, err)
	assert.Equal(t, []string{"user_id", "column2", "user_id_3"}, counts.ColumnNames())
	assert.Equal(t, "count(*)", counts.ColumnRefs()[1].Expr)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeFileSystem))
}

package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kyleking/schemasync/internal/schema"
)

// ColumnOption is a functional option for configuring test columns
type ColumnOption func(*schema.Column)

// Typed sets the declared column type
func Typed(typeName string) ColumnOption {
	return func(c *schema.Column) {
		c.Type = typeName
	}
}

// NotNull marks the column NOT NULL
func NotNull() ColumnOption {
	return func(c *schema.Column) {
		c.NotNull = true
	}
}

// PrimaryKey marks the column as part of the primary key
func PrimaryKey() ColumnOption {
	return func(c *schema.Column) {
		c.PrimaryKey = true
	}
}

// Default sets the default value expression
func Default(expr string) ColumnOption {
	return func(c *schema.Column) {
		c.DefaultValue = expr
	}
}

// NewColumn creates a TEXT column with the given options applied
func NewColumn(name string, opts ...ColumnOption) schema.Column {
	c := schema.Column{Name: name, Type: "TEXT"}

	for _, opt := range opts {
		opt(&c)
	}

	return c
}

// IDColumn creates the INTEGER primary key column most test tables start with
func IDColumn() schema.Column {
	return NewColumn("id", Typed("INTEGER"), PrimaryKey(), NotNull())
}

// NewTable creates a physical table descriptor and fails the test on error
func NewTable(t *testing.T, name string, columns ...schema.Column) *schema.Table {
	t.Helper()

	table, err := schema.NewTable(name, schema.WithColumns(columns...))
	require.NoError(t, err)

	return table
}

// NewMappedTable creates a physical table descriptor bound to a record type
func NewMappedTable(t *testing.T, name string, record schema.TypeID, columns ...schema.Column) *schema.Table {
	t.Helper()

	table, err := schema.NewTable(name, schema.MappedTo(record), schema.WithColumns(columns...))
	require.NoError(t, err)

	return table
}

// ColumnNames returns the names of the given columns in order
func ColumnNames(columns []schema.Column) []string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}

	return names
}

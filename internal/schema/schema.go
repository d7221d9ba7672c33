// Package schema holds the descriptors that map application record types
// onto relational tables. Descriptors are built once and never mutated.
package schema

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/kyleking/schemasync/internal/errors"
)

// TypeID identifies a mapped application record type. The empty TypeID is void.
type TypeID string

// TypeOf returns the TypeID of the Go type T.
func TypeOf[T any]() TypeID {
	t := reflect.TypeFor[T]()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t.PkgPath() == "" {
		return TypeID(t.String())
	}

	return TypeID(t.PkgPath() + "." + t.Name())
}

// IsVoid reports whether the identifier is absent.
func (id TypeID) IsVoid() bool { return id == "" }

// Label names a common table expression result. The empty Label is absent.
type Label string

// Column describes one table column.
type Column struct {
	Name         string `json:"name"`
	Type         string `json:"type,omitempty"`
	NotNull      bool   `json:"not_null"`
	PrimaryKey   bool   `json:"primary_key"`
	DefaultValue string `json:"default_value,omitempty"`
}

// HasDefault reports whether a default value expression is present.
// Only presence matters when columns are compared.
func (c Column) HasDefault() bool {
	return c.DefaultValue != ""
}

// SameShape reports whether two columns agree on every attribute that
// decides whether a table must be rebuilt.
func (c Column) SameShape(other Column) bool {
	return c.Name == other.Name &&
		c.NotNull == other.NotNull &&
		c.HasDefault() == other.HasDefault() &&
		c.PrimaryKey == other.PrimaryKey
}

// ColumnRef is a positional reference into a subquery's result columns.
type ColumnRef struct {
	Position int    `json:"position"`
	Name     string `json:"name"`
	Expr     string `json:"expr,omitempty"`
}

// Table describes a table or a named subquery result.
type Table struct {
	name       string
	columns    []Column
	recordType TypeID
	label      Label
	columnRefs []ColumnRef
}

// TableOption configures a Table under construction.
type TableOption func(*Table)

// WithColumns appends columns in physical order.
func WithColumns(columns ...Column) TableOption {
	return func(t *Table) {
		t.columns = append(t.columns, columns...)
	}
}

// MappedTo sets the record type the table stores.
func MappedTo(id TypeID) TableOption {
	return func(t *Table) {
		t.recordType = id
	}
}

// WithLabel marks the table as the result of a named subquery.
func WithLabel(label Label) TableOption {
	return func(t *Table) {
		t.label = label
	}
}

// WithColumnRefs attaches the final column references of a subquery.
func WithColumnRefs(refs []ColumnRef) TableOption {
	return func(t *Table) {
		t.columnRefs = append([]ColumnRef(nil), refs...)
	}
}

// NewTable builds a descriptor and validates it.
func NewTable(name string, opts ...TableOption) (*Table, error) {
	t := &Table{name: name}
	for _, opt := range opts {
		opt(t)
	}

	if strings.TrimSpace(name) == "" {
		return nil, errors.NewConfigError("table name is required", "name")
	}

	seen := make(map[string]bool, len(t.columns))
	for i, c := range t.columns {
		if strings.TrimSpace(c.Name) == "" {
			return nil, errors.NewConfigError(
				"column name is required", fmt.Sprintf("%s.columns[%d]", name, i))
		}

		if seen[c.Name] {
			return nil, errors.Newf(errors.ErrTypeConfig,
				"column %q declared twice in table %q", c.Name, name)
		}

		seen[c.Name] = true
	}

	return t, nil
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// RecordType returns the mapped record type, void when the table maps none.
func (t *Table) RecordType() TypeID { return t.recordType }

// Label returns the subquery label, empty for physical tables.
func (t *Table) Label() Label { return t.label }

// IsSubquery reports whether the table is a named subquery result rather
// than a physical table.
func (t *Table) IsSubquery() bool { return t.label != "" }

// Columns returns a copy of the columns in physical order.
func (t *Table) Columns() []Column {
	return append([]Column(nil), t.columns...)
}

// ColumnNames returns the column names in physical order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}

	return names
}

// Column looks up a column by name.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.columns {
		if c.Name == name {
			return c, true
		}
	}

	return Column{}, false
}

// PrimaryKey returns the names of the primary key columns in physical order.
func (t *Table) PrimaryKey() []string {
	var pk []string
	for _, c := range t.columns {
		if c.PrimaryKey {
			pk = append(pk, c.Name)
		}
	}

	return pk
}

// ColumnRefs returns a copy of the final column references.
func (t *Table) ColumnRefs() []ColumnRef {
	return append([]ColumnRef(nil), t.columnRefs...)
}

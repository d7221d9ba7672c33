// Package declare loads table and subquery declarations from YAML and turns
// them into registered descriptors.
package declare

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kyleking/schemasync/internal/cte"
	"github.com/kyleking/schemasync/internal/ddl"
	"github.com/kyleking/schemasync/internal/errors"
	"github.com/kyleking/schemasync/internal/registry"
	"github.com/kyleking/schemasync/internal/schema"
)

// File is the top level of a declaration file
type File struct {
	Tables []TableSpec `yaml:"tables"`
	CTEs   []CTESpec   `yaml:"ctes"`
}

// TableSpec declares one physical table
type TableSpec struct {
	Name    string       `yaml:"name"`
	Record  string       `yaml:"record"`
	Columns []ColumnSpec `yaml:"columns"`
}

// ColumnSpec declares one column. Default is raw SQL expression text, so a
// string default carries its own quotes: default: "'none'".
type ColumnSpec struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	NotNull    bool   `yaml:"not_null"`
	PrimaryKey bool   `yaml:"primary_key"`
	Default    string `yaml:"default"`
}

// CTESpec declares a named subquery result. Inferred lists the result
// columns in order; Explicit overrides some of them by position.
type CTESpec struct {
	Name     string    `yaml:"name"`
	Label    string    `yaml:"label"`
	Record   string    `yaml:"record"`
	Inferred []RefSpec `yaml:"inferred"`
	Explicit []RefSpec `yaml:"explicit"`
}

// RefSpec is one column reference. Position is only read for explicit refs.
type RefSpec struct {
	Position int    `yaml:"position"`
	Name     string `yaml:"name"`
	Expr     string `yaml:"expr"`
}

// Load reads and parses a declaration file
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrTypeFileSystem, "failed to read declarations from %s", path).
			WithSuggestion("Set schema.file in the config or pass --schema")
	}

	file, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return file, nil
}

// Parse decodes a declaration document. Unknown fields are rejected.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file File
	if err := dec.Decode(&file); err != nil {
		if stderrors.Is(err, io.EOF) {
			return &file, nil
		}

		return nil, errors.Wrap(err, errors.ErrTypeConfig, "invalid declaration file")
	}

	return &file, nil
}

// Descriptors builds the table descriptors in file order: tables first,
// then subqueries. Subquery references go through cte.Reconcile.
func (f *File) Descriptors() ([]*schema.Table, error) {
	tables := make([]*schema.Table, 0, len(f.Tables)+len(f.CTEs))

	for i, spec := range f.Tables {
		table, err := spec.descriptor()
		if err != nil {
			return nil, fmt.Errorf("tables[%d]: %w", i, err)
		}

		tables = append(tables, table)
	}

	for i, spec := range f.CTEs {
		table, err := spec.descriptor()
		if err != nil {
			return nil, fmt.Errorf("ctes[%d]: %w", i, err)
		}

		tables = append(tables, table)
	}

	return tables, nil
}

// Registry builds the descriptors and registers them
func (f *File) Registry() (*registry.Registry, error) {
	tables, err := f.Descriptors()
	if err != nil {
		return nil, err
	}

	return registry.Build(tables...)
}

// LoadRegistry loads a declaration file straight into a registry
func LoadRegistry(path string) (*registry.Registry, error) {
	file, err := Load(path)
	if err != nil {
		return nil, err
	}

	reg, err := file.Registry()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return reg, nil
}

func (s TableSpec) descriptor() (*schema.Table, error) {
	if len(s.Columns) == 0 {
		return nil, errors.NewConfigError(fmt.Sprintf("table %q declares no columns", s.Name), "columns")
	}

	columns := make([]schema.Column, len(s.Columns))

	for i, c := range s.Columns {
		if err := ddl.ValidateColumnType(c.Type); err != nil {
			return nil, errors.Wrapf(err, errors.ErrTypeConfig, "table %q column %q", s.Name, c.Name)
		}

		if err := ddl.ValidateDefault(c.Default); err != nil {
			return nil, errors.Wrapf(err, errors.ErrTypeConfig, "table %q column %q", s.Name, c.Name)
		}

		columns[i] = schema.Column{
			Name:         c.Name,
			Type:         c.Type,
			NotNull:      c.NotNull,
			PrimaryKey:   c.PrimaryKey,
			DefaultValue: c.Default,
		}
	}

	opts := []schema.TableOption{schema.WithColumns(columns...)}
	if s.Record != "" {
		opts = append(opts, schema.MappedTo(schema.TypeID(s.Record)))
	}

	return schema.NewTable(s.Name, opts...)
}

func (s CTESpec) descriptor() (*schema.Table, error) {
	inferred := make([]schema.ColumnRef, len(s.Inferred))
	for i, ref := range s.Inferred {
		inferred[i] = schema.ColumnRef{Position: i, Name: ref.Name, Expr: ref.Expr}
	}

	explicit := make([]schema.ColumnRef, len(s.Explicit))
	for i, ref := range s.Explicit {
		explicit[i] = schema.ColumnRef(ref)
	}

	var opts []schema.TableOption
	if s.Record != "" {
		opts = append(opts, schema.MappedTo(schema.TypeID(s.Record)))
	}

	return cte.NewTable(s.Name, schema.Label(s.Label), inferred, explicit, opts...)
}

// Package ddl builds the SQL statements the schema synchronizer issues:
// CREATE TABLE, ALTER TABLE ADD COLUMN, INSERT INTO ... SELECT, DROP TABLE
// and ALTER TABLE RENAME TO. Identifiers are always quoted.
package ddl

import (
	"fmt"
	"strings"

	"github.com/kyleking/schemasync/internal/schema"
)

// ColumnDef returns the column definition used inside CREATE TABLE and
// ADD COLUMN: "<name>" [TYPE] [PRIMARY KEY] [NOT NULL] [DEFAULT expr].
// inlinePK controls whether a primary key column carries the constraint
// itself; composite keys are declared at table level instead.
func ColumnDef(c schema.Column, inlinePK bool) (string, error) {
	if c.Name == "" {
		return "", fmt.Errorf("column name is required")
	}
	if err := ValidateColumnType(c.Type); err != nil {
		return "", fmt.Errorf("invalid column type for %q: %w", c.Name, err)
	}
	if err := ValidateDefault(c.DefaultValue); err != nil {
		return "", fmt.Errorf("invalid default for %q: %w", c.Name, err)
	}

	parts := []string{QuoteIdentifier(c.Name)}
	if c.Type != "" {
		parts = append(parts, c.Type)
	}
	if c.PrimaryKey && inlinePK {
		parts = append(parts, "PRIMARY KEY")
	}
	if c.NotNull {
		parts = append(parts, "NOT NULL")
	}
	if c.HasDefault() {
		parts = append(parts, "DEFAULT "+c.DefaultValue)
	}

	return strings.Join(parts, " "), nil
}

// CreateTable returns: CREATE TABLE "<name>" (<column defs>[, PRIMARY KEY (...)]).
func CreateTable(name string, columns []schema.Column) (string, error) {
	if name == "" {
		return "", fmt.Errorf("table name is required")
	}
	if len(columns) == 0 {
		return "", fmt.Errorf("at least one column is required")
	}

	var pk []string
	for _, c := range columns {
		if c.PrimaryKey {
			pk = append(pk, QuoteIdentifier(c.Name))
		}
	}
	inlinePK := len(pk) == 1

	defs := make([]string, 0, len(columns)+1)
	for _, c := range columns {
		def, err := ColumnDef(c, inlinePK)
		if err != nil {
			return "", err
		}
		defs = append(defs, def)
	}
	if len(pk) > 1 {
		defs = append(defs, "PRIMARY KEY ("+strings.Join(pk, ", ")+")")
	}

	return fmt.Sprintf("CREATE TABLE %s (%s)", QuoteIdentifier(name), strings.Join(defs, ", ")), nil
}

// AddColumn returns: ALTER TABLE "<table>" ADD COLUMN <column def>.
func AddColumn(table string, c schema.Column) (string, error) {
	if table == "" {
		return "", fmt.Errorf("table name is required")
	}
	def, err := ColumnDef(c, true)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", QuoteIdentifier(table), def), nil
}

// CopyRows returns: INSERT INTO "<dst>" ("a", "b") SELECT "a", "b" FROM "<src>".
// The column list is used in the order given.
func CopyRows(dst, src string, columns []string) (string, error) {
	if dst == "" || src == "" {
		return "", fmt.Errorf("source and destination tables are required")
	}
	if len(columns) == 0 {
		return "", fmt.Errorf("at least one column is required")
	}

	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = QuoteIdentifier(c)
	}
	list := strings.Join(quoted, ", ")

	return fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s",
		QuoteIdentifier(dst), list, list, QuoteIdentifier(src)), nil
}

// DropTable returns: DROP TABLE "<name>".
func DropTable(name string) string {
	return "DROP TABLE " + QuoteIdentifier(name)
}

// RenameTable returns: ALTER TABLE "<old>" RENAME TO "<new>".
func RenameTable(oldName, newName string) string {
	return fmt.Sprintf("ALTER TABLE %s RENAME TO %s", QuoteIdentifier(oldName), QuoteIdentifier(newName))
}

// TableInfo returns the PRAGMA that lists a table's columns. SQLite and
// DuckDB both answer it with cid, name, type, notnull, dflt_value, pk.
func TableInfo(name string) string {
	return fmt.Sprintf("PRAGMA table_info(%s)", QuoteLiteral(name))
}

// HasRows returns a query yielding 1 when the table holds at least one row.
func HasRows(name string) string {
	return fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s)", QuoteIdentifier(name))
}

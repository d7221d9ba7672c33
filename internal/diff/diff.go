// Package diff compares a declared table against the columns that exist in
// the database and decides which migration brings the table up to date.
package diff

import (
	"github.com/kyleking/schemasync/internal/schema"
)

// Action is the migration a table needs.
type Action int

const (
	// UpToDate means nothing to do.
	UpToDate Action = iota
	// AdditiveAlter means only new columns have to be added.
	AdditiveAlter
	// Rebuild means the table has to be recreated and its rows copied.
	Rebuild
)

// String returns the string representation of the action
func (a Action) String() string {
	switch a {
	case UpToDate:
		return "up_to_date"
	case AdditiveAlter:
		return "additive_alter"
	case Rebuild:
		return "rebuild"
	default:
		return "unknown"
	}
}

// Result is the difference between a declared and a live table.
type Result struct {
	ColumnsToAdd    []schema.Column
	RequiresRebuild bool
}

// Action maps the result onto a migration. A rebuild always wins over an
// additive alter.
func (r Result) Action() Action {
	switch {
	case r.RequiresRebuild:
		return Rebuild
	case len(r.ColumnsToAdd) > 0:
		return AdditiveAlter
	default:
		return UpToDate
	}
}

// Compare diffs the declared table against the live column list.
//
// Declared columns missing from the live table are collected in declared
// order. A shared column whose nullability, default presence or primary key
// flag differs stops the comparison and requires a rebuild. Live columns that
// were never matched by a declared one also require a rebuild, since an
// additive change cannot remove them. Column types are not compared.
func Compare(declared *schema.Table, live []schema.Column) Result {
	remaining := append([]schema.Column(nil), live...)

	var res Result

	for _, want := range declared.Columns() {
		idx := indexOf(remaining, want.Name)
		if idx < 0 {
			res.ColumnsToAdd = append(res.ColumnsToAdd, want)
			continue
		}

		if !want.SameShape(remaining[idx]) {
			res.RequiresRebuild = true
			return res
		}

		remaining = append(remaining[:idx], remaining[idx+1:]...)
	}

	if len(remaining) > 0 {
		res.RequiresRebuild = true
	}

	return res
}

// SharedColumns returns the declared columns that also exist in the live
// table, in declared order. These are the columns a rebuild copies.
func SharedColumns(declared *schema.Table, live []schema.Column) []schema.Column {
	var shared []schema.Column
	for _, c := range declared.Columns() {
		if indexOf(live, c.Name) >= 0 {
			shared = append(shared, c)
		}
	}

	return shared
}

// MissingColumns returns the declared columns absent from the live table,
// in declared order, regardless of any mismatch among shared columns.
func MissingColumns(declared *schema.Table, live []schema.Column) []schema.Column {
	var missing []schema.Column
	for _, c := range declared.Columns() {
		if indexOf(live, c.Name) < 0 {
			missing = append(missing, c)
		}
	}

	return missing
}

func indexOf(columns []schema.Column, name string) int {
	for i, c := range columns {
		if c.Name == name {
			return i
		}
	}

	return -1
}

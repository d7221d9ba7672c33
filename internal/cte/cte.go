// Package cte finalizes the column references of named subqueries before
// they are registered as table descriptors.
package cte

import (
	"fmt"
	"strings"

	"github.com/kyleking/schemasync/internal/errors"
	"github.com/kyleking/schemasync/internal/schema"
)

// Reconcile merges the author's explicit column references into the
// references inferred from the subquery. Resolution is positional: for each
// result column the explicit reference at that position wins, otherwise the
// inferred one is kept. The number of result columns is len(inferred).
func Reconcile(inferred, explicit []schema.ColumnRef) ([]schema.ColumnRef, error) {
	n := len(inferred)
	if len(explicit) > n {
		return nil, errors.Newf(errors.ErrTypeColumnCountMismatch,
			"%d explicit column references for a subquery with %d result columns", len(explicit), n)
	}

	final := make([]schema.ColumnRef, n)
	for i, ref := range inferred {
		ref.Position = i
		final[i] = ref
	}

	taken := make(map[int]bool, len(explicit))
	for _, ref := range explicit {
		if ref.Position < 0 || ref.Position >= n {
			return nil, errors.Newf(errors.ErrTypeColumnCountMismatch,
				"explicit column reference %q at position %d is outside [0, %d)", ref.Name, ref.Position, n)
		}

		if taken[ref.Position] {
			return nil, errors.Newf(errors.ErrTypeColumnCountMismatch,
				"more than one explicit column reference at position %d", ref.Position)
		}

		taken[ref.Position] = true
		final[ref.Position] = ref
	}

	return final, nil
}

// NewTable reconciles the references of a named subquery and builds its
// descriptor. The descriptor's columns follow the final references in order,
// named by columnNames; the references themselves are kept as reconciled.
// Extra options (for example schema.MappedTo) are applied after the label
// and references.
func NewTable(name string, label schema.Label, inferred, explicit []schema.ColumnRef, opts ...schema.TableOption) (*schema.Table, error) {
	if label == "" {
		return nil, errors.NewConfigError("subquery label is required", name+".label")
	}

	final, err := Reconcile(inferred, explicit)
	if err != nil {
		return nil, errors.Wrapf(err, errors.GetType(err), "subquery %q", name)
	}

	names := columnNames(final)

	columns := make([]schema.Column, len(final))
	for i := range final {
		columns[i] = schema.Column{Name: names[i]}
	}

	base := []schema.TableOption{
		schema.WithLabel(label),
		schema.WithColumnRefs(final),
		schema.WithColumns(columns...),
	}

	return schema.NewTable(name, append(base, opts...)...)
}

// columnNames gives every result column a distinct name. An unnamed
// reference becomes column<N> for its 1-based position, and a name already
// used at an earlier position gets a _<N> suffix, so the earlier column keeps
// the plain name.
func columnNames(final []schema.ColumnRef) []string {
	names := make([]string, len(final))
	taken := make(map[string]bool, len(final))

	for i, ref := range final {
		base := strings.TrimSpace(ref.Name)
		if base == "" {
			base = fmt.Sprintf("column%d", i+1)
		}

		name := base
		for n := i + 1; taken[name]; n++ {
			name = fmt.Sprintf("%s_%d", base, n)
		}

		taken[name] = true
		names[i] = name
	}

	return names
}

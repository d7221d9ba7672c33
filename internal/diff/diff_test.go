package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyleking/schemasync/internal/schema"
)

var (
	idCol       = schema.Column{Name: "id", Type: "INTEGER", PrimaryKey: true, NotNull: true}
	nameCol     = schema.Column{Name: "name", Type: "TEXT", NotNull: true}
	nullableCol = schema.Column{Name: "name", Type: "TEXT"}
	emailCol    = schema.Column{Name: "email", Type: "TEXT", DefaultValue: "''"}
)

func declare(t *testing.T, cols ...schema.Column) *schema.Table {
	t.Helper()

	table, err := schema.NewTable("users", schema.WithColumns(cols...))
	require.NoError(t, err)

	return table
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name            string
		declared        []schema.Column
		live            []schema.Column
		expectedAdd     []string
		expectedRebuild bool
		expectedAction  Action
	}{
		{
			name:           "identical",
			declared:       []schema.Column{idCol, nameCol},
			live:           []schema.Column{idCol, nameCol},
			expectedAction: UpToDate,
		},
		{
			name:           "live order does not matter",
			declared:       []schema.Column{idCol, nameCol},
			live:           []schema.Column{nameCol, idCol},
			expectedAction: UpToDate,
		},
		{
			name:           "new column is additive",
			declared:       []schema.Column{idCol, nameCol},
			live:           []schema.Column{idCol},
			expectedAdd:    []string{"name"},
			expectedAction: AdditiveAlter,
		},
		{
			name:           "new columns keep declared order",
			declared:       []schema.Column{idCol, emailCol, nameCol},
			live:           []schema.Column{idCol},
			expectedAdd:    []string{"email", "name"},
			expectedAction: AdditiveAlter,
		},
		{
			name:            "nullability change requires rebuild",
			declared:        []schema.Column{idCol, nameCol},
			live:            []schema.Column{idCol, nullableCol},
			expectedRebuild: true,
			expectedAction:  Rebuild,
		},
		{
			name:            "default presence change requires rebuild",
			declared:        []schema.Column{idCol, emailCol},
			live:            []schema.Column{idCol, {Name: "email", Type: "TEXT"}},
			expectedRebuild: true,
			expectedAction:  Rebuild,
		},
		{
			name:           "default value text is not compared",
			declared:       []schema.Column{idCol, emailCol},
			live:           []schema.Column{idCol, {Name: "email", Type: "TEXT", DefaultValue: "'none'"}},
			expectedAction: UpToDate,
		},
		{
			name:            "primary key change requires rebuild",
			declared:        []schema.Column{idCol},
			live:            []schema.Column{{Name: "id", Type: "INTEGER", NotNull: true}},
			expectedRebuild: true,
			expectedAction:  Rebuild,
		},
		{
			name:            "extra live column requires rebuild",
			declared:        []schema.Column{idCol},
			live:            []schema.Column{idCol, nameCol},
			expectedRebuild: true,
			expectedAction:  Rebuild,
		},
		{
			name:            "rebuild wins over additive",
			declared:        []schema.Column{idCol, emailCol},
			live:            []schema.Column{idCol, nameCol},
			expectedAdd:     []string{"email"},
			expectedRebuild: true,
			expectedAction:  Rebuild,
		},
		{
			name:           "type change alone is ignored",
			declared:       []schema.Column{idCol},
			live:           []schema.Column{{Name: "id", Type: "BIGINT", PrimaryKey: true, NotNull: true}},
			expectedAction: UpToDate,
		},
		{
			name:           "missing live table adds everything",
			declared:       []schema.Column{idCol, nameCol},
			live:           nil,
			expectedAdd:    []string{"id", "name"},
			expectedAction: AdditiveAlter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Compare(declare(t, tt.declared...), tt.live)

			var added []string
			for _, c := range res.ColumnsToAdd {
				added = append(added, c.Name)
			}

			assert.Equal(t, tt.expectedAdd, added)
			assert.Equal(t, tt.expectedRebuild, res.RequiresRebuild)
			assert.Equal(t, tt.expectedAction, res.Action())
		})
	}
}

func TestCompareShortCircuitsOnMismatch(t *testing.T) {
	declared := declare(t, idCol, nameCol, emailCol)
	live := []schema.Column{{Name: "id", Type: "INTEGER"}}

	res := Compare(declared, live)
	assert.True(t, res.RequiresRebuild)
	assert.Empty(t, res.ColumnsToAdd, "columns after the first mismatch are not examined")
}

func TestCompareDoesNotMutateLive(t *testing.T) {
	live := []schema.Column{idCol, nameCol}

	Compare(declare(t, idCol, nameCol), live)
	assert.Equal(t, []schema.Column{idCol, nameCol}, live)
}

func TestSharedAndMissingColumns(t *testing.T) {
	declared := declare(t, idCol, emailCol, nameCol)
	live := []schema.Column{nullableCol, {Name: "legacy"}, idCol}

	var shared, missing []string
	for _, c := range SharedColumns(declared, live) {
		shared = append(shared, c.Name)
	}

	for _, c := range MissingColumns(declared, live) {
		missing = append(missing, c.Name)
	}

	assert.Equal(t, []string{"id", "name"}, shared)
	assert.Equal(t, []string{"email"}, missing)
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "up_to_date", UpToDate.String())
	assert.Equal(t, "additive_alter", AdditiveAlter.String())
	assert.Equal(t, "rebuild", Rebuild.String())
	assert.Equal(t, "unknown", Action(42).String())
}

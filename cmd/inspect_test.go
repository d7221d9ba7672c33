package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyleking/schemasync/internal/errors"
	"github.com/kyleking/schemasync/internal/schema"
	"github.com/kyleking/schemasync/internal/storage"
)

func TestRunInspectWithStorage(t *testing.T) {
	ctx := context.Background()
	store := storage.NewTestStore(t)
	storage.SeedRows(t, store,
		`CREATE TABLE users (id INTEGER PRIMARY KEY NOT NULL, email TEXT DEFAULT 'none', note)`,
		`INSERT INTO users (id) VALUES (1)`,
	)

	var buf bytes.Buffer
	require.NoError(t, RunInspectWithStorage(ctx, &buf, store, "users", false))

	output := buf.String()
	assert.Contains(t, output, "Table: users")
	assert.Contains(t, output, "Has Rows: true")
	assert.Regexp(t, `id\s+INTEGER\s+true\s+true\s+N/A`, output)
	assert.Regexp(t, `email\s+TEXT\s+false\s+false\s+'none'`, output)
	assert.Regexp(t, `note\s+N/A\s+false\s+false\s+N/A`, output)
}

func TestRunInspectWithStorageJSON(t *testing.T) {
	mock := &MockRepository{tables: map[string]*storage.TableInfo{
		"users": {
			Name:    "users",
			Exists:  true,
			Columns: []schema.Column{{Name: "id", Type: "INTEGER", PrimaryKey: true}},
		},
	}}

	var buf bytes.Buffer
	require.NoError(t, RunInspectWithStorage(context.Background(), &buf, mock, "users", true))

	var info storage.TableInfo
	require.NoError(t, json.Unmarshal(buf.Bytes(), &info))
	assert.Equal(t, *mock.tables["users"], info)
}

func TestRunInspectWithStorageMissingTable(t *testing.T) {
	err := RunInspectWithStorage(context.Background(), &bytes.Buffer{}, &MockRepository{}, "missing", false)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeValidation))
	assert.Contains(t, err.Error(), `"missing" does not exist`)
}

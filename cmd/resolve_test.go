package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyleking/schemasync/internal/declare"
	"github.com/kyleking/schemasync/internal/errors"
	"github.com/kyleking/schemasync/internal/registry"
	"github.com/kyleking/schemasync/internal/schema"
)

func TestParseKey(t *testing.T) {
	tests := []struct {
		key     string
		want    registry.Key
		wantErr bool
	}{
		{key: "type:app.User", want: registry.TypeKey(schema.TypeID("app.User"))},
		{key: "label:active", want: registry.LabelKey(schema.Label("active"))},
		{key: "users", wantErr: true},
		{key: "type:", wantErr: true},
		{key: "table:users", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := parseKey(tt.key)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsType(err, errors.ErrTypeValidation))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRunResolve(t *testing.T) {
	reg, err := declare.LoadRegistry(writeSchema(t, testSchema))
	require.NoError(t, err)

	tests := []struct {
		name     string
		key      string
		errType  errors.ErrorType
		contains []string
	}{
		{
			name: "record type",
			key:  "type:app.User",
			contains: []string{
				"Table: users",
				"Record: app.User",
				"Label: N/A",
				"Columns: id, email",
				"Primary Key: id",
			},
		},
		{
			name: "subquery label",
			key:  "label:active",
			contains: []string{
				"Table: active_users",
				"Label: active",
				"  0: id",
				"  1: email_lower",
			},
		},
		{
			name:    "unmapped type",
			key:     "type:app.Order",
			errType: errors.ErrTypeNotMapped,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			err := RunResolve(&buf, reg, tt.key)
			if tt.errType != "" {
				require.Error(t, err)
				assert.True(t, errors.IsType(err, tt.errType))

				return
			}

			require.NoError(t, err)

			for _, expected := range tt.contains {
				assert.Contains(t, buf.String(), expected)
			}
		})
	}
}

package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyleking/schemasync/internal/config"
	"github.com/kyleking/schemasync/internal/errors"
)

func TestRunConfig(t *testing.T) {
	tests := []struct {
		name     string
		cfg      *config.Config
		wantErr  bool
		contains []string
	}{
		{
			name: "basic configuration display",
			cfg: &config.Config{
				Database: config.DatabaseConfig{
					Driver:       "sqlite",
					Path:         "~/.local/share/schemasync/schemasync.db",
					QueryTimeout: "30s",
				},
				Schema: config.SchemaConfig{File: "schema.yaml"},
				Logging: config.LoggingConfig{
					Level:  "info",
					Format: "text",
					Output: "stderr",
				},
			},
			contains: []string{
				"Active Configuration:",
				"Driver: sqlite",
				"Path: ~/.local/share/schemasync/schemasync.db",
				"Query Timeout: 30s",
				"File: schema.yaml",
				"Dry Run: false",
				"Level: info",
				"Output: stderr",
			},
		},
		{
			name: "file logging",
			cfg: &config.Config{
				Database: config.DatabaseConfig{Driver: "duckdb", Path: "/tmp/test.duckdb"},
				Sync:     config.SyncConfig{DryRun: true, SkipJournal: true},
				Logging: config.LoggingConfig{
					Level:  "debug",
					Format: "json",
					Output: "file",
					File:   "/tmp/schemasync.log",
				},
			},
			contains: []string{
				"Driver: duckdb",
				"Dry Run: true",
				"Skip Journal: true",
				"File: /tmp/schemasync.log",
			},
		},
		{
			name:    "nil configuration error",
			cfg:     nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			err := RunConfigWithConfig(&buf, tt.cfg, false)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsConfiguration(err))

				return
			}

			require.NoError(t, err)

			for _, expected := range tt.contains {
				assert.Contains(t, buf.String(), expected)
			}
		})
	}
}

func TestRunConfigJSON(t *testing.T) {
	cfg := config.DefaultConfig()

	var buf bytes.Buffer
	require.NoError(t, RunConfigWithConfig(&buf, cfg, true))

	var decoded config.Config
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, *cfg, decoded)
}

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/kyleking/schemasync/internal/config"
	"github.com/kyleking/schemasync/internal/errors"
)

func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:        "config",
		Usage:       "Display the active configuration",
		Description: `Show the current active configuration including all settings from file, environment variables, and command-line flags.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "print the raw configuration as JSON",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			return RunConfigWithConfig(output(cmd), cfg, cmd.Bool("json"))
		},
	}
}

// RunConfigWithConfig prints cfg in a readable form, or as JSON
func RunConfigWithConfig(w io.Writer, cfg *config.Config, asJSON bool) error {
	if cfg == nil {
		return errors.NewConfigError("failed to load configuration", "")
	}

	if asJSON {
		jsonData, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config to JSON: %w", err)
		}

		fmt.Fprintln(w, string(jsonData))

		return nil
	}

	fmt.Fprintln(w, "====================")
	fmt.Fprintln(w, "Active Configuration:")

	fmt.Fprintln(w, "\nDatabase:")
	fmt.Fprintf(w, "  Driver: %s\n", cfg.Database.Driver)
	fmt.Fprintf(w, "  Path: %s\n", cfg.Database.Path)
	fmt.Fprintf(w, "  Max Connections: %d\n", cfg.Database.MaxConnections)
	fmt.Fprintf(w, "  Busy Timeout: %s\n", cfg.Database.BusyTimeout)
	fmt.Fprintf(w, "  Query Timeout: %s\n", cfg.Database.QueryTimeout)

	fmt.Fprintln(w, "\nSchema:")
	fmt.Fprintf(w, "  File: %s\n", cfg.Schema.File)

	fmt.Fprintln(w, "\nSync:")
	fmt.Fprintf(w, "  Dry Run: %t\n", cfg.Sync.DryRun)
	fmt.Fprintf(w, "  Skip Journal: %t\n", cfg.Sync.SkipJournal)

	fmt.Fprintln(w, "\nLogging:")
	fmt.Fprintf(w, "  Level: %s\n", cfg.Logging.Level)
	fmt.Fprintf(w, "  Format: %s\n", cfg.Logging.Format)
	fmt.Fprintf(w, "  Output: %s\n", cfg.Logging.Output)

	if cfg.Logging.Output == "file" {
		fmt.Fprintf(w, "  File: %s\n", cfg.Logging.File)
	}

	return nil
}

package cmd

import (
	"context"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/kyleking/schemasync/internal/config"
)

var (
	version = "dev"
	commit  = "none"
)

// NewApp builds the root command. Flags given here override the config file
// and environment for every subcommand.
func NewApp() *cli.Command {
	return &cli.Command{
		Name:  "schemasync",
		Usage: "Keep a database schema in step with declared tables",
		Description: `schemasync reads table declarations from a YAML file and brings a SQLite or
DuckDB database in line with them. Missing tables are created, new columns are
added in place, and any other change rebuilds the table while keeping its rows.`,
		Version: version + " (" + commit + ")",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to the JSON config file",
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "database path",
			},
			&cli.StringFlag{
				Name:  "driver",
				Usage: "database driver: sqlite or duckdb",
			},
			&cli.StringFlag{
				Name:  "schema",
				Usage: "declaration file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
			},
		},
		Commands: []*cli.Command{
			SyncCommand(),
			PlanCommand(),
			InspectCommand(),
			ResolveCommand(),
			HistoryCommand(),
			StatusCommand(),
			ConfigCommand(),
		},
	}
}

// Execute runs the CLI with the process arguments
func Execute() error {
	return NewApp().Run(context.Background(), os.Args)
}

// loadConfig resolves the effective configuration for cmd
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	overrides := make(map[string]any)

	for _, name := range []string{"db", "driver", "schema", "log-level"} {
		if cmd.IsSet(name) {
			overrides[name] = cmd.String(name)
		}
	}

	for _, name := range []string{"dry-run", "skip-journal"} {
		if cmd.IsSet(name) {
			overrides[name] = cmd.Bool(name)
		}
	}

	path := cmd.String("config")
	if path == "" {
		path = config.GetConfigPath()
	}

	cfg, err := config.LoadConfigFile(path, overrides)
	if err != nil {
		return nil, err
	}

	cfg.ExpandAllPaths()

	return cfg, nil
}

// output is where command results are printed
func output(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}

	return os.Stdout
}

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/kyleking/schemasync/internal/storage"
)

func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:        "status",
		Usage:       "Display database and journal status",
		Description: `Show the driver in use, the journal schema version and the user tables present in the database.`,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			return withStorage(ctx, cfg, func(repo storage.Repository) error {
				fmt.Fprintf(output(cmd), "Database: %s\n", cfg.Database.Path)
				return RunStatusWithStorage(ctx, output(cmd), repo)
			})
		},
	}
}

// RunStatusWithStorage prints the driver, journal migrations and user tables
func RunStatusWithStorage(ctx context.Context, w io.Writer, repo storage.Repository) error {
	info := repo.Info()
	fmt.Fprintf(w, "Driver: %s (%s, %s)\n", info.Dialect, info.DriverName, info.DriverType)

	migrations, err := repo.MigrationStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}

	fmt.Fprintln(w, "\nJournal Migrations:")

	for _, m := range migrations {
		mark := " "
		if m.Applied {
			mark = "x"
		}

		fmt.Fprintf(w, "  [%s] %d %s\n", mark, m.Version, m.Description)
	}

	tables, err := repo.ListTables(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "\nTables (%d):\n", len(tables))

	for _, table := range tables {
		fmt.Fprintf(w, "  %s\n", table)
	}

	return nil
}

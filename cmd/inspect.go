package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/kyleking/schemasync/internal/errors"
	"github.com/kyleking/schemasync/internal/formatter"
	"github.com/kyleking/schemasync/internal/storage"
)

func InspectCommand() *cli.Command {
	return &cli.Command{
		Name:        "inspect",
		Usage:       "Show the live columns of a table",
		Description: `Introspect a table in the database and print its columns as the synchronizer sees them.`,
		ArgsUsage:   " <table>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "print the table as JSON",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args := cmd.Args()
			if args.Len() != 1 {
				return fmt.Errorf("expected exactly 1 argument, got %d", args.Len())
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			return withStorage(ctx, cfg, func(repo storage.Repository) error {
				return RunInspectWithStorage(ctx, output(cmd), repo, args.First(), cmd.Bool("json"))
			})
		},
	}
}

// RunInspectWithStorage prints the live shape of one table
func RunInspectWithStorage(ctx context.Context, w io.Writer, repo storage.Repository, table string, asJSON bool) error {
	info, err := repo.Inspect(ctx, table)
	if err != nil {
		return err
	}

	if !info.Exists {
		return errors.Newf(errors.ErrTypeValidation, "table %q does not exist", table).
			WithSuggestion("Run 'schemasync status' to list the tables in the database")
	}

	if asJSON {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal table to JSON: %w", err)
		}

		fmt.Fprintln(w, string(data))

		return nil
	}

	fmt.Fprintln(w, formatter.NewFormatter().FormatTable(info))

	return nil
}

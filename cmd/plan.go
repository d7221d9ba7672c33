package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/kyleking/schemasync/internal/declare"
	"github.com/kyleking/schemasync/internal/formatter"
	"github.com/kyleking/schemasync/internal/storage"
)

func PlanCommand() *cli.Command {
	return &cli.Command{
		Name:        "plan",
		Usage:       "Print the statements a sync would run",
		Description: `Diff every declared table against the database and print the planned statements without applying them.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "print the plan as JSON",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			return withStorage(ctx, cfg, func(repo storage.Repository) error {
				return RunPlanWithStorage(ctx, output(cmd), repo, cfg.Schema.File, cmd.Bool("json"))
			})
		},
	}
}

// RunPlanWithStorage prints the statements each declared table needs
func RunPlanWithStorage(ctx context.Context, w io.Writer, repo storage.Repository, schemaFile string, asJSON bool) error {
	reg, err := declare.LoadRegistry(schemaFile)
	if err != nil {
		return err
	}

	report, planErr := repo.Sync(ctx, reg, storage.SyncOptions{DryRun: true, SkipJournal: true})
	if report == nil {
		return planErr
	}

	if asJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal plan to JSON: %w", err)
		}

		fmt.Fprintln(w, string(data))

		return planErr
	}

	fmt.Fprintln(w, formatter.NewFormatter().FormatPlan(report))

	return planErr
}

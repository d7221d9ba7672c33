package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/urfave/cli/v3"

	"github.com/kyleking/schemasync/internal/declare"
	"github.com/kyleking/schemasync/internal/formatter"
	"github.com/kyleking/schemasync/internal/storage"
)

func SyncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Bring the database in line with the declarations",
		Description: `Create, alter or rebuild every declared table. Each table is migrated in its
own transaction; a failing table is rolled back and the others still run.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "plan every table and roll back",
			},
			&cli.BoolFlag{
				Name:  "skip-journal",
				Usage: "do not record the run in the journal",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			return withStorage(ctx, cfg, func(repo storage.Repository) error {
				return RunSyncWithStorage(ctx, output(cmd), repo, cfg.Schema.File, storage.SyncOptions{
					DryRun:      cfg.Sync.DryRun,
					SkipJournal: cfg.Sync.SkipJournal,
				})
			})
		},
	}
}

// RunSyncWithStorage synchronizes the tables declared in schemaFile and
// prints one line per table
func RunSyncWithStorage(ctx context.Context, w io.Writer, repo storage.Repository, schemaFile string, opts storage.SyncOptions) error {
	reg, err := declare.LoadRegistry(schemaFile)
	if err != nil {
		return err
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = fmt.Sprintf(" Synchronizing %d tables...", len(reg.PhysicalTables()))
	s.Start()

	report, syncErr := repo.Sync(ctx, reg, opts)

	s.Stop()

	if report == nil {
		return syncErr
	}

	fmt.Fprintln(w, formatter.NewFormatter().FormatReport(report))

	return syncErr
}

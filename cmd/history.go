package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/kyleking/schemasync/internal/formatter"
	"github.com/kyleking/schemasync/internal/storage"
)

const defaultHistoryLimit = 20

func HistoryCommand() *cli.Command {
	return &cli.Command{
		Name:        "history",
		Usage:       "List recent table migrations",
		Description: `Show the sync journal, newest first. Up-to-date tables are not recorded.`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "number of entries to show, 0 for all",
				Value: defaultHistoryLimit,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			limit := int(cmd.Int("limit"))

			return withStorage(ctx, cfg, func(repo storage.Repository) error {
				return RunHistoryWithStorage(ctx, output(cmd), repo, limit)
			})
		},
	}
}

// RunHistoryWithStorage prints the most recent journal entries
func RunHistoryWithStorage(ctx context.Context, w io.Writer, repo storage.Repository, limit int) error {
	entries, err := repo.History(ctx, limit)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, formatter.NewFormatter().FormatHistory(entries))

	return nil
}

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/kyleking/schemasync/internal/declare"
	"github.com/kyleking/schemasync/internal/errors"
	"github.com/kyleking/schemasync/internal/formatter"
	"github.com/kyleking/schemasync/internal/registry"
	"github.com/kyleking/schemasync/internal/schema"
)

func ResolveCommand() *cli.Command {
	return &cli.Command{
		Name:  "resolve",
		Usage: "Look up the table mapped to a record type or label",
		Description: `Resolve a key against the declarations. Keys are written type:<record> or
label:<label>. The database is not opened.`,
		ArgsUsage: " <key>",
		Action: func(_ context.Context, cmd *cli.Command) error {
			args := cmd.Args()
			if args.Len() != 1 {
				return fmt.Errorf("expected exactly 1 argument, got %d", args.Len())
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			reg, err := declare.LoadRegistry(cfg.Schema.File)
			if err != nil {
				return err
			}

			return RunResolve(output(cmd), reg, args.First())
		},
	}
}

// RunResolve prints the descriptor key resolves to
func RunResolve(w io.Writer, reg *registry.Registry, key string) error {
	k, err := parseKey(key)
	if err != nil {
		return err
	}

	table, err := reg.Resolve(k)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Table: %s\n", table.Name())
	fmt.Fprintf(w, "Record: %s\n", formatter.OrNA(string(table.RecordType())))
	fmt.Fprintf(w, "Label: %s\n", formatter.OrNA(string(table.Label())))

	if table.IsSubquery() {
		fmt.Fprintln(w, "Columns:")

		for _, ref := range table.ColumnRefs() {
			fmt.Fprintf(w, "  %d: %s", ref.Position, formatter.OrNA(ref.Name))

			if ref.Expr != "" {
				fmt.Fprintf(w, " (%s)", ref.Expr)
			}

			fmt.Fprintln(w)
		}

		return nil
	}

	fmt.Fprintf(w, "Columns: %s\n", strings.Join(table.ColumnNames(), ", "))

	if pk := table.PrimaryKey(); len(pk) > 0 {
		fmt.Fprintf(w, "Primary Key: %s\n", strings.Join(pk, ", "))
	}

	return nil
}

func parseKey(key string) (registry.Key, error) {
	kind, value, ok := strings.Cut(key, ":")
	if ok && value != "" {
		switch kind {
		case "type":
			return registry.TypeKey(schema.TypeID(value)), nil
		case "label":
			return registry.LabelKey(schema.Label(value)), nil
		}
	}

	return nil, errors.Newf(errors.ErrTypeValidation, "invalid key %q", key).
		WithSuggestion("Write keys as type:<record> or label:<label>")
}

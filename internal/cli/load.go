package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"tamriel-catalog/internal/loader"
	"tamriel-catalog/internal/store"
	"tamriel-catalog/internal/textutil"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func (a *app) loadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load <profile> <json_file> <db>",
		Short: "Load a JSON catalog into a table, replacing rows by key",
		Long: `Loads a JSON array of objects (or an object keyed by name) into the
profile's table. Rows whose key matches an incoming key are replaced; a new
table is created together with its index. <db> is a SQLite file path or a
postgres:// URL.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			profile, err := loader.Lookup(args[0])
			if err != nil {
				return err
			}

			db, err := a.openDB(ctx, args[2])
			if err != nil {
				return err
			}
			defer db.Close()

			_, err = loader.Load(ctx, db, profile, args[1])
			return err
		},
	}
}

func (a *app) loadDirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load-dir <json_dir> <db>",
		Short: "Load every enchant JSON file found in a directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			db, err := a.openDB(ctx, args[1])
			if err != nil {
				return err
			}
			defer db.Close()

			loaded, missing, err := loader.LoadDir(ctx, db, args[0])
			if err != nil {
				return err
			}
			if len(loaded) == 0 {
				return fmt.Errorf("no enchant JSON files in %s", args[0])
			}

			log.Info().Int("tables", len(loaded)).Strs("missing", missing).Msg("Directory load complete")
			return nil
		},
	}
}

func (a *app) historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <db>",
		Short: "Show recent loads recorded in the journal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			if !cmd.Flags().Changed("limit") {
				limit = a.cfg.JournalLimit
			}

			db, err := a.openDB(ctx, args[0])
			if err != nil {
				return err
			}
			defer db.Close()

			runs, err := db.ListRuns(ctx, limit)
			if err != nil {
				return err
			}
			return printRuns(cmd.OutOrStdout(), runs)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Number of runs to show, 0 for all (default JOURNAL_LIMIT)")

	return cmd
}

func (a *app) openDB(ctx context.Context, dsn string) (*store.DB, error) {
	return store.Open(ctx, dsn, store.WithBatchSize(a.cfg.InsertBatchSize))
}

func printRuns(out io.Writer, runs []store.LoadRun) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LOADED AT\tTABLE\tDELETED\tINSERTED\tCREATED\tSOURCE")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%t\t%s\n",
			r.LoadedAt, r.Table, r.RowsDeleted, r.RowsInserted, r.CreatedTable, textutil.Truncate(r.Source, 60))
	}
	return w.Flush()
}

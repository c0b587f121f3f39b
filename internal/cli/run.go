package cli

import (
	"context"
	"fmt"

	"tamriel-catalog/internal/config"
	"tamriel-catalog/internal/loader"
	"tamriel-catalog/internal/parser"
	"tamriel-catalog/internal/store"
	"tamriel-catalog/internal/worker"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func (a *app) runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <manifest>",
		Short: "Run the parse and load jobs of a YAML manifest",
		Long: `Runs a batch manifest. Custom variants are registered first, then
parse jobs run concurrently (WORKER_COUNT) and, when all succeed, loads run
one after another.

  variants: []            # optional, same fields as the built-ins
  jobs:
    - variant: skyrim-alchemy
      input: skyrim.txt
      output: skyrim_ingredients.json
      effects_output: skyrim_effects.json
  loads:
    - profile: skyrim_alchemy_ingredients
      input: skyrim_ingredients.json
      db: data/alchemy.db`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			m, err := config.LoadManifest(args[0])
			if err != nil {
				return err
			}
			return a.runManifest(ctx, m)
		},
	}
}

func (a *app) runManifest(ctx context.Context, m *config.Manifest) error {
	reg := parser.NewRegistry()
	for _, v := range m.Variants {
		if err := reg.Register(v); err != nil {
			return fmt.Errorf("register variant: %w", err)
		}
	}

	pool := worker.NewPool[config.ParseJob, *parser.ParseResult](a.cfg.WorkerCount,
		func(ctx context.Context, job config.ParseJob) (*parser.ParseResult, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return parseToFiles(reg, job.Variant, job.Input, []string{job.Output, job.EffectsOutput})
		},
	)

	jobs := pool.Execute(ctx, m.Jobs)
	if err := worker.Errors(jobs); err != nil {
		return fmt.Errorf("parse jobs: %w", err)
	}

	records := 0
	for _, j := range jobs {
		records += len(j.Result.Records)
	}
	log.Info().Int("jobs", len(jobs)).Int("records", records).Msg("Parse jobs complete")

	dbs := make(map[string]*store.DB)
	defer func() {
		for _, db := range dbs {
			db.Close()
		}
	}()

	for i, l := range m.Loads {
		profile, err := loader.Lookup(l.Profile)
		if err != nil {
			return fmt.Errorf("load %d: %w", i+1, err)
		}

		db, ok := dbs[l.DB]
		if !ok {
			db, err = a.openDB(ctx, l.DB)
			if err != nil {
				return fmt.Errorf("load %d: %w", i+1, err)
			}
			dbs[l.DB] = db
		}

		if _, err := loader.Load(ctx, db, profile, l.Input); err != nil {
			return fmt.Errorf("load %d: %w", i+1, err)
		}
	}

	log.Info().Int("loads", len(m.Loads)).Msg("Manifest complete")
	return nil
}

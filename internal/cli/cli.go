package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"tamriel-catalog/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// ErrNoRecords is returned when a parse produced nothing to write.
var ErrNoRecords = errors.New("no records parsed")

// app carries the state shared by all commands.
type app struct {
	cfg     *config.Config
	verbose bool
}

// Execute runs the CLI application.
func Execute() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "tamriel",
		Short: "Elder Scrolls wiki tables to JSON and SQL",
		Long: `Converts line-oriented wiki table dumps of Morrowind, Oblivion and Skyrim
ingredients into JSON catalogs, and loads JSON catalogs into SQLite or
PostgreSQL tables with replace-by-key semantics.`,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			return configureLogger(cfg, a.verbose)
		},
	}
	if usage, err := config.Usage(); err == nil {
		rootCmd.Long += "\n\n" + usage
	}

	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Trace every parsed record (debug logging)")

	rootCmd.AddCommand(a.parseCmd())
	rootCmd.AddCommand(a.variantsCmd())
	rootCmd.AddCommand(a.convertCSVCmd())
	rootCmd.AddCommand(a.loadCmd())
	rootCmd.AddCommand(a.loadDirCmd())
	rootCmd.AddCommand(a.historyCmd())
	rootCmd.AddCommand(a.runCmd())

	return rootCmd
}

// configureLogger applies LOG_LEVEL, LOG_FORMAT and --verbose to the global logger.
func configureLogger(cfg *config.Config, verbose bool) error {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		return fmt.Errorf("parse LOG_LEVEL: %w", err)
	}
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	switch strings.ToLower(cfg.LogFormat) {
	case "json":
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	case "", "console":
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	default:
		return fmt.Errorf("unknown LOG_FORMAT %q", cfg.LogFormat)
	}
	return nil
}

// setupContext creates a cancellable context with signal handling.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			log.Warn().Msg("Received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// Package cmd provides the CLI commands for railcat.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/railcat/internal/config"
	railerr "github.com/Aman-CERP/railcat/internal/errors"
	"github.com/Aman-CERP/railcat/internal/logging"
	"github.com/Aman-CERP/railcat/internal/query"
	"github.com/Aman-CERP/railcat/internal/state"
	"github.com/Aman-CERP/railcat/pkg/version"
)

// Persistent flags
var (
	configDir  string
	corpusPath string
	debugMode  bool

	loggingCleanup func()
)

// NewRootCmd creates the root command for the railcat CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "railcat",
		Short: "Catalogue and search a historical railway corpus",
		Long: `railcat reads a corpus of YAML documents about railway lines,
organizations, points and sources, and builds a catalogue of them:
name search, countries and their lines, organization property,
point connections and bibliographic references.

The catalogue can be queried from the command line, exported to
SQLite, or served to AI assistants over MCP.`,
		Version:       version.Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("railcat version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Directory holding .railcat.yaml (default: project root)")
	cmd.PersistentFlags().StringVar(&corpusPath, "corpus", "", "Corpus directory (overrides corpus.path)")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.railcat/logs/")

	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newCountriesCmd())
	cmd.AddCommand(newLinesCmd())
	cmd.AddCommand(newPointCmd())
	cmd.AddCommand(newSourcesCmd())
	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command and prints errors the way users read them.
func Execute() error {
	cmd := NewRootCmd()
	err := cmd.Execute()
	if err != nil {
		fmt.Fprint(os.Stderr, railerr.FormatForCLI(err))
	}
	return err
}

// startLogging installs the default logger. Commands log warnings to
// stderr; --debug writes everything to the log file instead.
func startLogging(cmd *cobra.Command, _ []string) error {
	cfg := logging.Config{Level: "warn"}
	if debugMode {
		cfg = logging.DebugConfig()
		cfg.WriteToStderr = false
	}
	logger, cleanup, err := logging.Setup(cfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)

	if debugMode {
		slog.Debug("debug_logging_enabled",
			slog.String("log_file", cfg.FilePath),
			slog.String("command", cmd.CommandPath()),
			slog.String("version", version.Short()))
	}
	return nil
}

func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// loadConfig loads the configuration for --config-dir, or the project root
// of the working directory, and applies --corpus.
func loadConfig() (*config.Config, error) {
	dir := configDir
	if dir == "" {
		root, err := config.FindProjectRoot(".")
		if err != nil {
			return nil, err
		}
		dir = root
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	if corpusPath != "" {
		abs, err := filepath.Abs(corpusPath)
		if err != nil {
			return nil, railerr.ConfigError("failed to resolve corpus path", err)
		}
		cfg.Corpus.Path = abs
	}
	return cfg, nil
}

// buildSnapshot loads the corpus and builds one catalogue snapshot.
func buildSnapshot(ctx context.Context, cfg *config.Config, progress state.Progress) (*state.Snapshot, error) {
	opts := state.OptionsFromConfig(cfg)
	opts.Progress = progress
	return state.Build(ctx, opts)
}

// withQuerier builds a snapshot and runs fn with a Querier in lang.
func withQuerier(ctx context.Context, lang string, fn func(q *query.Querier) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	snap, err := buildSnapshot(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer func() { _ = snap.Search.Close() }()

	q, err := query.New(snap, lang)
	if err != nil {
		return err
	}
	return fn(q)
}

// checkFormat validates a --format value.
func checkFormat(format string) error {
	switch strings.ToLower(format) {
	case "text", "json":
		return nil
	default:
		return railerr.ValidationError(fmt.Sprintf("unknown format %q", format), nil).
			WithSuggestion("Use --format text or --format json")
	}
}

func isJSON(format string) bool {
	return strings.EqualFold(format, "json")
}

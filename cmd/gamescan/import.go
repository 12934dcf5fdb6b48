package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ludokit/gamescan/internal/config"
	"github.com/ludokit/gamescan/internal/database"
	"github.com/ludokit/gamescan/internal/importer"
	"github.com/ludokit/gamescan/internal/log"
	"github.com/ludokit/gamescan/internal/model"
	"github.com/ludokit/gamescan/internal/report"
	"github.com/ludokit/gamescan/internal/source"
	"github.com/ludokit/gamescan/internal/stage"
	"github.com/ludokit/gamescan/internal/store"
)

// progressResolution is the unit count the terminal progress bar maps
// the 0..1 aggregate fraction onto.
const progressResolution = 1000

// NewImportCmd creates the import command.
func NewImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Scan sources and import installed games into the library",
		Long: `Import scans the configured sources for installed games and imports
them into the local library.

Each source is scanned concurrently. Every discovered game flows
through a staged pipeline: metadata normalization, cover-art fetching,
and a library database update. Duplicates across sources are imported
once, and games you previously removed from the library stay removed.

Examples:
  # Import using the default sources (Steam + desktop entries)
  gamescan import

  # Use a custom configuration file
  gamescan import -c myconfig.yaml

  # Write a JSON summary to a file
  gamescan import --json -o summary.json

  # Scan sources one at a time
  gamescan import --concurrency 1`,
		RunE: runImportCmd,
	}

	// Scan behavior flags
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Maximum number of sources scanned simultaneously (0 = one worker per source)")
	cmd.Flags().DurationP("artwork-timeout", "t", config.DefaultArtworkTimeout,
		"Timeout for a single cover-art download")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .gamescan in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON summary (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown summary (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write summary to specified file path (creates directories if needed)")
	cmd.Flags().Bool("no-progress", false,
		"Disable the terminal progress bar")

	return cmd
}

// runImportCmd executes the import command.
func runImportCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runImport(ctx, cfg, logger)
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.Verbose = getVerboseFlag(cmd)

	cfg.Concurrency, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, err
	}

	cfg.ArtworkTimeout, err = cmd.Flags().GetDuration("artwork-timeout")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load source configurations from the config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, fall back to the default source set.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	switch {
	case configPath != "":
		cfg.Sources, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case explicitConfigPath:
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	default:
		cfg.Sources = config.DefaultFile()
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.NoProgress, err = cmd.Flags().GetBool("no-progress")
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// runImport wires the database, store, sources, and stages together and
// executes the import run.
func runImport(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	logger.Debug("database opened", "path", db.Path())

	runID := uuid.NewString()

	stages := []stage.Stage{
		stage.NewMetadataStage(stage.WithMetadataLogger(logger)),
		stage.NewArtworkStage(cfg.CoverDir,
			stage.WithArtworkTimeout(cfg.ArtworkTimeout),
			stage.WithArtworkMaxSize(cfg.MaxCoverSize),
			stage.WithArtworkLogger(logger),
		),
		stage.NewSaveStage(db, runID, stage.WithSaveLogger(logger)),
	}

	st := store.New(
		store.WithDatabase(db),
		store.WithStages(stages),
		store.WithExcludePatterns(cfg.Sources.Excludes),
		store.WithRunID(runID),
		store.WithLogger(logger),
	)

	opts := []importer.Option{
		importer.WithRunID(runID),
		importer.WithConcurrency(cfg.Concurrency),
		importer.WithLogger(logger),
	}

	var bar *progressbar.ProgressBar
	if !cfg.NoProgress {
		bar = newImportBar()
		opts = append(opts, importer.WithProgressFunc(func(p importer.Progress) {
			_ = bar.Set(int(p.Fraction * progressResolution))
		}))
		opts = append(opts, importer.WithFinishedFunc(func() {
			_ = bar.Finish()
		}))
	}

	imp := importer.New(st, opts...)
	for _, src := range buildSources(cfg, logger) {
		imp.AddSource(src)
	}

	summary, err := imp.Run(ctx)
	if bar != nil {
		_ = bar.Clear()
	}
	if err != nil {
		// The partial summary is still worth reporting on cancellation.
		if summary != nil {
			_ = outputSummary(cfg, summary)
		}
		return err
	}

	return outputSummary(cfg, summary)
}

// buildSources constructs the enabled sources from configuration.
func buildSources(cfg *config.Config, logger *slog.Logger) []source.Source {
	var sources []source.Source

	if cfg.Sources.Steam.Enabled {
		sources = append(sources, source.NewSteamSource(
			source.WithSteamLibraryDir(cfg.Sources.Steam.LibraryDir),
			source.WithSteamLogger(logger),
		))
	}
	if cfg.Sources.Desktop.Enabled {
		sources = append(sources, source.NewDesktopSource(
			source.WithDesktopDirs(cfg.Sources.Desktop.Dirs),
			source.WithDesktopLogger(logger),
		))
	}
	if cfg.Sources.Catalog.Enabled {
		sources = append(sources, source.NewCatalogSource(
			cfg.Sources.Catalog.Path,
			source.WithCatalogLogger(logger),
		))
	}

	return sources
}

// newImportBar creates the terminal progress bar for an import run.
func newImportBar() *progressbar.ProgressBar {
	return progressbar.NewOptions(
		progressResolution,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetTheme(progressbar.ThemeASCII),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetDescription("Importing games..."),
	)
}

// outputSummary renders the import summary in the requested format.
func outputSummary(cfg *config.Config, summary *model.ImportSummary) error {
	// Determine output destination
	var output *os.File
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	_, err := writer.Write(summary)
	return err
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/nvandessel/neurodash/internal/config"
	"github.com/nvandessel/neurodash/internal/dataset"
	"github.com/nvandessel/neurodash/internal/fixtures"
	"github.com/nvandessel/neurodash/internal/logging"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "neurodash",
		Short: "Synthetic neuroscience data for the lab dashboard",
		Long: `neurodash generates the mock dataset the neuroscience dashboard loads
at startup: recording sessions, per-channel recordings, behavioral events,
quality metrics, decoded features, training runs and registry entries.

It can also serve the dataset and the lab backend over HTTP, expose the
dataset to AI agents over MCP, and package fixtures into portable bundles.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().String("config", "", "Config file (default: ~/.neurodash/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: info, debug or trace (overrides config)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newGenerateCmd(),
		newValidateCmd(),
		newStatsCmd(),
		newSessionsCmd(),
		newFeaturesCmd(),
		newIngestCmd(),
		newExportCmd(),
		newServeCmd(),
		newMCPServerCmd(),
		newBundleCmd(),
		newConfigCmd(),
	)

	return rootCmd
}

// loadConfig resolves --config and --log-level into a validated Config and a
// stderr logger at the chosen level.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr()), nil
}

// fixturesDir returns --dir when set, otherwise the configured output dir.
func fixturesDir(cmd *cobra.Command, cfg *config.Config) string {
	if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
		return dir
	}
	return cfg.Generator.OutputDir
}

func loadCatalog(dir string) (*dataset.Catalog, error) {
	data, err := fixtures.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load fixtures (run 'neurodash generate' first): %w", err)
	}
	return dataset.NewCatalog(data), nil
}

func valueOrDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// signalContext returns a context cancelled by the first shutdown signal.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, shutdownSignals...)
}

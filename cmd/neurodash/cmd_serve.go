package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nvandessel/neurodash/internal/api"
	"github.com/nvandessel/neurodash/internal/config"
	"github.com/nvandessel/neurodash/internal/dataset"
	"github.com/nvandessel/neurodash/internal/fixtures"
	"github.com/nvandessel/neurodash/internal/seed"
	"github.com/nvandessel/neurodash/internal/store"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the lab backend and the generated dataset over HTTP",
		Long: `Start the HTTP API used by the dashboard: CRUD over lab sessions,
feature extraction, training jobs, experiments and registry notes, plus
read-only dataset queries and the raw fixture files under /mock-data/.

The record store is in memory by default. With --store sqlite records are
kept in ~/.neurodash/lab.db and seeded on first use.

Stops on SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("addr") {
				cfg.Server.Addr, _ = flags.GetString("addr")
			}
			if flags.Changed("store") {
				cfg.Server.Store, _ = flags.GetString("store")
			}
			if flags.Changed("db") {
				cfg.Server.DatabasePath, _ = flags.GetString("db")
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid server settings: %w", err)
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			ls, err := openStore(ctx, cfg.Server, logger)
			if err != nil {
				return err
			}
			defer ls.Close()

			dir := fixturesDir(cmd, cfg)
			var catalog *dataset.Catalog
			if fixtures.Exists(dir) {
				catalog, err = loadCatalog(dir)
				if err != nil {
					return err
				}
			} else {
				logger.Warn("no fixtures found, dataset routes disabled", "dir", dir)
				dir = ""
			}

			server := api.NewServer(ls, catalog, api.Options{
				Addr:              cfg.Server.Addr,
				FixturesDir:       dir,
				RequestsPerMinute: cfg.Server.RequestsPerMinute,
				Burst:             cfg.Server.Burst,
				Logger:            logger,
			})
			return server.ListenAndServe(ctx)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default: server.addr)")
	cmd.Flags().String("store", "", "Record store: memory or sqlite (default: server.store)")
	cmd.Flags().String("db", "", "SQLite database path (default: ~/.neurodash/lab.db)")
	cmd.Flags().String("dir", "", "Fixture directory (default: generator.output_dir)")
	return cmd
}

// openStore opens the configured record backend, seeded with the stock
// lab records.
func openStore(ctx context.Context, cfg config.ServerConfig, logger *slog.Logger) (store.LabStore, error) {
	switch cfg.Store {
	case config.StoreSQLite:
		path := cfg.DatabasePath
		if path == "" {
			var err error
			path, err = store.DefaultDatabasePath()
			if err != nil {
				return nil, err
			}
		}
		s, err := store.NewSQLiteStore(ctx, path, seed.Default())
		if err != nil {
			return nil, fmt.Errorf("failed to open store: %w", err)
		}
		logger.Debug("opened sqlite store", "path", path)
		return s, nil
	default:
		return store.NewMemoryStore(seed.Default()), nil
	}
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dave11k/flow-roll-app-sub001/internal/config"
	"github.com/dave11k/flow-roll-app-sub001/internal/exchange"
	"github.com/dave11k/flow-roll-app-sub001/internal/facade"
	"github.com/dave11k/flow-roll-app-sub001/internal/migrate"
	"github.com/dave11k/flow-roll-app-sub001/internal/repository"
	"github.com/dave11k/flow-roll-app-sub001/internal/server"
	"github.com/dave11k/flow-roll-app-sub001/internal/storage/sqlite"
	"github.com/dave11k/flow-roll-app-sub001/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the flowroll API server",
	Long: `Opens the data file, upgrades its schema, loads every collection
into memory and then serves the JSON API until interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		logger := cfg.Log.NewLogger()
		ctx := cmd.Context()

		app, err := openApp(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer app.backend.Close()

		// Mutations validate against in-memory state, so every collection
		// must be loaded before the first request is accepted.
		st := store.New(app.service, logger)
		if err := st.Init(ctx); err != nil {
			return fmt.Errorf("loading collections: %w", err)
		}

		srv := server.New(
			server.Config{
				Addr:            cfg.Server.Address,
				ShutdownTimeout: cfg.Server.ShutdownTimeout,
			},
			server.Deps{
				Store:     st,
				Service:   app.service,
				Exchanger: app.exchanger,
			},
			logger,
		)
		return srv.Start()
	},
}

// app is the assembled data layer shared by serve, export and import.
type app struct {
	backend   *sqlite.DB
	service   facade.Service
	exchanger *exchange.Exchanger
}

// openApp opens the database, brings its schema up to date and wires the
// repositories behind the configured facade. The caller owns backend.Close.
func openApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	if err := os.MkdirAll(cfg.Data.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory %s: %w", cfg.Data.Dir, err)
	}
	backend, err := sqlite.New(cfg.Data.Path())
	if err != nil {
		return nil, err
	}

	if _, err := migrate.NewRunner(backend, logger).Run(ctx); err != nil {
		backend.Close()
		return nil, err
	}

	tags := repository.NewTagRepository(backend, logger)
	techniques := repository.NewTechniqueRepository(backend, tags, logger)
	sessions := repository.NewSessionRepository(backend, logger)
	profile := repository.NewProfileRepository(backend, logger)
	local := facade.NewLocal(techniques, sessions, profile, tags, backend, logger)

	var svc facade.Service = local
	if cfg.Sync.Mode == "remote" {
		svc = facade.NewRemote(cfg.Sync.RemoteURL, cfg.Sync.Timeout, local, logger)
		logger.Info("remote backend configured",
			slog.String("url", cfg.Sync.RemoteURL))
	}

	return &app{
		backend:   backend,
		service:   svc,
		exchanger: exchange.New(svc, techniques, sessions, profile, logger),
	}, nil
}

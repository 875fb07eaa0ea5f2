package main

import (
	"context"
	"database/sql"
	"fmt"

	"feature-dashboard/src/config"
	"feature-dashboard/src/handlers"
	"feature-dashboard/src/logging"
	"feature-dashboard/src/services"
	"feature-dashboard/src/storage"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	echoSwagger "github.com/swaggo/echo-swagger"
)

func newBackendCommand() *cobra.Command {
	var seed bool
	cmd := &cobra.Command{
		Use:   "backend",
		Short: "Run the settings backend serving clients, features, configurations and usages",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runBackend(cmd.Context(), cfg, seed)
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "load the seed fixture before serving")
	return cmd
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the settings database migrations",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			return closeDatabase(db)
		},
	}
}

func newSeedCommand() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a fixture into the settings database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if path != "" {
				cfg.Backend.SeedPath = path
			}
			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = closeDatabase(db) }()
			return seedDatabase(cmd.Context(), cfg, storage.NewSQLiteStore(db))
		},
	}
	cmd.Flags().StringVar(&path, "fixture", "", "fixture file, defaults to backend.seed_path")
	return cmd
}

// openDatabase opens the settings database and applies the migrations
func openDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := storage.Open(cfg.Backend.DBPath)
	if err != nil {
		return nil, err
	}
	if err := storage.RunMigrations(db, cfg.Backend.MigrationsPath); err != nil {
		_ = closeDatabase(db)
		return nil, err
	}
	return db, nil
}

func closeDatabase(db *sql.DB) error {
	if err := db.Close(); err != nil {
		logging.Error().Err(err).Msg("Failed to close database")
		return err
	}
	return nil
}

func seedDatabase(ctx context.Context, cfg *config.Config, store *storage.SQLiteStore) error {
	if cfg.Backend.SeedPath == "" {
		return fmt.Errorf("no fixture configured: set backend.seed_path or --fixture")
	}
	fixture, err := storage.LoadFixture(cfg.Backend.SeedPath)
	if err != nil {
		return err
	}
	return store.Seed(ctx, fixture)
}

func runBackend(ctx context.Context, cfg *config.Config, seed bool) error {
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeDatabase(db) }()

	store := storage.NewSQLiteStore(db)
	if seed {
		if err := seedDatabase(ctx, cfg, store); err != nil {
			return err
		}
	}

	configHandler := handlers.NewConfigHandler(services.NewConfigService(store, services.NewValidationService()))

	e := handlers.New()
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/health", configHandler.Health)
	configHandler.Register(e.Group(""))

	logging.Info().
		Str("address", cfg.BackendAddress()).
		Str("db_path", cfg.Backend.DBPath).
		Msg("Starting settings backend")
	return serve(ctx, e, cfg.BackendAddress(), cfg.Server.ShutdownTimeout)
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"feature-dashboard/src/apiclient"
	"feature-dashboard/src/config"
	"feature-dashboard/src/handlers"
	"feature-dashboard/src/logging"
	"feature-dashboard/src/services"
	"feature-dashboard/src/status"
	"feature-dashboard/src/viewstate"

	_ "feature-dashboard/docs"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	echoSwagger "github.com/swaggo/echo-swagger"
)

func main() {
	root := &cobra.Command{
		Use:           "feature-dashboard",
		Short:         "Feature dashboard for the CMS clients and their feature configurations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCommand(), newBackendCommand(), newMigrateCommand(), newSeedCommand())

	if err := root.Execute(); err != nil {
		logging.Fatal().Err(err).Msg("Command failed")
	}
}

// loadConfig reads the configuration and applies its logging section
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	return cfg, nil
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.ValidateUpstream(); err != nil {
				return err
			}
			return runDashboard(cmd.Context(), cfg)
		},
	}
}

func runDashboard(ctx context.Context, cfg *config.Config) error {
	api := apiclient.New(apiclient.Endpoints{
		CMSClients:     cfg.Upstream.CMSClients,
		Features:       cfg.Upstream.SettingsFeatures,
		OverviewBase:   cfg.Upstream.SettingsOverviewBase,
		Configurations: cfg.Upstream.SettingsConfigurations,
		Usages:         cfg.Upstream.SettingsUsages,
	}, apiclient.Options{
		Timeout:         cfg.Upstream.Timeout,
		BreakerFailures: cfg.Upstream.BreakerFailures,
		BreakerTimeout:  cfg.Upstream.BreakerTimeout,
	})

	dashboard := services.NewDashboardService(api, services.NewValidationService(), services.DashboardOptions{
		Blacklist:   cfg.Dashboard.ClientBlacklist,
		Concurrency: cfg.Dashboard.FetchConcurrency,
		Theme:       status.DefaultTheme(),
	})
	sessions := viewstate.NewSessions(cfg.Dashboard.SessionTTL)
	dashboardHandler := handlers.NewDashboardHandler(dashboard, sessions, cfg.Dashboard.CookieSecure)

	e := handlers.New()
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/health", dashboardHandler.Health)
	dashboardHandler.Register(e.Group("/api/v1"))

	done := make(chan struct{})
	defer close(done)
	if cfg.Dashboard.SessionTTL > 0 {
		go dashboardHandler.SweepSessions(cfg.Dashboard.SessionTTL/4, done)
	}

	logging.Info().
		Str("address", cfg.Address()).
		Str("cms", cfg.Upstream.CMSClients).
		Str("settings", cfg.Upstream.SettingsFeatures).
		Msg("Starting dashboard")
	return serve(ctx, e, cfg.Address(), cfg.Server.ShutdownTimeout)
}

// serve runs e until ctx is done or SIGINT/SIGTERM arrives, then shuts down gracefully
func serve(ctx context.Context, e *echo.Echo, address string, shutdownTimeout time.Duration) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logging.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

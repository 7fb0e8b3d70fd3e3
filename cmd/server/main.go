package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tramcham/tramcham-server/internal/app"
	"github.com/tramcham/tramcham-server/internal/config"
	applog "github.com/tramcham/tramcham-server/internal/log"
	"github.com/tramcham/tramcham-server/internal/store/sqlite"
)

// flags holds command line overrides applied on top of the loaded config.
type flags struct {
	configPath string
	overrides  config.Config
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:           "tramcham",
		Short:         "Trạm Chạm gift message server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), f)
		},
	}

	root.PersistentFlags().StringVar(&f.configPath, "config", "", "path to config file")
	root.PersistentFlags().StringVar(&f.overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&f.overrides.Store.Driver, "store-driver", "", "store driver (sqlite, script, sheets)")
	root.PersistentFlags().StringVar(&f.overrides.Store.SQLitePath, "sqlite-path", "", "SQLite database path")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), f)
		},
	}
	serve.Flags().StringVar(&f.overrides.Addr, "addr", "", "HTTP listen address")
	serve.Flags().StringVar(&f.overrides.PublicBaseURL, "public-base-url", "", "base URL used in share links")
	root.Flags().AddFlagSet(serve.Flags())

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Apply SQLite schema migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd.Context(), f)
		},
	}

	root.AddCommand(serve, migrate)
	return root
}

// loadConfig reads the config file and env, then applies flag overrides.
func loadConfig(f *flags) (config.Config, *zerolog.Logger, error) {
	bootstrap := applog.New("info", "console")

	cfg, path, err := config.Load(bootstrap, f.configPath)
	if err != nil {
		bootstrap.Error().Err(err).Str("path", path).Msg("failed to load config")
		return cfg, bootstrap, err
	}
	cfg.UpdateFrom(f.overrides)
	if err := cfg.Validate(); err != nil {
		bootstrap.Error().Err(err).Msg("invalid config")
		return cfg, bootstrap, err
	}

	logger := applog.New(cfg.LogLevel, cfg.LogFormat)
	logger.Debug().Str("path", path).Msg("config loaded")
	return cfg, logger, nil
}

func runServe(ctx context.Context, f *flags) error {
	cfg, logger, err := loadConfig(f)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, &cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to start")
		return err
	}

	logger.Info().Str("addr", cfg.Addr).Str("store", cfg.Store.Driver).Msg("starting tramcham server")
	if err := application.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

func runMigrate(ctx context.Context, f *flags) error {
	cfg, logger, err := loadConfig(f)
	if err != nil {
		return err
	}
	if cfg.Store.Driver != config.DriverSQLite {
		err := fmt.Errorf("migrate only applies to the sqlite driver, got %q", cfg.Store.Driver)
		logger.Error().Err(err).Msg("migrate failed")
		return err
	}

	st, err := sqlite.New(ctx, cfg.Store.SQLitePath)
	if err != nil {
		logger.Error().Err(err).Msg("migrate failed")
		return err
	}
	defer st.Close()

	logger.Info().Str("path", cfg.Store.SQLitePath).Msg("migrations applied")
	return nil
}

package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/tramcham/tramcham-server/internal/catalog"
	"github.com/tramcham/tramcham-server/internal/config"
	"github.com/tramcham/tramcham-server/internal/service/messages"
	"github.com/tramcham/tramcham-server/internal/service/reviews"
	"github.com/tramcham/tramcham-server/internal/store"
	"github.com/tramcham/tramcham-server/internal/store/script"
	"github.com/tramcham/tramcham-server/internal/store/sheets"
	"github.com/tramcham/tramcham-server/internal/store/sqlite"
	transporthttp "github.com/tramcham/tramcham-server/internal/transport/http"
)

// App wires together storage, services and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := OpenStore(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	logger.Info().Str("driver", cfg.Store.Driver).Msg("store initialized")

	cat, err := catalog.Load()
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	svc := transporthttp.Services{
		Messages: messages.New(st, messages.Options{
			PublicBaseURL: cfg.PublicBaseURL,
			SharePath:     cfg.SharePath,
			StoreTimeout:  cfg.Store.Timeout,
		}, logger),
		Reviews: reviews.New(st, cfg.Store.Timeout, logger),
		Catalog: cat,
	}

	return &App{
		server:          transporthttp.NewServer(svc, cfg, logger),
		shutdownTimeout: cfg.ShutdownTimeout,
		store:           st,
		log:             logger,
	}, nil
}

// OpenStore creates the backend selected by cfg.Driver.
func OpenStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return sqlite.New(ctx, cfg.SQLitePath)
	case config.DriverScript:
		return script.New(cfg.ScriptURL, &stdhttp.Client{Timeout: cfg.Timeout})
	case config.DriverSheets:
		return sheets.New(ctx, cfg.SheetsCredentialsPath, cfg.SpreadsheetID)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes the store.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}

package app

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"climate-api/internal/config"
	"climate-api/internal/db"
	"climate-api/internal/httpapi"
	"climate-api/internal/migrate"
	"climate-api/internal/modules/climate"
	climateviews "climate-api/internal/modules/climate/views"
	"climate-api/internal/observability"
)

// Run serves the climate API until ctx is canceled or the listener fails.
// If ready is non-nil it receives the bound address once the server accepts
// connections.
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger, metrics *observability.Metrics, ready chan<- string) error {
	logger.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"dbDriver", cfg.Driver,
		"sqlitePath", cfg.Path,
		"dbMaxOpenConns", cfg.MaxOpenConns,
		"dbMaxIdleConns", cfg.MaxIdleConns,
		"dbConnMaxLifetime", cfg.ConnMaxLifetime,
		"dbLogQueries", cfg.LogQueries,
		"shutdownTimeout", cfg.ShutdownTimeout,
	)

	dbConn, err := db.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(dbConn); closeErr != nil {
			logger.Error("db close", "error", closeErr)
		}
	}()

	if err := migrate.Verify(ctx, dbConn); err != nil {
		return err
	}
	logger.Info("dataset verified", "path", cfg.Path)

	if err := climateviews.LoadTemplates(); err != nil {
		return err
	}

	climateService := climate.NewService(dbConn, metrics, logger)
	mux := httpapi.NewMux(climateService, metrics)
	climate.RegisterFeature(mux, climateService, logger)

	srv := httpapi.NewServer(cfg, mux, logger, metrics)

	ln, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()
	if ready != nil {
		ready <- ln.Addr().String()
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	logger.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}

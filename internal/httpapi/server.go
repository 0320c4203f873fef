package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"

	"climate-api/internal/config"
	"climate-api/internal/observability"
)

// Handler wraps mux with request ids, logging and metrics.
func Handler(mux *http.ServeMux, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock) http.Handler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return withRequestID(requestLogger(logger, metrics, clock, mux))
}

func NewServer(cfg config.Config, mux *http.ServeMux, logger *slog.Logger, metrics *observability.Metrics) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           Handler(mux, logger, metrics, nil),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
}

package controller

import (
	"context"
	"log/slog"
	"net/http"

	"climate-api/internal/modules/climate/types"
)

// ClimateService is the part of service.Service the handlers call.
type ClimateService interface {
	Precipitation(ctx context.Context) ([]types.Precipitation, error)
	Stations(ctx context.Context) ([]types.Station, error)
	MostActiveTemperatures(ctx context.Context) ([]types.TemperatureObservation, error)
	Summary(ctx context.Context, start string) (types.TemperatureSummary, error)
	RangeSummary(ctx context.Context, start, end string) (types.TemperatureSummary, error)
}

type ClimateController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type climateControllerImpl struct {
	service ClimateService
	logger  *slog.Logger
}

func NewClimateController(service ClimateService, logger *slog.Logger) ClimateController {
	if logger == nil {
		logger = slog.Default()
	}
	return &climateControllerImpl{service: service, logger: logger}
}

func (c *climateControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /", c.handleHome)
	mux.HandleFunc("GET /api/v1.0/precipitation", c.handlePrecipitation)
	mux.HandleFunc("GET /api/v1.0/stations", c.handleStations)
	mux.HandleFunc("GET /api/v1.0/tobs", c.handleTobs)
	mux.HandleFunc("GET /api/v1.0/{start}", c.handleSummary)
	mux.HandleFunc("GET /api/v1.0/{start}/{end}", c.handleRangeSummary)
}

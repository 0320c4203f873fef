package climate

import (
	"database/sql"
	"log/slog"
	"net/http"

	"climate-api/internal/modules/climate/controller"
	"climate-api/internal/modules/climate/repository"
	"climate-api/internal/modules/climate/service"
)

// NewService builds the climate service over db. Every operation borrows
// its own connection; observer, if set, is told about each one.
func NewService(db *sql.DB, observer repository.SessionObserver, logger *slog.Logger) *service.Service {
	return service.NewService(repository.NewOpener(db, observer), logger)
}

func RegisterFeature(mux *http.ServeMux, climateService *service.Service, logger *slog.Logger) {
	climateController := controller.NewClimateController(climateService, logger)
	climateController.RegisterRoutes(mux)
}

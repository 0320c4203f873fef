package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"climate-api/internal/utils"
)

// Pinger checks that the dataset can be queried.
type Pinger interface {
	Ping(ctx context.Context) error
}

type healthchecker interface {
	handleHealthz(w http.ResponseWriter, r *http.Request)
}

type healthcheckerImpl struct {
	pinger Pinger
}

func NewHealthchecker(pinger Pinger) healthchecker {
	return &healthcheckerImpl{pinger: pinger}
}

func (h *healthcheckerImpl) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := h.pinger.Ping(r.Context()); err != nil {
		slog.Error("failed to check database connectivity", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to check database connectivity")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func registerHealthcheck(mux *http.ServeMux, pinger Pinger) {
	healthchecker := NewHealthchecker(pinger)
	mux.HandleFunc("GET /healthz", healthchecker.handleHealthz)
}

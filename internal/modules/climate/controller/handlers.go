package controller

import (
	"bytes"
	"errors"
	"net/http"

	"climate-api/internal/modules/climate/dates"
	"climate-api/internal/modules/climate/service"
	"climate-api/internal/modules/climate/types"
	"climate-api/internal/modules/climate/views"
	"climate-api/internal/utils"
)

var homeData = &views.HomeData{
	Title: "Hawaii Weather",
	Routes: []views.Route{
		{Path: "/api/v1.0/precipitation"},
		{Path: "/api/v1.0/stations"},
		{Path: "/api/v1.0/tobs"},
		{Path: "/api/v1.0/<start>", Hint: "start date as YYYY-MM-DD"},
		{Path: "/api/v1.0/<start>/<end>", Hint: "start and end dates as YYYY-MM-DD/YYYY-MM-DD"},
	},
}

func (c *climateControllerImpl) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	var buf bytes.Buffer
	if err := views.RenderHome(&buf, homeData); err != nil {
		c.logger.Error("home template render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	utils.WriteText(w, http.StatusOK, buf.Bytes())
}

func (c *climateControllerImpl) handlePrecipitation(w http.ResponseWriter, r *http.Request) {
	rows, err := c.service.Precipitation(r.Context())
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, rows)
}

func (c *climateControllerImpl) handleStations(w http.ResponseWriter, r *http.Request) {
	stations, err := c.service.Stations(r.Context())
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, stations)
}

func (c *climateControllerImpl) handleTobs(w http.ResponseWriter, r *http.Request) {
	rows, err := c.service.MostActiveTemperatures(r.Context())
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, rows)
}

func (c *climateControllerImpl) handleSummary(w http.ResponseWriter, r *http.Request) {
	start := r.PathValue("start")
	if err := dates.Validate(start); err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	sum, err := c.service.Summary(r.Context(), start)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, summaryBody(sum))
}

func (c *climateControllerImpl) handleRangeSummary(w http.ResponseWriter, r *http.Request) {
	start, end := r.PathValue("start"), r.PathValue("end")
	if err := dates.ValidateRange(start, end); err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	sum, err := c.service.RangeSummary(r.Context(), start, end)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, summaryBody(sum))
}

// summaryBody shapes a summary as three single-key objects: minimum,
// average, maximum.
func summaryBody(s types.TemperatureSummary) []map[string]*float64 {
	return []map[string]*float64{
		{"Minimum Temp": s.Min},
		{"Average Temp": s.Avg},
		{"Maximum Temp": s.Max},
	}
}

func (c *climateControllerImpl) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		dateErr  *dates.InvalidDateError
		rangeErr *dates.InvalidRangeError
	)
	switch {
	case errors.As(err, &dateErr), errors.As(err, &rangeErr):
		c.logger.Debug("rejected date parameter", "path", r.URL.Path, "error", err)
		utils.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrEmptyDataset):
		c.logger.Error("empty dataset", "path", r.URL.Path)
		utils.WriteError(w, http.StatusInternalServerError, service.ErrEmptyDataset.Error())
	default:
		c.logger.Error("request failed", "path", r.URL.Path, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}

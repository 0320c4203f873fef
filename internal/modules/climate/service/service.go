// Package service is the query and aggregation layer of the climate API.
// Every operation acquires its own repository session from the Opener and
// releases it before returning.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"climate-api/internal/modules/climate/dates"
	"climate-api/internal/modules/climate/repository"
	"climate-api/internal/modules/climate/types"
)

// ErrEmptyDataset is returned by operations that need a latest date or a
// most-active station when the dataset holds no observations.
var ErrEmptyDataset = errors.New("dataset contains no observations")

type Service struct {
	opener repository.Opener
	logger *slog.Logger
}

func NewService(opener repository.Opener, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{opener: opener, logger: logger}
}

// withSession runs fn against a freshly acquired repository and always
// releases it.
func (s *Service) withSession(ctx context.Context, fn func(repo repository.ClimateRepository) error) (err error) {
	repo, err := s.opener.Open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			s.logger.Error("release session", "error", closeErr)
			if err == nil {
				err = fmt.Errorf("release session: %w", closeErr)
			}
		}
	}()
	return fn(repo)
}

// DateWindow returns the trailing year ending at the dataset's latest date.
func (s *Service) DateWindow(ctx context.Context) (types.DateWindow, error) {
	var w types.DateWindow
	err := s.withSession(ctx, func(repo repository.ClimateRepository) error {
		var err error
		w, err = dateWindow(ctx, repo)
		return err
	})
	return w, err
}

func dateWindow(ctx context.Context, repo repository.ClimateRepository) (types.DateWindow, error) {
	latest, ok, err := repo.LatestDate(ctx)
	if err != nil {
		return types.DateWindow{}, err
	}
	if !ok {
		return types.DateWindow{}, ErrEmptyDataset
	}
	start, err := dates.YearBefore(latest)
	if err != nil {
		return types.DateWindow{}, fmt.Errorf("latest date: %w", err)
	}
	return types.DateWindow{Start: start, Latest: latest}, nil
}

// Precipitation lists every observation's precipitation within the trailing
// year, newest first.
func (s *Service) Precipitation(ctx context.Context) ([]types.Precipitation, error) {
	var out []types.Precipitation
	err := s.withSession(ctx, func(repo repository.ClimateRepository) error {
		w, err := dateWindow(ctx, repo)
		if err != nil {
			return err
		}
		out, err = repo.PrecipitationSince(ctx, w.Start)
		return err
	})
	return out, err
}

// Stations lists the stations that have observations, by id.
func (s *Service) Stations(ctx context.Context) ([]types.Station, error) {
	var out []types.Station
	err := s.withSession(ctx, func(repo repository.ClimateRepository) error {
		var err error
		out, err = repo.Stations(ctx)
		return err
	})
	return out, err
}

// MostActiveTemperatures lists the trailing-year temperatures of the station
// with the most observations. Ties go to the lowest station id.
func (s *Service) MostActiveTemperatures(ctx context.Context) ([]types.TemperatureObservation, error) {
	var out []types.TemperatureObservation
	err := s.withSession(ctx, func(repo repository.ClimateRepository) error {
		w, err := dateWindow(ctx, repo)
		if err != nil {
			return err
		}
		stationID, ok, err := repo.MostActiveStation(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return ErrEmptyDataset
		}
		s.logger.Debug("most active station", "station", stationID, "since", w.Start)
		out, err = repo.TemperaturesSince(ctx, stationID, w.Start)
		return err
	})
	return out, err
}

// Summary aggregates temperatures on or after start. start must already be
// a valid date.
func (s *Service) Summary(ctx context.Context, start string) (types.TemperatureSummary, error) {
	var sum types.TemperatureSummary
	err := s.withSession(ctx, func(repo repository.ClimateRepository) error {
		var err error
		sum.Min, sum.Max, err = repo.TemperatureExtremes(ctx, start)
		if err != nil {
			return err
		}
		avg, err := repo.AverageTemperature(ctx, start)
		if err != nil {
			return err
		}
		sum.Avg = roundHalfUp(avg)
		return nil
	})
	return sum, err
}

// RangeSummary aggregates temperatures for a start/end pair. Min and max
// cover every date on or after start; end only bounds the average.
func (s *Service) RangeSummary(ctx context.Context, start, end string) (types.TemperatureSummary, error) {
	var sum types.TemperatureSummary
	err := s.withSession(ctx, func(repo repository.ClimateRepository) error {
		var err error
		sum.Min, sum.Max, err = repo.TemperatureExtremes(ctx, start)
		if err != nil {
			return err
		}
		avg, err := repo.AverageTemperatureBetween(ctx, start, end)
		if err != nil {
			return err
		}
		sum.Avg = roundHalfUp(avg)
		return nil
	})
	return sum, err
}

// Ping checks that a session can be acquired and queried.
func (s *Service) Ping(ctx context.Context) error {
	return s.withSession(ctx, func(repo repository.ClimateRepository) error {
		return repo.Ping(ctx)
	})
}

// roundHalfUp rounds to the nearest integer with .5 going toward +Inf.
func roundHalfUp(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := math.Floor(*v + 0.5)
	return &r
}

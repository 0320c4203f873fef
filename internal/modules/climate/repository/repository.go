package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"sync"

	"climate-api/internal/modules/climate/types"
)

//go:embed sql/get-latest-date.sql
var getLatestDateSQL string

//go:embed sql/get-precipitation-since.sql
var getPrecipitationSinceSQL string

//go:embed sql/get-stations.sql
var getStationsSQL string

//go:embed sql/get-most-active-station.sql
var getMostActiveStationSQL string

//go:embed sql/get-temperatures-since.sql
var getTemperaturesSinceSQL string

//go:embed sql/get-temperature-extremes.sql
var getTemperatureExtremesSQL string

//go:embed sql/get-average-temperature.sql
var getAverageTemperatureSQL string

//go:embed sql/get-average-temperature-between.sql
var getAverageTemperatureBetweenSQL string

// ClimateRepository runs the read-only dataset queries. A repository obtained
// from an Opener holds one database connection until Close.
type ClimateRepository interface {
	// LatestDate returns the most recent observation date; ok is false when
	// the dataset has no observations.
	LatestDate(ctx context.Context) (date string, ok bool, err error)
	PrecipitationSince(ctx context.Context, since string) ([]types.Precipitation, error)
	Stations(ctx context.Context) ([]types.Station, error)
	// MostActiveStation returns the station with the most observations,
	// lowest id on ties; ok is false when the dataset has no observations.
	MostActiveStation(ctx context.Context) (stationID string, ok bool, err error)
	TemperaturesSince(ctx context.Context, stationID string, since string) ([]types.TemperatureObservation, error)
	TemperatureExtremes(ctx context.Context, start string) (minTemp *float64, maxTemp *float64, err error)
	AverageTemperature(ctx context.Context, start string) (*float64, error)
	AverageTemperatureBetween(ctx context.Context, start string, end string) (*float64, error)
	Ping(ctx context.Context) error
	Close() error
}

// Querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type repositoryImpl struct {
	q         Querier
	release   func() error
	closeOnce sync.Once
	closeErr  error
}

// NewRepository wraps q without taking ownership of it; Close is a no-op.
func NewRepository(q Querier) ClimateRepository {
	return &repositoryImpl{q: q}
}

func (r *repositoryImpl) Close() error {
	r.closeOnce.Do(func() {
		if r.release != nil {
			r.closeErr = r.release()
		}
	})
	return r.closeErr
}

func (r *repositoryImpl) Ping(ctx context.Context) error {
	var ok int
	if err := r.q.QueryRowContext(ctx, `SELECT 1`).Scan(&ok); err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("unexpected ping result %d", ok)
	}
	return nil
}

func (r *repositoryImpl) LatestDate(ctx context.Context) (string, bool, error) {
	var latest sql.NullString
	if err := r.q.QueryRowContext(ctx, getLatestDateSQL).Scan(&latest); err != nil {
		return "", false, fmt.Errorf("latest date: %w", err)
	}
	return latest.String, latest.Valid, nil
}

func (r *repositoryImpl) PrecipitationSince(ctx context.Context, since string) ([]types.Precipitation, error) {
	rows, err := r.q.QueryContext(ctx, getPrecipitationSinceSQL, since)
	if err != nil {
		return nil, fmt.Errorf("precipitation since %s: %w", since, err)
	}
	defer closeRows(rows, "precipitation")

	out := []types.Precipitation{}
	for rows.Next() {
		var (
			p    types.Precipitation
			prcp sql.NullFloat64
		)
		if err := rows.Scan(&p.Date, &prcp); err != nil {
			return nil, err
		}
		p.Value = nullFloat(prcp)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) Stations(ctx context.Context) ([]types.Station, error) {
	rows, err := r.q.QueryContext(ctx, getStationsSQL)
	if err != nil {
		return nil, fmt.Errorf("stations: %w", err)
	}
	defer closeRows(rows, "stations")

	out := []types.Station{}
	for rows.Next() {
		var s types.Station
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) MostActiveStation(ctx context.Context) (string, bool, error) {
	var id string
	err := r.q.QueryRowContext(ctx, getMostActiveStationSQL).Scan(&id)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("most active station: %w", err)
	}
	return id, true, nil
}

func (r *repositoryImpl) TemperaturesSince(ctx context.Context, stationID string, since string) ([]types.TemperatureObservation, error) {
	rows, err := r.q.QueryContext(ctx, getTemperaturesSinceSQL, stationID, since)
	if err != nil {
		return nil, fmt.Errorf("temperatures for %s since %s: %w", stationID, since, err)
	}
	defer closeRows(rows, "temperatures")

	out := []types.TemperatureObservation{}
	for rows.Next() {
		var o types.TemperatureObservation
		if err := rows.Scan(&o.StationID, &o.Date, &o.Temperature); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) TemperatureExtremes(ctx context.Context, start string) (*float64, *float64, error) {
	var minTemp, maxTemp sql.NullFloat64
	if err := r.q.QueryRowContext(ctx, getTemperatureExtremesSQL, start).Scan(&minTemp, &maxTemp); err != nil {
		return nil, nil, fmt.Errorf("temperature extremes since %s: %w", start, err)
	}
	return nullFloat(minTemp), nullFloat(maxTemp), nil
}

func (r *repositoryImpl) AverageTemperature(ctx context.Context, start string) (*float64, error) {
	var avg sql.NullFloat64
	if err := r.q.QueryRowContext(ctx, getAverageTemperatureSQL, start).Scan(&avg); err != nil {
		return nil, fmt.Errorf("average temperature since %s: %w", start, err)
	}
	return nullFloat(avg), nil
}

func (r *repositoryImpl) AverageTemperatureBetween(ctx context.Context, start string, end string) (*float64, error) {
	var avg sql.NullFloat64
	if err := r.q.QueryRowContext(ctx, getAverageTemperatureBetweenSQL, start, end).Scan(&avg); err != nil {
		return nil, fmt.Errorf("average temperature %s..%s: %w", start, end, err)
	}
	return nullFloat(avg), nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func closeRows(rows *sql.Rows, what string) {
	if err := rows.Close(); err != nil {
		slog.Error("close rows", "query", what, "error", err)
	}
}

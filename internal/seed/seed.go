// Package seed bulk-loads the published Hawaii climate CSV exports into a
// migrated sqlite database. Only the offline tool and tests use it; the API
// server never writes to the dataset.
package seed

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"climate-api/internal/modules/climate/dates"
)

const (
	insertStationSQL     = `INSERT INTO station (station, name, latitude, longitude, elevation) VALUES (?, ?, ?, ?, ?)`
	insertMeasurementSQL = `INSERT INTO measurement (station, date, prcp, tobs) VALUES (?, ?, ?, ?)`
)

// Result counts the rows written by Load.
type Result struct {
	Stations     int
	Measurements int
}

// Load inserts stations then measurements in a single transaction. Nothing
// is written if any row fails to parse or insert.
func Load(ctx context.Context, db *sql.DB, stations io.Reader, measurements io.Reader) (Result, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Result{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var res Result
	res.Stations, err = loadStations(ctx, tx, stations)
	if err != nil {
		return Result{}, fmt.Errorf("stations: %w", err)
	}
	res.Measurements, err = loadMeasurements(ctx, tx, measurements)
	if err != nil {
		return Result{}, fmt.Errorf("measurements: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Result{}, fmt.Errorf("commit: %w", err)
	}
	return res, nil
}

func loadStations(ctx context.Context, tx *sql.Tx, r io.Reader) (int, error) {
	stmt, err := tx.PrepareContext(ctx, insertStationSQL)
	if err != nil {
		return 0, err
	}
	defer func() { _ = stmt.Close() }()

	return eachRecord(r, []string{"station", "name"}, func(line int, rec record) error {
		id := rec.get("station")
		if id == "" {
			return fmt.Errorf("line %d: empty station", line)
		}
		lat, err := rec.optionalFloat("latitude")
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		lng, err := rec.optionalFloat("longitude")
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		elev, err := rec.optionalFloat("elevation")
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if _, err := stmt.ExecContext(ctx, id, rec.get("name"), lat, lng, elev); err != nil {
			return fmt.Errorf("line %d: insert station %q: %w", line, id, err)
		}
		return nil
	})
}

func loadMeasurements(ctx context.Context, tx *sql.Tx, r io.Reader) (int, error) {
	stmt, err := tx.PrepareContext(ctx, insertMeasurementSQL)
	if err != nil {
		return 0, err
	}
	defer func() { _ = stmt.Close() }()

	return eachRecord(r, []string{"station", "date", "prcp", "tobs"}, func(line int, rec record) error {
		id := rec.get("station")
		if id == "" {
			return fmt.Errorf("line %d: empty station", line)
		}
		date := rec.get("date")
		if err := dates.Validate(date); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		prcp, err := rec.optionalFloat("prcp")
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		tobs, err := rec.optionalFloat("tobs")
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if tobs == nil {
			return fmt.Errorf("line %d: empty tobs", line)
		}
		if _, err := stmt.ExecContext(ctx, id, date, prcp, tobs); err != nil {
			return fmt.Errorf("line %d: insert measurement: %w", line, err)
		}
		return nil
	})
}

type record struct {
	cols   map[string]int
	fields []string
}

func (r record) get(name string) string {
	i, ok := r.cols[name]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

// optionalFloat returns nil for an empty or absent column so it is stored as NULL.
func (r record) optionalFloat(name string) (*float64, error) {
	s := r.get(name)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	return &v, nil
}

// eachRecord reads a header row, checks the required columns, then calls fn
// for every data row. Line numbers are 1-based and count the header.
func eachRecord(r io.Reader, required []string, fn func(line int, rec record) error) (int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, errors.New("missing header row")
		}
		return 0, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return 0, fmt.Errorf("missing column %q", name)
		}
	}

	n := 0
	line := 1
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		line++
		if err != nil {
			return n, fmt.Errorf("line %d: %w", line, err)
		}
		if err := fn(line, record{cols: cols, fields: fields}); err != nil {
			return n, err
		}
		n++
	}
}

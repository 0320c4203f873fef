// Package testutil builds small sqlite climate datasets for tests.
package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"climate-api/internal/db"
	"climate-api/internal/migrate"
	"climate-api/internal/seed"
)

// StationsCSV lists four stations; USC00518838 has no observations.
const StationsCSV = `station,name,latitude,longitude,elevation
USC00519397,"WAIKIKI 717.2, HI US",21.2716,-157.8168,3.0
USC00513117,"KANEOHE 838.1, HI US",21.4234,-157.8015,14.6
USC00519281,"WAIHEE 837.5, HI US",21.45167,-157.84889,32.9
USC00518838,"UPPER WAHIAWA 874.3, HI US",21.4992,-158.0111,306.6
`

// MeasurementsCSV ends on 2017-08-23. USC00519281 is the most active
// station with five rows; USC00519397 has three and USC00513117 two.
const MeasurementsCSV = `station,date,prcp,tobs
USC00519281,2010-01-01,0.08,65.0
USC00519281,2016-08-22,0.50,77.0
USC00519281,2016-08-23,1.79,76.0
USC00519281,2017-01-01,,70.0
USC00519281,2017-08-18,0.06,79.0
USC00519397,2012-05-05,0.02,59.0
USC00519397,2016-08-23,0.15,81.0
USC00519397,2017-08-23,0.00,81.0
USC00513117,2017-01-01,,68.0
USC00513117,2017-08-23,0.45,82.0
`

// NewDatasetFile writes a migrated sqlite file under t.TempDir loaded with
// the given CSV contents and returns its path.
func NewDatasetFile(t testing.TB, stationsCSV, measurementsCSV string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hawaii.sqlite")

	conn, err := db.OpenWritable(path)
	if err != nil {
		t.Fatalf("open dataset: %v", err)
	}
	defer func() {
		if err := db.Close(conn); err != nil {
			t.Errorf("close dataset: %v", err)
		}
	}()

	ctx := context.Background()
	if err := migrate.Run(ctx, conn); err != nil {
		t.Fatalf("migrate dataset: %v", err)
	}
	if _, err := seed.Load(ctx, conn, strings.NewReader(stationsCSV), strings.NewReader(measurementsCSV)); err != nil {
		t.Fatalf("seed dataset: %v", err)
	}
	return path
}

// NewDataset returns a handle to a dataset built by NewDatasetFile. The
// handle is closed when the test ends.
func NewDataset(t testing.TB, stationsCSV, measurementsCSV string) *sql.DB {
	t.Helper()
	path := NewDatasetFile(t, stationsCSV, measurementsCSV)

	conn, err := db.OpenWritable(path)
	if err != nil {
		t.Fatalf("reopen dataset: %v", err)
	}
	conn.SetMaxOpenConns(4)
	t.Cleanup(func() {
		if err := db.Close(conn); err != nil {
			t.Errorf("close dataset: %v", err)
		}
	})
	return conn
}

// EmptyDataset returns a migrated dataset with stations but no observations.
func EmptyDataset(t testing.TB) *sql.DB {
	t.Helper()
	return NewDataset(t, StationsCSV, "station,date,prcp,tobs\n")
}

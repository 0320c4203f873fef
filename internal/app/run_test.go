package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"climate-api/internal/config"
	"climate-api/internal/db"
	"climate-api/internal/observability"
	"climate-api/internal/testutil"
)

func testConfig(path string) config.Config {
	return config.Config{
		AppEnv:          "dev",
		LogLevel:        slog.LevelInfo,
		HTTPAddr:        "127.0.0.1:0",
		ShutdownTimeout: 5 * time.Second,
		Driver:          "sqlite3",
		Path:            path,
		MaxOpenConns:    4,
		MaxIdleConns:    4,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRun_ServesAndShutsDown(t *testing.T) {
	path := testutil.NewDatasetFile(t, testutil.StationsCSV, testutil.MeasurementsCSV)
	metrics := observability.NewMetricsForTesting()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ready := make(chan string, 1)
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, testConfig(path), discardLogger(), metrics, ready)
	}()

	var addr string
	select {
	case addr = <-ready:
	case err := <-done:
		t.Fatalf("Run exited early: %v", err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not become ready")
	}

	for _, tc := range []struct {
		path string
		code int
		want string
	}{
		{path: "/", code: http.StatusOK, want: "Available Routes:"},
		{path: "/healthz", code: http.StatusOK, want: `"ok"`},
		{path: "/api/v1.0/stations", code: http.StatusOK, want: "USC00519281"},
		{path: "/api/v1.0/2017-01-01", code: http.StatusOK, want: `{"Average Temp":76}`},
		{path: "/api/v1.0/2020-02-30", code: http.StatusNotFound, want: "2020-02-30"},
		{path: "/metrics", code: http.StatusOK, want: "climate_api_db_sessions_open 0"},
	} {
		resp, err := http.Get("http://" + addr + tc.path)
		require.NoError(t, err, tc.path)
		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		require.NoError(t, err)

		assert.Equal(t, tc.code, resp.StatusCode, tc.path)
		assert.Contains(t, string(body), tc.want, tc.path)
		assert.NotEmpty(t, resp.Header.Get("X-Request-ID"), tc.path)
	}

	cancel()
	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled), "Run() = %v", err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestRun_MissingDataset(t *testing.T) {
	cfg := testConfig(filepath.Join(t.TempDir(), "missing.sqlite"))

	err := Run(context.Background(), cfg, discardLogger(), observability.NewMetricsForTesting(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db ping")
}

func TestRun_SchemaMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blank.sqlite")
	conn, err := db.OpenWritable(path)
	require.NoError(t, err)
	_, err = conn.Exec(`CREATE TABLE station (id INTEGER PRIMARY KEY)`)
	require.NoError(t, err)
	require.NoError(t, db.Close(conn))

	err = Run(context.Background(), testConfig(path), discardLogger(), observability.NewMetricsForTesting(), nil)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "measurement"), "Run() = %v", err)
}

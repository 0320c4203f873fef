// Command climatedb prepares the sqlite dataset served by climate-api.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"climate-api/internal/db"
	"climate-api/internal/migrate"
	"climate-api/internal/seed"
)

const usage = `usage: %s <command>
  migrate                                 apply pending schema migrations
  load <stations.csv> <measurements.csv>  migrate, then load the dataset CSVs
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPath := os.Getenv("SQLITE_PATH")
	if dbPath == "" {
		dbPath = "Resources/hawaii.sqlite"
	}
	os.Exit(run(ctx, filepath.Clean(dbPath), os.Args, os.Stdout, os.Stderr))
}

func run(ctx context.Context, dbPath string, args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		fmt.Fprintf(stderr, usage, filepath.Base(args[0]))
		return 1
	}

	switch args[1] {
	case "migrate", "load":
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n", args[1])
		return 1
	}
	if args[1] == "load" && len(args) != 4 {
		fmt.Fprintf(stderr, usage, filepath.Base(args[0]))
		return 1
	}

	conn, err := db.OpenWritable(dbPath)
	if err != nil {
		fmt.Fprintf(stderr, "db open: %v\n", err)
		return 1
	}
	defer func() {
		if closeErr := db.Close(conn); closeErr != nil {
			slog.Error("db close", "err", closeErr)
		}
	}()

	if err := migrate.Run(ctx, conn); err != nil {
		fmt.Fprintf(stderr, "migrate: %v\n", err)
		return 1
	}
	if args[1] == "migrate" {
		fmt.Fprintln(stdout, "migrations applied")
		return 0
	}

	res, err := loadFiles(ctx, conn, args[2], args[3])
	if err != nil {
		fmt.Fprintf(stderr, "load: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "loaded %d stations and %d measurements\n", res.Stations, res.Measurements)
	return 0
}

func loadFiles(ctx context.Context, conn *sql.DB, stationsPath, measurementsPath string) (seed.Result, error) {
	stations, err := os.Open(stationsPath)
	if err != nil {
		return seed.Result{}, err
	}
	defer func() { _ = stations.Close() }()

	measurements, err := os.Open(measurementsPath)
	if err != nil {
		return seed.Result{}, err
	}
	defer func() { _ = measurements.Close() }()

	return seed.Load(ctx, conn, stations, measurements)
}

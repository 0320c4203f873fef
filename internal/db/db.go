package db

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"climate-api/internal/config"

	_ "github.com/mattn/go-sqlite3"
)

// Open returns the server's pooled handle to the dataset. The file is opened
// read-only; the server never writes to it.
func Open(cfg config.Config, logger *slog.Logger) (*sql.DB, error) {
	dsn := buildDSN(cfg.DSN, cfg.Path, true)

	var (
		db  *sql.DB
		err error
	)
	if cfg.LogQueries {
		if cfg.Driver != "sqlite3" {
			return nil, fmt.Errorf("db open: query logging requires driver sqlite3, got %q", cfg.Driver)
		}
		connector, cerr := NewLoggingConnector(dsn, logger)
		if cerr != nil {
			return nil, fmt.Errorf("db open: %w", cerr)
		}
		db = sql.OpenDB(connector)
	} else {
		db, err = sql.Open(cfg.Driver, dsn)
		if err != nil {
			return nil, fmt.Errorf("db open: %w", err)
		}
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns >= 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	return db, nil
}

// OpenWritable opens the dataset file for the offline tooling, creating the
// parent directory when needed.
func OpenWritable(path string) (*sql.DB, error) {
	dir := filepath.Dir(path)
	if dir != "." && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", buildDSN("", path, false))
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	// Single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func Close(db *sql.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}

func buildDSN(dsn, path string, readOnly bool) string {
	if dsn != "" {
		return dsn
	}

	params := []string{
		"_foreign_keys=on",
		"_busy_timeout=5000",
	}
	if readOnly {
		// journal_mode is a write; leave whatever the file already uses.
		params = append(params, "mode=ro")
	} else {
		params = append(params, "_journal_mode=WAL")
	}

	if strings.HasPrefix(path, "file:") {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return path + sep + strings.Join(params, "&")
	}

	return fmt.Sprintf("file:%s?%s", path, strings.Join(params, "&"))
}

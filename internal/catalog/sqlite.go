// Package catalog provides storage backends for the order catalog.
//
// This file implements the SQLite-backed catalog loader.
package catalog

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "embed"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// OpenSQLite opens an SQLite catalog database, applies migrations, optionally
// seeds fixture data, and loads the full catalog into memory.
func OpenSQLite(opts ...Option) (*StaticCatalog, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("OpenSQLite invoked", "DSN_set", cfg.DSN != "", "seed", cfg.Seed)

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLite catalog DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running SQLite catalog migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run catalog migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if cfg.Seed {
		if err := seedCatalog(db, func(q string) string { return q }); err != nil {
			slog.Error("Failed to seed SQLite catalog", "error", err)
			return nil, err
		}
	}

	c, err := loadCatalog(db)
	if err != nil {
		slog.Error("Failed to load SQLite catalog", "error", err)
		return nil, err
	}
	slog.Info("SQLite catalog loaded", "dsn", dsn)
	return c, nil
}

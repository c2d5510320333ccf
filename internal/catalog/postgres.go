// Package catalog provides storage backends for the order catalog.
//
// This file implements the PostgreSQL-backed catalog loader.
package catalog

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "embed"

	_ "github.com/lib/pq"
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// OpenPostgres opens a PostgreSQL catalog database, applies migrations,
// optionally seeds fixture data, and loads the full catalog into memory.
func OpenPostgres(opts ...Option) (*StaticCatalog, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("OpenPostgres invoked", "DSN_set", cfg.DSN != "", "seed", cfg.Seed)

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("Postgres catalog DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running Postgres catalog migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run catalog migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if cfg.Seed {
		if err := seedCatalog(db, rebindPostgres); err != nil {
			slog.Error("Failed to seed Postgres catalog", "error", err)
			return nil, err
		}
	}

	c, err := loadCatalog(db)
	if err != nil {
		slog.Error("Failed to load Postgres catalog", "error", err)
		return nil, err
	}
	slog.Info("Postgres catalog loaded")
	return c, nil
}

// rebindPostgres rewrites "?" placeholders into "$1, $2, ..." form.
func rebindPostgres(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Package store provides storage backends for orderflow.
//
// This file implements the SQLite-backed order store.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/bitewise/orderflow/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore persists orders in an SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN. The DSN is a
// file path; its directory is created if missing.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
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
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running SQLite store migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// SaveOrder upserts the conversation's order.
func (s *SQLiteStore) SaveOrder(conversationID string, order *models.Order) error {
	body, err := json.Marshal(order)
	if err != nil {
		slog.Error("SQLiteStore SaveOrder marshal failed", "error", err, "conversation_id", conversationID)
		return fmt.Errorf("failed to marshal order: %w", err)
	}
	_, err = s.db.Exec(`INSERT INTO orders (conversation_id, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(conversation_id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		conversationID, string(body), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		slog.Error("SQLiteStore SaveOrder failed", "error", err, "conversation_id", conversationID)
		return fmt.Errorf("failed to save order for %s: %w", conversationID, err)
	}
	slog.Debug("SQLiteStore SaveOrder succeeded", "conversation_id", conversationID)
	return nil
}

// GetOrder loads the conversation's order, or nil when absent.
func (s *SQLiteStore) GetOrder(conversationID string) (*models.Order, error) {
	var body string
	err := s.db.QueryRow(`SELECT body FROM orders WHERE conversation_id = ?`, conversationID).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetOrder failed", "error", err, "conversation_id", conversationID)
		return nil, fmt.Errorf("failed to load order for %s: %w", conversationID, err)
	}
	var order models.Order
	if err := json.Unmarshal([]byte(body), &order); err != nil {
		slog.Error("SQLiteStore GetOrder unmarshal failed", "error", err, "conversation_id", conversationID)
		return nil, fmt.Errorf("failed to unmarshal order for %s: %w", conversationID, err)
	}
	return &order, nil
}

// DeleteOrder removes the conversation's order.
func (s *SQLiteStore) DeleteOrder(conversationID string) error {
	_, err := s.db.Exec(`DELETE FROM orders WHERE conversation_id = ?`, conversationID)
	if err != nil {
		slog.Error("SQLiteStore DeleteOrder failed", "error", err, "conversation_id", conversationID)
		return fmt.Errorf("failed to delete order for %s: %w", conversationID, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Package store provides storage backends for orderflow.
//
// This file implements the PostgreSQL-backed order store.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/bitewise/orderflow/internal/models"
	_ "github.com/lib/pq"
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore persists orders in a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL store with the given DSN.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewPostgresStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running Postgres store migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// SaveOrder upserts the conversation's order.
func (s *PostgresStore) SaveOrder(conversationID string, order *models.Order) error {
	body, err := json.Marshal(order)
	if err != nil {
		slog.Error("PostgresStore SaveOrder marshal failed", "error", err, "conversation_id", conversationID)
		return fmt.Errorf("failed to marshal order: %w", err)
	}
	_, err = s.db.Exec(`INSERT INTO orders (conversation_id, body, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (conversation_id) DO UPDATE SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`,
		conversationID, string(body), time.Now().UTC())
	if err != nil {
		slog.Error("PostgresStore SaveOrder failed", "error", err, "conversation_id", conversationID)
		return fmt.Errorf("failed to save order for %s: %w", conversationID, err)
	}
	slog.Debug("PostgresStore SaveOrder succeeded", "conversation_id", conversationID)
	return nil
}

// GetOrder loads the conversation's order, or nil when absent.
func (s *PostgresStore) GetOrder(conversationID string) (*models.Order, error) {
	var body string
	err := s.db.QueryRow(`SELECT body FROM orders WHERE conversation_id = $1`, conversationID).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetOrder failed", "error", err, "conversation_id", conversationID)
		return nil, fmt.Errorf("failed to load order for %s: %w", conversationID, err)
	}
	var order models.Order
	if err := json.Unmarshal([]byte(body), &order); err != nil {
		slog.Error("PostgresStore GetOrder unmarshal failed", "error", err, "conversation_id", conversationID)
		return nil, fmt.Errorf("failed to unmarshal order for %s: %w", conversationID, err)
	}
	return &order, nil
}

// DeleteOrder removes the conversation's order.
func (s *PostgresStore) DeleteOrder(conversationID string) error {
	_, err := s.db.Exec(`DELETE FROM orders WHERE conversation_id = $1`, conversationID)
	if err != nil {
		slog.Error("PostgresStore DeleteOrder failed", "error", err, "conversation_id", conversationID)
		return fmt.Errorf("failed to delete order for %s: %w", conversationID, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

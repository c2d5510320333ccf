// Package store provides storage backends for orderflow.
//
// Orders are persisted per conversation as JSON documents, keyed by
// conversation id, so any backend can round-trip the full order aggregate.
package store

import (
	"sync"

	"github.com/bitewise/orderflow/internal/models"
)

// Store persists one order per conversation.
type Store interface {
	// SaveOrder upserts the conversation's order.
	SaveOrder(conversationID string, order *models.Order) error
	// GetOrder loads the conversation's order, or (nil, nil) when absent.
	GetOrder(conversationID string) (*models.Order, error)
	// DeleteOrder removes the conversation's order.
	DeleteOrder(conversationID string) error
}

// Opts holds configuration options for store backends.
type Opts struct {
	DSN string // database connection string
}

// Option defines a configuration option for store backends.
type Option func(*Opts)

// WithDSN sets the database connection string.
func WithDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// InMemoryStore keeps orders in a map, for tests and single-process use.
type InMemoryStore struct {
	mu     sync.RWMutex
	orders map[string]*models.Order
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{orders: make(map[string]*models.Order)}
}

// SaveOrder upserts the conversation's order.
func (s *InMemoryStore) SaveOrder(conversationID string, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[conversationID] = order
	return nil
}

// GetOrder loads the conversation's order, or nil when absent.
func (s *InMemoryStore) GetOrder(conversationID string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.orders[conversationID], nil
}

// DeleteOrder removes the conversation's order.
func (s *InMemoryStore) DeleteOrder(conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.orders, conversationID)
	return nil
}

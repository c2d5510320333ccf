// Package api provides HTTP handlers and the main API server logic for
// orderflow.
//
// It exposes a conversational /chat endpoint that drives the order engine,
// plus order retrieval and a health check.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/bitewise/orderflow/internal/engine"
	"github.com/bitewise/orderflow/internal/models"
	"github.com/bitewise/orderflow/internal/store"
)

// Server wires the engine and store behind HTTP handlers.
//
// The engine requires exclusive access to an order for the duration of one
// turn, so the server serializes turns per conversation id.
type Server struct {
	eng *engine.Engine
	st  store.Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewServer creates an API server over the given engine and store.
func NewServer(eng *engine.Engine, st store.Store) *Server {
	return &Server{eng: eng, st: st, locks: make(map[string]*sync.Mutex)}
}

// Handler returns the HTTP handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/chat", s.chatHandler)
	mux.HandleFunc("/orders/", s.orderHandler)
	mux.HandleFunc("/health", s.healthHandler)
	return mux
}

// Run starts the HTTP server on addr and blocks.
func (s *Server) Run(addr string) error {
	slog.Info("orderflow API running", "addr", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// conversationLock returns the per-conversation mutex, creating it on first
// use.
func (s *Server) conversationLock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, models.Error("method not allowed"))
		return
	}
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Debug("chatHandler bad request body", "error", err)
		writeJSON(w, http.StatusBadRequest, models.Error("invalid request body"))
		return
	}
	if req.ConversationID == "" || strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, models.Error("conversation_id and message are required"))
		return
	}

	lock := s.conversationLock(req.ConversationID)
	lock.Lock()
	defer lock.Unlock()

	order, err := s.st.GetOrder(req.ConversationID)
	if err != nil {
		slog.Error("chatHandler failed to load order", "error", err, "conversation_id", req.ConversationID)
		writeJSON(w, http.StatusInternalServerError, models.Error("failed to load order"))
		return
	}
	if order == nil {
		order = models.NewOrder()
	}

	reply, err := s.eng.ProcessTurn(r.Context(), order, req.Message)
	if err != nil {
		slog.Error("chatHandler engine turn failed", "error", err, "conversation_id", req.ConversationID)
		writeJSON(w, http.StatusInternalServerError, models.Error("failed to process message"))
		return
	}

	if err := s.st.SaveOrder(req.ConversationID, order); err != nil {
		slog.Error("chatHandler failed to save order", "error", err, "conversation_id", req.ConversationID)
		writeJSON(w, http.StatusInternalServerError, models.Error("failed to save order"))
		return
	}

	writeJSON(w, http.StatusOK, models.Success(models.ChatResult{
		ConversationID: req.ConversationID,
		Reply:          reply,
		Order:          order,
		Subtotal:       order.Subtotal(),
	}))
}

func (s *Server) orderHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, models.Error("method not allowed"))
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/orders/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, models.Error("conversation id is required"))
		return
	}
	order, err := s.st.GetOrder(id)
	if err != nil {
		slog.Error("orderHandler failed to load order", "error", err, "conversation_id", id)
		writeJSON(w, http.StatusInternalServerError, models.Error("failed to load order"))
		return
	}
	if order == nil {
		writeJSON(w, http.StatusNotFound, models.Error("order not found"))
		return
	}
	writeJSON(w, http.StatusOK, models.Success(order))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.SuccessWithMessage("ok", nil))
}

func writeJSON(w http.ResponseWriter, status int, body models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

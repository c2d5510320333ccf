package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bitewise/orderflow/internal/catalog"
	"github.com/bitewise/orderflow/internal/engine"
	"github.com/bitewise/orderflow/internal/models"
	"github.com/bitewise/orderflow/internal/nlu"
	"github.com/bitewise/orderflow/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cat := catalog.Fixture()
	items, err := cat.Items()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	eng, err := engine.New(cat, nlu.NewDeterministic(items))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return NewServer(eng, store.NewInMemoryStore())
}

func postChat(t *testing.T, h http.Handler, conversationID, message string) models.APIResponse {
	t.Helper()
	body, _ := json.Marshal(models.ChatRequest{ConversationID: conversationID, Message: message})
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /chat returned %d: %s", rec.Code, rec.Body.String())
	}
	var resp models.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	return resp
}

func TestChatConversation(t *testing.T) {
	h := newTestServer(t).Handler()

	resp := postChat(t, h, "conv-1", "can i get a latte")
	if resp.Status != string(models.APIStatusOK) {
		t.Fatalf("status = %s", resp.Status)
	}
	result, _ := json.Marshal(resp.Result)
	var chat models.ChatResult
	if err := json.Unmarshal(result, &chat); err != nil {
		t.Fatalf("bad chat result: %v", err)
	}
	if !strings.Contains(chat.Reply, "What size") {
		t.Errorf("expected size question, got %q", chat.Reply)
	}
	if chat.Order == nil || len(chat.Order.Items) != 1 {
		t.Fatal("order not returned with item")
	}

	// The order persists across turns for the same conversation.
	resp = postChat(t, h, "conv-1", "small")
	result, _ = json.Marshal(resp.Result)
	if err := json.Unmarshal(result, &chat); err != nil {
		t.Fatalf("bad chat result: %v", err)
	}
	if chat.Order.Items[0].Values["size"].Slug != "small" {
		t.Errorf("size not persisted across turns: %+v", chat.Order.Items[0].Values)
	}
}

func TestChatValidation(t *testing.T) {
	h := newTestServer(t).Handler()

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"hi"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing conversation_id returned %d, want 400", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/chat", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /chat returned %d, want 405", rec.Code)
	}
}

func TestGetOrder(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()

	postChat(t, h, "conv-9", "a plain bagel")

	req := httptest.NewRequest(http.MethodGet, "/orders/conv-9", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /orders returned %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/orders/nope", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown order returned %d, want 404", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	h := newTestServer(t).Handler()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("health returned %d", rec.Code)
	}
}

package store

import (
	"path/filepath"
	"testing"

	"github.com/bitewise/orderflow/internal/models"
)

func TestInMemoryStore(t *testing.T) {
	s := NewInMemoryStore()
	order := models.NewOrder()
	if err := s.SaveOrder("conv-1", order); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := s.GetOrder("conv-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.ID != order.ID {
		t.Error("order not stored or retrieved correctly")
	}

	missing, err := s.GetOrder("conv-2")
	if err != nil || missing != nil {
		t.Errorf("expected nil for unknown conversation, got %v, %v", missing, err)
	}

	if err := s.DeleteOrder("conv-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ = s.GetOrder("conv-1")
	if got != nil {
		t.Error("order still present after delete")
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	s, err := NewSQLiteStore(WithDSN(filepath.Join(t.TempDir(), "orders.db")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Close()

	order := models.NewOrder()
	item := models.NewItem("bagel", "Bagel", 2.20)
	item.SetValue("toasted", models.BoolValue(true))
	order.AddItem(item)
	order.SetPending(item.ID, "bagel_type")
	order.QueueConfig(models.QueuedConfig{ItemID: "other", Family: "coffee", Name: "Latte"})

	if err := s.SaveOrder("conv-1", order); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := s.GetOrder("conv-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.ID != order.ID {
		t.Fatal("order not round-tripped")
	}
	if got.PendingItemID != item.ID || got.PendingField != "bagel_type" {
		t.Errorf("pending state lost: %q/%q", got.PendingItemID, got.PendingField)
	}
	if len(got.Items) != 1 || got.Items[0].Values["toasted"].Bool == nil {
		t.Error("item state lost in round trip")
	}
	if len(got.ConfigQueue) != 1 || got.ConfigQueue[0].Name != "Latte" {
		t.Error("config queue lost in round trip")
	}

	// Saving again overwrites.
	order.ClearPending()
	if err := s.SaveOrder("conv-1", order); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ = s.GetOrder("conv-1")
	if got.PendingItemID != "" {
		t.Error("upsert did not overwrite pending state")
	}

	if err := s.DeleteOrder("conv-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ = s.GetOrder("conv-1")
	if got != nil {
		t.Error("order still present after delete")
	}
}

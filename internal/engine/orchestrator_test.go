package engine

import (
	"strings"
	"testing"

	"github.com/bitewise/orderflow/internal/models"
)

func TestQueueFIFO(t *testing.T) {
	eng := newTestEngine(t)
	order := models.NewOrder()
	order.Phase = models.PhaseTakingItems

	var ids []string
	for i := 0; i < 3; i++ {
		item := models.NewItem("bagel", "Bagel", 2.20)
		item.Status = models.ItemStatusPending
		order.AddItem(item)
		order.QueueConfig(models.QueuedConfig{ItemID: item.ID, Family: item.Family, Name: item.Name})
		ids = append(ids, item.ID)
	}

	for i, want := range ids {
		if _, err := eng.NextQuestion(order); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if order.PendingItemID != want {
			t.Fatalf("pass %d configured item %s, want %s", i, order.PendingItemID, want)
		}
		order.ItemByID(want).MarkComplete()
		order.ClearPending()
	}
}

func TestOrdinalDescriptors(t *testing.T) {
	eng := newTestEngine(t)
	order := models.NewOrder()

	reply := turn(t, eng, order, "a bagel and a bagel")
	if !strings.Contains(reply, "the first bagel") {
		t.Fatalf("expected first-bagel ordinal, got %q", reply)
	}
	if len(order.ActiveItems()) != 2 {
		t.Fatalf("expected 2 items, got %d", len(order.ActiveItems()))
	}

	turn(t, eng, order, "everything")
	turn(t, eng, order, "yes")
	reply = turn(t, eng, order, "no")
	if !strings.Contains(reply, "the second bagel") {
		t.Fatalf("expected second-bagel ordinal after first completes, got %q", reply)
	}

	first := order.ActiveItems()[0]
	if first.Status != models.ItemStatusComplete {
		t.Errorf("first bagel status = %s, want complete", first.Status)
	}
	if first.Values["bagel_type"].Slug != "everything" {
		t.Errorf("first bagel type = %q, want everything", first.Values["bagel_type"].Slug)
	}
}

func TestConsolidatedSummaryCounts(t *testing.T) {
	mk := func() *models.Item {
		item := models.NewItem("bagel", "Bagel", 2.20)
		item.SetValue("bagel_type", models.AttributeValue{Slug: "plain"})
		item.Selections["bagel_type"] = []models.Selection{{Slug: "plain", DisplayName: "Plain", Quantity: 1}}
		item.SetValue("toasted", models.BoolValue(true))
		return item
	}
	got := ConsolidatedSummary([]*models.Item{mk(), mk()})
	if !strings.Contains(got, "2 Plain Bagels") {
		t.Errorf("expected counted plural summary, got %q", got)
	}
	if strings.Count(got, "Plain") != 1 {
		t.Errorf("identical items listed separately: %q", got)
	}
}

func TestFinishPassSummary(t *testing.T) {
	eng := newTestEngine(t)
	order := models.NewOrder()
	item := models.NewItem("bagel", "Bagel", 2.20)
	item.SetValue("bagel_type", models.AttributeValue{Slug: "plain"})
	item.Selections["bagel_type"] = []models.Selection{{Slug: "plain", DisplayName: "Plain", Quantity: 1}}
	item.SetValue("toasted", models.BoolValue(false))
	item.CustomizationOffered = true
	order.AddItem(item)

	reply, err := eng.NextQuestion(order)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.Status != models.ItemStatusComplete {
		t.Errorf("item status = %s, want complete", item.Status)
	}
	if !strings.Contains(reply, "$2.20") {
		t.Errorf("expected subtotal in summary, got %q", reply)
	}
	if order.Phase != models.PhaseComplete {
		t.Errorf("phase = %s, want complete", order.Phase)
	}
}

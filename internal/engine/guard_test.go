package engine

import (
	"strings"
	"testing"

	"github.com/bitewise/orderflow/internal/catalog"
	"github.com/bitewise/orderflow/internal/models"
)

func TestRemoveModifierMidConfiguration(t *testing.T) {
	eng := newTestEngine(t)
	order := models.NewOrder()

	item := models.NewItem("bagel", "Bagel", 2.20)
	item.SetValue("protein", models.AttributeValue{Slug: "bacon"})
	item.Selections["protein"] = []models.Selection{{Slug: "bacon", DisplayName: "Bacon", Price: 2.00, Quantity: 1}}
	order.AddItem(item)
	if err := Recalculate(catalog.Fixture(), item); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before := item.UnitPrice
	order.SetPending(item.ID, "spread")

	reply := turn(t, eng, order, "remove the bacon")
	if item.Answered("protein") {
		t.Error("protein still answered after removal")
	}
	if len(item.Selections["protein"]) != 0 {
		t.Error("protein selection still present after removal")
	}
	if item.UnitPrice >= before {
		t.Errorf("price did not go down: %.2f -> %.2f", before, item.UnitPrice)
	}
	// The pending question is re-asked.
	if !strings.Contains(reply, "spread") {
		t.Errorf("expected pending spread question re-asked, got %q", reply)
	}
	if order.PendingField != "spread" {
		t.Errorf("pending field = %q, want spread", order.PendingField)
	}
}

func TestCancelCurrentItem(t *testing.T) {
	eng := newTestEngine(t)
	order := models.NewOrder()
	item := models.NewItem("bagel", "Bagel", 2.20)
	order.AddItem(item)
	order.SetPending(item.ID, "bagel_type")

	reply := turn(t, eng, order, "never mind that")
	if item.Status != models.ItemStatusSkipped {
		t.Errorf("item status = %s, want skipped", item.Status)
	}
	if order.PendingItemID != "" {
		t.Errorf("pending item not cleared: %q", order.PendingItemID)
	}
	if !strings.Contains(reply, "removed the bagel") {
		t.Errorf("expected removal acknowledgment, got %q", reply)
	}
}

func TestRemoveWholeItemsPlural(t *testing.T) {
	eng := newTestEngine(t)
	order := models.NewOrder()
	for i := 0; i < 2; i++ {
		item := models.NewItem("coffee", "Coffee", 3.45)
		item.MarkComplete()
		order.AddItem(item)
	}
	bagel := models.NewItem("bagel", "Bagel", 2.20)
	bagel.MarkComplete()
	order.AddItem(bagel)

	turn(t, eng, order, "remove the coffees")
	if len(order.ActiveItems()) != 1 {
		t.Fatalf("expected 1 active item, got %d", len(order.ActiveItems()))
	}
	if order.ActiveItems()[0].Name != "Bagel" {
		t.Errorf("wrong item removed, remaining %s", order.ActiveItems()[0].Name)
	}
}

func TestCancelQueuedItemLeavesCart(t *testing.T) {
	eng := newTestEngine(t)
	order := models.NewOrder()

	turn(t, eng, order, "a bagel and a latte")
	if len(order.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(order.Items))
	}

	// The latte never started configuring, so it comes out entirely.
	reply := turn(t, eng, order, "cancel the latte")
	if !strings.Contains(reply, "removed the latte") {
		t.Fatalf("expected removal acknowledgment, got %q", reply)
	}
	if len(order.Items) != 1 || order.Items[0].Name != "Bagel" {
		t.Fatalf("expected only the bagel left, got %d items", len(order.Items))
	}
	// The bagel question continues.
	if !strings.Contains(reply, "What kind of bagel") {
		t.Errorf("expected bagel question to resume, got %q", reply)
	}
}

func TestOffTopicRedirect(t *testing.T) {
	eng := newTestEngine(t)
	order := models.NewOrder()
	item := models.NewItem("bagel", "Bagel", 2.20)
	order.AddItem(item)
	order.SetPending(item.ID, "bagel_type")

	reply := turn(t, eng, order, "what syrups do you have")
	if !strings.Contains(reply, "finish your bagel first") {
		t.Errorf("expected redirect, got %q", reply)
	}
	if order.PendingField != "bagel_type" {
		t.Errorf("pending field changed to %q", order.PendingField)
	}
}

func TestPendingAttributeInquiryPagesOptions(t *testing.T) {
	eng := newTestEngine(t)
	order := models.NewOrder()
	item := models.NewItem("bagel", "Bagel", 2.20)
	order.AddItem(item)
	order.SetPending(item.ID, "bagel_type")

	reply := turn(t, eng, order, "what bagels do you have")
	if strings.Contains(reply, "finish your bagel first") {
		t.Fatalf("pending-attribute inquiry was redirected: %q", reply)
	}
	if !strings.Contains(reply, "Plain") || !strings.Contains(reply, "Onion") {
		t.Errorf("expected first page of bagel options, got %q", reply)
	}
	if strings.Contains(reply, "Gluten Free") {
		t.Errorf("expected page size of %d, got %q", optionsPageSize, reply)
	}

	reply = turn(t, eng, order, "show more")
	if !strings.Contains(reply, "Gluten Free") {
		t.Errorf("expected second page, got %q", reply)
	}
}

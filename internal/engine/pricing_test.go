package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/bitewise/orderflow/internal/catalog"
	"github.com/bitewise/orderflow/internal/models"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// icedLatte builds a fully configured large iced oat-milk latte with two
// vanilla syrups.
func icedLatte() *models.Item {
	item := models.NewItem("coffee", "Latte", 4.50)
	item.SetValue("size", models.AttributeValue{Slug: "large"})
	item.Selections["size"] = []models.Selection{{Slug: "large", DisplayName: "Large", Price: 0.90, Quantity: 1}}
	item.SetValue("temperature", models.AttributeValue{Slug: "iced"})
	item.Selections["temperature"] = []models.Selection{{Slug: "iced", DisplayName: "Iced", Quantity: 1}}
	item.SetValue("milk", models.AttributeValue{Slug: "oat_milk"})
	item.Selections["milk"] = []models.Selection{{Slug: "oat_milk", DisplayName: "Oat Milk", Price: 0.50, Quantity: 1}}
	item.SetValue("syrups", models.AttributeValue{Slugs: []string{"vanilla"}})
	item.Selections["syrups"] = []models.Selection{{Slug: "vanilla", DisplayName: "Vanilla Syrup", Price: 0.65, Quantity: 2}}
	return item
}

func TestRecalculateLatte(t *testing.T) {
	cat := catalog.Fixture()
	item := icedLatte()
	if err := Recalculate(cat, item); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// base + size + milk + 2 syrups + iced upcharge keyed by size.
	want := 4.50 + 0.90 + 0.50 + 2*0.65 + 1.10
	if !almostEqual(item.UnitPrice, want) {
		t.Errorf("unit price = %.2f, want %.2f", item.UnitPrice, want)
	}
}

func TestRecalculateIdempotent(t *testing.T) {
	cat := catalog.Fixture()
	item := icedLatte()
	if err := Recalculate(cat, item); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first := item.UnitPrice
	if err := Recalculate(cat, item); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(item.UnitPrice, first) {
		t.Errorf("second recalculation changed price: %.4f vs %.4f", item.UnitPrice, first)
	}
}

func TestRecalculateMissingUpchargeFails(t *testing.T) {
	cat := catalog.Fixture()
	item := icedLatte()
	// A size with no iced_by_size entry must fail loudly, never price as free.
	item.SetValue("size", models.AttributeValue{Slug: "medium"})
	err := Recalculate(cat, item)
	if err == nil {
		t.Fatal("expected error for missing upcharge entry")
	}
	if !errors.Is(err, models.ErrPriceNotFound) {
		t.Errorf("expected ErrPriceNotFound, got %v", err)
	}
}

func TestRecalculateBreadUpcharge(t *testing.T) {
	cat := catalog.Fixture()
	item := models.NewItem("bagel", "Bagel", 2.20)
	item.SetValue("bagel_type", models.AttributeValue{Slug: "gluten_free"})
	item.Selections["bagel_type"] = []models.Selection{{Slug: "gluten_free", DisplayName: "Gluten Free", Quantity: 1}}
	if err := Recalculate(cat, item); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(item.UnitPrice, 2.20+0.80) {
		t.Errorf("unit price = %.2f, want %.2f", item.UnitPrice, 3.00)
	}
}

package engine

import (
	"context"
	"testing"

	"github.com/bitewise/orderflow/internal/catalog"
	"github.com/bitewise/orderflow/internal/models"
	"github.com/bitewise/orderflow/internal/nlu"
)

// newTestEngine builds an engine over the fixture catalog with deterministic
// extraction only.
func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	cat := catalog.Fixture()
	items, err := cat.Items()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	eng, err := New(cat, nlu.NewDeterministic(items))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return eng
}

// turn runs one utterance through the engine and fails the test on error.
func turn(t *testing.T, eng *Engine, order *models.Order, utterance string) string {
	t.Helper()
	reply, err := eng.ProcessTurn(context.Background(), order, utterance)
	if err != nil {
		t.Fatalf("ProcessTurn(%q) returned error: %v", utterance, err)
	}
	if reply == "" {
		t.Fatalf("ProcessTurn(%q) returned empty reply", utterance)
	}
	return reply
}

// fixtureAttr fetches one attribute definition from the fixture catalog.
func fixtureAttr(t *testing.T, family, slug string) *models.AttributeDefinition {
	t.Helper()
	attrs, err := catalog.Fixture().Attributes(family)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	attr := findAttribute(attrs, slug)
	if attr == nil {
		t.Fatalf("attribute %s/%s not in fixture", family, slug)
	}
	return attr
}

// singleItem returns the order's only active item.
func singleItem(t *testing.T, order *models.Order) *models.Item {
	t.Helper()
	active := order.ActiveItems()
	if len(active) != 1 {
		t.Fatalf("expected 1 active item, got %d", len(active))
	}
	return active[0]
}

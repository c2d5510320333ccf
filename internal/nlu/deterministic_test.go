package nlu

import (
	"context"
	"testing"

	"github.com/bitewise/orderflow/internal/catalog"
)

func newExtractor(t *testing.T) *Deterministic {
	t.Helper()
	items, err := catalog.Fixture().Items()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return NewDeterministic(items)
}

func TestExtractSingleItemWithModifiers(t *testing.T) {
	d := newExtractor(t)
	out, err := d.Extract(context.Background(), "can i get a plain bagel toasted with lettuce and tomato")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Unclear || len(out.Items) != 1 {
		t.Fatalf("expected 1 clear item, got %+v", out)
	}
	item := out.Items[0]
	if item.Name != "Bagel" || item.Quantity != 1 {
		t.Errorf("item = %+v, want Bagel x1", item)
	}
	want := map[string]bool{"plain": true, "toasted": true, "lettuce": true, "tomato": true}
	for _, m := range item.Modifiers {
		if !want[m] {
			t.Errorf("unexpected modifier %q", m)
		}
		delete(want, m)
	}
	if len(want) != 0 {
		t.Errorf("missing modifiers: %v", want)
	}
}

func TestExtractLongestPhraseWins(t *testing.T) {
	d := newExtractor(t)
	out, err := d.Extract(context.Background(), "a matcha latte please")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(out.Items))
	}
	if out.Items[0].Name != "Matcha Latte" {
		t.Errorf("item = %q, want Matcha Latte", out.Items[0].Name)
	}
}

func TestExtractMultipleItems(t *testing.T) {
	d := newExtractor(t)
	out, err := d.Extract(context.Background(), "i'll have a bagel toasted and a large latte")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Items) != 2 {
		t.Fatalf("expected 2 items, got %+v", out.Items)
	}
	if out.Items[0].Name != "Bagel" || out.Items[1].Name != "Latte" {
		t.Errorf("items = %q, %q", out.Items[0].Name, out.Items[1].Name)
	}
	if !hasModifier(out.Items[0], "toasted") {
		t.Errorf("bagel modifiers = %v, want toasted", out.Items[0].Modifiers)
	}
	if !hasModifier(out.Items[1], "large") {
		t.Errorf("latte modifiers = %v, want large", out.Items[1].Modifiers)
	}
}

func TestExtractQuantity(t *testing.T) {
	d := newExtractor(t)
	out, err := d.Extract(context.Background(), "two bagels")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Items) != 1 || out.Items[0].Quantity != 2 {
		t.Fatalf("expected Bagel x2, got %+v", out.Items)
	}
}

func TestExtractUnclear(t *testing.T) {
	d := newExtractor(t)
	out, err := d.Extract(context.Background(), "how late are you open")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Unclear || len(out.Items) != 0 {
		t.Fatalf("expected unclear, got %+v", out)
	}
}

func hasModifier(item CandidateItem, want string) bool {
	for _, m := range item.Modifiers {
		if m == want {
			return true
		}
	}
	return false
}

package engine

import (
	"strings"
	"testing"

	"github.com/bitewise/orderflow/internal/models"
)

func TestPlainBagelOneUtterance(t *testing.T) {
	eng := newTestEngine(t)
	order := models.NewOrder()

	turn(t, eng, order, "plain bagel toasted with lettuce and tomato")
	item := singleItem(t, order)

	if item.Values["bagel_type"].Slug != "plain" {
		t.Errorf("bagel_type = %q, want plain", item.Values["bagel_type"].Slug)
	}
	if v := item.Values["toasted"]; v.Bool == nil || !*v.Bool {
		t.Error("toasted not captured as true")
	}
	extras := item.Values["extras"].Slugs
	if len(extras) != 2 {
		t.Fatalf("extras = %v, want lettuce and tomato", extras)
	}

	// Every mandatory attribute is already answered; only the optional
	// customization checkpoint remains.
	if order.PendingField != pendingCustomize {
		t.Errorf("pending field = %q, want customization checkpoint", order.PendingField)
	}

	reply := turn(t, eng, order, "no")
	if item.Status != models.ItemStatusComplete {
		t.Errorf("item status = %s, want complete", item.Status)
	}
	if !strings.Contains(reply, "Plain Bagel") {
		t.Errorf("expected summary, got %q", reply)
	}
}

func TestIcedLatteOneUtterance(t *testing.T) {
	eng := newTestEngine(t)
	order := models.NewOrder()

	turn(t, eng, order, "large iced latte with oat milk and 2 vanilla syrups")
	item := singleItem(t, order)

	if item.Values["size"].Slug != "large" {
		t.Errorf("size = %q, want large", item.Values["size"].Slug)
	}
	if item.Values["temperature"].Slug != "iced" {
		t.Errorf("temperature = %q, want iced", item.Values["temperature"].Slug)
	}
	if item.Values["milk"].Slug != "oat_milk" {
		t.Errorf("milk = %q, want oat_milk", item.Values["milk"].Slug)
	}
	syrups := item.Selections["syrups"]
	if len(syrups) != 1 || syrups[0].Slug != "vanilla" || syrups[0].Quantity != 2 {
		t.Fatalf("syrups = %+v, want vanilla x2", syrups)
	}

	want := 4.50 + 0.90 + 0.50 + 2*0.65 + 1.10
	if !almostEqual(item.UnitPrice, want) {
		t.Errorf("unit price = %.2f, want %.2f", item.UnitPrice, want)
	}
}

func TestUnansweredQuestionIsAsked(t *testing.T) {
	eng := newTestEngine(t)
	order := models.NewOrder()

	reply := turn(t, eng, order, "can i get a latte")
	if !strings.Contains(reply, "What size") {
		t.Fatalf("expected size question, got %q", reply)
	}

	reply = turn(t, eng, order, "small")
	if !strings.Contains(reply, "Hot or iced?") {
		t.Fatalf("expected temperature question, got %q", reply)
	}

	item := singleItem(t, order)
	if item.Values["size"].Slug != "small" {
		t.Errorf("size = %q, want small", item.Values["size"].Slug)
	}
}

func TestAmbiguousAnswerAsksClarification(t *testing.T) {
	eng := newTestEngine(t)
	order := models.NewOrder()

	turn(t, eng, order, "a bagel")
	// Two options whole-word-match the answer.
	reply := turn(t, eng, order, "wheat or raisin")
	if order.Disambiguation == nil {
		t.Fatalf("expected disambiguation state, reply %q", reply)
	}
	if !strings.Contains(reply, "Did you mean") {
		t.Errorf("expected clarification question, got %q", reply)
	}

	// Unresolvable answer re-asks the same question unchanged.
	again := turn(t, eng, order, "hmm")
	if again != reply {
		t.Errorf("re-ask changed: %q vs %q", again, reply)
	}

	turn(t, eng, order, "the wheat one")
	item := singleItem(t, order)
	if item.Values["bagel_type"].Slug != "whole_wheat" {
		t.Errorf("bagel_type = %q, want whole_wheat", item.Values["bagel_type"].Slug)
	}
	if order.Disambiguation != nil {
		t.Error("disambiguation state not cleared")
	}
}

func TestStalePendingReferenceRecovers(t *testing.T) {
	eng := newTestEngine(t)
	order := models.NewOrder()
	order.SetPending("not-a-real-item", "bagel_type")

	reply := turn(t, eng, order, "plain")
	if !strings.Contains(reply, "What would you like") {
		t.Errorf("expected generic prompt, got %q", reply)
	}
	if order.PendingItemID != "" {
		t.Errorf("pending state not cleared: %q", order.PendingItemID)
	}
}

func TestGreetingAndUnclearInput(t *testing.T) {
	eng := newTestEngine(t)
	order := models.NewOrder()

	reply := turn(t, eng, order, "hello there")
	if !strings.Contains(reply, "What would you like to order?") {
		t.Errorf("expected greeting prompt, got %q", reply)
	}
	if order.Phase != models.PhaseTakingItems {
		t.Errorf("phase = %s, want taking_items", order.Phase)
	}
}

func TestSkipConfigItemCompletesImmediately(t *testing.T) {
	eng := newTestEngine(t)
	order := models.NewOrder()

	reply := turn(t, eng, order, "an orange juice")
	item := singleItem(t, order)
	if item.Status != models.ItemStatusComplete {
		t.Errorf("item status = %s, want complete", item.Status)
	}
	if !strings.Contains(reply, "Orange Juice") {
		t.Errorf("expected summary mentioning the juice, got %q", reply)
	}
}

func TestCustomizationDirectOptionMatch(t *testing.T) {
	eng := newTestEngine(t)
	order := models.NewOrder()

	turn(t, eng, order, "plain bagel toasted")
	if order.PendingField != pendingCustomize {
		t.Fatalf("pending field = %q, want customization checkpoint", order.PendingField)
	}

	// Option value without naming its attribute.
	reply := turn(t, eng, order, "add a little butter")
	item := singleItem(t, order)
	if item.Values["spread"].Slug != "butter" {
		t.Fatalf("spread = %q, want butter (reply %q)", item.Values["spread"].Slug, reply)
	}
	if sels := item.Selections["spread"]; len(sels) != 1 || sels[0].Qualifier != "light" {
		t.Errorf("expected light qualifier on butter, got %+v", sels)
	}

	turn(t, eng, order, "no")
	if item.Status != models.ItemStatusComplete {
		t.Errorf("item status = %s, want complete", item.Status)
	}
}

func TestCheckpointDeclineCompletes(t *testing.T) {
	for _, decline := range []string{"no more", "no more changes", "nothing else"} {
		eng := newTestEngine(t)
		order := models.NewOrder()

		turn(t, eng, order, "plain bagel toasted")
		item := singleItem(t, order)
		if order.PendingField != pendingCustomize {
			t.Fatalf("pending field = %q, want customization checkpoint", order.PendingField)
		}

		reply := turn(t, eng, order, decline)
		if item.Status != models.ItemStatusComplete {
			t.Errorf("%q: item status = %s, want complete", decline, item.Status)
		}
		if strings.Contains(reply, "removed") {
			t.Errorf("%q: decline treated as cancellation: %q", decline, reply)
		}
		if !strings.Contains(reply, "Plain Bagel") {
			t.Errorf("%q: expected summary, got %q", decline, reply)
		}
	}
}

func TestCheckpointDisambiguationReprompts(t *testing.T) {
	eng := newTestEngine(t)
	order := models.NewOrder()

	turn(t, eng, order, "plain bagel toasted")
	item := singleItem(t, order)

	reply := turn(t, eng, order, "bacon or sausage")
	if order.Disambiguation == nil || !strings.Contains(reply, "Did you mean") {
		t.Fatalf("expected clarification question, got %q", reply)
	}

	// Resolving the clarification re-prompts the checkpoint instead of
	// completing the item.
	reply = turn(t, eng, order, "bacon")
	if item.Values["protein"].Slug != "bacon" {
		t.Fatalf("protein = %q, want bacon", item.Values["protein"].Slug)
	}
	if !strings.Contains(reply, "Anything else?") {
		t.Errorf("expected checkpoint re-prompt, got %q", reply)
	}
	if item.Status != models.ItemStatusInProgress {
		t.Errorf("item status = %s, want in_progress", item.Status)
	}
	if order.PendingField != pendingCustomize {
		t.Errorf("pending field = %q, want customization checkpoint", order.PendingField)
	}

	turn(t, eng, order, "no")
	if item.Status != models.ItemStatusComplete {
		t.Errorf("item status = %s, want complete", item.Status)
	}
}

func TestMultiSelectCategoryWordClarifies(t *testing.T) {
	eng := newTestEngine(t)
	order := models.NewOrder()
	item := models.NewItem("bagel", "Bagel", 2.20)
	order.AddItem(item)
	order.SetPending(item.ID, "extras")

	reply := turn(t, eng, order, "cheese")
	if order.Disambiguation == nil || !strings.Contains(reply, "Did you mean") {
		t.Fatalf("expected clarification question, got %q", reply)
	}
	if len(item.Values["extras"].Slugs) != 0 {
		t.Fatalf("extras added before clarification: %v", item.Values["extras"].Slugs)
	}

	turn(t, eng, order, "swiss")
	slugs := item.Values["extras"].Slugs
	if len(slugs) != 1 || slugs[0] != "swiss_cheese" {
		t.Fatalf("extras = %v, want swiss_cheese only", slugs)
	}
	if !almostEqual(item.UnitPrice, 2.20+0.75) {
		t.Errorf("unit price = %.2f, want 2.95", item.UnitPrice)
	}
}

func TestDisambiguationKeepsQuantity(t *testing.T) {
	eng := newTestEngine(t)
	order := models.NewOrder()
	item := models.NewItem("bagel", "Bagel", 2.20)
	order.AddItem(item)
	order.SetPending(item.ID, "protein")

	reply := turn(t, eng, order, "2 bacon or sausage")
	if order.Disambiguation == nil || !strings.Contains(reply, "Did you mean") {
		t.Fatalf("expected clarification question, got %q", reply)
	}

	turn(t, eng, order, "bacon")
	sels := item.Selections["protein"]
	if len(sels) != 1 || sels[0].Slug != "bacon" {
		t.Fatalf("protein selections = %+v, want bacon", sels)
	}
	if sels[0].Quantity != 2 {
		t.Errorf("quantity = %d, want 2 from the original phrase", sels[0].Quantity)
	}
	if !almostEqual(item.UnitPrice, 2.20+2*2.00) {
		t.Errorf("unit price = %.2f, want 6.20", item.UnitPrice)
	}
}

package catalog

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/bitewise/orderflow/internal/models"
)

func TestFixtureAttributesSorted(t *testing.T) {
	cat := Fixture()
	attrs, err := cat.Attributes("bagel")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(attrs) == 0 {
		t.Fatal("no bagel attributes")
	}
	for i := 1; i < len(attrs); i++ {
		if attrs[i-1].DisplayOrder > attrs[i].DisplayOrder {
			t.Fatalf("attributes not sorted: %s before %s", attrs[i-1].Slug, attrs[i].Slug)
		}
	}
}

func TestUnknownFamily(t *testing.T) {
	_, err := Fixture().Attributes("pizza")
	if !errors.Is(err, models.ErrFamilyNotFound) {
		t.Errorf("expected ErrFamilyNotFound, got %v", err)
	}
}

func TestUpchargeLookup(t *testing.T) {
	cat := Fixture()
	amount, err := cat.Upcharge("coffee", "iced_by_size", "large")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amount != 1.10 {
		t.Errorf("iced large upcharge = %.2f, want 1.10", amount)
	}

	_, err = cat.Upcharge("coffee", "iced_by_size", "venti")
	if !errors.Is(err, models.ErrPriceNotFound) {
		t.Errorf("expected ErrPriceNotFound for missing entry, got %v", err)
	}
}

func TestLookupItemByAlias(t *testing.T) {
	cat := Fixture()
	item, ok := LookupItem(cat, "BEC")
	if !ok {
		t.Fatal("alias lookup failed")
	}
	if item.Name != "Bacon Egg and Cheese" {
		t.Errorf("got %q", item.Name)
	}
	if _, ok := LookupItem(cat, "pizza"); ok {
		t.Error("unexpected match for unknown item")
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "catalog.db")
	cat, err := OpenSQLite(WithDSN(dsn), WithSeed())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fx := Fixture()
	for _, family := range []string{"bagel", "coffee", "speed_menu"} {
		want, err := fx.Attributes(family)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got, err := cat.Attributes(family)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != len(want) {
			t.Fatalf("family %s: %d attributes, want %d", family, len(got), len(want))
		}
		for i := range want {
			if got[i].Slug != want[i].Slug || got[i].InputType != want[i].InputType {
				t.Errorf("family %s attr %d = %s/%s, want %s/%s", family, i, got[i].Slug, got[i].InputType, want[i].Slug, want[i].InputType)
			}
			if len(got[i].Options) != len(want[i].Options) {
				t.Errorf("family %s attr %s: %d options, want %d", family, want[i].Slug, len(got[i].Options), len(want[i].Options))
			}
		}
	}

	amount, err := cat.Upcharge("coffee", "iced_by_size", "small")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amount != 1.65 {
		t.Errorf("iced small upcharge = %.2f, want 1.65", amount)
	}

	patterns, err := cat.QualifierPatterns()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(patterns) == 0 {
		t.Error("no qualifier patterns loaded")
	}

	// Reopening without seeding keeps the existing data.
	again, err := OpenSQLite(WithDSN(dsn), WithSeed())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	items, err := again.Items()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fxItems, _ := fx.Items()
	if len(items) != len(fxItems) {
		t.Errorf("reopen loaded %d items, want %d", len(items), len(fxItems))
	}
}

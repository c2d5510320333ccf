package engine

import (
	"fmt"
	"log/slog"

	"github.com/bitewise/orderflow/internal/catalog"
	"github.com/bitewise/orderflow/internal/models"
)

// Recalculate recomputes an item's unit price from its base price, every
// selected option, and the family's upcharge tables. It is idempotent and is
// the only writer of Item.UnitPrice; every mutation path that touches
// selections must call it.
//
// A selected option or triggered upcharge with no price entry is a data error
// (models.ErrPriceNotFound), never treated as free.
func Recalculate(cat catalog.Catalog, item *models.Item) error {
	total := item.BasePrice

	for _, sels := range item.Selections {
		for _, sel := range sels {
			qty := sel.Quantity
			if qty < 1 {
				qty = 1
			}
			total += sel.Price * float64(qty)
		}
	}

	rules, err := cat.UpchargeRules(item.Family)
	if err != nil {
		return fmt.Errorf("failed to load upcharge rules for %s: %w", item.Family, err)
	}
	for _, rule := range rules {
		triggered, key := ruleApplies(rule, item)
		if !triggered {
			continue
		}
		amount, err := cat.Upcharge(item.Family, rule.Table, key)
		if err != nil {
			slog.Error("Recalculate upcharge lookup failed", "error", err, "item", item.Name, "table", rule.Table, "key", key)
			return err
		}
		total += amount
	}

	item.UnitPrice = total
	slog.Debug("Recalculate done", "item", item.Name, "unit_price", total)
	return nil
}

// ruleApplies evaluates an upcharge rule against the item's answered
// attributes and returns the table key when the rule triggers.
func ruleApplies(rule catalog.UpchargeRule, item *models.Item) (bool, string) {
	if rule.WhenAttr != "" {
		v, ok := item.Values[rule.WhenAttr]
		if !ok {
			return false, ""
		}
		if rule.WhenSlug != "" {
			if v.Slug != rule.WhenSlug {
				return false, ""
			}
		} else if v.Bool == nil || !*v.Bool {
			return false, ""
		}
	}
	key, ok := item.Values[rule.KeyAttr]
	if !ok || key.Slug == "" {
		return false, ""
	}
	return true, key.Slug
}

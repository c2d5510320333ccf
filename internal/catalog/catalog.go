// Package catalog provides read-only attribute-schema and pricing sources for
// the order engine.
//
// A Catalog tells the engine, per item family, which attributes to ask about
// and what their options cost. Backends load the full catalog into memory at
// startup (SQLite, PostgreSQL) or are constructed directly from fixture data
// for tests.
package catalog

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/bitewise/orderflow/internal/models"
)

// UpchargeRule declares one family-specific upcharge table lookup applied
// during price recalculation.
//
// WhenAttr/WhenSlug gate the rule on an answered attribute (WhenSlug empty
// means a boolean attribute answered true); KeyAttr names the attribute whose
// selected option slug keys the table.
type UpchargeRule struct {
	Table    string `json:"table"`
	WhenAttr string `json:"when_attr,omitempty"`
	WhenSlug string `json:"when_slug,omitempty"`
	KeyAttr  string `json:"key_attr"`
}

// Catalog is the read-only schema and pricing source consumed by the engine.
type Catalog interface {
	// Attributes returns the family's attribute definitions sorted by display
	// order. Unknown families return models.ErrFamilyNotFound.
	Attributes(family string) ([]models.AttributeDefinition, error)

	// Items returns every orderable catalog entry.
	Items() ([]models.CatalogItem, error)

	// QualifierPatterns returns the phrase-to-qualifier normalization table.
	QualifierPatterns() ([]models.QualifierPattern, error)

	// UpchargeRules returns the family's upcharge table lookups.
	UpchargeRules(family string) ([]UpchargeRule, error)

	// Upcharge resolves one upcharge table entry. A missing entry returns
	// models.ErrPriceNotFound; callers must never treat it as zero.
	Upcharge(family, table, key string) (float64, error)
}

// StaticCatalog is an in-memory Catalog. Both database backends hydrate one of
// these at construction so query paths stay identical across backends.
type StaticCatalog struct {
	attributes map[string][]models.AttributeDefinition
	items      []models.CatalogItem
	qualifiers []models.QualifierPattern
	rules      map[string][]UpchargeRule
	upcharges  map[string]float64 // "family/table/key" -> amount
}

// NewStaticCatalog builds a StaticCatalog from fully materialized data.
func NewStaticCatalog(
	attributes map[string][]models.AttributeDefinition,
	items []models.CatalogItem,
	qualifiers []models.QualifierPattern,
	rules map[string][]UpchargeRule,
	upcharges map[string]float64,
) *StaticCatalog {
	for family, attrs := range attributes {
		sort.SliceStable(attrs, func(i, j int) bool {
			return attrs[i].DisplayOrder < attrs[j].DisplayOrder
		})
		attributes[family] = attrs
	}
	slog.Debug("StaticCatalog constructed", "families", len(attributes), "items", len(items), "qualifiers", len(qualifiers))
	return &StaticCatalog{
		attributes: attributes,
		items:      items,
		qualifiers: qualifiers,
		rules:      rules,
		upcharges:  upcharges,
	}
}

// Attributes returns the family's attribute definitions sorted by display order.
func (c *StaticCatalog) Attributes(family string) ([]models.AttributeDefinition, error) {
	attrs, ok := c.attributes[family]
	if !ok {
		return nil, fmt.Errorf("family %q: %w", family, models.ErrFamilyNotFound)
	}
	return attrs, nil
}

// Items returns every orderable catalog entry.
func (c *StaticCatalog) Items() ([]models.CatalogItem, error) {
	return c.items, nil
}

// QualifierPatterns returns the phrase-to-qualifier normalization table.
func (c *StaticCatalog) QualifierPatterns() ([]models.QualifierPattern, error) {
	return c.qualifiers, nil
}

// UpchargeRules returns the family's upcharge table lookups.
func (c *StaticCatalog) UpchargeRules(family string) ([]UpchargeRule, error) {
	return c.rules[family], nil
}

// Upcharge resolves one upcharge table entry.
func (c *StaticCatalog) Upcharge(family, table, key string) (float64, error) {
	k := upchargeKey(family, table, key)
	amount, ok := c.upcharges[k]
	if !ok {
		slog.Error("Catalog upcharge missing", "family", family, "table", table, "key", key)
		return 0, fmt.Errorf("upcharge %s: %w", k, models.ErrPriceNotFound)
	}
	return amount, nil
}

func upchargeKey(family, table, key string) string {
	return family + "/" + table + "/" + strings.ToLower(key)
}

func splitUpchargeKey(key string) (family, table, entry string, err error) {
	parts := strings.SplitN(key, "/", 3)
	if len(parts) != 3 {
		return "", "", "", fmt.Errorf("malformed upcharge key %q", key)
	}
	return parts[0], parts[1], parts[2], nil
}

// LookupItem finds a catalog item by name or alias, case-insensitive.
func LookupItem(c Catalog, name string) (models.CatalogItem, bool) {
	items, err := c.Items()
	if err != nil {
		slog.Error("Catalog LookupItem failed", "error", err, "name", name)
		return models.CatalogItem{}, false
	}
	want := strings.ToLower(strings.TrimSpace(name))
	for _, it := range items {
		if strings.ToLower(it.Name) == want {
			return it, true
		}
		for _, alias := range it.Aliases {
			if strings.ToLower(alias) == want {
				return it, true
			}
		}
	}
	return models.CatalogItem{}, false
}

package catalog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/bitewise/orderflow/internal/models"
)

// loadCatalog reads every catalog table into a StaticCatalog. The queries use
// no placeholders so they run unchanged on SQLite and PostgreSQL.
func loadCatalog(db *sql.DB) (*StaticCatalog, error) {
	items, err := loadItems(db)
	if err != nil {
		return nil, err
	}
	attributes, err := loadAttributes(db)
	if err != nil {
		return nil, err
	}
	qualifiers, err := loadQualifiers(db)
	if err != nil {
		return nil, err
	}
	rules, err := loadRules(db)
	if err != nil {
		return nil, err
	}
	upcharges, err := loadUpcharges(db)
	if err != nil {
		return nil, err
	}
	return NewStaticCatalog(attributes, items, qualifiers, rules, upcharges), nil
}

func loadItems(db *sql.DB) ([]models.CatalogItem, error) {
	rows, err := db.Query(`SELECT name, family, base_price, aliases, skip_config FROM catalog_items ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog items: %w", err)
	}
	defer rows.Close()

	var items []models.CatalogItem
	for rows.Next() {
		var it models.CatalogItem
		var aliases string
		if err := rows.Scan(&it.Name, &it.Family, &it.BasePrice, &aliases, &it.SkipConfig); err != nil {
			return nil, fmt.Errorf("failed to scan catalog item row: %w", err)
		}
		if err := json.Unmarshal([]byte(aliases), &it.Aliases); err != nil {
			return nil, fmt.Errorf("failed to decode aliases for item %s: %w", it.Name, err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func loadAttributes(db *sql.DB) (map[string][]models.AttributeDefinition, error) {
	rows, err := db.Query(`SELECT family, slug, display_name, question_text, ask_in_conversation, input_type, display_order, allow_none
		FROM attribute_definitions ORDER BY family, display_order`)
	if err != nil {
		return nil, fmt.Errorf("failed to query attribute definitions: %w", err)
	}
	defer rows.Close()

	attributes := make(map[string][]models.AttributeDefinition)
	index := make(map[string]map[string]int) // family -> attr slug -> position
	for rows.Next() {
		var family string
		var a models.AttributeDefinition
		if err := rows.Scan(&family, &a.Slug, &a.DisplayName, &a.QuestionText, &a.AskInConversation, &a.InputType, &a.DisplayOrder, &a.AllowNone); err != nil {
			return nil, fmt.Errorf("failed to scan attribute definition row: %w", err)
		}
		if !models.IsValidInputType(a.InputType) {
			return nil, fmt.Errorf("attribute %s/%s has unknown input type %q", family, a.Slug, a.InputType)
		}
		if index[family] == nil {
			index[family] = make(map[string]int)
		}
		index[family][a.Slug] = len(attributes[family])
		attributes[family] = append(attributes[family], a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	optRows, err := db.Query(`SELECT family, attribute, slug, display_name, price, aliases, must_match, is_default
		FROM attribute_options ORDER BY family, attribute, display_order`)
	if err != nil {
		return nil, fmt.Errorf("failed to query attribute options: %w", err)
	}
	defer optRows.Close()

	for optRows.Next() {
		var family, attribute string
		var o models.AttributeOption
		var aliases, mustMatch string
		if err := optRows.Scan(&family, &attribute, &o.Slug, &o.DisplayName, &o.Price, &aliases, &mustMatch, &o.IsDefault); err != nil {
			return nil, fmt.Errorf("failed to scan attribute option row: %w", err)
		}
		if err := json.Unmarshal([]byte(aliases), &o.Aliases); err != nil {
			return nil, fmt.Errorf("failed to decode aliases for option %s/%s/%s: %w", family, attribute, o.Slug, err)
		}
		if err := json.Unmarshal([]byte(mustMatch), &o.MustMatch); err != nil {
			return nil, fmt.Errorf("failed to decode must_match for option %s/%s/%s: %w", family, attribute, o.Slug, err)
		}
		pos, ok := index[family][attribute]
		if !ok {
			slog.Warn("Catalog option references unknown attribute", "family", family, "attribute", attribute, "option", o.Slug)
			continue
		}
		attributes[family][pos].Options = append(attributes[family][pos].Options, o)
	}
	return attributes, optRows.Err()
}

func loadQualifiers(db *sql.DB) ([]models.QualifierPattern, error) {
	rows, err := db.Query(`SELECT pattern, normalized, category FROM qualifier_patterns`)
	if err != nil {
		return nil, fmt.Errorf("failed to query qualifier patterns: %w", err)
	}
	defer rows.Close()

	var patterns []models.QualifierPattern
	for rows.Next() {
		var p models.QualifierPattern
		if err := rows.Scan(&p.Pattern, &p.Normalized, &p.Category); err != nil {
			return nil, fmt.Errorf("failed to scan qualifier pattern row: %w", err)
		}
		patterns = append(patterns, p)
	}
	return patterns, rows.Err()
}

func loadRules(db *sql.DB) (map[string][]UpchargeRule, error) {
	rows, err := db.Query(`SELECT family, lookup, when_attr, when_slug, key_attr FROM upcharge_rules`)
	if err != nil {
		return nil, fmt.Errorf("failed to query upcharge rules: %w", err)
	}
	defer rows.Close()

	rules := make(map[string][]UpchargeRule)
	for rows.Next() {
		var family string
		var r UpchargeRule
		if err := rows.Scan(&family, &r.Table, &r.WhenAttr, &r.WhenSlug, &r.KeyAttr); err != nil {
			return nil, fmt.Errorf("failed to scan upcharge rule row: %w", err)
		}
		rules[family] = append(rules[family], r)
	}
	return rules, rows.Err()
}

func loadUpcharges(db *sql.DB) (map[string]float64, error) {
	rows, err := db.Query(`SELECT family, lookup, key, amount FROM upcharges`)
	if err != nil {
		return nil, fmt.Errorf("failed to query upcharges: %w", err)
	}
	defer rows.Close()

	upcharges := make(map[string]float64)
	for rows.Next() {
		var family, table, key string
		var amount float64
		if err := rows.Scan(&family, &table, &key, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan upcharge row: %w", err)
		}
		upcharges[upchargeKey(family, table, key)] = amount
	}
	return upcharges, rows.Err()
}

// seedCatalog inserts the fixture catalog into empty tables. bind rewrites
// "?" placeholders into the backend's placeholder style.
func seedCatalog(db *sql.DB, bind func(string) string) error {
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM catalog_items`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count catalog items: %w", err)
	}
	if count > 0 {
		slog.Debug("Catalog already populated, skipping seed", "items", count)
		return nil
	}
	slog.Info("Seeding fixture catalog into empty database")

	fx := Fixture()
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	for _, it := range fx.items {
		aliases, _ := json.Marshal(orEmpty(it.Aliases))
		if _, err := tx.Exec(bind(`INSERT INTO catalog_items (name, family, base_price, aliases, skip_config) VALUES (?, ?, ?, ?, ?)`),
			it.Name, it.Family, it.BasePrice, string(aliases), it.SkipConfig); err != nil {
			return fmt.Errorf("failed to seed catalog item %s: %w", it.Name, err)
		}
	}
	for family, attrs := range fx.attributes {
		for _, a := range attrs {
			if _, err := tx.Exec(bind(`INSERT INTO attribute_definitions (family, slug, display_name, question_text, ask_in_conversation, input_type, display_order, allow_none) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
				family, a.Slug, a.DisplayName, a.QuestionText, a.AskInConversation, string(a.InputType), a.DisplayOrder, a.AllowNone); err != nil {
				return fmt.Errorf("failed to seed attribute %s/%s: %w", family, a.Slug, err)
			}
			for i, o := range a.Options {
				aliases, _ := json.Marshal(orEmpty(o.Aliases))
				mustMatch, _ := json.Marshal(orEmpty(o.MustMatch))
				if _, err := tx.Exec(bind(`INSERT INTO attribute_options (family, attribute, slug, display_name, price, aliases, must_match, is_default, display_order) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
					family, a.Slug, o.Slug, o.DisplayName, o.Price, string(aliases), string(mustMatch), o.IsDefault, i); err != nil {
					return fmt.Errorf("failed to seed option %s/%s/%s: %w", family, a.Slug, o.Slug, err)
				}
			}
		}
	}
	for _, p := range fx.qualifiers {
		if _, err := tx.Exec(bind(`INSERT INTO qualifier_patterns (pattern, normalized, category) VALUES (?, ?, ?)`),
			p.Pattern, p.Normalized, p.Category); err != nil {
			return fmt.Errorf("failed to seed qualifier pattern %q: %w", p.Pattern, err)
		}
	}
	for family, rules := range fx.rules {
		for _, r := range rules {
			if _, err := tx.Exec(bind(`INSERT INTO upcharge_rules (family, lookup, when_attr, when_slug, key_attr) VALUES (?, ?, ?, ?, ?)`),
				family, r.Table, r.WhenAttr, r.WhenSlug, r.KeyAttr); err != nil {
				return fmt.Errorf("failed to seed upcharge rule %s/%s: %w", family, r.Table, err)
			}
		}
	}
	for key, amount := range fx.upcharges {
		family, table, k, err := splitUpchargeKey(key)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(bind(`INSERT INTO upcharges (family, lookup, key, amount) VALUES (?, ?, ?, ?)`),
			family, table, k, amount); err != nil {
			return fmt.Errorf("failed to seed upcharge %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed transaction: %w", err)
	}
	return nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

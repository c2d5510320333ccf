package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Phase identifies where a conversation is in the order lifecycle.
type Phase string

const (
	// PhaseGreeting is the initial phase before any items exist.
	PhaseGreeting Phase = "greeting"
	// PhaseTakingItems means the engine is accepting new items.
	PhaseTakingItems Phase = "taking_items"
	// PhaseConfiguringItem means one item has a pending attribute question.
	PhaseConfiguringItem Phase = "configuring_item"
	// PhaseComplete means all items are fully specified.
	PhaseComplete Phase = "complete"
)

// ItemStatus is the lifecycle state of an order item.
type ItemStatus string

const (
	// ItemStatusPending means the item was created but not yet picked up for configuration.
	ItemStatusPending ItemStatus = "pending"
	// ItemStatusInProgress means the item is being configured.
	ItemStatusInProgress ItemStatus = "in_progress"
	// ItemStatusComplete means all mandatory attributes are answered and the optional phase is done.
	ItemStatusComplete ItemStatus = "complete"
	// ItemStatusSkipped means the item was cancelled mid-configuration.
	ItemStatusSkipped ItemStatus = "skipped"
)

// Error variables shared across the engine and catalog for testability.
var (
	ErrPriceNotFound  = errors.New("price not found in catalog data")
	ErrItemNotFound   = errors.New("item not found in order")
	ErrFamilyNotFound = errors.New("item family not found in catalog")
)

// Selection records one chosen option, the unit of price accounting.
type Selection struct {
	Slug        string  `json:"slug"`
	DisplayName string  `json:"display_name"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	Qualifier   string  `json:"qualifier,omitempty"`
}

// Describe renders the selection for acknowledgments and summaries,
// e.g. "2 Vanilla Syrup" or "Lettuce (extra)".
func (s Selection) Describe() string {
	name := s.DisplayName
	if s.Qualifier != "" {
		name = fmt.Sprintf("%s (%s)", name, s.Qualifier)
	}
	if s.Quantity > 1 {
		name = fmt.Sprintf("%d %s", s.Quantity, name)
	}
	return name
}

// AttributeValue holds an answered attribute. Exactly one value field is set
// depending on the attribute's input type; None records an explicit decline
// for allow-none attributes.
type AttributeValue struct {
	Bool  *bool    `json:"bool,omitempty"`
	Slug  string   `json:"slug,omitempty"`
	Slugs []string `json:"slugs,omitempty"`
	None  bool     `json:"none,omitempty"`
}

// BoolValue returns a pointer-wrapped AttributeValue for boolean attributes.
func BoolValue(v bool) AttributeValue {
	return AttributeValue{Bool: &v}
}

// Item is one orderable unit in the cart.
//
// Family selects the attribute schema driving its configuration; Values and
// Selections are keyed by canonical attribute slug. UnitPrice is always a
// function of BasePrice plus selections and family upcharges and is only
// written by the price recalculator.
type Item struct {
	ID         string                    `json:"id"`
	Family     string                    `json:"family"`
	Name       string                    `json:"name"`
	Status     ItemStatus                `json:"status"`
	Quantity   int                       `json:"quantity"`
	BasePrice  float64                   `json:"base_price"`
	UnitPrice  float64                   `json:"unit_price"`
	Values     map[string]AttributeValue `json:"values,omitempty"`
	Selections map[string][]Selection    `json:"selections,omitempty"`

	// CustomizationOffered is set once the optional-attribute checkpoint has
	// been asked, so declined items are not re-offered customization.
	CustomizationOffered bool `json:"customization_offered,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// NewItem creates an in-progress item for the given family.
func NewItem(family, name string, basePrice float64) *Item {
	return &Item{
		ID:         uuid.NewString(),
		Family:     family,
		Name:       name,
		Status:     ItemStatusInProgress,
		Quantity:   1,
		BasePrice:  basePrice,
		UnitPrice:  basePrice,
		Values:     make(map[string]AttributeValue),
		Selections: make(map[string][]Selection),
		CreatedAt:  time.Now().UTC(),
	}
}

// Answered reports whether the attribute slug has been answered (including an
// explicit decline).
func (it *Item) Answered(slug string) bool {
	_, ok := it.Values[slug]
	return ok
}

// SetValue records an answered attribute value, allocating maps as needed.
func (it *Item) SetValue(slug string, v AttributeValue) {
	if it.Values == nil {
		it.Values = make(map[string]AttributeValue)
	}
	it.Values[slug] = v
}

// AddSelections appends selections for an attribute, keeping the slug list in
// Values in sync for multi-select attributes.
func (it *Item) AddSelections(slug string, sels ...Selection) {
	if it.Selections == nil {
		it.Selections = make(map[string][]Selection)
	}
	it.Selections[slug] = append(it.Selections[slug], sels...)
}

// RemoveSelection deletes any selection of the attribute whose slug or display
// name contains the target text. Returns the removed selections.
func (it *Item) RemoveSelection(attrSlug, target string) []Selection {
	target = strings.ToLower(strings.TrimSpace(target))
	var kept, removed []Selection
	for _, sel := range it.Selections[attrSlug] {
		name := strings.ToLower(sel.DisplayName)
		slugWords := strings.ReplaceAll(sel.Slug, "_", " ")
		if strings.Contains(name, target) || strings.Contains(target, name) ||
			strings.Contains(slugWords, target) || strings.Contains(target, slugWords) {
			removed = append(removed, sel)
			continue
		}
		kept = append(kept, sel)
	}
	if len(removed) == 0 {
		return nil
	}
	if len(kept) == 0 {
		delete(it.Selections, attrSlug)
		delete(it.Values, attrSlug)
		return removed
	}
	it.Selections[attrSlug] = kept
	slugs := make([]string, 0, len(kept))
	for _, sel := range kept {
		slugs = append(slugs, sel.Slug)
	}
	it.Values[attrSlug] = AttributeValue{Slugs: slugs}
	return removed
}

// MarkComplete transitions the item to complete.
func (it *Item) MarkComplete() { it.Status = ItemStatusComplete }

// MarkSkipped transitions the item to skipped (cancelled).
func (it *Item) MarkSkipped() { it.Status = ItemStatusSkipped }

// Active reports whether the item still counts toward the order.
func (it *Item) Active() bool { return it.Status != ItemStatusSkipped }

// Summary renders a one-line human-readable description of the item,
// e.g. "Plain Bagel, toasted, with Lettuce and Tomato". Attributes render in
// sorted slug order so identical configurations always read identically.
func (it *Item) Summary() string {
	var parts []string
	base := it.Name
	var extras []string
	for _, slug := range sortedKeys(it.Selections) {
		sels := it.Selections[slug]
		for _, sel := range sels {
			// Single-select primary attributes become a prefix ("Plain Bagel"),
			// everything else is listed after the name.
			if v, ok := it.Values[slug]; ok && v.Slug == sel.Slug && len(sels) == 1 {
				if strings.Contains(strings.ToLower(base), strings.ToLower(sel.DisplayName)) {
					continue
				}
				parts = append(parts, sel.DisplayName)
				continue
			}
			extras = append(extras, sel.Describe())
		}
	}
	name := base
	if len(parts) > 0 {
		name = strings.Join(parts, " ") + " " + base
	}
	var flags []string
	for _, slug := range sortedKeys(it.Values) {
		if v := it.Values[slug]; v.Bool != nil && *v.Bool {
			flags = append(flags, strings.ReplaceAll(slug, "_", " "))
		}
	}
	out := name
	if len(flags) > 0 {
		out += ", " + strings.Join(flags, ", ")
	}
	if len(extras) > 0 {
		out += ", with " + JoinNatural(extras, "and")
	}
	return out
}

// sortedKeys returns map keys in ascending order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// QueuedConfig identifies an item deferred for configuration behind the one
// currently being configured. A Family of QueueFamilyDrinkChoice carries a
// drink disambiguation that has not produced an item yet.
type QueuedConfig struct {
	ItemID       string `json:"item_id,omitempty"`
	Family       string `json:"family"`
	Name         string `json:"name,omitempty"`
	PendingField string `json:"pending_field,omitempty"`
}

// QueueFamilyDrinkChoice marks a queued drink-type disambiguation.
const QueueFamilyDrinkChoice = "drink_choice"

// Disambiguation persists "which of these did you mean" state between turns.
//
// StoredModifiers keeps free-text fragments for other attributes mentioned in
// the ambiguous utterance; they are re-applied once the user clarifies.
// SourceText keeps the ambiguous utterance itself so the resolved selection
// inherits its quantity and qualifier.
type Disambiguation struct {
	Options         []AttributeOption `json:"options,omitempty"`
	CatalogOptions  []CatalogItem     `json:"catalog_options,omitempty"`
	AttrSlug        string            `json:"attr_slug,omitempty"`
	ItemID          string            `json:"item_id,omitempty"`
	StoredModifiers []string          `json:"stored_modifiers,omitempty"`
	SourceText      string            `json:"source_text,omitempty"`
	Quantity        int               `json:"quantity,omitempty"`
	Question        string            `json:"question"`
}

// Order is the aggregate root for one conversation's cart.
type Order struct {
	ID    string  `json:"id"`
	Phase Phase   `json:"phase"`
	Items []*Item `json:"items"`

	// At most one item/attribute awaits an answer at a time.
	PendingItemID string `json:"pending_item_id,omitempty"`
	PendingField  string `json:"pending_field,omitempty"`

	ConfigQueue    []QueuedConfig  `json:"config_queue,omitempty"`
	Disambiguation *Disambiguation `json:"disambiguation,omitempty"`

	// OptionsPage is the 1-based page the user has been shown while browsing
	// an attribute's options; 0 means not browsing.
	OptionsPage int `json:"options_page,omitempty"`

	// MultiItemNames accumulates names configured in one multi-item pass for
	// the consolidated "both added" summary.
	MultiItemNames []string `json:"multi_item_names,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewOrder creates an empty order in the greeting phase.
func NewOrder() *Order {
	now := time.Now().UTC()
	return &Order{
		ID:        uuid.NewString(),
		Phase:     PhaseGreeting,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ItemByID finds an item by id, or nil.
func (o *Order) ItemByID(id string) *Item {
	for _, it := range o.Items {
		if it.ID == id {
			return it
		}
	}
	return nil
}

// ActiveItems returns items that have not been skipped, in insertion order.
func (o *Order) ActiveItems() []*Item {
	var out []*Item
	for _, it := range o.Items {
		if it.Active() {
			out = append(out, it)
		}
	}
	return out
}

// AddItem appends an item to the cart.
func (o *Order) AddItem(it *Item) { o.Items = append(o.Items, it) }

// RemoveItem drops the item with the given id. Returns false if absent.
func (o *Order) RemoveItem(id string) bool {
	for i, it := range o.Items {
		if it.ID == id {
			o.Items = append(o.Items[:i], o.Items[i+1:]...)
			return true
		}
	}
	return false
}

// ClearPending resets the pending question and transient browsing state.
func (o *Order) ClearPending() {
	o.PendingItemID = ""
	o.PendingField = ""
	o.OptionsPage = 0
}

// SetPending records the single pending item/attribute question.
func (o *Order) SetPending(itemID, field string) {
	o.PendingItemID = itemID
	o.PendingField = field
	o.Phase = PhaseConfiguringItem
	o.OptionsPage = 0
}

// QueueConfig appends an entry to the FIFO config queue, skipping duplicates
// for the same item.
func (o *Order) QueueConfig(qc QueuedConfig) {
	for _, existing := range o.ConfigQueue {
		if qc.ItemID != "" && existing.ItemID == qc.ItemID {
			return
		}
	}
	o.ConfigQueue = append(o.ConfigQueue, qc)
}

// PopConfig removes and returns the next queued entry, or false when empty.
func (o *Order) PopConfig() (QueuedConfig, bool) {
	if len(o.ConfigQueue) == 0 {
		return QueuedConfig{}, false
	}
	qc := o.ConfigQueue[0]
	o.ConfigQueue = o.ConfigQueue[1:]
	return qc, true
}

// Subtotal sums unit price times quantity over active items.
func (o *Order) Subtotal() float64 {
	var total float64
	for _, it := range o.ActiveItems() {
		total += it.UnitPrice * float64(it.Quantity)
	}
	return total
}

// JoinNatural joins names with commas and a final conjunction:
// ["a"] -> "a"; ["a","b"] -> "a and b"; ["a","b","c"] -> "a, b, and c".
func JoinNatural(names []string, conj string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	case 2:
		return names[0] + " " + conj + " " + names[1]
	default:
		return strings.Join(names[:len(names)-1], ", ") + ", " + conj + " " + names[len(names)-1]
	}
}

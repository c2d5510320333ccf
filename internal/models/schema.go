// Package models defines the core data structures for orderflow.
//
// It includes the order aggregate mutated by the engine, the read-only
// attribute schema types loaded from the catalog, and shared API response
// types.
package models

import "strings"

// InputType defines how an attribute collects its value.
type InputType string

const (
	// InputTypeBoolean collects a yes/no answer (e.g. toasted).
	InputTypeBoolean InputType = "boolean"
	// InputTypeSingleSelect collects exactly one option (e.g. bread).
	InputTypeSingleSelect InputType = "single_select"
	// InputTypeMultiSelect collects any number of options (e.g. toppings).
	InputTypeMultiSelect InputType = "multi_select"
)

// IsValidInputType checks if the given input type is supported.
func IsValidInputType(t InputType) bool {
	switch t {
	case InputTypeBoolean, InputTypeSingleSelect, InputTypeMultiSelect:
		return true
	default:
		return false
	}
}

// AttributeOption is one selectable value of an attribute.
//
// MustMatch restricts matching: when non-empty, the option only matches input
// that contains at least one of the listed phrases. An option without
// MustMatch acts as the default for its category ("milk" resolves to Whole
// Milk even though Oat Milk also contains the word).
type AttributeOption struct {
	Slug        string   `json:"slug"`
	DisplayName string   `json:"display_name"`
	Price       float64  `json:"price"`
	Aliases     []string `json:"aliases,omitempty"`
	MustMatch   []string `json:"must_match,omitempty"`
	IsDefault   bool     `json:"is_default,omitempty"`
}

// SlugWords returns the option slug with underscores replaced by spaces, the
// form used for text matching.
func (o AttributeOption) SlugWords() string {
	return strings.ReplaceAll(o.Slug, "_", " ")
}

// AttributeDefinition describes one configurable attribute of an item family.
//
// Attributes with AskInConversation set are mandatory and asked in
// DisplayOrder; the rest are offered during the optional customization loop.
type AttributeDefinition struct {
	Slug              string            `json:"slug"`
	DisplayName       string            `json:"display_name"`
	QuestionText      string            `json:"question_text,omitempty"`
	AskInConversation bool              `json:"ask_in_conversation"`
	InputType         InputType         `json:"input_type"`
	DisplayOrder      int               `json:"display_order"`
	AllowNone         bool              `json:"allow_none"`
	Options           []AttributeOption `json:"options,omitempty"`
}

// Question returns the configured question text, or a generated phrasing when
// none is configured.
func (a AttributeDefinition) Question() string {
	if a.QuestionText != "" {
		return a.QuestionText
	}
	name := strings.ToLower(a.DisplayName)
	if a.InputType == InputTypeBoolean {
		return "Would you like it " + name + "?"
	}
	return "What kind of " + name + " would you like?"
}

// QualifierPattern maps a spoken modifier phrase to its normalized form,
// e.g. "lots of" -> "extra", "on side" -> "on the side".
type QualifierPattern struct {
	Pattern    string `json:"pattern"`
	Normalized string `json:"normalized"`
	Category   string `json:"category,omitempty"`
}

// CatalogItem is one orderable catalog entry (a drink, a sandwich, a bagel).
type CatalogItem struct {
	Name       string   `json:"name"`
	Family     string   `json:"family"`
	BasePrice  float64  `json:"base_price"`
	Aliases    []string `json:"aliases,omitempty"`
	SkipConfig bool     `json:"skip_config,omitempty"`
}

// Package nlu extracts candidate order items from free text.
//
// Two providers share one contract: a deterministic keyword extractor built
// from the catalog, and a generative fallback. Callers treat both outputs
// identically, as unvalidated text subject to option-matcher re-resolution.
package nlu

import "context"

// CandidateItem is one item the user appears to be ordering. Name is raw
// text, not a canonical catalog key; Modifiers are free-text fragments
// ("toasted", "with oat milk") for the engine to resolve per attribute.
type CandidateItem struct {
	Name      string   `json:"name"`
	Quantity  int      `json:"quantity"`
	Modifiers []string `json:"modifiers,omitempty"`
}

// Extraction is the structured result of one utterance.
type Extraction struct {
	Items   []CandidateItem `json:"items"`
	Unclear bool            `json:"unclear"`
}

// Provider turns an utterance into candidate items or an unclear flag.
type Provider interface {
	Extract(ctx context.Context, utterance string) (Extraction, error)
}

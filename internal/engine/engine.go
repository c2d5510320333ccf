package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bitewise/orderflow/internal/catalog"
	"github.com/bitewise/orderflow/internal/models"
	"github.com/bitewise/orderflow/internal/nlu"
)

// genericPrompt is the open-ended fallback question.
const genericPrompt = "What would you like to order?"

// Engine processes one conversation turn at a time against an order.
//
// It performs no I/O of its own: the catalog is read-only, the order is
// mutated in place, and the caller is responsible for serializing turns for
// the same order.
type Engine struct {
	cat     catalog.Catalog
	matcher *Matcher
	nlu     nlu.Provider
}

// New builds an engine over a catalog and an NLU provider.
func New(cat catalog.Catalog, provider nlu.Provider) (*Engine, error) {
	patterns, err := cat.QualifierPatterns()
	if err != nil {
		return nil, fmt.Errorf("failed to load qualifier patterns: %w", err)
	}
	return &Engine{cat: cat, matcher: NewMatcher(patterns), nlu: provider}, nil
}

// ProcessTurn advances the order by one utterance and returns the reply.
//
// Routing: the cancellation guard runs first, then any open disambiguation,
// then the pending attribute question, and finally intake of new items. The
// engine never fails a conversation on unmatched input; it re-asks.
func (e *Engine) ProcessTurn(ctx context.Context, order *models.Order, utterance string) (string, error) {
	slog.Debug("Engine ProcessTurn invoked", "order_id", order.ID, "phase", order.Phase)
	defer func() { order.UpdatedAt = time.Now().UTC() }()

	if reply, handled, err := e.handleCancellation(order, utterance); err != nil {
		return "", err
	} else if handled {
		return reply, nil
	}

	if order.Disambiguation != nil {
		return e.resolveDisambiguation(order, utterance)
	}

	if order.PendingItemID != "" {
		return e.handlePendingField(order, utterance)
	}

	return e.handleIntake(ctx, order, utterance)
}

// handlePendingField routes an utterance to the attribute question currently
// awaiting an answer.
func (e *Engine) handlePendingField(order *models.Order, utterance string) (string, error) {
	item := order.ItemByID(order.PendingItemID)
	if item == nil || !item.Active() {
		slog.Warn("Engine pending reference is stale", "error", models.ErrItemNotFound, "order_id", order.ID, "pending_item_id", order.PendingItemID)
		order.ClearPending()
		order.Phase = models.PhaseTakingItems
		return genericPrompt, nil
	}

	if order.PendingField == pendingCustomize {
		reply, err := e.handleCustomization(order, item, utterance)
		if err != nil {
			return "", err
		}
		if reply != "" {
			return reply, nil
		}
		return e.ackAndNext(order)
	}

	attrs, err := e.cat.Attributes(item.Family)
	if err != nil {
		return "", err
	}
	attr := findAttribute(attrs, order.PendingField)
	if attr == nil {
		slog.Warn("Engine pending field not in schema", "family", item.Family, "field", order.PendingField)
		order.ClearPending()
		return e.ackAndNext(order)
	}

	if reply, redirected := e.redirectOffTopic(order, item, attr, utterance); redirected {
		return reply, nil
	}

	reply, err := e.handleAttributeAnswer(order, item, attr, utterance)
	if err != nil {
		return "", err
	}
	if reply != "" {
		return reply, nil
	}
	return e.ackAndNext(order)
}

// ackAndNext acknowledges an accepted answer and asks the next question.
func (e *Engine) ackAndNext(order *models.Order) (string, error) {
	next, err := e.NextQuestion(order)
	if err != nil {
		return "", err
	}
	return "Got it. " + next, nil
}

// resolveDisambiguation applies a clarification answer to the open
// disambiguation, then re-applies any modifiers stored from the original
// ambiguous utterance. An unresolved answer re-asks the same question.
func (e *Engine) resolveDisambiguation(order *models.Order, utterance string) (string, error) {
	d := order.Disambiguation

	if len(d.CatalogOptions) > 0 {
		names := make([]string, len(d.CatalogOptions))
		for i, c := range d.CatalogOptions {
			names[i] = c.Name
		}
		idx := ResolveCandidate(utterance, names)
		if idx < 0 {
			return d.Question, nil
		}
		chosen := d.CatalogOptions[idx]
		item := models.NewItem(chosen.Family, chosen.Name, chosen.BasePrice)
		if d.Quantity > 1 {
			item.Quantity = d.Quantity
		}
		order.AddItem(item)
		order.Disambiguation = nil
		if err := e.captureModifiers(item, d.StoredModifiers); err != nil {
			return "", err
		}
		slog.Debug("Engine item disambiguation resolved", "item", chosen.Name)
		return e.ackAndNext(order)
	}

	item := order.ItemByID(d.ItemID)
	if item == nil || !item.Active() {
		order.Disambiguation = nil
		order.ClearPending()
		order.Phase = models.PhaseTakingItems
		return genericPrompt, nil
	}
	names := make([]string, len(d.Options))
	for i, o := range d.Options {
		names[i] = o.DisplayName
	}
	idx := ResolveCandidate(utterance, names)
	if idx < 0 {
		return d.Question, nil
	}
	chosen := d.Options[idx]

	attrs, err := e.cat.Attributes(item.Family)
	if err != nil {
		return "", err
	}
	attr := findAttribute(attrs, d.AttrSlug)
	if attr == nil {
		order.Disambiguation = nil
		return e.ackAndNext(order)
	}

	// The ambiguous utterance carries the quantity and qualifier; the
	// clarification answer usually just names the option.
	match := *e.matcher.enrich(lightNormalize(utterance), chosen)
	if d.SourceText != "" {
		if src := e.matcher.enrich(lightNormalize(d.SourceText), chosen); src.Quantity > 1 || src.Qualifier != "" {
			match = *src
		}
	}
	if d.Quantity > 1 && match.Quantity == 1 {
		match.Quantity = d.Quantity
	}
	if attr.InputType == models.InputTypeMultiSelect {
		recordMulti(item, attr.Slug, []Match{match})
	} else {
		recordSingle(item, attr.Slug, match)
	}
	order.Disambiguation = nil
	if err := e.captureModifiers(item, d.StoredModifiers); err != nil {
		return "", err
	}
	if err := Recalculate(e.cat, item); err != nil {
		return "", err
	}
	slog.Debug("Engine attribute disambiguation resolved", "item", item.Name, "attribute", attr.Slug, "option", chosen.Slug)
	if order.PendingField == d.AttrSlug {
		order.ClearPending()
	} else if order.PendingItemID == item.ID && order.PendingField == pendingCustomize {
		// A change made at the customization checkpoint re-prompts it.
		return fmt.Sprintf("Added %s. Anything else?", match.Selection().Describe()), nil
	}
	return e.ackAndNext(order)
}

// captureModifiers resolves free-text fragments against the item's unanswered
// attributes, so details mentioned up front ("large iced latte with oat
// milk") are never asked again. Fragments that match nothing are dropped;
// ambiguous fragments are left for the regular question to sort out.
func (e *Engine) captureModifiers(item *models.Item, fragments []string) error {
	if len(fragments) == 0 {
		return nil
	}
	attrs, err := e.cat.Attributes(item.Family)
	if err != nil {
		return err
	}

	for _, fragment := range fragments {
		// One fragment can answer several attributes ("large iced"), so
		// every unanswered attribute gets a look. Multi-selects keep
		// accepting additions across fragments.
		for i := range attrs {
			attr := &attrs[i]
			if item.Answered(attr.Slug) && attr.InputType != models.InputTypeMultiSelect {
				continue
			}
			switch attr.InputType {
			case models.InputTypeBoolean:
				// Proactive capture needs the attribute named in the fragment;
				// a bare "no" belongs to some other attribute.
				if v := parseBoolMention(fragment, attr); v != nil {
					item.SetValue(attr.Slug, models.BoolValue(*v))
					slog.Debug("Engine captured modifier", "item", item.Name, "attribute", attr.Slug, "fragment", fragment)
				}
			case models.InputTypeSingleSelect:
				match, ambiguous := e.matcher.MatchSingle(fragment, attr.Options)
				if match != nil && len(ambiguous) == 0 {
					recordSingle(item, attr.Slug, *match)
					slog.Debug("Engine captured modifier", "item", item.Name, "attribute", attr.Slug, "fragment", fragment)
				}
			case models.InputTypeMultiSelect:
				if matches, ambiguous := e.matcher.MatchMulti(fragment, attr.Options); len(ambiguous) == 0 && len(matches) > 0 {
					recordMulti(item, attr.Slug, matches)
					slog.Debug("Engine captured modifier", "item", item.Name, "attribute", attr.Slug, "fragment", fragment)
				}
			}
		}
	}
	return Recalculate(e.cat, item)
}

package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bitewise/orderflow/internal/models"
	"github.com/bitewise/orderflow/internal/nlu"
)

// handleIntake runs the NLU providers over an open-ended utterance and turns
// candidate items into order items. The first configurable item starts
// configuring immediately; the rest join the config queue.
func (e *Engine) handleIntake(ctx context.Context, order *models.Order, utterance string) (string, error) {
	greeting := order.Phase == models.PhaseGreeting
	if greeting {
		order.Phase = models.PhaseTakingItems
	}

	extraction, err := e.nlu.Extract(ctx, utterance)
	if err != nil {
		slog.Warn("Engine NLU extraction failed", "error", err, "order_id", order.ID)
		extraction = nlu.Extraction{Unclear: true}
	}

	if extraction.Unclear || len(extraction.Items) == 0 {
		if greeting {
			return "Welcome! " + genericPrompt, nil
		}
		return "Sorry, I didn't catch that. " + genericPrompt, nil
	}

	var unknown []string
	first := true
	for _, candidate := range extraction.Items {
		matches, err := e.matchCatalogItems(candidate.Name)
		if err != nil {
			return "", err
		}
		switch len(matches) {
		case 0:
			unknown = append(unknown, candidate.Name)

		case 1:
			item, err := e.addItem(order, matches[0], candidate)
			if err != nil {
				return "", err
			}
			if item.Status == models.ItemStatusInProgress {
				if !first {
					// Defer behind whatever is already configuring.
					item.Status = models.ItemStatusPending
					order.QueueConfig(models.QueuedConfig{ItemID: item.ID, Family: item.Family, Name: item.Name})
				}
				first = false
			}

		default:
			names := make([]string, len(matches))
			for i, c := range matches {
				names[i] = c.Name
			}
			if first {
				first = false
				order.Disambiguation = &models.Disambiguation{
					CatalogOptions:  matches,
					StoredModifiers: candidate.Modifiers,
					Quantity:        candidate.Quantity,
					Question:        fmt.Sprintf("Did you mean %s?", models.JoinNatural(names, "or")),
				}
			} else {
				// Too early to clarify; queue the choice for later.
				order.QueueConfig(models.QueuedConfig{Family: models.QueueFamilyDrinkChoice, Name: candidate.Name})
			}
		}
	}

	if len(unknown) > 0 && order.Disambiguation == nil && len(order.ActiveItems()) == 0 {
		return fmt.Sprintf("Sorry, we don't have %s. %s", models.JoinNatural(unknown, "or"), genericPrompt), nil
	}

	if order.Disambiguation != nil && !hasInProgress(order) {
		return order.Disambiguation.Question, nil
	}

	next, err := e.NextQuestion(order)
	if err != nil {
		return "", err
	}
	if len(unknown) > 0 {
		return fmt.Sprintf("Sorry, we don't have %s. %s", models.JoinNatural(unknown, "or"), next), nil
	}
	return next, nil
}

// addItem creates an order item from a catalog entry, applies any modifiers
// mentioned alongside it, and completes it immediately when the entry needs
// no configuration.
func (e *Engine) addItem(order *models.Order, entry models.CatalogItem, candidate nlu.CandidateItem) (*models.Item, error) {
	item := models.NewItem(entry.Family, entry.Name, entry.BasePrice)
	if candidate.Quantity > 1 {
		item.Quantity = candidate.Quantity
	}
	order.AddItem(item)
	slog.Debug("Engine added item", "order_id", order.ID, "item", entry.Name, "quantity", item.Quantity)

	if entry.SkipConfig || entry.Family == "" {
		item.MarkComplete()
		if err := Recalculate(e.cat, item); err != nil {
			return nil, err
		}
		return item, nil
	}

	if err := e.captureModifiers(item, candidate.Modifiers); err != nil {
		return nil, err
	}
	return item, nil
}

// matchCatalogItems resolves a candidate name against the catalog: an exact
// name or alias match wins alone, otherwise every item whose name contains
// the term as a whole word is a candidate ("latte" finds Latte, Matcha Latte,
// and Chai Latte).
func (e *Engine) matchCatalogItems(name string) ([]models.CatalogItem, error) {
	items, err := e.cat.Items()
	if err != nil {
		return nil, err
	}
	norm := Normalize(name)
	if norm == "" {
		return nil, nil
	}

	for _, it := range items {
		if strings.ToLower(it.Name) == norm {
			return []models.CatalogItem{it}, nil
		}
		for _, alias := range it.Aliases {
			if strings.ToLower(alias) == norm {
				return []models.CatalogItem{it}, nil
			}
		}
	}

	var partial []models.CatalogItem
	for _, it := range items {
		hit := containsWord(strings.ToLower(it.Name), norm)
		for _, alias := range it.Aliases {
			if hit {
				break
			}
			hit = containsWord(strings.ToLower(alias), norm)
		}
		if hit {
			partial = append(partial, it)
		}
	}
	return partial, nil
}

// hasInProgress reports whether any item is mid-configuration.
func hasInProgress(order *models.Order) bool {
	for _, it := range order.Items {
		if it.Status == models.ItemStatusInProgress {
			return true
		}
	}
	return false
}

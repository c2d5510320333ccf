package engine

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/bitewise/orderflow/internal/models"
)

var ordinalWords = []string{"first", "second", "third", "fourth", "fifth"}

// ordinalName renders a zero-based position as an ordinal word.
func ordinalName(i int) string {
	if i < len(ordinalWords) {
		return ordinalWords[i]
	}
	return fmt.Sprintf("%dth", i+1)
}

// descriptor builds the ordinal phrase ("the second bagel") when two or more
// active items share the item's family, and "" otherwise.
func descriptor(order *models.Order, item *models.Item) string {
	var sameFamily []*models.Item
	for _, it := range order.ActiveItems() {
		if it.Family == item.Family {
			sameFamily = append(sameFamily, it)
		}
	}
	if len(sameFamily) < 2 {
		return ""
	}
	for i, it := range sameFamily {
		if it.ID == item.ID {
			return fmt.Sprintf("the %s %s", ordinalName(i), strings.ToLower(item.Name))
		}
	}
	return ""
}

// NextQuestion finds the next thing to ask across the whole order: the first
// in-progress item's next attribute, then queued items in FIFO order, and
// finally a consolidated summary once everything is configured. Items that
// finish without needing a question complete in the same pass.
func (e *Engine) NextQuestion(order *models.Order) (string, error) {
	for {
		progressed := false
		for _, item := range order.Items {
			if item.Status != models.ItemStatusInProgress {
				continue
			}
			q, done, err := e.askNext(order, item, descriptor(order, item))
			if err != nil {
				return "", err
			}
			if !done {
				return q, nil
			}
			order.MultiItemNames = append(order.MultiItemNames, item.Name)
			progressed = true
			break
		}
		if progressed {
			continue
		}

		qc, ok := order.PopConfig()
		if !ok {
			break
		}
		slog.Debug("Orchestrator popped config queue", "family", qc.Family, "name", qc.Name)
		if qc.Family == models.QueueFamilyDrinkChoice {
			q, err := e.reopenItemChoice(order, qc)
			if err != nil {
				return "", err
			}
			if q != "" {
				return q, nil
			}
			continue
		}
		item := order.ItemByID(qc.ItemID)
		if item == nil || !item.Active() {
			slog.Warn("Orchestrator dropped stale queue entry", "error", models.ErrItemNotFound, "item_id", qc.ItemID)
			continue
		}
		item.Status = models.ItemStatusInProgress
	}
	return e.finishPass(order), nil
}

// reopenItemChoice resumes a queued catalog-item disambiguation that never
// produced an item. An empty reply means the choice resolved on its own and
// the orchestrator should keep going.
func (e *Engine) reopenItemChoice(order *models.Order, qc models.QueuedConfig) (string, error) {
	candidates, err := e.matchCatalogItems(qc.Name)
	if err != nil {
		return "", err
	}
	switch len(candidates) {
	case 0:
		slog.Warn("Orchestrator queued item no longer in catalog", "name", qc.Name)
		return "", nil
	case 1:
		item := models.NewItem(candidates[0].Family, candidates[0].Name, candidates[0].BasePrice)
		order.AddItem(item)
		return "", nil
	default:
		names := make([]string, 0, len(candidates))
		for _, c := range candidates {
			names = append(names, c.Name)
		}
		order.Disambiguation = &models.Disambiguation{
			CatalogOptions: candidates,
			Quantity:       1,
			Question:       fmt.Sprintf("For your %s, did you mean %s?", strings.ToLower(qc.Name), models.JoinNatural(names, "or")),
		}
		return order.Disambiguation.Question, nil
	}
}

// finishPass ends a configuration pass: everything is answered, so report the
// consolidated order and invite more items.
func (e *Engine) finishPass(order *models.Order) string {
	order.ClearPending()

	active := order.ActiveItems()
	if len(active) == 0 {
		order.Phase = models.PhaseTakingItems
		return "What can I get for you?"
	}

	names := order.MultiItemNames
	order.MultiItemNames = nil
	prefix := ""
	if len(names) > 1 {
		lowered := make([]string, len(names))
		for i, n := range names {
			lowered[i] = strings.ToLower(n)
		}
		prefix = fmt.Sprintf("I've added your %s. ", models.JoinNatural(lowered, "and"))
	}
	order.Phase = models.PhaseComplete
	return fmt.Sprintf("%sSo far you've got %s. Your subtotal is $%.2f. Anything else?",
		prefix, ConsolidatedSummary(active), order.Subtotal())
}

// ConsolidatedSummary renders the order's items, counting and pluralizing
// identical configurations instead of listing them twice.
func ConsolidatedSummary(items []*models.Item) string {
	counts := make(map[string]int)
	var seen []string
	for _, it := range items {
		s := it.Summary()
		if counts[s] == 0 {
			seen = append(seen, s)
		}
		qty := it.Quantity
		if qty < 1 {
			qty = 1
		}
		counts[s] += qty
	}

	parts := make([]string, 0, len(seen))
	for _, s := range seen {
		if n := counts[s]; n > 1 {
			parts = append(parts, pluralizeSummary(s, n))
		} else {
			parts = append(parts, s)
		}
	}
	return models.JoinNatural(parts, "and")
}

// pluralizeSummary prefixes a count and pluralizes the item noun, which is the
// last word before any modifier list: "Plain Bagel, toasted" with count 2
// becomes "2 Plain Bagels, toasted".
func pluralizeSummary(summary string, count int) string {
	head, tail, found := strings.Cut(summary, ",")
	if !found {
		tail = ""
	}
	words := strings.Fields(head)
	if len(words) > 0 {
		last := words[len(words)-1]
		if !strings.HasSuffix(last, "s") {
			words[len(words)-1] = last + "s"
		}
	}
	out := fmt.Sprintf("%d %s", count, strings.Join(words, " "))
	if tail != "" {
		out += "," + tail
	}
	return out
}

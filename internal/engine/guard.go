package engine

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/bitewise/orderflow/internal/models"
)

// cancelRe recognizes explicit removal requests. The target (an item name, a
// modifier name, or "this"/"it") follows the verb and optional article.
var cancelRe = regexp.MustCompile(`^\s*(?:remove|cancel|delete|take off|get rid of|forget|nevermind|never mind)\s*(?:the|my|that|a|an)?\s*(.*)$`)

// handleCancellation runs before any field-specific handling. It returns
// handled=false when the input is not a cancel request.
func (e *Engine) handleCancellation(order *models.Order, input string) (string, bool, error) {
	m := cancelRe.FindStringSubmatch(strings.ToLower(strings.TrimSpace(input)))
	if m == nil {
		return "", false, nil
	}
	target := strings.TrimSpace(m[1])
	slog.Debug("Guard cancellation detected", "target", target)

	current := order.ItemByID(order.PendingItemID)

	// "cancel this" / bare "never mind" drops the item being configured.
	if target == "" || target == "this" || target == "it" || target == "that" {
		if current == nil {
			return "", false, nil
		}
		current.MarkSkipped()
		order.ClearPending()
		order.Disambiguation = nil
		next, err := e.NextQuestion(order)
		if err != nil {
			return "", false, err
		}
		return fmt.Sprintf("No problem, I've removed the %s. %s", strings.ToLower(current.Name), next), true, nil
	}

	// A modifier already applied to the current item.
	if current != nil {
		reply, removed, err := e.removeModifier(order, current, target)
		if err != nil {
			return "", false, err
		}
		if removed {
			return reply, true, nil
		}
	}

	// A whole item elsewhere in the order; a plural target removes every match.
	if reply, removed, err := e.removeItems(order, target); err != nil {
		return "", false, err
	} else if removed {
		return reply, true, nil
	}

	return fmt.Sprintf("I couldn't find %q in your order.", target), true, nil
}

// removeModifier clears a selection matching the target from the item, with
// recalculation, then re-asks the pending question or reports the updated item.
func (e *Engine) removeModifier(order *models.Order, item *models.Item, target string) (string, bool, error) {
	attrs, err := e.cat.Attributes(item.Family)
	if err != nil {
		return "", false, err
	}
	for _, attr := range attrs {
		removed := item.RemoveSelection(attr.Slug, target)
		if len(removed) == 0 {
			continue
		}
		if err := Recalculate(e.cat, item); err != nil {
			return "", false, err
		}
		names := make([]string, 0, len(removed))
		for _, sel := range removed {
			names = append(names, sel.DisplayName)
		}
		slog.Debug("Guard removed modifier", "item", item.Name, "attribute", attr.Slug, "removed", names)

		reply := fmt.Sprintf("Done, I've taken off the %s.", strings.ToLower(models.JoinNatural(names, "and")))
		if order.PendingField != "" && order.PendingField != pendingCustomize {
			if pending := findAttribute(attrs, order.PendingField); pending != nil {
				return reply + " " + pending.Question(), true, nil
			}
		}
		return fmt.Sprintf("%s Your %s is now %s.", reply, strings.ToLower(item.Name), item.Summary()), true, nil
	}
	return "", false, nil
}

// removeItems drops whole items whose name matches the target. A plural
// target ("the coffees") removes every match; singular removes the first.
// Items that never started configuring come out of the cart entirely.
func (e *Engine) removeItems(order *models.Order, target string) (string, bool, error) {
	plural := strings.HasSuffix(target, "s")
	singular := Normalize(target)

	var removed []string
	for _, item := range order.ActiveItems() {
		name := strings.ToLower(item.Name)
		if !strings.Contains(name, singular) && !strings.Contains(singular, name) {
			continue
		}
		if item.Status == models.ItemStatusPending {
			order.RemoveItem(item.ID)
		} else {
			item.MarkSkipped()
		}
		if order.PendingItemID == item.ID {
			order.ClearPending()
		}
		removed = append(removed, name)
		if !plural {
			break
		}
	}
	if len(removed) == 0 {
		return "", false, nil
	}
	next, err := e.NextQuestion(order)
	if err != nil {
		return "", false, err
	}
	return fmt.Sprintf("No problem, I've removed the %s. %s", models.JoinNatural(removed, "and"), next), true, nil
}

var menuInquiryRe = regexp.MustCompile(`\b(?:what|which|do you have|menu|options?)\b`)

// redirectOffTopic recognizes menu-browsing questions unrelated to the pending
// attribute and steers back to it. Questions about the pending attribute
// itself are legitimate option-browsing requests and are not redirected.
func (e *Engine) redirectOffTopic(order *models.Order, item *models.Item, attr *models.AttributeDefinition, input string) (string, bool) {
	norm := Normalize(input)
	if !menuInquiryRe.MatchString(norm) {
		return "", false
	}
	if attr == nil || isOptionsRequest(input, attr) {
		return "", false
	}
	// Only redirect when the question clearly names something other than the
	// pending attribute; a plain "what?" is just an unmatched answer.
	if !mentionsOtherTopic(norm, attr) {
		return "", false
	}
	slog.Debug("Guard off-topic redirect", "item", item.Name, "pending", attr.Slug)
	return fmt.Sprintf("Let's finish your %s first. %s", strings.ToLower(item.Name), attr.Question()), true
}

// mentionsOtherTopic reports whether the inquiry names a topic that is not the
// pending attribute or one of its options.
func mentionsOtherTopic(norm string, attr *models.AttributeDefinition) bool {
	if containsWord(norm, strings.ToLower(attr.DisplayName)) {
		return false
	}
	for _, o := range attr.Options {
		for _, phrase := range optionPhrases(o) {
			if containsWord(norm, phrase) {
				return false
			}
		}
	}
	// "what do you have" with no topic at all browses the pending attribute.
	topicRe := regexp.MustCompile(`\b(?:what|which)\s+(?:kind of\s+|kinds of\s+)?([a-z ]+?)(?:\s+(?:do you have|are there|you got))`)
	m := topicRe.FindStringSubmatch(norm)
	if m == nil {
		return false
	}
	topic := strings.TrimSpace(m[1])
	return topic != "" && !containsWord(strings.ToLower(attr.DisplayName), topic)
}

// findAttribute locates a definition by slug.
func findAttribute(attrs []models.AttributeDefinition, slug string) *models.AttributeDefinition {
	for i := range attrs {
		if attrs[i].Slug == slug {
			return &attrs[i]
		}
	}
	return nil
}

package engine

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/bitewise/orderflow/internal/models"
)

// pendingCustomize is the sentinel pending field for the optional
// customization checkpoint ("Any more changes?").
const pendingCustomize = "_customize"

// optionsPageSize is how many option names one "what options" reply lists.
const optionsPageSize = 5

// nextMandatory returns the first unanswered mandatory attribute of the item,
// or nil when the mandatory phase is done.
func nextMandatory(item *models.Item, attrs []models.AttributeDefinition) *models.AttributeDefinition {
	for i := range attrs {
		if !attrs[i].AskInConversation {
			continue
		}
		if !item.Answered(attrs[i].Slug) {
			return &attrs[i]
		}
	}
	return nil
}

// optionalAttrs returns the unanswered optional attributes of the item.
func optionalAttrs(item *models.Item, attrs []models.AttributeDefinition) []models.AttributeDefinition {
	var out []models.AttributeDefinition
	for _, a := range attrs {
		if a.AskInConversation || item.Answered(a.Slug) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// askNext advances one item: asks its next mandatory attribute, offers the
// customization checkpoint, or completes it. descriptor, when non-empty, is an
// ordinal phrase like "the second bagel" prefixed to the question. The bool
// result reports whether the item just completed.
func (e *Engine) askNext(order *models.Order, item *models.Item, descriptor string) (string, bool, error) {
	attrs, err := e.cat.Attributes(item.Family)
	if err != nil {
		return "", false, err
	}

	if attr := nextMandatory(item, attrs); attr != nil {
		order.SetPending(item.ID, attr.Slug)
		q := attr.Question()
		if descriptor != "" {
			q = fmt.Sprintf("For %s, %s", descriptor, lowerFirst(q))
		}
		slog.Debug("Sequencer asking mandatory attribute", "item", item.Name, "attribute", attr.Slug)
		return q, false, nil
	}

	if opts := optionalAttrs(item, attrs); len(opts) > 0 && !item.CustomizationOffered {
		item.CustomizationOffered = true
		order.SetPending(item.ID, pendingCustomize)
		names := make([]string, 0, len(opts))
		for _, a := range opts {
			names = append(names, strings.ToLower(a.DisplayName))
		}
		q := fmt.Sprintf("Any more changes to your %s? You can change %s.", strings.ToLower(item.Name), models.JoinNatural(names, "or"))
		return q, false, nil
	}

	item.MarkComplete()
	if err := Recalculate(e.cat, item); err != nil {
		return "", false, err
	}
	order.ClearPending()
	slog.Debug("Sequencer item complete", "item", item.Name, "unit_price", item.UnitPrice)
	return "", true, nil
}

// handleAttributeAnswer resolves an utterance against the pending attribute.
// An empty reply means the answer was accepted and the caller should ask the
// next question; a non-empty reply is a re-ask, clarification, or option page.
func (e *Engine) handleAttributeAnswer(order *models.Order, item *models.Item, attr *models.AttributeDefinition, input string) (string, error) {
	if attr.InputType != models.InputTypeBoolean && isOptionsRequest(input, attr) {
		return e.optionsPageReply(order, attr), nil
	}

	switch attr.InputType {
	case models.InputTypeBoolean:
		v := parseBoolAnswer(input, attr)
		if v == nil {
			return fmt.Sprintf("Sorry, I didn't catch that. %s", attr.Question()), nil
		}
		item.SetValue(attr.Slug, models.BoolValue(*v))

	case models.InputTypeSingleSelect:
		if attr.AllowNone && isDecline(input) {
			item.SetValue(attr.Slug, models.AttributeValue{None: true})
			break
		}
		match, ambiguous := e.matcher.MatchSingle(input, attr.Options)
		if len(ambiguous) > 0 {
			order.Disambiguation = &models.Disambiguation{
				Options:    ambiguous,
				AttrSlug:   attr.Slug,
				ItemID:     item.ID,
				SourceText: input,
				Question:   ClarifyQuestion(ambiguous),
			}
			return order.Disambiguation.Question, nil
		}
		if match == nil {
			return fmt.Sprintf("Sorry, I didn't catch that. %s You can also ask \"what options?\"", attr.Question()), nil
		}
		recordSingle(item, attr.Slug, *match)

	case models.InputTypeMultiSelect:
		if attr.AllowNone && isDecline(input) {
			item.SetValue(attr.Slug, models.AttributeValue{None: true})
			break
		}
		matches, ambiguous := e.matcher.MatchMulti(input, attr.Options)
		if len(ambiguous) > 0 {
			if len(matches) > 0 {
				recordMulti(item, attr.Slug, matches)
				if err := Recalculate(e.cat, item); err != nil {
					return "", err
				}
			}
			order.Disambiguation = &models.Disambiguation{
				Options:    ambiguous,
				AttrSlug:   attr.Slug,
				ItemID:     item.ID,
				SourceText: input,
				Question:   ClarifyQuestion(ambiguous),
			}
			return order.Disambiguation.Question, nil
		}
		if len(matches) == 0 {
			return fmt.Sprintf("Sorry, I didn't catch that. %s You can also ask \"what options?\"", attr.Question()), nil
		}
		recordMulti(item, attr.Slug, matches)

	default:
		return "", fmt.Errorf("attribute %s has unknown input type %q", attr.Slug, attr.InputType)
	}

	if err := Recalculate(e.cat, item); err != nil {
		return "", err
	}
	order.ClearPending()
	return "", nil
}

// handleCustomization resolves a reply to the customization checkpoint: a
// decline completes the item, an attribute name opens that attribute's
// question, and anything else is matched directly against option values
// across all optional attributes.
func (e *Engine) handleCustomization(order *models.Order, item *models.Item, input string) (string, error) {
	if isDecline(input) {
		order.ClearPending()
		item.MarkComplete()
		if err := Recalculate(e.cat, item); err != nil {
			return "", err
		}
		return "", nil
	}

	attrs, err := e.cat.Attributes(item.Family)
	if err != nil {
		return "", err
	}
	opts := optionalAttrs(item, attrs)

	norm := Normalize(input)
	for i := range opts {
		name := strings.ToLower(opts[i].DisplayName)
		if containsWord(norm, name) || containsWord(norm, strings.ReplaceAll(opts[i].Slug, "_", " ")) {
			order.SetPending(item.ID, opts[i].Slug)
			return opts[i].Question(), nil
		}
	}

	// No attribute named; try option values directly ("add a little mayo").
	for i := range opts {
		reply, matched, err := e.tryDirectOptionMatch(order, item, &opts[i], input)
		if err != nil {
			return "", err
		}
		if matched {
			return reply, nil
		}
	}

	names := make([]string, 0, len(opts))
	for _, a := range opts {
		names = append(names, strings.ToLower(a.DisplayName))
	}
	return fmt.Sprintf("Sorry, I didn't catch that. You can change %s, or say \"no\" if you're all set.", models.JoinNatural(names, "or")), nil
}

// tryDirectOptionMatch applies input straight to one optional attribute's
// options. On success the checkpoint question is re-asked so the user can
// keep customizing.
func (e *Engine) tryDirectOptionMatch(order *models.Order, item *models.Item, attr *models.AttributeDefinition, input string) (string, bool, error) {
	var described []string
	switch attr.InputType {
	case models.InputTypeSingleSelect:
		match, ambiguous := e.matcher.MatchSingle(input, attr.Options)
		if len(ambiguous) > 0 {
			order.Disambiguation = &models.Disambiguation{
				Options:    ambiguous,
				AttrSlug:   attr.Slug,
				ItemID:     item.ID,
				SourceText: input,
				Question:   ClarifyQuestion(ambiguous),
			}
			return order.Disambiguation.Question, true, nil
		}
		if match == nil {
			return "", false, nil
		}
		recordSingle(item, attr.Slug, *match)
		described = append(described, match.Selection().Describe())

	case models.InputTypeMultiSelect:
		matches, ambiguous := e.matcher.MatchMulti(input, attr.Options)
		if len(ambiguous) > 0 {
			if len(matches) > 0 {
				recordMulti(item, attr.Slug, matches)
				if err := Recalculate(e.cat, item); err != nil {
					return "", false, err
				}
			}
			order.Disambiguation = &models.Disambiguation{
				Options:    ambiguous,
				AttrSlug:   attr.Slug,
				ItemID:     item.ID,
				SourceText: input,
				Question:   ClarifyQuestion(ambiguous),
			}
			return order.Disambiguation.Question, true, nil
		}
		if len(matches) == 0 {
			return "", false, nil
		}
		recordMulti(item, attr.Slug, matches)
		for _, m := range matches {
			described = append(described, m.Selection().Describe())
		}

	default:
		return "", false, nil
	}

	if err := Recalculate(e.cat, item); err != nil {
		return "", false, err
	}
	order.SetPending(item.ID, pendingCustomize)
	return fmt.Sprintf("Added %s. Anything else?", models.JoinNatural(described, "and")), true, nil
}

// recordSingle replaces the attribute's value and selection.
func recordSingle(item *models.Item, slug string, match Match) {
	item.SetValue(slug, models.AttributeValue{Slug: match.Option.Slug})
	if item.Selections == nil {
		item.Selections = make(map[string][]models.Selection)
	}
	item.Selections[slug] = []models.Selection{match.Selection()}
}

// recordMulti appends the matched selections and keeps the slug list in sync.
func recordMulti(item *models.Item, slug string, matches []Match) {
	sels := make([]models.Selection, 0, len(matches))
	slugs := item.Values[slug].Slugs
	for _, m := range matches {
		sels = append(sels, m.Selection())
		slugs = append(slugs, m.Option.Slug)
	}
	item.AddSelections(slug, sels...)
	item.SetValue(slug, models.AttributeValue{Slugs: slugs})
}

var declineWords = map[string]bool{
	"no": true, "nope": true, "none": true, "nothing": true, "nah": true,
	"skip": true, "no thanks": true, "no thank you": true, "that's it": true,
	"thats it": true, "that's all": true, "thats all": true, "all set": true,
	"i'm good": true, "im good": true, "good": true, "done": true,
	"no more": true, "no more changes": true, "nothing else": true,
}

// isDecline reports whether the input declines an optional attribute or the
// customization checkpoint.
func isDecline(input string) bool {
	return declineWords[strings.ToLower(strings.TrimSpace(input))]
}

var affirmWords = map[string]bool{
	"yes": true, "yeah": true, "yep": true, "yup": true, "sure": true,
	"please": true, "ok": true, "okay": true, "definitely": true, "absolutely": true,
	"yes please": true, "sure thing": true,
}

// parseBoolAnswer interprets a reply to a boolean attribute question. Besides
// plain yes/no, the attribute's own name works ("toasted" means yes, "not
// toasted" or "untoasted" means no). Unrecognized input returns nil.
func parseBoolAnswer(input string, attr *models.AttributeDefinition) *bool {
	norm := Normalize(input)
	if norm == "" {
		return nil
	}
	if affirmWords[norm] {
		return boolPtr(true)
	}
	if declineWords[norm] || norm == "not" {
		return boolPtr(false)
	}
	name := strings.ToLower(attr.DisplayName)
	slugWords := strings.ReplaceAll(attr.Slug, "_", " ")
	for _, form := range []string{name, slugWords} {
		if containsWord(norm, "not "+form) || containsWord(norm, "no "+form) || containsWord(norm, "un"+form) {
			return boolPtr(false)
		}
	}
	for _, form := range []string{name, slugWords} {
		if containsWord(norm, form) {
			return boolPtr(true)
		}
	}
	if words := strings.Fields(norm); len(words) > 0 && words[0] == "no" {
		return boolPtr(false)
	}
	return nil
}

func boolPtr(v bool) *bool { return &v }

// parseBoolMention parses a boolean value only when the attribute itself is
// named in the text ("toasted", "not toasted", "untoasted"). Used for
// proactive capture from modifier fragments, where a bare yes/no is about
// something else.
func parseBoolMention(input string, attr *models.AttributeDefinition) *bool {
	norm := Normalize(input)
	name := strings.ToLower(attr.DisplayName)
	slugWords := strings.ReplaceAll(attr.Slug, "_", " ")
	for _, form := range []string{name, slugWords} {
		if containsWord(norm, "not "+form) || containsWord(norm, "no "+form) || containsWord(norm, "un"+form) {
			return boolPtr(false)
		}
	}
	for _, form := range []string{name, slugWords} {
		if containsWord(norm, form) {
			return boolPtr(true)
		}
	}
	return nil
}

var optionsRequestPhrases = []string{
	"what options", "what are my options", "what are the options",
	"show more", "more options", "what else", "what kinds", "what kind",
	"what do you have", "what do you got", "which ones",
}

// isOptionsRequest reports whether the input asks to browse the pending
// attribute's options rather than answering it, including topic-specific
// phrasings like "what breads do you have".
func isOptionsRequest(input string, attr *models.AttributeDefinition) bool {
	norm := Normalize(input)
	for _, phrase := range optionsRequestPhrases {
		if strings.Contains(norm, phrase) {
			return true
		}
	}
	if strings.Contains(norm, "what") || strings.Contains(norm, "which") {
		name := strings.ToLower(attr.DisplayName)
		if containsWord(norm, name) || containsWord(norm, name+"s") {
			return true
		}
	}
	return false
}

// optionsPageReply lists the next page of the attribute's options. Repeating
// the request pages forward; a matched answer resets paging via SetPending.
func (e *Engine) optionsPageReply(order *models.Order, attr *models.AttributeDefinition) string {
	start := order.OptionsPage * optionsPageSize
	if start >= len(attr.Options) {
		order.OptionsPage = 0
		return fmt.Sprintf("Those are all the %s options. %s", strings.ToLower(attr.DisplayName), attr.Question())
	}
	end := start + optionsPageSize
	if end > len(attr.Options) {
		end = len(attr.Options)
	}
	order.OptionsPage++

	names := make([]string, 0, end-start)
	for _, o := range attr.Options[start:end] {
		names = append(names, o.DisplayName)
	}
	reply := fmt.Sprintf("We have %s.", models.JoinNatural(names, "and"))
	if end < len(attr.Options) {
		reply += " Say \"show more\" for more options."
	}
	return reply
}

// lowerFirst lowercases the first rune of a question so it reads naturally
// after an ordinal prefix.
func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

package nlu

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/bitewise/orderflow/internal/models"
)

var (
	requestPrefixRe = regexp.MustCompile(`^\s*(?:hi|hey|hello)?[,!.\s]*(?:can i (?:get|have)|could i (?:get|have)|i'?d like|i'?ll (?:have|take|do|get)|i want|give me|let me (?:get|have)|get me|may i have)\s+`)
	separatorRe     = regexp.MustCompile(`\s*(?:,|&|\band\b|\bwith\b|\bplus\b|\balso\b)\s*`)
	numberWords     = map[string]int{
		"one": 1, "a": 1, "an": 1, "two": 2, "couple": 2, "three": 3,
		"four": 4, "five": 5, "six": 6,
	}
)

// Deterministic extracts candidate items by scanning for catalog item names
// and aliases on word boundaries, longest phrase first. Text between item
// mentions becomes modifier fragments assigned to the nearest item.
type Deterministic struct {
	phrases []itemPhrase
}

type itemPhrase struct {
	text string
	name string // canonical catalog name
}

// NewDeterministic builds an extractor over the catalog's item names and
// aliases.
func NewDeterministic(items []models.CatalogItem) *Deterministic {
	var phrases []itemPhrase
	for _, it := range items {
		forms := append([]string{it.Name}, it.Aliases...)
		for _, f := range forms {
			f = strings.ToLower(f)
			phrases = append(phrases, itemPhrase{text: f, name: it.Name})
			if !strings.HasSuffix(f, "s") {
				phrases = append(phrases, itemPhrase{text: f + "s", name: it.Name})
			}
		}
	}
	sort.SliceStable(phrases, func(i, j int) bool {
		return len(phrases[i].text) > len(phrases[j].text)
	})
	return &Deterministic{phrases: phrases}
}

type span struct {
	start, end int
	name       string
}

// Extract scans the utterance for item mentions. It never returns an error;
// an utterance with no mentions comes back with Unclear set.
func (d *Deterministic) Extract(_ context.Context, utterance string) (Extraction, error) {
	text := strings.ToLower(strings.TrimSpace(utterance))
	text = requestPrefixRe.ReplaceAllString(text, "")

	masked := text
	var spans []span
	for _, p := range d.phrases {
		re, err := regexp.Compile(`\b` + regexp.QuoteMeta(p.text) + `\b`)
		if err != nil {
			continue
		}
		for _, loc := range re.FindAllStringIndex(masked, -1) {
			spans = append(spans, span{start: loc[0], end: loc[1], name: p.name})
			// Mask so "latte" does not rematch inside "matcha latte".
			masked = masked[:loc[0]] + strings.Repeat("#", loc[1]-loc[0]) + masked[loc[1]:]
		}
	}
	if len(spans) == 0 {
		slog.Debug("Deterministic extractor found no items", "utterance", utterance)
		return Extraction{Unclear: true}, nil
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	items := make([]CandidateItem, len(spans))
	for i, sp := range spans {
		items[i] = CandidateItem{Name: sp.name, Quantity: 1}
	}

	// Text before the first mention modifies the first item. Text after a
	// mention is split at the first separator: the head stays with that item
	// ("bagel toasted and ..."), the rest carries forward to the next one.
	lead := text[:spans[0].start]
	items[0].Quantity = takeQuantity(&lead)
	appendFragments(&items[0], lead)

	for i, sp := range spans {
		if i+1 == len(spans) {
			appendFragments(&items[i], text[sp.end:])
			continue
		}
		between := text[sp.end:spans[i+1].start]
		parts := separatorRe.Split(between, 2)
		appendFragments(&items[i], parts[0])
		if len(parts) > 1 {
			carry := parts[1]
			if q := takeQuantity(&carry); q > 1 {
				items[i+1].Quantity = q
			}
			appendFragments(&items[i+1], carry)
		}
	}

	return Extraction{Items: items}, nil
}

// takeQuantity strips a trailing count from the leading fragment and returns
// it ("two everything bagels" yields 2 and leaves "everything").
func takeQuantity(fragment *string) int {
	words := strings.Fields(*fragment)
	for i, w := range words {
		if n, err := strconv.Atoi(strings.TrimSuffix(w, "x")); err == nil && n > 0 {
			*fragment = strings.Join(append(words[:i], words[i+1:]...), " ")
			return n
		}
		if n, ok := numberWords[w]; ok && w != "a" && w != "an" {
			*fragment = strings.Join(append(words[:i], words[i+1:]...), " ")
			return n
		}
	}
	return 1
}

// appendFragments splits modifier text on separators and appends the
// non-empty pieces.
func appendFragments(item *CandidateItem, text string) {
	for _, frag := range separatorRe.Split(text, -1) {
		frag = strings.Trim(frag, " .,!?")
		frag = strings.TrimPrefix(frag, "a ")
		frag = strings.TrimPrefix(frag, "an ")
		if frag == "" || frag == "a" || frag == "an" || frag == "the" || frag == "please" {
			continue
		}
		item.Modifiers = append(item.Modifiers, frag)
	}
}

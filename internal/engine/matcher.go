// Package engine implements the slot-filling configuration engine: option
// matching, disambiguation, attribute sequencing, multi-item orchestration,
// price recalculation, and the cancellation guard.
package engine

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/bitewise/orderflow/internal/models"
)

// qualifierWindow is how many characters around a matched option phrase are
// scanned for qualifier patterns like "extra" or "on the side".
const qualifierWindow = 15

// Match is one resolved option with any quantity and qualifier found next to
// it in the input.
type Match struct {
	Option    models.AttributeOption
	Quantity  int
	Qualifier string
}

// Selection converts the match into an order selection.
func (m Match) Selection() models.Selection {
	return models.Selection{
		Slug:        m.Option.Slug,
		DisplayName: m.Option.DisplayName,
		Price:       m.Option.Price,
		Quantity:    m.Quantity,
		Qualifier:   m.Qualifier,
	}
}

// Matcher resolves free text against an attribute's option list.
type Matcher struct {
	qualifiers []models.QualifierPattern
}

// NewMatcher creates a Matcher using the catalog's qualifier pattern table.
func NewMatcher(qualifiers []models.QualifierPattern) *Matcher {
	return &Matcher{qualifiers: qualifiers}
}

var (
	leadingQuantityRe = regexp.MustCompile(`^(\d+x?|a|an|one|two|three|four|five|six|some)\s+`)
	wordNumbers       = map[string]int{
		"one": 1, "a": 1, "an": 1, "single": 1,
		"two": 2, "double": 2, "couple": 2,
		"three": 3, "triple": 3,
		"four": 4, "quad": 4,
		"five": 5, "six": 6,
	}
	shotWords = map[string]string{
		"1": "single", "2": "double", "3": "triple", "4": "quad",
	}
	pluralSingulars = map[string]string{
		"bagels": "bagel", "eggs": "egg", "syrups": "syrup",
		"coffees": "coffee", "lattes": "latte", "shots": "shot",
		"onions": "onion", "capers": "caper", "tomatoes": "tomato",
	}
)

// lightNormalize lowercases the input, singularizes common plurals, and maps
// numeric shot counts to words ("2 shots" becomes "double shot"), keeping any
// leading quantity in place for per-option extraction.
func lightNormalize(input string) string {
	s := strings.ToLower(strings.TrimSpace(input))
	words := strings.Fields(s)
	for i, w := range words {
		if singular, ok := pluralSingulars[w]; ok {
			words[i] = singular
		}
		if i+1 < len(words) && (words[i+1] == "shot" || words[i+1] == "shots") {
			if word, ok := shotWords[w]; ok {
				words[i] = word
			}
		}
	}
	return strings.Join(words, " ")
}

// Normalize is lightNormalize with the leading quantity phrase stripped, the
// form used for option equality ("2 vanilla syrups" matches "vanilla syrup").
func Normalize(input string) string {
	return leadingQuantityRe.ReplaceAllString(lightNormalize(input), "")
}

// containsWord reports whether phrase appears in text on whole-word boundaries.
func containsWord(text, phrase string) bool {
	if phrase == "" {
		return false
	}
	re, err := regexp.Compile(`\b` + regexp.QuoteMeta(phrase) + `\b`)
	if err != nil {
		return false
	}
	return re.MatchString(text)
}

// mustMatchSatisfied reports whether the option is allowed to match the input.
// Options without MustMatch phrases always qualify.
func mustMatchSatisfied(input string, o models.AttributeOption) bool {
	if len(o.MustMatch) == 0 {
		return true
	}
	for _, phrase := range o.MustMatch {
		if strings.Contains(input, strings.ToLower(phrase)) {
			return true
		}
	}
	return false
}

// optionPhrases returns the matchable text forms of an option: display name,
// slug as words, and aliases, all lowercased.
func optionPhrases(o models.AttributeOption) []string {
	phrases := []string{strings.ToLower(o.DisplayName), o.SlugWords()}
	for _, a := range o.Aliases {
		phrases = append(phrases, strings.ToLower(a))
	}
	return phrases
}

// MatchSingle resolves input to one option of a single-select attribute.
//
// Precedence: exact match on display name, slug-as-words, or alias; then
// whole-word partial in either direction; then bare substring containment.
// A unique hit at any phase wins; two or more partial hits return the
// candidate set as ambiguous. Options gated by MustMatch phrases absent from
// the input are excluded; when that exclusion removes every candidate of a
// category word, the ungated candidates are returned as ambiguous rather than
// guessed.
func (m *Matcher) MatchSingle(input string, options []models.AttributeOption) (*Match, []models.AttributeOption) {
	raw := lightNormalize(input)
	norm := Normalize(input)
	if norm == "" {
		return nil, nil
	}

	// Phase 1: exact.
	for _, o := range options {
		if !mustMatchSatisfied(norm, o) {
			continue
		}
		for _, phrase := range optionPhrases(o) {
			if norm == phrase {
				return m.enrich(raw, o), nil
			}
		}
	}

	// Phase 2: whole-word partial, both directions.
	var allowed, members []models.AttributeOption
	for _, o := range options {
		hit := false
		for _, phrase := range optionPhrases(o) {
			if containsWord(norm, phrase) || containsWord(phrase, norm) {
				hit = true
				break
			}
		}
		if !hit {
			continue
		}
		members = append(members, o)
		if mustMatchSatisfied(norm, o) {
			allowed = append(allowed, o)
		}
	}
	switch {
	case len(allowed) == 1:
		return m.enrich(raw, allowed[0]), nil
	case len(allowed) >= 2:
		return nil, allowed
	case len(members) >= 2:
		// Every candidate needed an explicit phrase the input lacks; ask
		// instead of picking one.
		return nil, members
	}

	// Phase 3: substring fallback.
	var loose []models.AttributeOption
	for _, o := range options {
		if !mustMatchSatisfied(norm, o) {
			continue
		}
		for _, phrase := range optionPhrases(o) {
			if strings.Contains(norm, phrase) || strings.Contains(phrase, norm) {
				loose = append(loose, o)
				break
			}
		}
	}
	if len(loose) == 1 {
		return m.enrich(raw, loose[0]), nil
	}
	if len(loose) >= 2 {
		return nil, loose
	}
	return nil, nil
}

// multiSplitRe separates a multi-select utterance into fragments so quantity
// and qualifier extraction stay local to each mentioned option.
var multiSplitRe = regexp.MustCompile(`\s*(?:,|&|\band\b|\bwith\b|\bplus\b)\s*`)

// MatchMulti finds every option of a multi-select attribute mentioned in the
// input, with per-option quantity and qualifier. A fragment that is only part
// of two or more option phrases ("cheese") is returned as an ambiguous
// candidate set instead of adding all of them; definite matches found in the
// same input are still returned alongside.
func (m *Matcher) MatchMulti(input string, options []models.AttributeOption) ([]Match, []models.AttributeOption) {
	raw := lightNormalize(input)
	if Normalize(input) == "" {
		return nil, nil
	}
	fragments := multiSplitRe.Split(raw, -1)

	var matches []Match
	seen := make(map[string]bool)

	// Full option phrases named in the input are definite picks.
	for _, o := range options {
		if !mustMatchSatisfied(raw, o) {
			continue
		}
		for _, phrase := range optionPhrases(o) {
			if len(phrase) >= 2 && containsWord(raw, phrase) {
				matches = append(matches, *m.enrich(raw, o))
				seen[o.Slug] = true
				break
			}
		}
	}

	// Reverse direction per fragment: "tomato" inside "Tomato". The same
	// gating as single-select applies: a fragment narrowing to one allowed
	// option matches; two or more survivors are a question, not a batch add.
	for _, frag := range fragments {
		frag = Normalize(frag)
		if frag == "" {
			continue
		}
		var allowed, members []models.AttributeOption
		for _, o := range options {
			if seen[o.Slug] {
				continue
			}
			hit := false
			for _, phrase := range optionPhrases(o) {
				if len(phrase) >= 2 && containsWord(phrase, frag) {
					hit = true
					break
				}
			}
			if !hit {
				continue
			}
			members = append(members, o)
			if mustMatchSatisfied(frag, o) {
				allowed = append(allowed, o)
			}
		}
		switch {
		case len(allowed) == 1:
			matches = append(matches, *m.enrich(frag, allowed[0]))
			seen[allowed[0].Slug] = true
		case len(allowed) >= 2:
			return matches, allowed
		case len(members) >= 2:
			return matches, members
		}
	}
	slog.Debug("Matcher MatchMulti resolved", "input", raw, "matches", len(matches))
	return matches, nil
}

// enrich wraps an option with the quantity and qualifier found adjacent to its
// matched phrase in the input.
func (m *Matcher) enrich(input string, o models.AttributeOption) *Match {
	match := &Match{Option: o, Quantity: 1}
	pos, phrase := locate(input, o)
	if pos < 0 {
		return match
	}
	if q := extractQuantity(input, pos); q > 1 {
		match.Quantity = q
	}
	match.Qualifier = m.extractQualifier(input, pos, len(phrase), match.Quantity)
	return match
}

// locate finds the position of the option's first matching phrase in the input.
func locate(input string, o models.AttributeOption) (int, string) {
	for _, phrase := range optionPhrases(o) {
		if phrase == "" {
			continue
		}
		if idx := strings.Index(input, phrase); idx >= 0 {
			return idx, phrase
		}
	}
	return -1, ""
}

// extractQuantity reads a count immediately before the matched phrase,
// e.g. "2 vanilla syrups" or "double bacon".
func extractQuantity(input string, pos int) int {
	before := strings.Fields(strings.TrimSpace(input[:pos]))
	if len(before) == 0 {
		return 1
	}
	last := before[len(before)-1]
	if n, err := strconv.Atoi(strings.TrimSuffix(last, "x")); err == nil && n > 0 {
		return n
	}
	if n, ok := wordNumbers[last]; ok && last != "a" && last != "an" {
		return n
	}
	return 1
}

// extractQualifier scans a short window before and after the matched phrase
// for a qualifier pattern. Text beyond the window belongs to another option
// and is ignored.
func (m *Matcher) extractQualifier(input string, pos, phraseLen, quantity int) string {
	start := pos - qualifierWindow
	if start < 0 {
		start = 0
	}
	end := pos + phraseLen + qualifierWindow
	if end > len(input) {
		end = len(input)
	}
	before := input[start:pos]
	after := input[pos+phraseLen : end]

	// Cut at fragment separators so "lettuce, and extra napkins" does not
	// qualify the lettuce.
	if parts := multiSplitRe.Split(before, -1); len(parts) > 1 {
		before = parts[len(parts)-1]
	}
	if parts := multiSplitRe.Split(after, -1); len(parts) > 1 {
		after = parts[0]
	}

	// A count word already consumed as quantity ("double bacon") is not also
	// a qualifier.
	if quantity > 1 {
		trimmed := strings.TrimRight(before, " ")
		if i := strings.LastIndex(trimmed, " "); i >= 0 {
			before = trimmed[:i+1]
		} else {
			before = ""
		}
	}

	// Longest pattern wins so "on the side" beats "on side".
	best := ""
	for _, p := range m.qualifiers {
		pattern := strings.ToLower(p.Pattern)
		if strings.Contains(before, pattern) || strings.Contains(after, pattern) {
			if len(pattern) > len(best) {
				best = pattern
			}
		}
	}
	if best == "" {
		return ""
	}
	for _, p := range m.qualifiers {
		if strings.ToLower(p.Pattern) == best {
			return p.Normalized
		}
	}
	return ""
}

// FormatOptionList renders option display names for a clarification question,
// e.g. "Whole Milk or Oat Milk" / "Small, Medium, or Large".
func FormatOptionList(options []models.AttributeOption) string {
	names := make([]string, 0, len(options))
	for _, o := range options {
		names = append(names, o.DisplayName)
	}
	return models.JoinNatural(names, "or")
}

// ClarifyQuestion builds the "did you mean" question for an ambiguous match.
func ClarifyQuestion(options []models.AttributeOption) string {
	return fmt.Sprintf("Did you mean %s?", FormatOptionList(options))
}

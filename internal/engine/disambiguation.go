package engine

import (
	"log/slog"
	"strings"
)

// ordinalChoices maps clarification answers like "the second one" to a
// candidate index, checked in order so "second" wins over the "one" in
// "the second one". Clarification lists are short; four entries is the cap.
var ordinalChoices = []struct {
	phrase string
	index  int
}{
	{"number one", 0}, {"number 1", 0},
	{"number two", 1}, {"number 2", 1},
	{"number three", 2}, {"number 3", 2},
	{"number four", 3}, {"number 4", 3},
	{"first", 0}, {"second", 1}, {"third", 2}, {"fourth", 3},
	{"one", 0}, {"two", 1}, {"three", 2}, {"four", 3},
	{"1", 0}, {"2", 1}, {"3", 2}, {"4", 3},
}

// ResolveCandidate picks one candidate name from a clarification answer.
//
// Attempts in order: exact name match, first-word match, substring containment
// in either direction (for names longer than three characters), then ordinal
// keywords. Returns -1 when nothing resolves, in which case the caller re-asks
// the same question unchanged.
func ResolveCandidate(input string, names []string) int {
	norm := Normalize(input)
	if norm == "" {
		return -1
	}

	for i, name := range names {
		if norm == strings.ToLower(name) {
			return i
		}
	}

	for i, name := range names {
		words := strings.Fields(strings.ToLower(name))
		if len(words) > 0 && norm == words[0] {
			return i
		}
	}

	for i, name := range names {
		lower := strings.ToLower(name)
		if len(norm) > 3 && (strings.Contains(lower, norm) || strings.Contains(norm, lower)) {
			return i
		}
	}

	// Any distinctive word of the answer appearing in a candidate name, so
	// "the wheat one" picks Whole Wheat.
	for _, word := range strings.Fields(norm) {
		if len(word) <= 3 {
			continue
		}
		for i, name := range names {
			if containsWord(strings.ToLower(name), word) {
				return i
			}
		}
	}

	for _, oc := range ordinalChoices {
		if oc.index >= len(names) {
			continue
		}
		if norm == oc.phrase || containsWord(norm, oc.phrase) {
			return oc.index
		}
	}

	slog.Debug("Disambiguation unresolved", "input", norm, "candidates", len(names))
	return -1
}

package validate

import (
	"strings"
	"unicode"
)

// NameExtractor pulls candidate business names out of rendered response
// text. Pluggable so the heuristic can be swapped without touching the
// validator's check logic.
type NameExtractor interface {
	Extract(text string) []string
}

// SuffixExtractor is the default heuristic: a token ending in a known
// business suffix ("restaurant", "clinic", "pharmacy") closes a name, and
// the capitalized tokens immediately before it belong to the same name.
// "XYZ-Pharmacy" and "Green Leaf Pharmacy" both extract.
type SuffixExtractor struct {
	suffixes []string
}

func NewSuffixExtractor(suffixes []string) *SuffixExtractor {
	lowered := make([]string, len(suffixes))
	for i, s := range suffixes {
		lowered[i] = strings.ToLower(s)
	}
	return &SuffixExtractor{suffixes: lowered}
}

const maxNameWords = 4

func (e *SuffixExtractor) Extract(text string) []string {
	words := strings.Fields(text)
	var names []string
	seen := make(map[string]struct{})

	for i, w := range words {
		clean := trimWord(w)
		if clean == "" || !e.endsWithSuffix(strings.ToLower(clean)) {
			continue
		}

		start := i
		for start > 0 && i-start < maxNameWords-1 && isNameWord(trimWord(words[start-1])) {
			start--
		}
		// A bare lowercase suffix word ("the nearest pharmacy") is generic
		// vocabulary, not a name.
		if start == i && !hasUpper(clean) {
			continue
		}

		parts := make([]string, 0, i-start+1)
		for _, p := range words[start : i+1] {
			parts = append(parts, trimWord(p))
		}
		name := strings.Join(parts, " ")
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, name)
	}
	return names
}

func (e *SuffixExtractor) endsWithSuffix(lower string) bool {
	for _, s := range e.suffixes {
		if lower == s || strings.HasSuffix(lower, "-"+s) {
			return true
		}
	}
	return false
}

func trimWord(w string) string {
	return strings.Trim(w, ".,!?:;\"'()[]")
}

// isNameWord reports whether a token looks like part of a proper name: it
// starts with an uppercase letter and is not a sentence-level connective.
func isNameWord(w string) bool {
	if w == "" || !hasUpper(w[:1]) {
		return false
	}
	switch strings.ToLower(w) {
	case "the", "a", "an", "our", "here", "try", "visit":
		return false
	}
	return true
}

func hasUpper(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

package faq

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected int
	}{
		{name: "classic kitten sitting", a: "kitten", b: "sitting", expected: 3},
		{name: "identical strings", a: "parking fee", b: "parking fee", expected: 0},
		{name: "empty vs non-empty", a: "", b: "abc", expected: 3},
		{name: "both empty", a: "", b: "", expected: 0},
		{name: "single substitution", a: "fee", b: "few", expected: 1},
		{name: "multi-byte runes count as single edits", a: "こんにちは", b: "こんばんは", expected: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, levenshteinDistance(tt.a, tt.b))
		})
	}
}

func TestLevenshteinSimilarity_Symmetry(t *testing.T) {
	pairs := [][2]string{
		{"parking fee", "how much for parking"},
		{"", "anything"},
		{"sushi", "sashimi"},
		{"駐車場", "駐車料金"},
	}

	for _, pair := range pairs {
		assert.Equal(t, levenshteinSimilarity(pair[0], pair[1]), levenshteinSimilarity(pair[1], pair[0]),
			"similarity must be symmetric for %q / %q", pair[0], pair[1])
	}
}

func TestLevenshteinSimilarity_Identity(t *testing.T) {
	for _, s := range []string{"", "a", "parking fee", "こんにちは"} {
		assert.Equal(t, 1.0, levenshteinSimilarity(s, s), "sim(a,a) must be 1.0 for %q", s)
	}
}

func TestLevenshteinSimilarity_Bounds(t *testing.T) {
	assert.Equal(t, 0.0, levenshteinSimilarity("", "abc"))
	sim := levenshteinSimilarity("parking", "parks")
	assert.Greater(t, sim, 0.0)
	assert.Less(t, sim, 1.0)
}

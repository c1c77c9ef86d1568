package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuffixExtractor_Extract(t *testing.T) {
	e := NewSuffixExtractor([]string{"restaurant", "clinic", "pharmacy", "house", "park"})

	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{
			name:     "multi-word capitalized name",
			text:     "You should try Bella Napoli Restaurant tonight.",
			expected: []string{"Bella Napoli Restaurant"},
		},
		{
			name:     "hyphenated suffix form",
			text:     "find XYZ-Pharmacy for me",
			expected: []string{"XYZ-Pharmacy"},
		},
		{
			name:     "generic lowercase suffix word is vocabulary, not a name",
			text:     "the nearest pharmacy is two blocks away",
			expected: nil,
		},
		{
			name:     "multiple names in one sentence",
			text:     "Sakura House is next to Riverside Clinic.",
			expected: []string{"Sakura House", "Riverside Clinic"},
		},
		{
			name:     "connectives do not join the name",
			text:     "Visit Greenleaf Pharmacy today.",
			expected: []string{"Greenleaf Pharmacy"},
		},
		{
			name:     "trailing punctuation is stripped",
			text:     "Have you seen Central Park?",
			expected: []string{"Central Park"},
		},
		{
			name:     "duplicates collapse",
			text:     "Sakura House, yes, Sakura House.",
			expected: []string{"Sakura House"},
		},
		{
			name:     "no names at all",
			text:     "nothing to see here",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, e.Extract(tt.text))
		})
	}
}

func TestIsNameWord(t *testing.T) {
	assert.True(t, isNameWord("Greenleaf"))
	assert.False(t, isNameWord("the"))
	assert.False(t, isNameWord("The"))
	assert.False(t, isNameWord("visit"))
	assert.False(t, isNameWord(""))
}

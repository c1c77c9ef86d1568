package tags

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"district-concierge/internal/assets"
	"district-concierge/internal/common/logger"
)

func testAnalyzer(t *testing.T) *Analyzer {
	reg := &assets.Registry{
		TagRules: []assets.TagRule{
			{Keyword: "sushi", Tags: []string{"Japanese cuisine", "sushi"}, Required: true},
			{Keyword: "pizza", Tags: []string{"Italian cuisine", "pizza"}, Required: true},
			{Keyword: "wifi", Tags: []string{"WiFi"}, Required: false},
			{Keyword: "cheap", Tags: []string{"budget"}, Required: false},
		},
	}
	return NewAnalyzer(reg, logger.NewTestLogger(t))
}

func TestAnalyzer_Analyze(t *testing.T) {
	a := testAnalyzer(t)

	tests := []struct {
		name             string
		query            string
		expectedRequired []string
		expectedOptional []string
		expectedKeywords []string
	}{
		{
			name:             "required keyword builds required set",
			query:            "I want sushi",
			expectedRequired: []string{"Japanese cuisine", "sushi"},
			expectedOptional: []string{},
			expectedKeywords: []string{"sushi"},
		},
		{
			name:             "required and optional combine",
			query:            "cheap sushi with wifi",
			expectedRequired: []string{"Japanese cuisine", "sushi"},
			expectedOptional: []string{"WiFi", "budget"},
			expectedKeywords: []string{"cheap", "sushi", "wifi"},
		},
		{
			name:             "optional only means pure ranking hints",
			query:            "somewhere cheap",
			expectedRequired: []string{},
			expectedOptional: []string{"budget"},
			expectedKeywords: []string{"cheap"},
		},
		{
			name:             "no keywords is valid category browsing",
			query:            "somewhere to eat",
			expectedRequired: []string{},
			expectedOptional: []string{},
			expectedKeywords: nil,
		},
		{
			name:             "matching is case insensitive",
			query:            "SUSHI please",
			expectedRequired: []string{"Japanese cuisine", "sushi"},
			expectedOptional: []string{},
			expectedKeywords: []string{"sushi"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tq := a.Analyze(tt.query, "food")

			assert.ElementsMatch(t, tt.expectedRequired, tq.RequiredList())
			assert.ElementsMatch(t, tt.expectedOptional, tq.OptionalList())
			assert.Equal(t, tt.expectedKeywords, tq.MatchedKeywords)
		})
	}
}

// Package tags extracts required and optional tag sets from catalog-class
// query text via the curated keyword-to-tag table.
package tags

import (
	"sort"
	"strings"

	"district-concierge/internal/assets"
	"district-concierge/internal/common/logger"
	"district-concierge/internal/models"
)

// Analyzer builds a TagQuery from query text. The keyword table is immutable
// after construction, so a single Analyzer is shared across requests.
type Analyzer struct {
	rules  []assets.TagRule
	logger logger.Logger
}

func NewAnalyzer(reg *assets.Registry, log logger.Logger) *Analyzer {
	return &Analyzer{
		rules:  reg.TagRules,
		logger: log.WithFields(map[string]interface{}{"component": "tag-analyzer"}),
	}
}

// Analyze scans the query for known keywords and folds their tags into the
// required and optional sets. Finding no required tags is a valid state:
// it means pure category browsing.
func (a *Analyzer) Analyze(queryText, intentTag string) models.TagQuery {
	text := strings.ToLower(strings.TrimSpace(queryText))
	tq := models.NewTagQuery()

	for _, rule := range a.rules {
		if !strings.Contains(text, rule.Keyword) {
			continue
		}
		tq.MatchedKeywords = append(tq.MatchedKeywords, rule.Keyword)
		dest := tq.Optional
		if rule.Required {
			dest = tq.Required
		}
		for _, tag := range rule.Tags {
			dest[tag] = struct{}{}
		}
	}

	sort.Strings(tq.MatchedKeywords)

	a.logger.Debug("tag query built", map[string]interface{}{
		"intentTag": intentTag,
		"required":  tq.RequiredList(),
		"optional":  tq.OptionalList(),
		"keywords":  tq.MatchedKeywords,
	})

	return tq
}

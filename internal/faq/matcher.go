// Package faq matches user queries against the curated question/answer
// table using exact, token-overlap, and edit-distance stages.
package faq

import (
	"context"
	"strings"
	"unicode"

	"district-concierge/internal/assets"
	"district-concierge/internal/catalog"
	"district-concierge/internal/common/config"
	"district-concierge/internal/common/logger"
	"district-concierge/internal/models"
)

// Matcher performs layered FAQ lookup: an exact stage against the store,
// then a fuzzy stage combining token overlap, Levenshtein similarity, and
// domain-keyword overlap. The synonym and domain tables are immutable after
// construction.
type Matcher struct {
	store          catalog.FAQStore
	cfg            config.FAQConfig
	synonyms       map[string][]string // term -> expansions at or above the weight floor
	domainKeywords []string
	logger         logger.Logger
}

func NewMatcher(store catalog.FAQStore, reg *assets.Registry, cfg config.FAQConfig, log logger.Logger) *Matcher {
	synonyms := make(map[string][]string)
	for _, s := range reg.Synonyms {
		if s.Weight >= cfg.SynonymWeightFloor {
			term := strings.ToLower(s.Term)
			synonyms[term] = append(synonyms[term], strings.ToLower(s.Synonym))
		}
	}
	return &Matcher{
		store:          store,
		cfg:            cfg,
		synonyms:       synonyms,
		domainKeywords: reg.DomainKeywords,
		logger:         log.WithFields(map[string]interface{}{"component": "faq-matcher"}),
	}
}

// Match returns the best-matching active FAQ entry, or nil when nothing
// clears the threshold. A nil result is not an error.
func (m *Matcher) Match(ctx context.Context, queryText string) (*models.FaqEntry, error) {
	normalized := normalize(queryText)
	if normalized == "" {
		return nil, nil
	}

	// Stage 1: exact match on normalized question text.
	if entry, err := m.store.GetByExactQuestion(ctx, normalized); err != nil {
		return nil, err
	} else if entry != nil {
		return entry, nil
	}

	faqs, err := m.store.GetActiveFAQs(ctx)
	if err != nil {
		return nil, err
	}

	queryTokens := m.expandSynonyms(normalized, tokenize(normalized))

	var best *models.FaqEntry
	bestScore := 0.0

	for i := range faqs {
		entry := &faqs[i]
		score := m.Score(normalized, queryTokens, entry)
		if score > bestScore {
			bestScore = score
			best = entry
		}
	}

	if best == nil || bestScore < m.cfg.Threshold {
		m.logger.Debug("no faq cleared threshold", map[string]interface{}{
			"bestScore": bestScore,
			"threshold": m.cfg.Threshold,
		})
		return nil, nil
	}

	m.logger.Debug("faq matched", map[string]interface{}{
		"faqId": best.ID,
		"score": bestScore,
	})
	return best, nil
}

// Score computes the composite similarity between a normalized query and an
// FAQ entry: weighted token overlap, Levenshtein similarity of the full
// strings, and domain-keyword overlap.
func (m *Matcher) Score(normalizedQuery string, queryTokens map[string]struct{}, entry *models.FaqEntry) float64 {
	question := normalize(entry.Question)
	questionTokens := tokenize(question)

	tokenScore := overlapRatio(queryTokens, questionTokens)
	levScore := levenshteinSimilarity(normalizedQuery, question)
	domainScore := m.domainOverlap(normalizedQuery, queryTokens, question)

	return m.cfg.TokenWeight*tokenScore +
		m.cfg.LevenshteinWeight*levScore +
		m.cfg.DomainWeight*domainScore
}

// expandSynonyms adds the high-confidence synonym expansions of every term
// found in the normalized query to the token set. Multi-word terms like
// "how much" are matched against the full query text.
func (m *Matcher) expandSynonyms(normalizedQuery string, tokens map[string]struct{}) map[string]struct{} {
	expanded := make(map[string]struct{}, len(tokens))
	for t := range tokens {
		expanded[t] = struct{}{}
	}
	for term, syns := range m.synonyms {
		if strings.Contains(normalizedQuery, term) {
			for _, s := range syns {
				expanded[s] = struct{}{}
			}
		}
	}
	return expanded
}

// domainOverlap is the fraction of curated domain keywords present on both
// sides out of those present on either. The query side counts synonym
// expansions so "how much" reaches the "fee" keyword.
func (m *Matcher) domainOverlap(query string, queryTokens map[string]struct{}, question string) float64 {
	both := 0
	either := 0
	for _, kw := range m.domainKeywords {
		_, inTokens := queryTokens[kw]
		inQuery := inTokens || strings.Contains(query, kw)
		inQuestion := strings.Contains(question, kw)
		if inQuery || inQuestion {
			either++
		}
		if inQuery && inQuestion {
			both++
		}
	}
	if either == 0 {
		return 0
	}
	return float64(both) / float64(either)
}

// tokenize splits into whitespace-delimited words plus all contiguous rune
// substrings of length 2-4 per word, shingle style, so partial word forms
// still overlap.
func tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, word := range strings.Fields(text) {
		tokens[word] = struct{}{}
		runes := []rune(word)
		for n := 2; n <= 4 && n <= len(runes); n++ {
			for i := 0; i+n <= len(runes); i++ {
				tokens[string(runes[i:i+n])] = struct{}{}
			}
		}
	}
	return tokens
}

// overlapRatio is containment overlap: shared tokens over the smaller set.
// Shingle sets grow with string length, so a plain Jaccard union would
// punish short questions matched by long queries.
func overlapRatio(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	shared := 0
	for t := range small {
		if _, ok := large[t]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(small))
}

func normalize(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if unicode.IsPunct(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

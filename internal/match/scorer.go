// Package match scores catalog records against a tag query and returns a
// ranked, capped candidate list.
package match

import (
	"sort"

	"district-concierge/internal/common/config"
	"district-concierge/internal/common/logger"
	"district-concierge/internal/models"
)

// Scorer ranks candidates by weighted tag overlap. The required set gates
// eligibility: a candidate matching none of the required tags is excluded
// outright, not merely scored lower.
type Scorer struct {
	cfg    config.MatcherConfig
	logger logger.Logger
}

func NewScorer(cfg config.MatcherConfig, log logger.Logger) *Scorer {
	return &Scorer{
		cfg:    cfg,
		logger: log.WithFields(map[string]interface{}{"component": "entity-matcher"}),
	}
}

// Match scores every candidate and returns the survivors sorted by score
// descending with deterministic tie-breaks (partner tier desc, rating desc,
// id asc), capped at maxResults. An empty result is not an error; callers
// treat it as "use fallback".
func (s *Scorer) Match(candidates []models.CatalogRecord, tq models.TagQuery) []models.ScoredCandidate {
	scored := make([]models.ScoredCandidate, 0, len(candidates))

	for _, rec := range candidates {
		matchedRequired := overlap(rec, tq.Required)
		// The required set is a disjunctive family of category-defining
		// tags: a candidate hitting none of them is ineligible, not merely
		// scored lower.
		if len(tq.Required) > 0 && len(matchedRequired) == 0 {
			continue
		}
		matchedOptional := overlap(rec, tq.Optional)

		score := s.cfg.RequiredWeight*float64(len(matchedRequired)) +
			s.cfg.OptionalWeight*float64(len(matchedOptional))

		scored = append(scored, models.ScoredCandidate{
			Record:          rec,
			Score:           score,
			MatchedRequired: matchedRequired,
			MatchedOptional: matchedOptional,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Record.PartnerTier != b.Record.PartnerTier {
			return a.Record.PartnerTier > b.Record.PartnerTier
		}
		if a.Record.Rating != b.Record.Rating {
			return a.Record.Rating > b.Record.Rating
		}
		return a.Record.ID < b.Record.ID
	})

	if len(scored) > s.cfg.MaxResults {
		scored = scored[:s.cfg.MaxResults]
	}

	s.logger.Debug("candidates scored", map[string]interface{}{
		"inputCount":  len(candidates),
		"outputCount": len(scored),
	})

	return scored
}

// overlap returns the query tags the record satisfies, sorted for
// reproducible output.
func overlap(rec models.CatalogRecord, tags map[string]struct{}) []string {
	matched := make([]string, 0, len(tags))
	for tag := range tags {
		if rec.HasTag(tag) {
			matched = append(matched, tag)
		}
	}
	sort.Strings(matched)
	return matched
}

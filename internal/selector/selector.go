// Package selector applies business rules on top of raw match scores:
// evidence gating, mandatory partner inclusion, and display truncation.
package selector

import (
	"context"

	"district-concierge/internal/assets"
	"district-concierge/internal/catalog"
	"district-concierge/internal/common/config"
	apperrors "district-concierge/internal/common/errors"
	"district-concierge/internal/common/logger"
	"district-concierge/internal/models"
)

// Selector turns a scored candidate list into the final Selection. The
// mandatory-inclusion table is immutable after construction.
type Selector struct {
	store      catalog.Store
	inclusions []assets.MandatoryInclusion
	cfg        config.SelectorConfig
	logger     logger.Logger
}

func New(store catalog.Store, reg *assets.Registry, cfg config.SelectorConfig, log logger.Logger) *Selector {
	return &Selector{
		store:      store,
		inclusions: reg.MandatoryInclusions,
		cfg:        cfg,
		logger:     log.WithFields(map[string]interface{}{"component": "selector"}),
	}
}

// Select applies the post-scoring business rules in order: evidence gating,
// mandatory-inclusion injection, truncation, and the empty-list fallback.
// tq may be nil for intents that carry no tag query.
func (s *Selector) Select(ctx context.Context, intent models.Intent, tq *models.TagQuery, scored []models.ScoredCandidate) models.Selection {
	records := make([]models.CatalogRecord, 0, len(scored))
	for _, cand := range scored {
		if !trustedEvidence(cand.Record.EvidenceLevel) {
			s.logger.Debug("candidate dropped on evidence level", map[string]interface{}{
				"recordId":      cand.Record.ID,
				"evidenceLevel": string(cand.Record.EvidenceLevel),
			})
			continue
		}
		records = append(records, cand.Record)
	}

	records = s.injectMandatory(ctx, intent, tq, records)

	if len(records) > s.cfg.MaxDisplay {
		records = records[:s.cfg.MaxDisplay]
	}

	if len(records) == 0 {
		// Not an error condition: the empty list resolves into the
		// canonical fallback downstream.
		s.logger.Info("no candidate survived selection", map[string]interface{}{
			"intentTag": intent.Tag,
			"error":     apperrors.NewNoCandidatesError(intent.Tag).Error(),
		})
		return models.Selection{Fallback: true}
	}
	return models.Selection{Records: records}
}

// injectMandatory pins a flagship partner to the top rank when the intent
// has a mandatory inclusion, the record exists, it is not already present,
// and its tags satisfy the required set.
func (s *Selector) injectMandatory(ctx context.Context, intent models.Intent, tq *models.TagQuery, records []models.CatalogRecord) []models.CatalogRecord {
	for _, inc := range s.inclusions {
		if inc.IntentTag != intent.Tag {
			continue
		}
		if inc.Subcategory != "" && inc.Subcategory != intent.Subcategory {
			continue
		}
		if containsRecord(records, inc.RecordID) {
			continue
		}
		rec, err := s.store.GetByID(ctx, inc.RecordID)
		if err != nil {
			s.logger.Warn("mandatory inclusion lookup failed", map[string]interface{}{
				"recordId": inc.RecordID,
				"error":    err.Error(),
			})
			continue
		}
		if rec == nil || !trustedEvidence(rec.EvidenceLevel) {
			continue
		}
		if !satisfiesRequired(*rec, tq) {
			continue
		}
		records = append([]models.CatalogRecord{*rec}, records...)
	}
	return records
}

func trustedEvidence(level models.EvidenceLevel) bool {
	return level == models.EvidenceVerified || level == models.EvidencePendingVerification
}

func containsRecord(records []models.CatalogRecord, id string) bool {
	for _, r := range records {
		if r.ID == id {
			return true
		}
	}
	return false
}

// satisfiesRequired mirrors the matcher's eligibility gate: the required set
// is a disjunctive family, so one matching tag is enough.
func satisfiesRequired(rec models.CatalogRecord, tq *models.TagQuery) bool {
	if tq == nil || len(tq.Required) == 0 {
		return true
	}
	for tag := range tq.Required {
		if rec.HasTag(tag) {
			return true
		}
	}
	return false
}

// Package validate is the anti-hallucination guardrail. Every response
// candidate passes through it before rendering reaches the user; no catalog
// entity may be surfaced without resolving in the store at check time.
package validate

import (
	"context"
	"strings"

	"district-concierge/internal/assets"
	"district-concierge/internal/audit"
	"district-concierge/internal/catalog"
	"district-concierge/internal/common/logger"
	"district-concierge/internal/common/metrics"
	"district-concierge/internal/models"
	"district-concierge/internal/render"
)

// notFoundMarkers are phrases asserting an empty result. A response that
// carries one of these and still names a business is self-contradictory.
var notFoundMarkers = []string{
	"no match found",
	"not found",
	"could not find",
	"couldn't find",
	"not currently in our",
	"nothing matching",
}

// Validator runs the guardrail checks over a rendered response candidate.
// The blacklist and extractor are immutable after construction.
type Validator struct {
	store     catalog.Store
	extractor NameExtractor
	blacklist []string
	sink      audit.Sink
	logger    logger.Logger
}

// New builds a Validator. A nil extractor falls back to the suffix
// heuristic seeded from the registry's name-suffix list.
func New(store catalog.Store, reg *assets.Registry, extractor NameExtractor, sink audit.Sink, log logger.Logger) *Validator {
	if extractor == nil {
		extractor = NewSuffixExtractor(reg.NameSuffixes)
	}
	blacklist := make([]string, len(reg.Blacklist))
	for i, b := range reg.Blacklist {
		blacklist[i] = strings.ToLower(b)
	}
	return &Validator{
		store:     store,
		extractor: extractor,
		blacklist: blacklist,
		sink:      sink,
		logger:    log.WithFields(map[string]interface{}{"component": "validator"}),
	}
}

// Check runs every guardrail check and resolves the outcome state. All
// checks execute even after the first failure so the violation report is
// complete. The audit record for corrected and rejected outcomes is the only
// side effect.
func (v *Validator) Check(ctx context.Context, intent models.Intent, sessionID, text string) (models.ValidationResult, error) {
	result := models.ValidationResult{State: models.ValidationChecking}
	lower := strings.ToLower(text)

	blacklistHits := v.blacklistHits(lower)
	if len(blacklistHits) > 0 {
		result.Violations = append(result.Violations, models.ViolationBlacklist)
	}

	names := v.extractor.Extract(text)
	resolved, unresolved, err := v.resolveNames(ctx, names, blacklistHits)
	if err != nil {
		return models.ValidationResult{State: models.ValidationUnchecked}, err
	}
	if len(unresolved) > 0 {
		result.Violations = append(result.Violations, models.ViolationUnknownEntity)
	}

	if hasNotFoundMarker(lower) && (len(resolved) > 0 || len(blacklistHits) > 0) {
		result.Violations = append(result.Violations, models.ViolationContradiction)
	}

	if misaligned(intent, resolved) {
		result.Violations = append(result.Violations, models.ViolationMisalignment)
	}

	if strings.TrimSpace(text) == "" {
		result.Violations = append(result.Violations, models.ViolationEmptyResponse)
	}

	v.resolve(&result, sessionID, text, blacklistHits)

	metrics.ValidationOutcomes.WithLabelValues(string(result.State)).Inc()
	for _, violation := range result.Violations {
		metrics.ValidationViolations.WithLabelValues(string(violation)).Inc()
	}
	return result, nil
}

// resolve maps the violation set to the outcome state. A pure blacklist hit
// is locally patchable by redaction; every other violation discards the
// response in favor of the canonical fallback.
func (v *Validator) resolve(result *models.ValidationResult, sessionID, text string, blacklistHits []string) {
	switch {
	case len(result.Violations) == 0:
		result.State = models.ValidationPassed
		result.Passed = true
		result.SanitizedText = text
		return
	case onlyBlacklist(result.Violations):
		result.State = models.ValidationCorrected
		result.SanitizedText = redact(text, blacklistHits) + " " + render.SafeguardSentence
	default:
		result.State = models.ValidationRejected
		result.SanitizedText = render.FallbackSentence
	}

	v.logger.Warn("response failed validation", map[string]interface{}{
		"sessionId":  sessionID,
		"state":      string(result.State),
		"violations": result.Violations,
	})
	v.sink.Record(models.ViolationReport{
		SessionID:    sessionID,
		OriginalText: text,
		Violations:   result.Violations,
		State:        result.State,
	})
}

func (v *Validator) blacklistHits(lowerText string) []string {
	var hits []string
	for _, fragment := range v.blacklist {
		if strings.Contains(lowerText, fragment) {
			hits = append(hits, fragment)
		}
	}
	return hits
}

// resolveNames splits extracted names into catalog-resolved records and
// unresolved strings. Names already owned by the blacklist check are
// excluded so a redactable fragment is not double-counted as an unknown
// entity.
func (v *Validator) resolveNames(ctx context.Context, names []string, blacklistHits []string) ([]models.CatalogRecord, []string, error) {
	if len(names) == 0 {
		return nil, nil, nil
	}
	records, err := v.store.GetAllActive(ctx)
	if err != nil {
		return nil, nil, err
	}

	byName := make(map[string]models.CatalogRecord, len(records))
	for _, rec := range records {
		byName[normalizeName(rec.Name)] = rec
	}

	var resolved []models.CatalogRecord
	var unresolved []string
	for _, name := range names {
		key := normalizeName(name)
		if coveredByBlacklist(key, blacklistHits) {
			continue
		}
		if rec, ok := byName[key]; ok {
			resolved = append(resolved, rec)
			continue
		}
		unresolved = append(unresolved, name)
	}
	return resolved, unresolved, nil
}

// misaligned reports cross-category leakage: the intent carries a catalog
// category and none of the named businesses belong to it.
func misaligned(intent models.Intent, resolved []models.CatalogRecord) bool {
	if len(resolved) == 0 {
		return false
	}
	if intent.RoutingClass != models.RouteCatalog && intent.RoutingClass != models.RouteEntity {
		return false
	}
	for _, rec := range resolved {
		if rec.Category == intent.Tag {
			return false
		}
	}
	return true
}

func hasNotFoundMarker(lowerText string) bool {
	for _, marker := range notFoundMarkers {
		if strings.Contains(lowerText, marker) {
			return true
		}
	}
	return false
}

func onlyBlacklist(violations []models.ViolationKind) bool {
	for _, v := range violations {
		if v != models.ViolationBlacklist {
			return false
		}
	}
	return len(violations) > 0
}

// redact replaces every blacklist fragment with the placeholder, preserving
// the rest of the sentence. Matching is case-insensitive over the original
// text.
func redact(text string, fragments []string) string {
	for _, fragment := range fragments {
		text = replaceInsensitive(text, fragment, render.RedactionPlaceholder)
	}
	return text
}

func replaceInsensitive(text, fragment, replacement string) string {
	lower := strings.ToLower(text)
	fragment = strings.ToLower(fragment)
	var b strings.Builder
	for {
		idx := strings.Index(lower, fragment)
		if idx < 0 {
			b.WriteString(text)
			return b.String()
		}
		b.WriteString(text[:idx])
		b.WriteString(replacement)
		text = text[idx+len(fragment):]
		lower = lower[idx+len(fragment):]
	}
}

func normalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "-", " ")
	return strings.Join(strings.Fields(name), " ")
}

func coveredByBlacklist(normalizedName string, blacklistHits []string) bool {
	for _, hit := range blacklistHits {
		if strings.Contains(normalizedName, hit) || strings.Contains(hit, normalizedName) {
			return true
		}
	}
	return false
}

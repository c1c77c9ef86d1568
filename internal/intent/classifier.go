// Package intent maps raw query text to a routing class and intent tag
// using layered rule evaluation over the curated keyword registry.
package intent

import (
	"strings"

	"district-concierge/internal/assets"
	"district-concierge/internal/common/config"
	apperrors "district-concierge/internal/common/errors"
	"district-concierge/internal/common/logger"
	"district-concierge/internal/models"
)

// Well-known intent tags outside the catalog keyword families.
const (
	TagStatistics = "statistics"
	TagDirections = "directions"
	TagOutOfScope = "out_of_scope"
	TagGreeting   = "greeting"
	TagChat       = "chat"
)

// Classifier evaluates routing rules in strict priority order: entity,
// system, scope exclusion, catalog keyword families (declaration order),
// then the chat fallback. Confidence values are fixed per rule, not learned.
type Classifier struct {
	reg    *assets.Registry
	cfg    config.ClassifierConfig
	logger logger.Logger
}

func NewClassifier(reg *assets.Registry, cfg config.ClassifierConfig, log logger.Logger) *Classifier {
	return &Classifier{
		reg:    reg,
		cfg:    cfg,
		logger: log.WithFields(map[string]interface{}{"component": "intent-classifier"}),
	}
}

func (c *Classifier) Classify(q models.Query) models.Intent {
	text := normalize(q.Text)

	if intent, ok := c.classifyEntity(text); ok {
		return intent
	}
	if intent, ok := c.classifySystem(text); ok {
		return intent
	}
	// Scope exclusion outranks every catalog keyword: a message naming a
	// competing district never routes to catalog.
	if c.isOutOfScope(text) {
		return models.Intent{
			RoutingClass: models.RouteChat,
			Tag:          TagOutOfScope,
			Confidence:   c.cfg.ChatConfidence,
		}
	}
	if intent, ok := c.classifyCatalog(text); ok {
		return intent
	}

	return c.classifyChat(q, text)
}

// classifyEntity resolves known brand names. The resolved category becomes
// the intent tag, so a brand query for a pharmacy chain is a medical intent.
func (c *Classifier) classifyEntity(text string) (models.Intent, bool) {
	for _, e := range c.reg.Entities {
		if strings.Contains(text, strings.ToLower(e.Name)) {
			return models.Intent{
				RoutingClass: models.RouteEntity,
				Tag:          e.Tag,
				Subcategory:  e.Subcategory,
				Confidence:   c.cfg.EntityConfidence,
			}, true
		}
	}
	return models.Intent{}, false
}

func (c *Classifier) classifySystem(text string) (models.Intent, bool) {
	for _, kw := range c.reg.SystemKeywords {
		if !strings.Contains(text, kw) {
			continue
		}
		tag := TagDirections
		if strings.Contains(kw, "how many") || strings.Contains(kw, "statistics") {
			tag = TagStatistics
		}
		return models.Intent{
			RoutingClass: models.RouteSystem,
			Tag:          tag,
			Confidence:   c.cfg.SystemConfidence,
		}, true
	}
	return models.Intent{}, false
}

func (c *Classifier) isOutOfScope(text string) bool {
	for _, marker := range c.reg.ScopeExclusions {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

func (c *Classifier) classifyCatalog(text string) (models.Intent, bool) {
	// First matching family wins; families are evaluated in declaration
	// order so earlier-declared keyword lists break ties.
	for _, family := range c.reg.KeywordFamilies {
		for _, kw := range family.Keywords {
			if !strings.Contains(text, kw) {
				continue
			}
			confidence := c.cfg.CatalogConfidence - 0.1
			if family.Specific {
				confidence = c.cfg.CatalogConfidence + 0.1
			}
			intent := models.Intent{
				RoutingClass: models.RouteCatalog,
				Tag:          family.Tag,
				Confidence:   confidence,
			}
			if family.Tag == "medical" {
				intent.Subcategory = c.medicalSubcategory(text)
			}
			return intent, true
		}
	}
	return models.Intent{}, false
}

// medicalSubcategory runs the second classification pass within the medical
// tag. Empty means no subcategory could be resolved.
func (c *Classifier) medicalSubcategory(text string) string {
	for _, rule := range c.reg.MedicalSubcategories {
		for _, kw := range rule.Keywords {
			if strings.Contains(text, kw) {
				return rule.Subcategory
			}
		}
	}
	return ""
}

func (c *Classifier) classifyChat(q models.Query, text string) models.Intent {
	for _, kw := range c.reg.ChatKeywords {
		if strings.Contains(text, kw) {
			return models.Intent{
				RoutingClass: models.RouteChat,
				Tag:          TagGreeting,
				Confidence:   c.cfg.ChatConfidence,
			}
		}
	}

	// No rule matched at all. Not fatal: fall to the chat default with the
	// lowest confidence so downstream can ask a clarifying question.
	c.logger.Debug("no classification rule matched", map[string]interface{}{
		"sessionId": q.SessionID,
		"error":     apperrors.NewClassificationAmbiguousError(q.Text).Error(),
	})
	return models.Intent{
		RoutingClass: models.RouteChat,
		Tag:          TagChat,
		Confidence:   0.2,
	}
}

func normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

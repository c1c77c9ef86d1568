// Package pipeline orchestrates one query through classification, matching,
// selection, validation, and rendering. Request state lives on the stack;
// the pipeline itself is stateless and safe for concurrent use.
package pipeline

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"district-concierge/internal/catalog"
	"district-concierge/internal/common/config"
	"district-concierge/internal/common/logger"
	"district-concierge/internal/common/metrics"
	"district-concierge/internal/common/observability"
	"district-concierge/internal/faq"
	"district-concierge/internal/genai"
	"district-concierge/internal/intent"
	"district-concierge/internal/match"
	"district-concierge/internal/models"
	"district-concierge/internal/render"
	"district-concierge/internal/selector"
	"district-concierge/internal/tags"
	"district-concierge/internal/validate"
)

const (
	outcomeOK        = "ok"
	outcomeFallback  = "fallback"
	outcomeCorrected = "corrected"
	outcomeRejected  = "rejected"
	outcomeDegraded  = "degraded"
	outcomeMalformed = "malformed"
)

// Result is the full pipeline output handed back to the hosting process.
type Result struct {
	Intent     models.Intent           `json:"intent"`
	Selection  models.Selection        `json:"selection"`
	Validation models.ValidationResult `json:"validationResult"`
	Reply      string                  `json:"reply"`
}

// Pipeline wires the stages together. Every stage is immutable after
// construction.
type Pipeline struct {
	classifier *intent.Classifier
	analyzer   *tags.Analyzer
	scorer     *match.Scorer
	faq        *faq.Matcher
	selector   *selector.Selector
	validator  *validate.Validator
	renderer   *render.Renderer
	generator  genai.Generator
	store      catalog.Store
	cfg        config.PipelineConfig
	obs        *observability.Observability
	logger     logger.Logger
}

// Deps carries the constructed stages into New. The generator may be nil;
// the pipeline then serves template-rendered replies only.
type Deps struct {
	Classifier *intent.Classifier
	Analyzer   *tags.Analyzer
	Scorer     *match.Scorer
	FAQ        *faq.Matcher
	Selector   *selector.Selector
	Validator  *validate.Validator
	Renderer   *render.Renderer
	Generator  genai.Generator
	Store      catalog.Store
	Obs        *observability.Observability
}

func New(deps Deps, cfg config.PipelineConfig, log logger.Logger) *Pipeline {
	return &Pipeline{
		classifier: deps.Classifier,
		analyzer:   deps.Analyzer,
		scorer:     deps.Scorer,
		faq:        deps.FAQ,
		selector:   deps.Selector,
		validator:  deps.Validator,
		renderer:   deps.Renderer,
		generator:  deps.Generator,
		store:      deps.Store,
		cfg:        cfg,
		obs:        deps.Obs,
		logger:     log.WithFields(map[string]interface{}{"component": "pipeline"}),
	}
}

// Process runs one query end to end. Catalog failures degrade to a service
// notice instead of surfacing an error; only the hosting process decides
// transport-level status.
func (p *Pipeline) Process(ctx context.Context, q models.Query) Result {
	start := time.Now()

	trimmed := strings.TrimSpace(q.Text)
	if trimmed == "" || utf8.RuneCountInString(q.Text) > p.cfg.MaxQueryLen {
		p.logger.Info("malformed query", map[string]interface{}{
			"sessionId": q.SessionID,
			"length":    utf8.RuneCountInString(q.Text),
		})
		metrics.PipelineRequests.WithLabelValues(string(models.RouteChat), outcomeMalformed).Inc()
		return Result{
			Intent:     models.Intent{RoutingClass: models.RouteChat, Tag: intent.TagChat},
			Validation: models.ValidationResult{State: models.ValidationPassed, Passed: true},
			Reply:      render.ClarificationPrompt,
		}
	}

	classifyStart := time.Now()
	it := p.classifier.Classify(q)
	metrics.PipelineStageDuration.WithLabelValues("classify").Observe(time.Since(classifyStart).Seconds())

	if p.obs != nil {
		p.obs.RecordQueryProcessed(ctx, string(it.RoutingClass))
	}

	result, outcome := p.route(ctx, q, it)

	metrics.PipelineRequests.WithLabelValues(string(it.RoutingClass), outcome).Inc()
	metrics.PipelineStageDuration.WithLabelValues("total").Observe(time.Since(start).Seconds())
	if p.obs != nil {
		p.obs.RecordQueryDuration(ctx, time.Since(start), string(it.RoutingClass))
	}
	return result
}

func (p *Pipeline) route(ctx context.Context, q models.Query, it models.Intent) (Result, string) {
	switch it.RoutingClass {
	case models.RouteCatalog, models.RouteEntity:
		return p.processCatalog(ctx, q, it)
	case models.RouteSystem:
		return p.processSystem(ctx, q, it)
	default:
		return p.processChat(ctx, q, it)
	}
}

// processCatalog is the recommendation path: tag extraction, candidate
// fetch, scoring, selection, then the guardrail. An empty selection falls
// back to FAQ matching before the canonical fallback stands.
func (p *Pipeline) processCatalog(ctx context.Context, q models.Query, it models.Intent) (Result, string) {
	tq := p.analyzer.Analyze(q.Text, it.Tag)

	records, err := p.store.GetByCategory(ctx, it.Tag, it.Subcategory)
	if err != nil {
		return p.degraded(q, it, err), outcomeDegraded
	}

	matchStart := time.Now()
	scored := p.scorer.Match(records, tq)
	metrics.PipelineStageDuration.WithLabelValues("match").Observe(time.Since(matchStart).Seconds())

	sel := p.selector.Select(ctx, it, &tq, scored)

	if sel.Fallback {
		if entry, faqErr := p.matchFAQ(ctx, q.Text); faqErr == nil && entry != nil {
			sel = models.Selection{Faq: entry}
		}
	}

	return p.finish(ctx, q, it, sel)
}

// processSystem answers directory-level questions. Statistics count the
// live catalog; anything else goes through FAQ matching.
func (p *Pipeline) processSystem(ctx context.Context, q models.Query, it models.Intent) (Result, string) {
	if it.Tag == intent.TagStatistics {
		records, err := p.store.GetAllActive(ctx)
		if err != nil {
			return p.degraded(q, it, err), outcomeDegraded
		}
		return p.fixedReply(it, p.renderer.RenderStatistics(len(records))), outcomeOK
	}

	if entry, err := p.matchFAQ(ctx, q.Text); err == nil && entry != nil {
		return p.finish(ctx, q, it, models.Selection{Faq: entry})
	}
	return p.finish(ctx, q, it, models.Selection{Fallback: true})
}

// processChat serves greetings and scope refusals from fixed copy and
// routes everything else through FAQ matching.
func (p *Pipeline) processChat(ctx context.Context, q models.Query, it models.Intent) (Result, string) {
	switch it.Tag {
	case intent.TagGreeting:
		return p.fixedReply(it, render.GreetingSentence), outcomeOK
	case intent.TagOutOfScope:
		return p.fixedReply(it, render.OutOfScopeSentence), outcomeOK
	}

	if entry, err := p.matchFAQ(ctx, q.Text); err == nil && entry != nil {
		return p.finish(ctx, q, it, models.Selection{Faq: entry})
	}
	return p.finish(ctx, q, it, models.Selection{Fallback: true})
}

// finish renders, validates, and optionally rephrases a selection. No text
// reaches the caller without a validator verdict, including generated text.
func (p *Pipeline) finish(ctx context.Context, q models.Query, it models.Intent, sel models.Selection) (Result, string) {
	baseText := p.renderer.Render(it, sel)

	validateStart := time.Now()
	validation, err := p.validator.Check(ctx, it, q.SessionID, baseText)
	metrics.PipelineStageDuration.WithLabelValues("validate").Observe(time.Since(validateStart).Seconds())
	if err != nil {
		return p.degraded(q, it, err), outcomeDegraded
	}

	reply := validation.SanitizedText
	if validation.Passed {
		reply = p.maybeGenerate(ctx, q, it, sel, reply)
	}

	result := Result{Intent: it, Selection: sel, Validation: validation, Reply: reply}
	switch {
	case validation.State == models.ValidationCorrected:
		return result, outcomeCorrected
	case validation.State == models.ValidationRejected:
		return result, outcomeRejected
	case sel.Fallback:
		return result, outcomeFallback
	default:
		return result, outcomeOK
	}
}

// maybeGenerate asks the language model to rephrase validated text. The
// generated text goes through the validator again and is discarded on any
// failure, so generation can only improve tone, never facts.
func (p *Pipeline) maybeGenerate(ctx context.Context, q models.Query, it models.Intent, sel models.Selection, baseText string) string {
	if p.generator == nil || sel.Fallback {
		return baseText
	}

	generateStart := time.Now()
	generated, err := p.generator.Generate(ctx, genai.Request{
		QueryText: q.Text,
		Intent:    it,
		BaseText:  baseText,
		Records:   sel.Records,
	})
	metrics.PipelineStageDuration.WithLabelValues("generate").Observe(time.Since(generateStart).Seconds())
	if err != nil {
		p.logger.Warn("generation failed, serving template text", map[string]interface{}{
			"sessionId": q.SessionID,
			"error":     err.Error(),
		})
		return baseText
	}

	revalidation, err := p.validator.Check(ctx, it, q.SessionID, generated)
	if err != nil || !revalidation.Passed {
		p.logger.Warn("generated text failed validation, serving template text", map[string]interface{}{
			"sessionId": q.SessionID,
		})
		return baseText
	}
	return generated
}

func (p *Pipeline) matchFAQ(ctx context.Context, queryText string) (*models.FaqEntry, error) {
	faqStart := time.Now()
	entry, err := p.faq.Match(ctx, queryText)
	metrics.PipelineStageDuration.WithLabelValues("faq").Observe(time.Since(faqStart).Seconds())
	if err != nil {
		p.logger.Warn("faq lookup failed", map[string]interface{}{"error": err.Error()})
		return nil, err
	}
	return entry, nil
}

// fixedReply wraps curated copy that carries no catalog entities, so it
// passes validation by construction.
func (p *Pipeline) fixedReply(it models.Intent, text string) Result {
	return Result{
		Intent:     it,
		Validation: models.ValidationResult{State: models.ValidationPassed, Passed: true, SanitizedText: text},
		Reply:      text,
	}
}

func (p *Pipeline) degraded(q models.Query, it models.Intent, err error) Result {
	p.logger.Error("catalog unavailable, serving degraded reply", map[string]interface{}{
		"sessionId": q.SessionID,
		"error":     err.Error(),
	})
	return Result{
		Intent:     it,
		Validation: models.ValidationResult{State: models.ValidationUnchecked},
		Reply:      render.DegradedSentence,
	}
}

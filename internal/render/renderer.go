// Package render assembles the final user-facing text from a validated
// selection. Every empty-result path funnels through the one canonical
// fallback sentence so "nothing found" messaging stays uniform.
package render

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"district-concierge/internal/common/logger"
	"district-concierge/internal/models"
)

// FallbackSentence is the single canonical phrase for every empty or
// rejected result, independent of intent tag.
const FallbackSentence = "I could not find that in our district directory right now."

// RedactionPlaceholder replaces blacklisted fragments in corrected text.
const RedactionPlaceholder = "[removed]"

// SafeguardSentence is appended to corrected responses after a redaction.
const SafeguardSentence = "Part of this answer was removed because it could not be verified."

// DegradedSentence is returned when the catalog is unreachable after
// retries.
const DegradedSentence = "Our directory service is temporarily limited. Please try again in a moment."

// ClarificationPrompt is returned for malformed queries.
const ClarificationPrompt = "Could you rephrase that? Tell me what you are looking for in the district."

// GreetingSentence answers small-talk openers.
const GreetingSentence = "Hello! Ask me about restaurants, shops, parking, or services in the district."

// OutOfScopeSentence answers queries about areas the directory does not
// cover.
const OutOfScopeSentence = "I only cover businesses inside our district, so I cannot help with that area."

//go:embed templates.json template_schema.json
var templateFS embed.FS

type templateDoc struct {
	Templates []templateEntry `json:"templates"`
}

type templateEntry struct {
	Tag   string `json:"tag"`
	Intro string `json:"intro"`
}

// Renderer holds the per-intent intro lines, validated against the embedded
// JSON schema at construction. Immutable afterwards.
type Renderer struct {
	intros map[string]string
	logger logger.Logger
}

func New(log logger.Logger) (*Renderer, error) {
	raw, err := templateFS.ReadFile("templates.json")
	if err != nil {
		return nil, fmt.Errorf("read templates: %w", err)
	}
	schemaRaw, err := templateFS.ReadFile("template_schema.json")
	if err != nil {
		return nil, fmt.Errorf("read template schema: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaRaw),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return nil, fmt.Errorf("validate templates: %w", err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			details = append(details, e.String())
		}
		return nil, fmt.Errorf("invalid template document: %s", strings.Join(details, "; "))
	}

	var doc templateDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	intros := make(map[string]string, len(doc.Templates))
	for _, t := range doc.Templates {
		intros[t.Tag] = t.Intro
	}
	if _, ok := intros["default"]; !ok {
		return nil, fmt.Errorf("template document missing default entry")
	}

	return &Renderer{
		intros: intros,
		logger: log.WithFields(map[string]interface{}{"component": "renderer"}),
	}, nil
}

// Render turns a selection into response text. FAQ answers pass through
// verbatim; catalog selections get the intent's intro line plus one line per
// record listing only the fields the record actually carries.
func (r *Renderer) Render(intent models.Intent, sel models.Selection) string {
	if sel.Fallback {
		return FallbackSentence
	}
	if sel.Faq != nil {
		return sel.Faq.Answer
	}
	if len(sel.Records) == 0 {
		return FallbackSentence
	}

	intro, ok := r.intros[intent.Tag]
	if !ok {
		intro = r.intros["default"]
	}

	var b strings.Builder
	b.WriteString(intro)
	for _, rec := range sel.Records {
		b.WriteString("\n- ")
		b.WriteString(recordLine(rec))
	}
	return b.String()
}

// RenderStatistics answers the system statistics intent.
func (r *Renderer) RenderStatistics(total int) string {
	if total == 1 {
		return "Our district directory currently lists 1 verified business."
	}
	return fmt.Sprintf("Our district directory currently lists %d verified businesses.", total)
}

func recordLine(rec models.CatalogRecord) string {
	parts := []string{rec.Name}
	if rec.Address != "" {
		parts = append(parts, rec.Address)
	}
	if rec.Hours != "" {
		parts = append(parts, "open "+rec.Hours)
	}
	if rec.Phone != "" {
		parts = append(parts, rec.Phone)
	}
	return strings.Join(parts, ", ")
}

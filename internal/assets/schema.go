package assets

// Registry is the immutable curated language-asset bundle the pipeline is
// built from: keyword families, tag rules, synonyms, brand aliases, and the
// fabricated-entity blacklist. It is loaded once at process start and shared
// read-only across request handlers.
type Registry struct {
	Version string `json:"version"`

	// KeywordFamilies drive catalog routing. Declaration order is the
	// tie-break: earlier families win when a query matches several.
	KeywordFamilies []KeywordFamily `json:"keywordFamilies"`

	// MedicalSubcategories refine the medical tag in a second pass.
	MedicalSubcategories []SubcategoryRule `json:"medicalSubcategories"`

	SystemKeywords []string `json:"systemKeywords"`
	ChatKeywords   []string `json:"chatKeywords"`

	// ScopeExclusions mark queries about competing districts as out of
	// scope. Checked before any catalog keyword.
	ScopeExclusions []string `json:"scopeExclusions"`

	// Entities resolve known brand names to their catalog category, so a
	// brand query for a pharmacy chain becomes a medical intent.
	Entities []EntityAlias `json:"entities"`

	// TagRules map query keywords to required or optional tag sets.
	TagRules []TagRule `json:"tagRules"`

	// Synonyms expand FAQ query tokens. Only entries at or above the
	// configured weight floor participate in matching.
	Synonyms []Synonym `json:"synonyms"`

	// DomainKeywords is the curated location/price/hours term list used by
	// the FAQ composite score.
	DomainKeywords []string `json:"domainKeywords"`

	// Blacklist holds name and address fragments of previously-confirmed
	// fabricated entities.
	Blacklist []string `json:"blacklist"`

	// NameSuffixes feed the default business-name extraction heuristic.
	NameSuffixes []string `json:"nameSuffixes"`

	// MandatoryInclusions pin flagship partners to specific intents.
	MandatoryInclusions []MandatoryInclusion `json:"mandatoryInclusions"`
}

type KeywordFamily struct {
	Tag      string   `json:"tag"`
	Keywords []string `json:"keywords"`
	// Specific raises the catalog confidence for narrowly-scoped families.
	Specific bool `json:"specific,omitempty"`
}

type SubcategoryRule struct {
	Subcategory string   `json:"subcategory"`
	Keywords    []string `json:"keywords"`
}

type EntityAlias struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Tag         string `json:"tag"`
	Subcategory string `json:"subcategory,omitempty"`
}

type TagRule struct {
	Keyword  string   `json:"keyword"`
	Tags     []string `json:"tags"`
	Required bool     `json:"required"`
}

type Synonym struct {
	Term    string  `json:"term"`
	Synonym string  `json:"synonym"`
	Weight  float64 `json:"weight"`
}

type MandatoryInclusion struct {
	IntentTag   string `json:"intentTag"`
	Subcategory string `json:"subcategory,omitempty"`
	RecordID    string `json:"recordId"`
}

package assets

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
)

//go:embed defaults.json
var defaultRegistry []byte

// Load reads the language-asset registry from path, or falls back to the
// embedded defaults when path is empty.
func Load(path string) (*Registry, error) {
	data := defaultRegistry
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read asset registry: %w", err)
		}
	}

	var reg Registry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse asset registry: %w", err)
	}

	if err := reg.validate(); err != nil {
		return nil, fmt.Errorf("invalid asset registry: %w", err)
	}

	return &reg, nil
}

func (r *Registry) validate() error {
	if len(r.KeywordFamilies) == 0 {
		return fmt.Errorf("no keyword families defined")
	}
	seen := make(map[string]bool)
	for _, f := range r.KeywordFamilies {
		if f.Tag == "" {
			return fmt.Errorf("keyword family with empty tag")
		}
		if seen[f.Tag] {
			return fmt.Errorf("duplicate keyword family tag %q", f.Tag)
		}
		seen[f.Tag] = true
		if len(f.Keywords) == 0 {
			return fmt.Errorf("keyword family %q has no keywords", f.Tag)
		}
	}
	for _, s := range r.Synonyms {
		if s.Weight < 0 || s.Weight > 1 {
			return fmt.Errorf("synonym %q -> %q has weight %.2f outside [0,1]", s.Term, s.Synonym, s.Weight)
		}
	}
	for _, t := range r.TagRules {
		if t.Keyword == "" || len(t.Tags) == 0 {
			return fmt.Errorf("tag rule with empty keyword or tag list")
		}
	}
	return nil
}

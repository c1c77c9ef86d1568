package models

import "strings"

// EvidenceLevel is the trust marker on a catalog record.
type EvidenceLevel string

const (
	EvidenceVerified            EvidenceLevel = "verified"
	EvidencePendingVerification EvidenceLevel = "pending_verification"
)

// CatalogRecord is a verified business entry. Owned by the catalog store;
// the pipeline treats it as read-only and never invents fields.
type CatalogRecord struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Category      string        `json:"category"`
	Subcategory   string        `json:"subcategory,omitempty"`
	Tags          []string      `json:"tags"`
	PartnerTier   int           `json:"partnerTier"`
	Rating        float64       `json:"rating"`
	EvidenceLevel EvidenceLevel `json:"evidenceLevel"`
	Address       string        `json:"address,omitempty"`
	Phone         string        `json:"phone,omitempty"`
	Hours         string        `json:"hours,omitempty"`
}

// HasTag reports whether any record tag contains the given tag as a
// substring, or vice versa. Matching is substring overlap so "sushi bar"
// satisfies "sushi".
func (r CatalogRecord) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if containsEither(t, tag) {
			return true
		}
	}
	return false
}

func containsEither(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// FaqEntry is a curated question/answer pair. Read-only, owned externally.
type FaqEntry struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Category string `json:"category"`
	Active   bool   `json:"active"`
}

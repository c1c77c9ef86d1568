package models

// ScoredCandidate pairs a catalog record with its match score. Created by
// the matcher, consumed by the selector, discarded after the response.
type ScoredCandidate struct {
	Record          CatalogRecord `json:"record"`
	Score           float64       `json:"score"`
	MatchedRequired []string      `json:"matchedRequired"`
	MatchedOptional []string      `json:"matchedOptional"`
}

// Selection is the selector output handed to the renderer. When Fallback is
// set, Records is empty and the renderer emits the canonical fallback
// sentence regardless of intent tag.
type Selection struct {
	Records  []CatalogRecord `json:"records"`
	Faq      *FaqEntry       `json:"faq,omitempty"`
	Fallback bool            `json:"fallback"`
}

// ViolationKind identifies one guardrail check failure.
type ViolationKind string

const (
	ViolationBlacklist     ViolationKind = "blacklisted_name"
	ViolationUnknownEntity ViolationKind = "unknown_entity"
	ViolationContradiction ViolationKind = "logical_contradiction"
	ViolationMisalignment  ViolationKind = "category_misalignment"
	ViolationEmptyResponse ViolationKind = "empty_response"
)

// ValidationState tracks a response candidate through the validator.
type ValidationState string

const (
	ValidationUnchecked ValidationState = "UNCHECKED"
	ValidationChecking  ValidationState = "CHECKING"
	ValidationPassed    ValidationState = "PASSED"
	ValidationCorrected ValidationState = "CORRECTED"
	ValidationRejected  ValidationState = "REJECTED"
)

// ValidationResult is produced by the anti-hallucination validator for every
// response candidate.
type ValidationResult struct {
	State         ValidationState `json:"state"`
	Passed        bool            `json:"passed"`
	Violations    []ViolationKind `json:"violations,omitempty"`
	SanitizedText string          `json:"sanitizedText,omitempty"`
}

// ViolationReport is the audit-sink payload for corrected or rejected
// responses.
type ViolationReport struct {
	SessionID    string          `json:"sessionId"`
	OriginalText string          `json:"originalText"`
	Violations   []ViolationKind `json:"violations"`
	State        ValidationState `json:"state"`
}

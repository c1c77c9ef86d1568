// Package errors provides standardized error handling for the recommendation pipeline.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Query understanding
	ErrCodeMalformedQuery          ErrorCode = "MALFORMED_QUERY"
	ErrCodeClassificationAmbiguous ErrorCode = "CLASSIFICATION_AMBIGUOUS"
	ErrCodeNoCandidates            ErrorCode = "NO_CANDIDATES"

	// Collaborators
	ErrCodeCatalogUnavailable  ErrorCode = "CATALOG_UNAVAILABLE"
	ErrCodeCatalogQueryTimeout ErrorCode = "CATALOG_QUERY_TIMEOUT"
	ErrCodeLLMTimeout          ErrorCode = "LLM_TIMEOUT"
	ErrCodeLLMGenerationFailed ErrorCode = "LLM_GENERATION_FAILED"

	// Guardrail
	ErrCodeValidationViolation ErrorCode = "VALIDATION_VIOLATION"
	ErrCodeAuditWriteFailed    ErrorCode = "AUDIT_WRITE_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Is lets errors.Is match two StandardErrors by code.
func (e *StandardError) Is(target error) bool {
	var se *StandardError
	if errors.As(target, &se) {
		return se.Code == e.Code
	}
	return false
}

// CodeOf extracts the error code from err, or empty string for foreign errors.
func CodeOf(err error) ErrorCode {
	var se *StandardError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// NewMalformedQueryError creates a non-retryable input error. The pipeline
// answers it with a clarification prompt and makes no downstream calls.
func NewMalformedQueryError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMalformedQuery,
		Message:   "Query text is empty or exceeds the size limit",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewClassificationAmbiguousError marks a query no routing rule matched.
// Not fatal: the classifier falls back to chat routing.
func NewClassificationAmbiguousError(queryText string) *StandardError {
	return &StandardError{
		Code:      ErrCodeClassificationAmbiguous,
		Message:   "No classification rule matched the query",
		Details:   fmt.Sprintf("query: %s", queryText),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNoCandidatesError marks an empty matcher result. Not an error condition;
// it triggers the canonical fallback sentence.
func NewNoCandidatesError(intentTag string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNoCandidates,
		Message:   "No catalog candidate survived matching",
		Details:   fmt.Sprintf("intentTag: %s", intentTag),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCatalogUnavailableError creates a retryable catalog store error.
func NewCatalogUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogUnavailable,
		Message:   "Catalog store error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCatalogQueryTimeoutError creates a retryable catalog timeout error.
func NewCatalogQueryTimeoutError(operation string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogQueryTimeout,
		Message:   "Catalog store query timeout",
		Details:   fmt.Sprintf("operation: %s", operation),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewLLMTimeoutError creates a retryable language-model timeout error.
func NewLLMTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMTimeout,
		Message:   "Language-model generation timeout",
		Details:   "generate call exceeded timeout threshold",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewLLMGenerationFailedError creates a retryable language-model error.
func NewLLMGenerationFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMGenerationFailed,
		Message:   "Language-model generation error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationViolationError records a guardrail violation. Always resolved
// locally by the validator, never propagated to the hosting layer.
func NewValidationViolationError(violations []string, sessionID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationViolation,
		Message:   "Response failed anti-hallucination validation",
		Details:   strings.Join(violations, ","),
		Retryable: false,
		Metadata:  map[string]interface{}{"sessionId": sessionID},
		Timestamp: time.Now().UTC(),
	}
}

// NewAuditWriteFailedError marks a dropped audit record. Reported only via a
// counter; never surfaced to the user.
func NewAuditWriteFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuditWriteFailed,
		Message:   "Audit sink write failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// GetRetryCount returns how many times an operation carrying this code should
// be retried. Idempotent catalog reads get a single retry with backoff;
// everything else resolves internally without retrying.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeCatalogUnavailable, ErrCodeCatalogQueryTimeout:
		return 1
	case ErrCodeLLMTimeout, ErrCodeLLMGenerationFailed:
		return 1
	default:
		return 0
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// IsFatal reports whether the error must surface to the hosting layer.
// Only collaborator failures after exhausted retries are fatal; every other
// condition resolves into a valid (possibly fallback) response.
func IsFatal(err error) bool {
	switch CodeOf(err) {
	case ErrCodeCatalogUnavailable, ErrCodeCatalogQueryTimeout:
		return true
	default:
		return false
	}
}

// GetErrorCategory returns the reporting category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "CATALOG"):
		return "CATALOG"
	case strings.Contains(codeStr, "LLM"):
		return "LLM"
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "AUDIT"):
		return "GUARDRAIL"
	case strings.Contains(codeStr, "QUERY") || strings.Contains(codeStr, "CLASSIFICATION") || strings.Contains(codeStr, "CANDIDATES"):
		return "UNDERSTANDING"
	default:
		return "OTHER"
	}
}

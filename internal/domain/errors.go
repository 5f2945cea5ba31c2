package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation            = "VALIDATION_ERROR"
	ErrCodeNotFound              = "NOT_FOUND"
	ErrCodeInvalidState          = "INVALID_STATE"
	ErrCodeDependencyUnavailable = "DEPENDENCY_UNAVAILABLE"
	ErrCodeDeliveryFailed        = "DELIVERY_FAILED"
	ErrCodeIndexInconsistency    = "INDEX_INCONSISTENCY"
	ErrCodeUnauthorized          = "UNAUTHORIZED"
	ErrCodeInternalError         = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrEmptyQuestion = NewDomainError(ErrCodeValidation, "question cannot be empty")
	ErrEmptyAnswer   = NewDomainError(ErrCodeValidation, "answer cannot be empty")
)

// Not found errors
var (
	ErrKnowledgeItemNotFound   = NewDomainError(ErrCodeNotFound, "knowledge item not found")
	ErrHelpRequestNotFound     = NewDomainError(ErrCodeNotFound, "help request not found")
	ErrCallbackBindingNotFound = NewDomainError(ErrCodeNotFound, "no callback binding for request")
	ErrBusinessInfoNotFound    = NewDomainError(ErrCodeNotFound, "business info entry not found")
)

// State machine errors
var (
	ErrRequestNotPending = NewDomainError(ErrCodeInvalidState, "help request is not pending")
)

// Dependency errors
var (
	ErrEmbeddingUnavailable = NewDomainError(ErrCodeDependencyUnavailable, "embedding provider unavailable")
	ErrIndexUnavailable     = NewDomainError(ErrCodeDependencyUnavailable, "vector index unavailable")
)

// Delivery errors
var (
	ErrSessionGone      = NewDomainError(ErrCodeDeliveryFailed, "caller session no longer exists")
	ErrDeliveryFailed   = NewDomainError(ErrCodeDeliveryFailed, "failed to deliver answer to session")
	ErrWebhookExhausted = NewDomainError(ErrCodeDeliveryFailed, "webhook delivery retries exhausted")
)

// Index errors
var (
	ErrIndexInconsistent = NewDomainError(ErrCodeIndexInconsistency, "vector count does not match id mapping")
)

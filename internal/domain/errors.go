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
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeConversion       = "CONVERSION_ERROR"
	ErrCodeEmbedding        = "EMBEDDING_ERROR"
	ErrCodeIndexUnavailable = "INDEX_UNAVAILABLE"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeInvalidOperation = "INVALID_OPERATION"
)

// Validation errors
var (
	ErrEmptyFilename        = NewDomainError(ErrCodeValidation, "filename cannot be empty")
	ErrInvalidPagesPerChunk = NewDomainError(ErrCodeValidation, "pages per chunk must be positive")
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
)

// Not found errors
var (
	ErrDocumentNotFound     = NewDomainError(ErrCodeNotFound, "document not found")
	ErrVectorRecordNotFound = NewDomainError(ErrCodeNotFound, "vector record not found")
	ErrIndexNotFound        = NewDomainError(ErrCodeNotFound, "vector index not found")
)

// Pipeline step errors. Conversion and embedding failures are retryable:
// the document stays short of the corresponding state so a redelivery
// re-attempts the step.
var (
	ErrConversionFailed = NewDomainError(ErrCodeConversion, "document conversion failed")
	ErrEmbeddingFailed  = NewDomainError(ErrCodeEmbedding, "embedding generation failed")
	ErrIndexUnavailable = NewDomainError(ErrCodeIndexUnavailable, "vector index backing store unreachable")
)

// ConversionError wraps err as a retryable conversion failure.
func ConversionError(err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeConversion, "document conversion failed", err)
}

// EmbeddingError wraps err as a retryable per-chunk embedding failure.
func EmbeddingError(err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeEmbedding, "embedding generation failed", err)
}

// IndexUnavailableError wraps err as a fatal backing-store failure. The
// current work item must not advance state when this is returned.
func IndexUnavailableError(err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeIndexUnavailable, "vector index backing store unreachable", err)
}

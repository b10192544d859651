package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrInsufficientStock   = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
	ErrInsufficientPoints  = NewDomainError("INSUFFICIENT_POINTS", "Insufficient loyalty points available")
	ErrSequenceContention  = NewDomainError("SEQUENCE_CONTENTION", "Document sequence is contended, retry the operation")
	ErrTransactionTimeout  = NewDomainError("TRANSACTION_TIMEOUT", "Transaction exceeded its deadline, retry the operation")
)

// IsRetryable reports whether the error is transient and the caller may
// safely resubmit the same request. Nothing was committed when a retryable
// error is returned, so no document number was consumed.
func IsRetryable(err error) bool {
	return err == ErrSequenceContention || err == ErrTransactionTimeout || err == ErrConcurrencyConflict
}

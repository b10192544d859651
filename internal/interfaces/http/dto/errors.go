package dto

import "net/http"

// Error codes surfaced by the API. Domain errors carry these codes
// directly; the map below decides the HTTP status for each.
const (
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeConflict     = "CONFLICT"
)

// errorCodeHTTPStatus maps error codes to HTTP status codes
var errorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:     http.StatusInternalServerError,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeConflict:     http.StatusConflict,

	"VALIDATION_ERROR": http.StatusBadRequest,
	"INVALID_INPUT":    http.StatusBadRequest,
	"INVALID_NAME":     http.StatusBadRequest,
	"INVALID_QUANTITY": http.StatusBadRequest,
	"INVALID_PREFIX":   http.StatusBadRequest,
	"INVALID_LABEL":    http.StatusBadRequest,

	ErrCodeNotFound:      http.StatusNotFound,
	"CUSTOMER_NOT_FOUND": http.StatusNotFound,

	"ALREADY_EXISTS":       http.StatusConflict,
	"CONCURRENCY_CONFLICT": http.StatusConflict,
	"DUPLICATE_REQUEST":    http.StatusConflict,

	"INVALID_STATE":       http.StatusUnprocessableEntity,
	"INSUFFICIENT_STOCK":  http.StatusUnprocessableEntity,
	"INSUFFICIENT_POINTS": http.StatusUnprocessableEntity,

	// Retryable conditions surface as 503 so clients back off and retry
	// instead of treating them as terminal conflicts.
	"SEQUENCE_CONTENTION": http.StatusServiceUnavailable,
	"TRANSACTION_TIMEOUT": http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status for an error code, defaulting to
// 500 for anything unmapped
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

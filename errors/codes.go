package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Stream errors
const (
	// ErrCodeTransform indicates a stage function (map, filter, flatMap) failed or panicked.
	ErrCodeTransform ErrorCode = "TRANSFORM_ERROR"
	// ErrCodeUpstream indicates a source produced an error signal.
	ErrCodeUpstream ErrorCode = "UPSTREAM_ERROR"
	// ErrCodeInvalidDemand indicates a subscriber requested a non-positive amount.
	ErrCodeInvalidDemand ErrorCode = "INVALID_DEMAND"
	// ErrCodeRetryExhausted indicates a retry loop ran out of attempts.
	ErrCodeRetryExhausted ErrorCode = "RETRY_EXHAUSTED"
)

// Availability errors (retryable)
const (
	// ErrCodeServiceUnavailable indicates the service is temporarily unavailable.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeTimeout indicates the operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// Input and lookup errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
)

// ErrCodeInternal indicates an unexpected internal error.
const ErrCodeInternal ErrorCode = "INTERNAL_ERROR"

var retryableCodes = map[ErrorCode]bool{
	ErrCodeUpstream:           true,
	ErrCodeServiceUnavailable: true,
	ErrCodeTimeout:            true,
	ErrCodeTransform:          false,
	ErrCodeInvalidDemand:      false,
	ErrCodeInternal:           false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}

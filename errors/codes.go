package errors

// ErrorCategory classifies errors by their retry semantics.
type ErrorCategory string

const (
	// CategoryTransient indicates failures where another attempt may succeed.
	CategoryTransient ErrorCategory = "transient"

	// CategoryPermanent indicates failures where retrying will not help.
	CategoryPermanent ErrorCategory = "permanent"

	// CategoryInternal indicates unexpected errors, bugs, or misbehaving callbacks.
	CategoryInternal ErrorCategory = "internal"
)

// String returns the string representation of the category.
func (c ErrorCategory) String() string {
	return string(c)
}

// IsRetryable returns true if errors in this category may succeed on retry.
func (c ErrorCategory) IsRetryable() bool {
	return c == CategoryTransient
}

// ErrorCode identifies specific error types within categories.
type ErrorCode string

const (
	// Transient errors
	ErrCodeTransport ErrorCode = "TRANSPORT" // I/O failure or non-2xx status
	ErrCodeProtocol  ErrorCode = "PROTOCOL"  // 2xx with missing or malformed body
	ErrCodeTimeout   ErrorCode = "TIMEOUT"   // attempt deadline exceeded

	// Permanent errors
	ErrCodeConfiguration  ErrorCode = "CONFIGURATION"   // required config missing
	ErrCodeInitialization ErrorCode = "INITIALIZATION"  // first heartbeat failed
	ErrCodeRetryExhausted ErrorCode = "RETRY_EXHAUSTED" // all attempts failed
	ErrCodeInterrupted    ErrorCode = "INTERRUPTED"     // readiness wait cancelled
	ErrCodeCanceled       ErrorCode = "CANCELED"        // operation context cancelled
	ErrCodeInvalidInput   ErrorCode = "INVALID_INPUT"   // caller passed bad arguments

	// Internal errors
	ErrCodeInternal ErrorCode = "INTERNAL" // unexpected internal error
	ErrCodePanic    ErrorCode = "PANIC"    // recovered from panic
)

// String returns the string representation of the error code.
func (c ErrorCode) String() string {
	return string(c)
}

// DefaultCategory returns the default category for an error code.
func (c ErrorCode) DefaultCategory() ErrorCategory {
	switch c {
	case ErrCodeTransport, ErrCodeProtocol, ErrCodeTimeout:
		return CategoryTransient

	case ErrCodeConfiguration, ErrCodeInitialization, ErrCodeRetryExhausted,
		ErrCodeInterrupted, ErrCodeCanceled, ErrCodeInvalidInput:
		return CategoryPermanent

	default:
		return CategoryInternal
	}
}

// DefaultRetryable returns whether this error code is typically retryable.
func (c ErrorCode) DefaultRetryable() bool {
	return c.DefaultCategory().IsRetryable()
}

var codeDescriptions = map[ErrorCode]string{
	ErrCodeTransport:      "agent transport failure",
	ErrCodeProtocol:       "malformed agent response",
	ErrCodeTimeout:        "operation timed out",
	ErrCodeConfiguration:  "invalid configuration",
	ErrCodeInitialization: "failed to contact agent during initialization",
	ErrCodeRetryExhausted: "heartbeat retries exhausted",
	ErrCodeInterrupted:    "wait interrupted",
	ErrCodeCanceled:       "operation canceled",
	ErrCodeInvalidInput:   "invalid input provided",
	ErrCodeInternal:       "internal error",
	ErrCodePanic:          "recovered from panic",
}

// Description returns a human-readable description for the error code.
func (c ErrorCode) Description() string {
	if desc, ok := codeDescriptions[c]; ok {
		return desc
	}
	return "unknown error"
}

package errors

import (
	"fmt"
	"strconv"
	"time"
)

// SDKError is the interface for all structured errors raised by the SDK.
type SDKError interface {
	error

	// Code returns the specific error code identifying the failure type.
	Code() ErrorCode

	// Category returns the error category for retry/handling decisions.
	Category() ErrorCategory

	// Retryable returns true if the operation may succeed on retry.
	Retryable() bool

	// Metadata returns additional context as key-value pairs.
	Metadata() map[string]string

	// Unwrap returns the underlying error, if any.
	Unwrap() error
}

// Error is the concrete implementation of SDKError.
type Error struct {
	code      ErrorCode
	category  ErrorCategory
	message   string
	cause     error
	metadata  map[string]string
	retryable *bool // nil means use default based on category
	timestamp time.Time
}

var _ SDKError = (*Error)(nil)

// Error returns the error message.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Code returns the error code.
func (e *Error) Code() ErrorCode {
	return e.code
}

// Category returns the error category.
func (e *Error) Category() ErrorCategory {
	return e.category
}

// Retryable returns whether this error is retryable.
func (e *Error) Retryable() bool {
	if e.retryable != nil {
		return *e.retryable
	}
	return e.category.IsRetryable()
}

// Metadata returns a copy of the error metadata.
func (e *Error) Metadata() map[string]string {
	result := make(map[string]string, len(e.metadata))
	for k, v := range e.metadata {
		result[k] = v
	}
	return result
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.cause
}

// Timestamp returns when the error occurred.
func (e *Error) Timestamp() time.Time {
	return e.timestamp
}

// Option is a functional option for configuring an Error.
type Option func(*Error)

// WithCategory overrides the default category.
func WithCategory(cat ErrorCategory) Option {
	return func(e *Error) {
		e.category = cat
	}
}

// WithRetryable explicitly sets whether the error is retryable.
func WithRetryable(retryable bool) Option {
	return func(e *Error) {
		e.retryable = &retryable
	}
}

// WithMetadata adds a metadata key-value pair.
func WithMetadata(key, value string) Option {
	return func(e *Error) {
		if e.metadata == nil {
			e.metadata = make(map[string]string)
		}
		e.metadata[key] = value
	}
}

// WithCause sets the underlying cause.
func WithCause(cause error) Option {
	return func(e *Error) {
		e.cause = cause
	}
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string, opts ...Option) *Error {
	e := &Error{
		code:      code,
		category:  code.DefaultCategory(),
		message:   message,
		timestamp: time.Now(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Newf creates a new Error with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// FromCode creates an error with the default description for the code.
func FromCode(code ErrorCode, opts ...Option) *Error {
	return New(code, code.Description(), opts...)
}

// Configuration creates a configuration error.
func Configuration(message string, opts ...Option) *Error {
	return New(ErrCodeConfiguration, message, opts...)
}

// Initialization creates an initialization error wrapping the failure that
// prevented the first heartbeat from succeeding.
func Initialization(message string, cause error, opts ...Option) *Error {
	return New(ErrCodeInitialization, message, append(opts, WithCause(cause))...)
}

// Transport creates a retryable transport error.
func Transport(message string, opts ...Option) *Error {
	return New(ErrCodeTransport, message, opts...)
}

// Protocol creates a retryable protocol error.
func Protocol(message string, opts ...Option) *Error {
	return New(ErrCodeProtocol, message, opts...)
}

// RetryExhausted creates the terminal per-exchange failure.
func RetryExhausted(attempts int, last error, opts ...Option) *Error {
	opts = append([]Option{
		WithCause(last),
		WithMetadata("attempts", strconv.Itoa(attempts)),
	}, opts...)
	return New(ErrCodeRetryExhausted,
		fmt.Sprintf("heartbeat failed after %d attempts", attempts), opts...)
}

// Interrupted creates the error returned to a readiness waiter whose wait
// was cancelled.
func Interrupted(cause error, opts ...Option) *Error {
	return New(ErrCodeInterrupted, "wait for activation interrupted", append(opts, WithCause(cause))...)
}

// InvalidInput creates an invalid input error.
func InvalidInput(message string, opts ...Option) *Error {
	return New(ErrCodeInvalidInput, message, opts...)
}

// Internal creates an internal error.
func Internal(message string, opts ...Option) *Error {
	return New(ErrCodeInternal, message, opts...)
}

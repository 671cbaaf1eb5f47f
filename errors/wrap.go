package errors

import (
	"context"
	"errors"
	"fmt"
)

// Wrap wraps an error with additional context while preserving the error chain.
// If err is nil, Wrap returns nil.
// If err is already an SDK error, its code and category are kept.
// Otherwise a new Internal error (or Timeout/Canceled for context errors)
// wraps the original.
func Wrap(err error, message string, opts ...Option) *Error {
	if err == nil {
		return nil
	}

	var sdkErr *Error
	if errors.As(err, &sdkErr) {
		wrapped := &Error{
			code:      sdkErr.code,
			category:  sdkErr.category,
			message:   message,
			cause:     err,
			metadata:  sdkErr.Metadata(),
			retryable: sdkErr.retryable,
			timestamp: sdkErr.timestamp,
		}
		for _, opt := range opts {
			opt(wrapped)
		}
		return wrapped
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return New(ErrCodeTimeout, message, append(opts, WithCause(err))...)
	}
	if errors.Is(err, context.Canceled) {
		return New(ErrCodeCanceled, message, append(opts, WithCause(err))...)
	}

	return New(ErrCodeInternal, message, append(opts, WithCause(err))...)
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) *Error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WrapWithCode wraps an error with a specific error code.
func WrapWithCode(err error, code ErrorCode, message string, opts ...Option) *Error {
	if err == nil {
		return nil
	}
	opts = append(opts, WithCause(err))
	return New(code, message, opts...)
}

// AsSDKError extracts an SDKError from an error chain.
// Returns nil if no SDKError is found.
func AsSDKError(err error) SDKError {
	var sdkErr *Error
	if errors.As(err, &sdkErr) {
		return sdkErr
	}
	return nil
}

// Is checks if the outermost SDK error in the chain has the given code.
func Is(err error, code ErrorCode) bool {
	var sdkErr *Error
	if errors.As(err, &sdkErr) {
		return sdkErr.code == code
	}
	return false
}

// IsCategory checks if the outermost SDK error in the chain has the given category.
func IsCategory(err error, category ErrorCategory) bool {
	var sdkErr *Error
	if errors.As(err, &sdkErr) {
		return sdkErr.category == category
	}
	return false
}

// IsRetryable checks if the error is retryable.
// Errors that are not SDK errors are never retried.
func IsRetryable(err error) bool {
	var sdkErr *Error
	if errors.As(err, &sdkErr) {
		return sdkErr.Retryable()
	}
	return false
}

// IsTransient checks if the error is transient.
func IsTransient(err error) bool {
	return IsCategory(err, CategoryTransient)
}

// Code extracts the error code from an error, if available.
func Code(err error) ErrorCode {
	var sdkErr *Error
	if errors.As(err, &sdkErr) {
		return sdkErr.code
	}
	return ""
}

// Category extracts the error category from an error, if available.
func Category(err error) ErrorCategory {
	var sdkErr *Error
	if errors.As(err, &sdkErr) {
		return sdkErr.category
	}
	return ""
}

// GetMetadata extracts metadata from an error.
// Returns nil if err is not an SDK error.
func GetMetadata(err error) map[string]string {
	var sdkErr *Error
	if errors.As(err, &sdkErr) {
		return sdkErr.Metadata()
	}
	return nil
}

// Cause returns the root cause of the error chain.
func Cause(err error) error {
	for {
		inner := errors.Unwrap(err)
		if inner == nil {
			return err
		}
		err = inner
	}
}

// Join combines multiple errors into a single error.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// RecoverPanic converts a recovered panic value into an Error.
func RecoverPanic(recovered interface{}) *Error {
	if recovered == nil {
		return nil
	}
	var message string
	switch v := recovered.(type) {
	case error:
		message = v.Error()
	case string:
		message = v
	default:
		message = fmt.Sprintf("%v", v)
	}
	return New(ErrCodePanic, message, WithMetadata("panic_value", fmt.Sprintf("%T", recovered)))
}

// Package errors provides the structured error taxonomy used across the
// game server SDK. Every error carries a code and a category so callers can
// tell a transient transport hiccup apart from a fatal initialization
// failure without string matching.
//
// # Error Categories
//
//   - Transient: the exchange may succeed on retry (I/O failure, bad status, bad body)
//   - Permanent: retry will not help (missing configuration, exhausted retries)
//   - Internal: unexpected failures such as a panicking host callback
//
// # Error Codes
//
//   - CONFIGURATION: required configuration is missing or blank
//   - INITIALIZATION: the mandatory first heartbeat could not be completed
//   - TRANSPORT: one HTTP attempt against the agent failed
//   - PROTOCOL: the agent answered 2xx with an absent or unparsable body
//   - RETRY_EXHAUSTED: every attempt of one heartbeat exchange failed
//   - INTERRUPTED: a readiness wait was cancelled by its caller
//
// # Usage
//
//	err := errors.Transport("agent returned 503", errors.WithMetadata("status", "503"))
//
//	if errors.IsRetryable(err) {
//	    // try the next attempt
//	}
//
//	if errors.Is(err, errors.ErrCodeRetryExhausted) {
//	    // the session host is out of sync with the agent
//	}
package errors

// Package errors provides centralized error definitions for the application.
// Errors are organized by domain to avoid duplication and provide consistent naming.
//
// Naming conventions:
//   - Exported errors (Err*): Use for errors that callers need to check with errors.Is
//   - Unexported errors (err*): Use for internal package errors
//   - All sentinel errors should be defined as variables, not inline errors.New calls
//   - Use fmt.Errorf with %w to wrap sentinel errors with context
package errors

import "errors"

// Media errors.
var (
	// ErrExtractionFailed indicates media bytes could not be fetched or decoded.
	// The item must be skipped: neither deleted nor recorded.
	ErrExtractionFailed = errors.New("fingerprint extraction failed")

	// ErrUnsupportedMedia indicates a media kind the engine does not fingerprint.
	ErrUnsupportedMedia = errors.New("unsupported media kind")
)

// Store errors.
var (
	// ErrConstraintViolation indicates a (scope, fingerprint) pair already exists.
	// Callers treat it as a lost race with a concurrent first sighting.
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrNotFound is a generic not found error.
	ErrNotFound = errors.New("not found")
)

// Platform mutation errors.
var (
	// ErrDeleteFailed indicates the platform refused or failed to delete a message.
	ErrDeleteFailed = errors.New("delete message failed")

	// ErrEditFailed indicates the platform refused or failed to edit a message.
	ErrEditFailed = errors.New("edit message failed")

	// ErrSendFailed indicates the platform refused or failed to send a message.
	ErrSendFailed = errors.New("send message failed")
)

// Scan errors.
var (
	// ErrPageFetchFailed indicates the event feed could not be paged. Aborts the current scan only.
	ErrPageFetchFailed = errors.New("page fetch failed")

	// ErrScanInProgress indicates a scan is already running for the requested scope.
	ErrScanInProgress = errors.New("scan already in progress")

	// ErrAccessDenied indicates the bot lacks administrator rights on the requested scope.
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidScope indicates a scope reference could not be resolved.
	ErrInvalidScope = errors.New("invalid scope")
)

// Transient platform errors.
var (
	// ErrRateLimited indicates the platform asked us to slow down.
	ErrRateLimited = errors.New("rate limited")

	// ErrTemporary indicates a platform failure worth retrying (5xx, timeouts).
	ErrTemporary = errors.New("temporary platform failure")
)

// Is is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is a convenience wrapper around errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

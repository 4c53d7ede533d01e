package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork   ErrorType = "network"
	ErrorTypeStatus    ErrorType = "status"
	ErrorTypeTooLarge  ErrorType = "too_large"
	ErrorTypeBrowser   ErrorType = "browser"
	ErrorTypeStorage   ErrorType = "storage"
	ErrorTypeInput     ErrorType = "input"
	ErrorTypeConflict  ErrorType = "conflict"
	ErrorTypeCancelled ErrorType = "cancelled"
	ErrorTypeUnknown   ErrorType = "unknown"
)

// Sentinel errors shared by the scrape service and its front ends.
var (
	// ErrBusy is returned when a run is requested while another one is active.
	ErrBusy = &Error{Type: ErrorTypeConflict, Message: "Scraping already in progress"}
	// ErrNotRunning is returned when a stop is requested with no active run.
	ErrNotRunning = &Error{Type: ErrorTypeConflict, Message: "No scraping in progress"}
	// ErrDriverUnavailable is the only unconditionally fatal failure of a run.
	ErrDriverUnavailable = &Error{Type: ErrorTypeBrowser, Message: "Chrome driver not found"}
)

// Error carries a type, a human readable message, an optional status code
// and the underlying cause.
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Cause   error
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches sentinel errors by type and message so wrapped copies compare equal.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Message == t.Message
}

// New creates a typed error.
func New(errorType ErrorType, message string) *Error {
	return &Error{Type: errorType, Message: message}
}

// Wrap creates a typed error around cause.
func Wrap(errorType ErrorType, message string, cause error) *Error {
	return &Error{Type: errorType, Message: message, Cause: cause}
}

// StatusError reports a non-200 HTTP response.
func StatusError(code int) *Error {
	return &Error{Type: ErrorTypeStatus, Message: fmt.Sprintf("HTTP %d", code), Code: code}
}

// TypeOf returns the ErrorType of err, or ErrorTypeUnknown.
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// Reason returns the short message of a typed error, falling back to err.Error().
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if stderrors.As(err, &e) {
		if e.Cause != nil && e.Type == ErrorTypeNetwork {
			return e.Cause.Error()
		}
		return e.Message
	}
	return err.Error()
}

// IsUserError reports whether err should be surfaced to the caller as a
// bad request rather than an internal failure.
func IsUserError(err error) bool {
	return TypeOf(err) == ErrorTypeInput
}

// Is and As re-export the standard helpers so callers need a single import.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target interface{}) bool { return stderrors.As(err, target) }

package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies a failure by how callers should react to it.
type Kind int

const (
	// KindUnknown is an unclassified failure
	KindUnknown Kind = iota
	// KindUnauthorized means the session is missing or the token was rejected
	KindUnauthorized
	// KindValidation means the server rejected the payload shape
	KindValidation
	// KindNotFound means the entity no longer exists on the server
	KindNotFound
	// KindNetwork means the server could not be reached at all
	KindNetwork
	// KindBusy means a conflicting operation is already in flight
	KindBusy
	// KindStale means a response was superseded by newer local state
	KindStale
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindValidation:
		return "validation_failed"
	case KindNotFound:
		return "not_found"
	case KindNetwork:
		return "network_unavailable"
	case KindBusy:
		return "busy"
	case KindStale:
		return "stale"
	default:
		return "unknown"
	}
}

// Code is a unique error identifier
type Code string

// Error codes grouped by area
const (
	// Token store errors (TOKEN-001 to TOKEN-099)
	CodeTokenNotFound    Code = "TOKEN-001"
	CodeTokenReadFailed  Code = "TOKEN-002"
	CodeTokenWriteFailed Code = "TOKEN-003"

	// Auth errors (AUTH-001 to AUTH-099)
	CodeAuthFailed     Code = "AUTH-001"
	CodeAuthRejected   Code = "AUTH-002"
	CodeAuthRequired   Code = "AUTH-003"
	CodeAuthBusy       Code = "AUTH-004"
	CodeAuthLoadFailed Code = "AUTH-005"
	CodeAuthSuperseded Code = "AUTH-006"

	// API client errors (API-001 to API-099)
	CodeAPIRequest     Code = "API-001"
	CodeAPIUnreachable Code = "API-002"
	CodeAPIValidation  Code = "API-003"
	CodeAPINotFound    Code = "API-004"
	CodeAPIStatus      Code = "API-005"
	CodeAPIDecode      Code = "API-006"

	// Store errors (STORE-001 to STORE-099)
	CodeStoreStale    Code = "STORE-001"
	CodeStoreNotFound Code = "STORE-002"

	// Config errors (CONFIG-001 to CONFIG-099)
	CodeConfigRead    Code = "CONFIG-001"
	CodeConfigParse   Code = "CONFIG-002"
	CodeConfigWrite   Code = "CONFIG-003"

	// Interactive prompt errors (PROMPT-001 to PROMPT-099)
	CodePromptAborted Code = "PROMPT-001"
	CodePromptInvalid Code = "PROMPT-002"
)

// Error is the coded error type used across the client.
//
// Kind drives control flow (forced logout, rollback vs purge), Code
// identifies the exact failure site, and Message is safe to surface to
// the user as-is.
type Error struct {
	Kind    Kind
	Code    Code
	Message string
	Cause   error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error
func New(kind Kind, code Code, message string) *Error {
	return &Error{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// Newf creates a new Error with a formatted message
func Newf(kind Kind, code Code, format string, args ...any) *Error {
	return New(kind, code, fmt.Sprintf(format, args...))
}

// Wrap creates a new Error wrapping an existing error
func Wrap(kind Kind, code Code, message string, cause error) *Error {
	return &Error{
		Kind:    kind,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// KindOf returns the Kind of an error, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// IsUnauthorized reports whether err means the token was missing or rejected
func IsUnauthorized(err error) bool { return IsKind(err, KindUnauthorized) }

// IsValidation reports whether err means the server rejected the payload
func IsValidation(err error) bool { return IsKind(err, KindValidation) }

// IsNotFound reports whether err means the entity is gone
func IsNotFound(err error) bool { return IsKind(err, KindNotFound) }

// IsNetwork reports whether err means the server was unreachable
func IsNetwork(err error) bool { return IsKind(err, KindNetwork) }

// IsBusy reports whether err means a conflicting operation was in flight
func IsBusy(err error) bool { return IsKind(err, KindBusy) }

// IsStale reports whether err means the response was superseded
func IsStale(err error) bool { return IsKind(err, KindStale) }

// UserMessage returns the message suitable for direct display.
// Foreign errors fall back to their Error() text.
func UserMessage(err error) string {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

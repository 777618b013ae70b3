// Package apperrors defines the error taxonomy shared by services and
// HTTP handlers. Every failure surfaced to a caller carries a stable Kind;
// handlers map kinds to status codes in one place and internal detail never
// leaks past the log.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for propagation policy and HTTP mapping.
type Kind string

const (
	// KindValidation marks malformed, user-correctable input.
	KindValidation Kind = "validation"
	// KindNotFound marks an unknown subject or token.
	KindNotFound Kind = "not_found"
	// KindStateConflict marks a terminal token state: expired, already
	// used, or attempts exceeded.
	KindStateConflict Kind = "state_conflict"
	// KindUpstreamUnavailable marks a transient upstream failure
	// (identity API, LDAP, SMTP).
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	// KindBackendRejected marks a directory that refused the modification.
	KindBackendRejected Kind = "backend_rejected"
	// KindInternal marks everything unexpected; detail is logged, not shown.
	KindInternal Kind = "internal"
)

// Error is a classified error with a human-readable message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a classified error.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds a classified error around a cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the Kind from err, or KindInternal when unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the user-facing message for err. Unclassified errors
// collapse to a generic message so internal detail never reaches the caller.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "Error interno del servidor."
}

// HTTPStatus maps an error to its response status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindStateConflict:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUpstreamUnavailable:
		return http.StatusServiceUnavailable
	case KindBackendRejected:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

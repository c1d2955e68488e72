// Package domainerrors defines the service-wide error taxonomy. Business
// rules fail with one of these codes; httputil translates them to HTTP
// statuses and a structured JSON reason at the boundary.
//
// Stores do not use this package directly: they return sentinel errors
// (pkg/platform/sentinel) which services wrap into domain errors.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code classifies a domain error.
type Code string

const (
	// CodeValidation marks missing or malformed input.
	CodeValidation Code = "validation_error"
	// CodeAccessDenied marks a role or department mismatch.
	CodeAccessDenied Code = "access_denied"
	// CodeUnauthorized marks a missing or invalid credential.
	CodeUnauthorized Code = "unauthorized"
	// CodeNotFound marks a missing report, staff member, or closure request.
	CodeNotFound Code = "not_found"
	// CodeInvalidState marks a transition that is not legal from the
	// report's current state.
	CodeInvalidState Code = "invalid_state"
	// CodeDuplicateRequest marks a closure request while another is pending.
	CodeDuplicateRequest Code = "duplicate_request"
	// CodePayloadTooLarge marks an oversized request body or blob.
	CodePayloadTooLarge Code = "payload_too_large"
	// CodeNoSupervisor marks a department with no configured supervisor.
	CodeNoSupervisor Code = "no_supervisor"
	// CodeStorage marks an unexpected persistence failure.
	CodeStorage Code = "storage_error"
)

// Error is a domain error with a machine-readable code and a human-readable
// message. The message is returned to clients for all codes except the
// internal ones (storage, no_supervisor), which stay generic at the boundary.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a domain error.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeStorage for
// unclassified errors so nothing internal leaks as a 4xx.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeStorage
}

// ToHTTPStatus maps a code to its HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeInvalidState, CodeDuplicateRequest:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeAccessDenied:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case CodeNoSupervisor, CodeStorage:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Internal reports whether the code's message must not be exposed to
// clients. NoSupervisor is a 500 but its reason is part of the workflow
// contract (operators must see which department lacks a supervisor), so only
// storage errors stay opaque.
func Internal(code Code) bool {
	return code == CodeStorage
}

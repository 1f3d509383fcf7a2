// Package apperrors defines the error taxonomy shared by controllers,
// repositories and the lifecycle engine. Every failure that reaches a
// handler is either one of these kinds or treated as an internal error.
package apperrors

import (
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthorization
	KindNotFound
	KindConflict
	KindState
)

// Error carries a kind, a user-facing message and, for validation
// failures, the names of the offending fields.
type Error struct {
	Kind    Kind
	Message string
	Fields  []string
}

func (e *Error) Error() string {
	if e.Kind == KindValidation && len(e.Fields) > 0 {
		return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Fields, ", "))
	}
	return e.Message
}

// Validation reports missing or malformed required fields. The message
// enumerates them so the client can fix the request in one round trip.
func Validation(fields ...string) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: "missing or invalid required fields",
		Fields:  fields,
	}
}

// NotFoundf reports an absent record. Existence is always checked before
// ownership so authorization failures never leak existence information.
func NotFoundf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Forbidden reports a caller that lacks the role or ownership for an operation.
func Forbidden(message string) *Error {
	return &Error{Kind: KindAuthorization, Message: message}
}

// Conflict reports a user-correctable uniqueness violation, e.g. a duplicate
// email or a pin that has already been converted.
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// Statef reports a precondition failure: the record exists and the caller may
// act on it, but its current state disallows the operation. The message names
// the missing precondition.
func Statef(format string, args ...interface{}) *Error {
	return &Error{Kind: KindState, Message: fmt.Sprintf(format, args...)}
}

// Internalf wraps any other failure as a generic server error.
func Internalf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInternal, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind from an error, defaulting to KindInternal for
// anything outside the taxonomy.
func KindOf(err error) Kind {
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus maps an error to the response status code used by handlers.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindState:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

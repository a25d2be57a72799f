// Package apperr defines the error kinds shared by every storefront module.
//
// Errors cross the request-reply boundary as a (code, message) pair and are
// rebuilt on the caller side with FromCode, so errors.Is keeps working after
// a round trip through the service container.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for recovery and HTTP mapping.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindNotFound        Kind = "not_found"
	KindExternalService Kind = "external_service"
	KindInvalidCurrency Kind = "invalid_currency"
	KindConflict        Kind = "conflict"
	KindUnauthorized    Kind = "unauthorized"
	KindForbidden       Kind = "forbidden"
	KindInternal        Kind = "internal"
)

// Error is an error with a kind. Two Errors match with errors.Is when both
// kind and message are equal.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same kind and message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

// New creates an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a kind to an underlying error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *Error      { return New(KindValidation, message) }
func NotFound(message string) *Error        { return New(KindNotFound, message) }
func Conflict(message string) *Error        { return New(KindConflict, message) }
func Unauthorized(message string) *Error    { return New(KindUnauthorized, message) }
func Forbidden(message string) *Error       { return New(KindForbidden, message) }
func InvalidCurrency(message string) *Error { return New(KindInvalidCurrency, message) }

// External wraps a failure of a collaborator (storage, rate source, object store).
func External(message string, err error) *Error {
	return Wrap(KindExternalService, message, err)
}

// Validationf formats a validation error message.
func Validationf(format string, args ...any) *Error {
	return New(KindValidation, fmt.Sprintf(format, args...))
}

// KindOf returns the kind of err, or KindInternal when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the user-facing message of err. Errors without a kind
// are reported as a generic internal error.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "an internal error occurred"
}

// ToCode splits err into the wire pair used by request-reply responses.
// A nil error yields empty strings.
func ToCode(err error) (code, message string) {
	if err == nil {
		return "", ""
	}
	return string(KindOf(err)), MessageOf(err)
}

// FromCode rebuilds an error from its wire pair. It returns nil when code is
// empty.
func FromCode(code, message string) error {
	if code == "" {
		return nil
	}
	return New(Kind(code), message)
}

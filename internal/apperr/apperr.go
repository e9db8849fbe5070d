// Package apperr defines the error taxonomy the service layer reports and
// the HTTP boundary maps to status codes.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the API boundary.
type Kind int

const (
	// KindUnknown is anything not produced through this package.
	KindUnknown Kind = iota
	// KindValidation marks an invariant violation or malformed field.
	KindValidation
	// KindPermission marks an authenticated but disallowed action.
	KindPermission
	// KindAuthentication marks missing or invalid credentials.
	KindAuthentication
	// KindConfiguration marks a role that requires an associated entity
	// which does not exist (e.g. shelter role with no shelter record).
	KindConfiguration
	// KindDecode marks an unprocessable uploaded image.
	KindDecode
	// KindNotFound marks a missing entity.
	KindNotFound
	// KindConflict marks a uniqueness clash (username, email).
	KindConflict
)

// Error carries a kind, a human-readable message and an optional cause.
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

func (e *Error) Unwrap() error { return e.Err }

// Wrap attaches a cause to the error and returns it.
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}

func newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Validation builds a KindValidation error.
func Validation(format string, args ...interface{}) *Error {
	return newf(KindValidation, format, args...)
}

// Permission builds a KindPermission error.
func Permission(format string, args ...interface{}) *Error {
	return newf(KindPermission, format, args...)
}

// Authentication builds a KindAuthentication error.
func Authentication(format string, args ...interface{}) *Error {
	return newf(KindAuthentication, format, args...)
}

// Configuration builds a KindConfiguration error.
func Configuration(format string, args ...interface{}) *Error {
	return newf(KindConfiguration, format, args...)
}

// Decode builds a KindDecode error.
func Decode(format string, args ...interface{}) *Error {
	return newf(KindDecode, format, args...)
}

// NotFound builds a KindNotFound error.
func NotFound(format string, args ...interface{}) *Error {
	return newf(KindNotFound, format, args...)
}

// Conflict builds a KindConflict error.
func Conflict(format string, args ...interface{}) *Error {
	return newf(KindConflict, format, args...)
}

// KindOf extracts the kind from err, unwrapping as needed.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

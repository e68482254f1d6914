// Package apperror defines the error taxonomy of the catalog.
//
// Core packages wrap causes with fmt.Errorf("...: %w", err) and return an
// *Error at the point where the kind is known. Only the api boundary turns
// errors into failure envelopes, using KindOf and Class.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error.
type Kind string

const (
	NotFound        Kind = "NotFound"
	Unauthorized    Kind = "Unauthorized"
	ValidationError Kind = "ValidationError"
	StorageFailure  Kind = "StorageFailure"
	UserError       Kind = "UserError"
	AppError        Kind = "AppError"
)

// Class values for the boundary: caller mistakes versus system faults.
const (
	ClassUser = "UserError"
	ClassApp  = "AppError"
)

// Class maps a kind onto the two boundary classes.
func Class(k Kind) string {
	switch k {
	case NotFound, Unauthorized, ValidationError, UserError:
		return ClassUser
	default:
		return ClassApp
	}
}

// HTTPStatus maps a kind to the status code used by the HTTP gateway.
func (k Kind) HTTPStatus() int {
	switch k {
	case NotFound:
		return http.StatusNotFound
	case Unauthorized:
		return http.StatusForbidden
	case ValidationError, UserError:
		return http.StatusBadRequest
	case StorageFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is the domain error type with structured details.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// New creates an error with a kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf is New with formatting.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error of kind wrapping cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// With returns a copy of e with key=value added to Details.
func (e *Error) With(key, value string) *Error {
	out := *e
	out.Details = make(map[string]string, len(e.Details)+1)
	for k, v := range e.Details {
		out.Details[k] = v
	}
	out.Details[key] = value
	return &out
}

// KindOf returns the kind of the outermost *Error in err's chain.
// Errors outside the taxonomy are AppError.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return AppError
}

// As returns the outermost *Error in err's chain, or nil.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

// IsKind reports whether err carries kind k.
func IsKind(err error, k Kind) bool {
	return errors.Is(err, &Error{Kind: k})
}

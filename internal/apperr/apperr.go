// Package apperr defines the failure taxonomy returned across the tool boundary.
// Every failure carries a stable machine-readable Code so the agent framework can
// react to it deterministically.
package apperr

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeDuplicateEmail  Code = "duplicate_email"
	CodeNotFound        Code = "not_found"
	CodeInvalidQuery    Code = "invalid_query"
	CodeInvalidArgument Code = "invalid_argument"
	CodeStorage         Code = "storage_error"
)

func (c Code) String() string { return string(c) }

// Error is a classified failure. Message is safe to show to the model; Err keeps
// the underlying cause for logs.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// Sentinels for errors.Is; they match any *Error with the same Code.
var (
	ErrDuplicateEmail  = &Error{Code: CodeDuplicateEmail, Message: "email already exists"}
	ErrNotFound        = &Error{Code: CodeNotFound, Message: "not found"}
	ErrInvalidQuery    = &Error{Code: CodeInvalidQuery, Message: "invalid query"}
	ErrInvalidArgument = &Error{Code: CodeInvalidArgument, Message: "invalid argument"}
	ErrStorage         = &Error{Code: CodeStorage, Message: "storage error"}
)

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, err error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

func InvalidQuery(format string, args ...any) *Error {
	return New(CodeInvalidQuery, format, args...)
}

func InvalidArgument(format string, args ...any) *Error {
	return New(CodeInvalidArgument, format, args...)
}

// Storage classifies an unexpected driver or I/O error.
func Storage(err error, op string) *Error {
	return Wrap(CodeStorage, err, "%s: %v", op, err)
}

// As returns the classified error in err's chain. Unclassified errors are
// reported as storage errors so nothing leaves the boundary without a code.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Storage(err, "unexpected failure")
}

func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	return As(err).Code
}

// Failure is the wire form of an Error.
type Failure struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func ToFailure(err error) *Failure {
	if err == nil {
		return nil
	}
	ae := As(err)
	return &Failure{Code: ae.Code, Message: ae.Message}
}

// Package fault defines the error taxonomy shared by all domain services.
// Callers branch on the kind sentinels with errors.Is; the HTTP layer maps
// kinds to status codes and serializes code/message for clients.
package fault

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation_error")
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not_found")
	ErrUnauthorized = errors.New("unauthorized")
)

// Error carries a stable machine-readable code and a human-readable message.
// Internal detail (store errors, SQL text) never rides on this type.
type Error struct {
	kind    error
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.kind
}

func Validation(code, format string, args ...any) *Error {
	return &Error{kind: ErrValidation, Code: code, Message: fmt.Sprintf(format, args...)}
}

func Conflict(code, format string, args ...any) *Error {
	return &Error{kind: ErrConflict, Code: code, Message: fmt.Sprintf(format, args...)}
}

func NotFound(code, format string, args ...any) *Error {
	return &Error{kind: ErrNotFound, Code: code, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(code, format string, args ...any) *Error {
	return &Error{kind: ErrUnauthorized, Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf returns the machine-readable code when err carries one.
func CodeOf(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ""
}

// MessageOf returns the human-readable message when err carries one.
func MessageOf(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Message
	}
	return ""
}

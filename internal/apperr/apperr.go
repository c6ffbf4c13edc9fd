package apperr

import (
	"errors"
	"fmt"
)

// Error kinds. Every *Error matches exactly one of them through errors.Is.
var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)

// Error carries the kind of failure plus the detail shown to the caller
type Error struct {
	Kind    error
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

// Is reports whether target is the kind of e
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation reports malformed or out-of-range input on field
func Validation(field, format string, args ...any) *Error {
	return &Error{Kind: ErrValidation, Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing entity
func NotFound(entity, id string) *Error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf("%s %q does not exist", entity, id)}
}

// Conflict reports an operation rejected by the current state of an entity
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

// Unavailable wraps a store or upstream failure
func Unavailable(op string, err error) *Error {
	return &Error{Kind: ErrUnavailable, Message: op, Err: err}
}

// KindOf returns the kind sentinel of err, or nil for unclassified errors
func KindOf(err error) error {
	for _, kind := range []error{ErrValidation, ErrNotFound, ErrConflict, ErrUnavailable} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

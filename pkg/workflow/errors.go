package workflow

import (
	"errors"
	"fmt"
)

// Kind classifies a workflow failure. Kinds are string-based so they serialize
// naturally into API responses.
type Kind string

const (
	KindValidation        Kind = "VALIDATION_ERROR"
	KindNotFound          Kind = "NOT_FOUND"
	KindUnauthorized      Kind = "UNAUTHORIZED"
	KindForbidden         Kind = "FORBIDDEN"
	KindInvalidTransition Kind = "INVALID_TRANSITION"
	KindConflict          Kind = "CONFLICT"
	KindPersistence       Kind = "PERSISTENCE_FAILURE"
)

// Error is the single error type surfaced by the workflow engine.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Sentinels for errors.Is comparisons. They match any *Error of the same kind.
var (
	ErrValidation        = &Error{Kind: KindValidation}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrUnauthorized      = &Error{Kind: KindUnauthorized}
	ErrForbidden         = &Error{Kind: KindForbidden}
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition}
	ErrConflict          = &Error{Kind: KindConflict}
	ErrPersistence       = &Error{Kind: KindPersistence}
)

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

func NewError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(format string, args ...interface{}) *Error {
	return NewError(KindValidation, fmt.Sprintf(format, args...), nil)
}

func NotFound(format string, args ...interface{}) *Error {
	return NewError(KindNotFound, fmt.Sprintf(format, args...), nil)
}

func Unauthorized(format string, args ...interface{}) *Error {
	return NewError(KindUnauthorized, fmt.Sprintf(format, args...), nil)
}

func Forbidden(format string, args ...interface{}) *Error {
	return NewError(KindForbidden, fmt.Sprintf(format, args...), nil)
}

func InvalidTransition(format string, args ...interface{}) *Error {
	return NewError(KindInvalidTransition, fmt.Sprintf(format, args...), nil)
}

func Conflict(format string, args ...interface{}) *Error {
	return NewError(KindConflict, fmt.Sprintf(format, args...), nil)
}

func Persistence(message string, err error) *Error {
	return NewError(KindPersistence, message, err)
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var we *Error
	if errors.As(err, &we) {
		return we.Kind
	}
	return ""
}

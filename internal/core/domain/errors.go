package domain

import (
	"errors"
	"fmt"
)

// Kind is the machine-readable failure category returned to clients
type Kind string

const (
	KindValidation   Kind = "ValidationError"
	KindNotFound     Kind = "NotFoundError"
	KindPermission   Kind = "PermissionError"
	KindConflict     Kind = "ConflictError"
	KindInvalidState Kind = "InvalidStateError"
)

// Error is a business-rule violation
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches any *Error of the same kind when the target carries no message,
// so errors.Is(err, domain.ErrValidation) works for every validation failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Message == "" {
		return t.Kind == e.Kind
	}
	return t == e
}

// Kind-only targets for errors.Is
var (
	ErrValidation   = &Error{Kind: KindValidation}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrPermission   = &Error{Kind: KindPermission}
	ErrConflict     = &Error{Kind: KindConflict}
	ErrInvalidState = &Error{Kind: KindInvalidState}
)

// NewError creates a new business error
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Validationf(format string, args ...interface{}) *Error {
	return NewError(KindValidation, fmt.Sprintf(format, args...))
}

func NotFoundf(format string, args ...interface{}) *Error {
	return NewError(KindNotFound, fmt.Sprintf(format, args...))
}

func Permissionf(format string, args ...interface{}) *Error {
	return NewError(KindPermission, fmt.Sprintf(format, args...))
}

func Conflictf(format string, args ...interface{}) *Error {
	return NewError(KindConflict, fmt.Sprintf(format, args...))
}

func InvalidStatef(format string, args ...interface{}) *Error {
	return NewError(KindInvalidState, fmt.Sprintf(format, args...))
}

// KindOf returns the kind of a business error, or "" for anything else
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

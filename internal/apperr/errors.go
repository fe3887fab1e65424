// Package apperr defines the error kinds shared by every storefront layer.
// Domain code returns *Error values; the HTTP layer only looks at the kind.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidState      = errors.New("invalid state")
	ErrConflict          = errors.New("conflict")
	ErrUnauthenticated   = errors.New("unauthenticated")
)

// Error carries a client-safe message together with its kind.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) error {
	return newf(ErrNotFound, format, args...)
}

func InvalidArgument(format string, args ...any) error {
	return newf(ErrInvalidArgument, format, args...)
}

func InsufficientStock(format string, args ...any) error {
	return newf(ErrInsufficientStock, format, args...)
}

func Forbidden(format string, args ...any) error {
	return newf(ErrForbidden, format, args...)
}

func InvalidState(format string, args ...any) error {
	return newf(ErrInvalidState, format, args...)
}

func Conflict(format string, args ...any) error {
	return newf(ErrConflict, format, args...)
}

func Unauthenticated(format string, args ...any) error {
	return newf(ErrUnauthenticated, format, args...)
}

// Message returns the client-safe message of err when it is an *Error.
func Message(err error) (string, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message, true
	}
	return "", false
}

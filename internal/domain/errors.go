package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated covers missing, malformed, invalid or expired credentials
	// and credentials that no longer resolve to a user.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden is returned when the acting identity may not perform the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidID reports a malformed resource identifier.
	ErrInvalidID = errors.New("invalid id")
	ErrNotFound  = errors.New("not found")
	// ErrValidation wraps request bodies that fail shape constraints.
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("already exists")
)

// Error pairs one of the sentinel kinds above with a message safe to show to clients.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func Errorf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

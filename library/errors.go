package library

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this package matches exactly one of
// them under errors.Is.
var (
	// ErrNotFound is returned when a book, member or transaction id is absent.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState is returned when a record is not in the state the
	// requested transition needs.
	ErrInvalidState = errors.New("invalid state")

	// ErrValidation is returned for missing or malformed input.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned when a unique value is already taken.
	ErrConflict = errors.New("conflict")

	// ErrPersistence is returned when the table store cannot be read or written.
	ErrPersistence = errors.New("persistence failure")
)

// Error carries a human-readable message plus the kind it belongs to.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the error's kind.
func (e *Error) Is(target error) bool { return target == e.Kind }

func notFound(format string, a ...any) error {
	return &Error{Kind: ErrNotFound, Msg: fmt.Sprintf(format, a...)}
}

func invalidState(format string, a ...any) error {
	return &Error{Kind: ErrInvalidState, Msg: fmt.Sprintf(format, a...)}
}

func validation(format string, a ...any) error {
	return &Error{Kind: ErrValidation, Msg: fmt.Sprintf(format, a...)}
}

func conflict(format string, a ...any) error {
	return &Error{Kind: ErrConflict, Msg: fmt.Sprintf(format, a...)}
}

func persistence(msg string, err error) error {
	return &Error{Kind: ErrPersistence, Msg: msg, Err: err}
}

// Message returns the human-readable part of err without the kind wrapper.
func Message(err error) string {
	var le *Error
	if errors.As(err, &le) {
		return le.Error()
	}
	return err.Error()
}

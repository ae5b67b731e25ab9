package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a process definition, node, instance or
	// task cannot be located. Never retried.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a guarded update observes a concurrent
	// modification (the row was no longer in the expected state).
	ErrConflict = errors.New("concurrent modification")
)

// BusinessError is a business-rule violation surfaced verbatim to the caller
// with a human-readable message.
type BusinessError struct {
	Message string
}

func (e *BusinessError) Error() string {
	return e.Message
}

// NewBusinessError creates a BusinessError with a formatted message.
func NewBusinessError(format string, args ...interface{}) *BusinessError {
	return &BusinessError{Message: fmt.Sprintf(format, args...)}
}

// IsBusinessError reports whether err is (or wraps) a BusinessError.
func IsBusinessError(err error) bool {
	var be *BusinessError
	return errors.As(err, &be)
}

// NewNotFoundError wraps ErrNotFound with a descriptive message so callers
// can both match with errors.Is and show the message.
func NewNotFoundError(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}

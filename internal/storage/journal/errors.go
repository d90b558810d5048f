package journal

import (
	"errors"
	"fmt"
)

var (
	// Configuration errors
	ErrUnsupportedDriver = errors.New("unsupported journal driver")
	ErrMissingDatabase   = errors.New("journal database name is required")
	ErrMissingHost       = errors.New("journal host is required")
	ErrInvalidPort       = errors.New("invalid journal port")
	ErrInvalidPool       = errors.New("invalid journal connection pool settings")
	ErrInvalidTimeout    = errors.New("journal timeout must be positive")

	// Runtime errors
	ErrClosed       = errors.New("journal is closed")
	ErrInvalidLimit = errors.New("invalid query limit")
)

// Error wraps a failed journal operation.
type Error struct {
	Operation string
	Message   string
	Cause     error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("journal %s: %s (caused by: %v)", e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("journal %s: %s", e.Operation, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(operation, message string, cause error) *Error {
	return &Error{Operation: operation, Message: message, Cause: cause}
}

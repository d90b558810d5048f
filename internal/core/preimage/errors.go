package preimage

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the preimage is not stored.
	ErrNotFound = errors.New("preimage not found")

	// ErrTooBig indicates a payload above the configured maximum length.
	ErrTooBig = errors.New("preimage too big")

	// ErrLengthMismatch indicates a fetch with a length different from the stored one.
	ErrLengthMismatch = errors.New("preimage length mismatch")

	// ErrDataCorrupt indicates a stored record that cannot be decoded.
	ErrDataCorrupt = errors.New("preimage data corrupt")
)

// StoreError wraps a backend failure with the operation and hash involved.
type StoreError struct {
	Operation string
	Hash      Hash
	Cause     error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("preimage %s %s: %v", e.Operation, e.Hash, e.Cause)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

func newError(op string, h Hash, cause error) *StoreError {
	return &StoreError{Operation: op, Hash: h, Cause: cause}
}

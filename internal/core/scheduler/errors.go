package scheduler

import (
	"errors"
	"fmt"
)

var (
	// ErrTargetBlockNumberInPast is returned when the resolved tick is not after now.
	ErrTargetBlockNumberInPast = errors.New("target block number in past")

	// ErrAgendaIsExhausted is returned by best-effort placement into a full tick.
	ErrAgendaIsExhausted = errors.New("agenda is exhausted")

	// ErrFailedToSchedule is returned when a name is already in use.
	ErrFailedToSchedule = errors.New("failed to schedule")

	// ErrNotFound is returned when no task occupies the address or name.
	ErrNotFound = errors.New("task not found")

	// ErrBadOrigin is returned when the caller's privilege is lower than, or
	// incomparable with, the task creator's.
	ErrBadOrigin = errors.New("bad origin")

	// ErrNamed is returned when an anonymous-address operation targets a named task.
	ErrNamed = errors.New("task is named")

	// ErrRescheduleNoChange is returned when rescheduling to the current tick.
	ErrRescheduleNoChange = errors.New("reschedule to the same tick")

	// ErrTooBigScheduledCall is returned when a call cannot be bounded.
	ErrTooBigScheduledCall = errors.New("scheduled call too big")

	// ErrScheduledCallCorrupted is returned when a stored call cannot be decoded.
	ErrScheduledCallCorrupted = errors.New("scheduled call corrupted")

	// ErrPreimageNotFound is returned when an indirect call's payload is missing.
	ErrPreimageNotFound = errors.New("preimage not found")
)

// StoreError wraps a storage backend failure.
type StoreError struct {
	Operation string
	Backend   string
	Cause     error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("scheduler store %s error on backend %s: %v", e.Operation, e.Backend, e.Cause)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

func storeError(op, backend string, cause error) error {
	if cause == nil {
		return nil
	}
	return &StoreError{Operation: op, Backend: backend, Cause: cause}
}

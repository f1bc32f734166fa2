package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a write targets a row that doesn't exist.
	// Reads return empty results instead.
	ErrNotFound = errors.New("store: not found")

	// ErrConflict is returned when a guarded write lost a race with another
	// writer. The caller decides whether to re-read and retry.
	ErrConflict = errors.New("store: concurrent update conflict")

	// ErrUnavailable marks failures of the database itself.
	ErrUnavailable = errors.New("store: unavailable")
)

// OpError records a failed storage operation. It matches ErrUnavailable
// under errors.Is while keeping the driver error in the chain.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

func (e *OpError) Is(target error) bool { return target == ErrUnavailable }

func opErr(op string, err error) error {
	return &OpError{Op: op, Err: err}
}

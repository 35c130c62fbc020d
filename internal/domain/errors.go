package domain

import (
	"errors"
	"fmt"
)

// Storage operations reported in StorageError.
const (
	OpRead  = "read"
	OpWrite = "write"
)

// StorageError wraps an I/O failure of the persistence adapter.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ParseError reports a stored guess counter that is not a decimal integer.
type ParseError struct {
	Key   string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q value %q: %v", e.Key, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

var (
	ErrUnknownPuzzle        = errors.New("unknown puzzle")
	ErrLocked               = errors.New("puzzle is locked")
	ErrIncompleteSubmission = errors.New("submission is incomplete")
	ErrNotCompleted         = errors.New("puzzle is not completed")
)

// LockedError carries the reason a submission was refused.
type LockedError struct {
	Ordinal Ordinal
	Reason  LockReason
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("puzzle %d is locked: %s", e.Ordinal, e.Reason)
}

func (e *LockedError) Is(target error) bool { return target == ErrLocked }

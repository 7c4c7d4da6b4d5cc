package catalog

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrInvalidArgument indicates a value that can never be stored in the catalog
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrIndexOutOfRange indicates a slot index at or beyond the declared count
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrAlreadyPopulated indicates a slot that has already been filled
	ErrAlreadyPopulated = errors.New("slot already populated")

	// ErrNotFound indicates an operation on an unpopulated slot
	ErrNotFound = errors.New("not found")
)

// SlotError describes a failed slot assignment or lookup
type SlotError struct {
	Op    string
	Index int
	Count int
	Err   error
}

func (e *SlotError) Error() string {
	return fmt.Sprintf("%s: slot %d of %d: %v", e.Op, e.Index, e.Count, e.Err)
}

// Unwrap returns the underlying sentinel error
func (e *SlotError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for SlotError
func (e *SlotError) Is(target error) bool {
	return target == e.Err
}

func newSlotError(op string, index, count int, err error) *SlotError {
	return &SlotError{
		Op:    op,
		Index: index,
		Count: count,
		Err:   err,
	}
}

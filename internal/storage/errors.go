package storage

import (
	"errors"
	"fmt"
)

// ErrStorage matches every error raised because the medium rejected an
// operation or a value could not be serialized.
var ErrStorage = errors.New("storage error")

// Error describes a failed storage operation.
type Error struct {
	Op  string
	Key string
	Err error
}

func (e *Error) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage: %s %q: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports true for ErrStorage so callers can use errors.Is without knowing the cause.
func (e *Error) Is(target error) bool { return target == ErrStorage }

package safety

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound               = errors.New("path not found")
	ErrPermissionDenied       = errors.New("permission denied")
	ErrBlockedSystemDirectory = errors.New("protected system directory")
	ErrTooManyFiles           = errors.New("too many files in deletion batch")
	ErrTooLarge               = errors.New("deletion batch too large")
)

// ViolationError reports the batch member that failed path-security
// validation. It unwraps to the underlying validator error.
type ViolationError struct {
	Path string
	Err  error
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("security violation for %s: %v", e.Path, e.Err)
}

func (e *ViolationError) Unwrap() error { return e.Err }

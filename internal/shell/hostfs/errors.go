// Package hostfs performs the host-side filesystem work a deployment needs
// before its containers start: pre-creating volume paths and materializing
// config artifacts.
package hostfs

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	ErrBadMode      = errors.New("invalid file mode")
	ErrUnknownOwner = errors.New("unknown owner or group")
	ErrNoSource     = errors.New("artifact source not found")
)

// PathError wraps filesystem failures with the operation and path that
// caused them. Filesystem failures are fatal, never silently skipped.
type PathError struct {
	Op      string
	Path    string
	Message string
	Err     error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Message)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// NewPathError creates a new PathError.
func NewPathError(op, path, message string, err error) *PathError {
	return &PathError{
		Op:      op,
		Path:    path,
		Message: message,
		Err:     err,
	}
}

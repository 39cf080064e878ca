package docker

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// Container errors
	ErrContainerNotFound       = errors.New("container not found")
	ErrContainerAlreadyExists  = errors.New("container already exists")
	ErrContainerNotRunning     = errors.New("container is not running")
	ErrContainerAlreadyRunning = errors.New("container is already running")

	// Network errors
	ErrNetworkNotFound      = errors.New("network not found")
	ErrNetworkAlreadyExists = errors.New("network already exists")

	// Image errors
	ErrImageNotFound   = errors.New("image not found")
	ErrImagePullFailed = errors.New("image pull failed")

	// Connection errors
	ErrPortAlreadyAllocated = errors.New("port is already allocated")
	ErrConnectionFailed     = errors.New("docker connection failed")
)

// EngineError wraps Docker Engine failures with the operation, entity kind,
// and name that caused them.
type EngineError struct {
	Op      string // Operation that failed
	Entity  string // Entity type (container, network, image)
	Name    string // Entity name or ID if applicable
	Message string
	Err     error
}

func (e *EngineError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s %s %s: %s", e.Op, e.Entity, e.Name, e.Message)
	}
	if e.Entity != "" {
		return fmt.Sprintf("%s %s: %s", e.Op, e.Entity, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// NewEngineError creates a new EngineError.
func NewEngineError(op, entity, name, message string, err error) *EngineError {
	return &EngineError{
		Op:      op,
		Entity:  entity,
		Name:    name,
		Message: message,
		Err:     err,
	}
}

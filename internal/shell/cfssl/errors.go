// Package cfssl provisions TLS material for the Docker daemon from a CFSSL
// certificate authority, caching issued bundles on host disk so repeat runs
// make no network calls.
package cfssl

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	ErrCAUnreachable = errors.New("certificate authority unreachable")
	ErrCARejected    = errors.New("certificate authority rejected the request")
	ErrBadRequest    = errors.New("invalid certificate request")
	ErrBadBundle     = errors.New("persisted certificate bundle is invalid")
)

// ProvisionError wraps certificate provisioning failures with the server
// name and the CA call that failed.
type ProvisionError struct {
	ServerName string
	Call       string // CA endpoint or file operation that failed
	Message    string
	Err        error
}

func (e *ProvisionError) Error() string {
	if e.Call != "" {
		return fmt.Sprintf("provision tls for %s: %s: %s", e.ServerName, e.Call, e.Message)
	}
	return fmt.Sprintf("provision tls for %s: %s", e.ServerName, e.Message)
}

func (e *ProvisionError) Unwrap() error {
	return e.Err
}

// NewProvisionError creates a new ProvisionError.
func NewProvisionError(serverName, call, message string, err error) *ProvisionError {
	return &ProvisionError{
		ServerName: serverName,
		Call:       call,
		Message:    message,
		Err:        err,
	}
}

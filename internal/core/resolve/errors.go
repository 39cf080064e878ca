// Package resolve maps application-name prefixes to fully populated
// application records. All lookups are keyed on the exact "{app}_{suffix}"
// string, so one application can never pick up another's configuration.
package resolve

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	ErrMissingImage   = errors.New("no image configured")
	ErrBadFieldType   = errors.New("configuration value has wrong type")
	ErrBadDependency  = errors.New("invalid dependency entry")
	ErrEmptyNamespace = errors.New("configuration namespace is empty")
)

// ConfigError wraps resolution failures with the application and key that
// caused them.
type ConfigError struct {
	App     string
	Key     string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("app %s: %s: %s", e.App, e.Key, e.Message)
	}
	return fmt.Sprintf("app %s: %s", e.App, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError.
func NewConfigError(app, key, message string, err error) *ConfigError {
	return &ConfigError{
		App:     app,
		Key:     key,
		Message: message,
		Err:     err,
	}
}

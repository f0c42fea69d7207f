package transport

import (
	"errors"
	"fmt"
)

// Domain errors for configuration and setup.
var (
	// ErrInvalidConfig marks every configuration problem found at setup.
	ErrInvalidConfig = errors.New("transport: invalid configuration")

	// ErrZeroDirection indicates a direction vector that cannot be normalized.
	ErrZeroDirection = errors.New("transport: direction vector has zero length")

	// ErrNonFinite indicates a NaN or Inf in a configured quantity.
	ErrNonFinite = errors.New("transport: value is NaN or Inf")

	// ErrStepLimit marks an ion abandoned after the configured step budget.
	ErrStepLimit = errors.New("transport: step limit reached")
)

// ConfigError wraps a configuration failure with the offending field.
type ConfigError struct {
	Field string
	Value any
	Err   error
}

// NewConfigError returns a ConfigError for field that matches ErrInvalidConfig.
func NewConfigError(field string, value any, reason string) *ConfigError {
	return &ConfigError{
		Field: field,
		Value: value,
		Err:   fmt.Errorf("%w: %s", ErrInvalidConfig, reason),
	}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s=%v: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// InvalidField returns a ConfigError for field that matches both
// ErrInvalidConfig and err.
func InvalidField(field string, value any, err error) *ConfigError {
	return &ConfigError{
		Field: field,
		Value: value,
		Err:   fmt.Errorf("%w: %w", ErrInvalidConfig, err),
	}
}

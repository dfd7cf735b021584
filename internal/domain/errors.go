package domain

import (
	"errors"
	"fmt"
)

// Base error types (sentinel errors).
var (
	ErrBadRequest      = errors.New("bad request")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrInternal        = errors.New("internal error")
	ErrUnavailable     = errors.New("service unavailable")
)

// Specific errors.
var (
	ErrUnsupportedFormat = fmt.Errorf("image format: %w", ErrBadRequest)
	ErrMalformedImage    = fmt.Errorf("image: %w", ErrBadRequest)
	ErrInvalidIP         = fmt.Errorf("ip address: %w", ErrInvalidArgument)
	ErrInvalidDimension  = fmt.Errorf("dimension: %w", ErrInvalidArgument)
	ErrTemplateNotFound  = fmt.Errorf("template: %w", ErrNotFound)
	ErrMapFetchFailed    = fmt.Errorf("map provider: %w", ErrUnavailable)
	ErrStorageFailed     = fmt.Errorf("storage: %w", ErrInternal)
)

// ValidationError represents a detailed validation error.
type ValidationError struct {
	Field      string      // Field that failed validation
	Value      interface{} // The invalid value
	Constraint string      // The constraint that was violated
	Message    string      // Human-readable message
	Err        error       // Specific sentinel, ErrInvalidArgument when nil
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s (value: %v, constraint: %s)",
		e.Field, e.Message, e.Value, e.Constraint)
}

// Unwrap returns the underlying error type.
func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidArgument
}

// FormatError is returned when an upload is not in the expected image format.
type FormatError struct {
	Detected string // Format reported by content sniffing
	Expected string
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	return fmt.Sprintf("unsupported image format %q, expected %s", e.Detected, e.Expected)
}

// Unwrap returns the underlying error type.
func (e *FormatError) Unwrap() error {
	return ErrUnsupportedFormat
}

// StorageError represents an error during object store operations.
type StorageError struct {
	Operation string // Operation that failed (put, ...)
	Key       string // Object key
	Err       error  // Underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage error during %s for %s: %v",
			e.Operation, e.Key, e.Err)
	}
	return fmt.Sprintf("storage error during %s: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying errors.
func (e *StorageError) Unwrap() []error {
	return []error{ErrStorageFailed, e.Err}
}

// TemplateError represents a failure to load the page template.
type TemplateError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *TemplateError) Error() string {
	return fmt.Sprintf("template error for %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *TemplateError) Unwrap() error {
	return e.Err
}

// UpstreamError represents a failed call to the static map provider.
type UpstreamError struct {
	URL        string
	StatusCode int // zero when the request never got a response
	Err        error
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("map provider returned status %d for %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("map provider request to %s failed: %v", e.URL, e.Err)
}

// Unwrap returns the underlying errors.
func (e *UpstreamError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMapFetchFailed}
	}
	return []error{ErrMapFetchFailed, e.Err}
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Field   string // Configuration field
	Message string // Error message
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error for %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying error type.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidArgument
}

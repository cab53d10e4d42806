package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks across layers.
var (
	// ErrServiceUnavailable wraps failures of external services (embedding,
	// generation, vector index) that persist after retries
	ErrServiceUnavailable = errors.New("service unavailable")
	// ErrUnsupportedFormat is returned for document files whose extension
	// has no registered extractor
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrEmptyContext marks an answer produced without any retrieved context
	ErrEmptyContext = errors.New("no context retrieved")
	// ErrIndexNotReady is returned when querying an index with no vectors
	ErrIndexNotReady = errors.New("vector index is empty, run ingest first")
)

// ConfigurationError reports invalid or missing configuration detected at
// startup. Carries the offending field so the CLI can tell the user what
// to fix.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration error: %s", e.Message)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Message)
}

// NewConfigurationError creates a ConfigurationError for the given field.
func NewConfigurationError(field, message string) *ConfigurationError {
	return &ConfigurationError{Field: field, Message: message}
}

// ServiceUnavailableError records which external service failed and why.
// Matches ErrServiceUnavailable via errors.Is.
type ServiceUnavailableError struct {
	Service string // embedding, llm, index
	Err     error
}

func (e *ServiceUnavailableError) Error() string {
	return fmt.Sprintf("%s service unavailable: %v", e.Service, e.Err)
}

func (e *ServiceUnavailableError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrServiceUnavailable) match any service failure.
func (e *ServiceUnavailableError) Is(target error) bool {
	return target == ErrServiceUnavailable
}

// NewServiceUnavailableError wraps err as a failure of the named service.
func NewServiceUnavailableError(service string, err error) *ServiceUnavailableError {
	return &ServiceUnavailableError{Service: service, Err: err}
}

// UnsupportedFormatError reports a document file the loader cannot extract.
// Matches ErrUnsupportedFormat via errors.Is.
type UnsupportedFormatError struct {
	Path      string
	Extension string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported document format %q: %s", e.Extension, e.Path)
}

// Is lets errors.Is(err, ErrUnsupportedFormat) match.
func (e *UnsupportedFormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}

// Package errs holds the error types surfaced to callers of the report pipeline.
package errs

import (
	"errors"
	"fmt"
)

// IngestionError reports that the input table could not be read at all.
type IngestionError struct {
	Source string
	Err    error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingest %s: %v", e.Source, e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }

// ErrMissingColumn is the cause of every SchemaError.
var ErrMissingColumn = errors.New("missing required column")

// SchemaError reports a required column missing from the input.
type SchemaError struct {
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing %s column", e.Column)
}

func (e *SchemaError) Unwrap() error { return ErrMissingColumn }

// ConfigError reports an invalid or ambiguous configuration value.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Config builds a ConfigError from a format string.
func Config(field string, format string, args ...any) error {
	return &ConfigError{Field: field, Err: fmt.Errorf(format, args...)}
}

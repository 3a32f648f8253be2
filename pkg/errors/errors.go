// Package errors provides custom error types for the odflow pipeline.
// These errors enable programmatic error checking with errors.Is and
// errors.As throughout the library and the CLI.
package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is and As re-export the standard library helpers so callers need one import.
var (
	Is = errors.Is
	As = errors.As
)

// Common sentinel errors for the odflow pipeline
var (
	// ErrNotFound indicates that a requested object or resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingMapping indicates that an area code eligible for recoding has no recode entry
	ErrMissingMapping = errors.New("missing recode mapping")

	// ErrSchemaMismatch indicates that two series do not share the same column set
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrEmptyInput indicates that a required input series has no records
	ErrEmptyInput = errors.New("empty input")

	// ErrSourceUnavailable indicates that a remote source is temporarily unavailable
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")
)

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// MissingMappingError reports area codes that are eligible for recoding
// but have no entry in the recode map.
type MissingMappingError struct {
	Field string   // "origin" or "destination"
	Codes []string // sorted, de-duplicated
}

// Error implements the error interface
func (e *MissingMappingError) Error() string {
	const maxShown = 10
	codes := e.Codes
	suffix := ""
	if len(codes) > maxShown {
		suffix = fmt.Sprintf(" (and %d more)", len(codes)-maxShown)
		codes = codes[:maxShown]
	}
	if e.Field != "" {
		return fmt.Sprintf("no recode mapping for %d %s code(s): %s%s", len(e.Codes), e.Field, strings.Join(codes, ", "), suffix)
	}
	return fmt.Sprintf("no recode mapping for %d code(s): %s%s", len(e.Codes), strings.Join(codes, ", "), suffix)
}

// Is implements errors.Is support
func (e *MissingMappingError) Is(target error) bool {
	return target == ErrMissingMapping
}

// NewMissingMappingError creates a new MissingMappingError with codes sorted and de-duplicated.
func NewMissingMappingError(field string, codes []string) *MissingMappingError {
	seen := make(map[string]struct{}, len(codes))
	unique := make([]string, 0, len(codes))
	for _, c := range codes {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		unique = append(unique, c)
	}
	sort.Strings(unique)
	return &MissingMappingError{Field: field, Codes: unique}
}

// SchemaMismatchError represents two inputs with incompatible column sets.
type SchemaMismatchError struct {
	Left      string
	Right     string
	OnlyLeft  []string
	OnlyRight []string
}

// Error implements the error interface
func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("schema mismatch between %s and %s: only in %s %v, only in %s %v",
		e.Left, e.Right, e.Left, e.OnlyLeft, e.Right, e.OnlyRight)
}

// Is implements errors.Is support
func (e *SchemaMismatchError) Is(target error) bool {
	return target == ErrSchemaMismatch
}

// EmptyInputError represents an input that must not be empty.
type EmptyInputError struct {
	Input string
}

// Error implements the error interface
func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("input %s is empty", e.Input)
}

// Is implements errors.Is support
func (e *EmptyInputError) Is(target error) bool {
	return target == ErrEmptyInput
}

// APIError represents an error from a remote HTTP source
type APIError struct {
	Source     string
	StatusCode int
	Message    string
	Endpoint   string
	Err        error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("API error from %s (status %d): %s", e.Source, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error from %s: %s", e.Source, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *APIError) Is(target error) bool {
	if e.StatusCode >= 500 || e.StatusCode == 429 {
		return target == ErrSourceUnavailable
	}
	return false
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "csv", "xlsx", "parquet", "zip", "html"
	File    string
	Line    int
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" && e.Line > 0 {
		return fmt.Sprintf("parse error in %s at %s:%d: %s", e.Format, e.File, e.Line, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(format, file string, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		File:    file,
		Message: message,
		Err:     err,
	}
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "list", "open", "close"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &IOError{
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// ResourceError represents an error during resource operations
type ResourceError struct {
	Operation string // "load", "download", "write", "recode"
	Resource  string // "series", "lookup", "recode map", "config"
	ID        string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ResourceError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("failed to %s %s %s: %s", e.Operation, e.Resource, e.ID, e.Message)
	}
	return fmt.Sprintf("failed to %s %s: %s", e.Operation, e.Resource, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ResourceError) Unwrap() error {
	return e.Err
}

// NewResourceError creates a new ResourceError
func NewResourceError(operation, resource, id string, err error) *ResourceError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ResourceError{
		Operation: operation,
		Resource:  resource,
		ID:        id,
		Message:   message,
		Err:       err,
	}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsMissingMapping checks if an error reports missing recode mappings
func IsMissingMapping(err error) bool {
	return errors.Is(err, ErrMissingMapping)
}

// IsSchemaMismatch checks if an error reports incompatible column sets
func IsSchemaMismatch(err error) bool {
	return errors.Is(err, ErrSchemaMismatch)
}

// IsEmptyInput checks if an error reports an empty input
func IsEmptyInput(err error) bool {
	return errors.Is(err, ErrEmptyInput)
}

// IsSourceUnavailable checks if an error indicates an unavailable remote source
func IsSourceUnavailable(err error) bool {
	return errors.Is(err, ErrSourceUnavailable)
}

// Helper wrapping functions for common patterns

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapResource wraps an error as a ResourceError
func WrapResource(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return NewResourceError(operation, resource, id, err)
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}

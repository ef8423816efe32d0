// Package errors provides structured error types for symgen.
//
// Every error raised by the extraction core is fatal to the generation run:
// there is no partial-success mode and no retry. The structured type exists
// so the build driver can report which stage failed and with which input,
// not so callers can recover.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeEncoding   ErrorType = "encoding"
	ErrorTypePattern    ErrorType = "pattern"
	ErrorTypePreprocess ErrorType = "preprocess"
	ErrorTypeRender     ErrorType = "render"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeInternal   ErrorType = "internal"
)

// SymgenError is a structured error with enough context to diagnose a failed
// generation run: the stage that failed, an error code, and the offending
// source or value when one exists.
type SymgenError struct {
	Type    ErrorType
	Code    string
	Message string
	Cause   error
	Context map[string]interface{}
	// Source is the origin label of the translation unit being processed
	// when the error occurred, if any.
	Source string
}

// Error implements the error interface.
func (e *SymgenError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Source != "" {
		parts = append(parts, "source:"+e.Source)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *SymgenError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison by type and code.
func (e *SymgenError) Is(target error) bool {
	var t *SymgenError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *SymgenError) WithContext(key string, value interface{}) *SymgenError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithSource records the translation unit being processed.
func (e *SymgenError) WithSource(source string) *SymgenError {
	e.Source = source

	return e
}

// NewConfigError creates an error for malformed configuration or built-in
// data. Raised before any scanning begins.
func NewConfigError(code, message string, cause error) *SymgenError {
	return &SymgenError{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewEncodingError creates an error for a qstr value that contains both
// non-ASCII bytes and control characters. Escaping only supports ASCII, so
// such a value cannot be embedded in the generated table.
func NewEncodingError(val string) *SymgenError {
	return &SymgenError{
		Type:    ErrorTypeEncoding,
		Code:    "ERR_NON_ASCII",
		Message: fmt.Sprintf("can't escape non-ascii string %q", val),
		Context: map[string]interface{}{"val": val},
	}
}

// NewPatternError creates an error for a scanning pattern that failed to
// compile. The patterns are fixed, so this is an initialization bug rather
// than an input problem.
func NewPatternError(pattern string, cause error) *SymgenError {
	return &SymgenError{
		Type:    ErrorTypePattern,
		Code:    "ERR_PATTERN_COMPILE",
		Message: fmt.Sprintf("scanning pattern %q failed to compile", pattern),
		Cause:   cause,
	}
}

// NewPreprocessError creates an error for a failed preprocessor invocation.
func NewPreprocessError(source string, cause error) *SymgenError {
	return &SymgenError{
		Type:    ErrorTypePreprocess,
		Code:    "ERR_PREPROCESS",
		Message: "preprocessing failed",
		Cause:   cause,
		Source:  source,
	}
}

// NewRenderError creates an error for a failed template render.
func NewRenderError(template string, cause error) *SymgenError {
	return &SymgenError{
		Type:    ErrorTypeRender,
		Code:    "ERR_RENDER",
		Message: fmt.Sprintf("rendering %s failed", template),
		Cause:   cause,
	}
}

// NewValidationError creates an error for an invalid configuration value.
func NewValidationError(message string) *SymgenError {
	return &SymgenError{
		Type:    ErrorTypeValidation,
		Code:    "ERR_VALIDATION",
		Message: message,
	}
}

// NewIOError creates an error for a failed filesystem operation.
func NewIOError(message string, cause error) *SymgenError {
	return &SymgenError{
		Type:    ErrorTypeIO,
		Code:    "ERR_IO",
		Message: message,
		Cause:   cause,
	}
}

// IsType reports whether err is a SymgenError of the given type.
func IsType(err error, errorType ErrorType) bool {
	var se *SymgenError
	if errors.As(err, &se) {
		return se.Type == errorType
	}

	return false
}

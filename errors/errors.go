package errors

import (
	"fmt"
	"strings"
)

// AppError is the unified engine error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Newf creates a new AppError with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// --- Engine error constructors ---

// Binding creates an error for an input name that has no bound source.
func Binding(name string) *AppError {
	return Newf(ErrCodeBinding, "no source bound for input %q", name).
		WithDetail("input", name)
}

// MissingField creates an error for a row that lacks a required field.
func MissingField(field string) *AppError {
	return Newf(ErrCodeMissingField, "missing required field %q", field).
		WithDetail("field", field)
}

// TypeMismatch creates an error for values of different kinds met in one field.
func TypeMismatch(field, left, right string) *AppError {
	return Newf(ErrCodeTypeMismatch, "field %q mixes %s and %s values", field, left, right).
		WithDetail("field", field).
		WithDetail("left", left).
		WithDetail("right", right)
}

// GroupingViolation creates an error for an input that is not grouped by key.
func GroupingViolation(stage string, key []string) *AppError {
	return Newf(ErrCodeGroupingViolation, "%s input is not grouped by [%s]", stage, strings.Join(key, ", ")).
		WithDetail("stage", stage).
		WithDetail("key", key)
}

// InvalidConfig creates an error for an inconsistent stage or graph configuration.
func InvalidConfig(reason string) *AppError {
	return New(ErrCodeInvalidConfig, reason)
}

// InvalidFormat creates an error for an encoded row that could not be decoded.
func InvalidFormat(what string, cause error) *AppError {
	return Newf(ErrCodeInvalidFormat, "cannot decode %s", what).WithCause(cause)
}

// UnknownOperation creates an error for an operation name missing from a registry.
func UnknownOperation(kind, name string) *AppError {
	return Newf(ErrCodeUnknownOperation, "%s %q is not registered", kind, name).
		WithDetail("kind", kind).
		WithDetail("name", name)
}

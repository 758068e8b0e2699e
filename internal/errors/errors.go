package errors

import (
	"fmt"
)

// SeekError is the structured error type for noteseek.
// It carries a stable code, a category, and a retryable flag so callers can
// decide between skip-and-continue, retry, and abort without string matching.
type SeekError struct {
	// Code is the unique error code (e.g., "ERR_201_FILE_NOT_FOUND").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Model, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool
}

// Error implements the error interface.
func (e *SeekError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *SeekError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with SeekError.
func (e *SeekError) Is(target error) bool {
	if t, ok := target.(*SeekError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *SeekError) WithDetail(key, value string) *SeekError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new SeekError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *SeekError {
	return &SeekError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a SeekError from an existing error.
// The error's message becomes the SeekError message.
func Wrap(code string, err error) *SeekError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ParseError creates a parse-failure error. Parse errors skip the file and
// never abort a scan.
func ParseError(message string, cause error) *SeekError {
	return New(ErrCodeParseFailed, message, cause)
}

// IOError creates an I/O-related error.
func IOError(message string, cause error) *SeekError {
	return New(ErrCodeFileUnread, message, cause)
}

// ModelError creates an embedding-model error.
func ModelError(message string, cause error) *SeekError {
	return New(ErrCodeModelUnavailable, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *SeekError {
	return New(ErrCodeInternal, message, cause)
}

// IsRetryable checks if an error is retryable.
// Returns true if the error is a SeekError with Retryable flag set.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if se, ok := err.(*SeekError); ok {
		return se.Retryable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
// Fatal errors should abort the current operation.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if se, ok := err.(*SeekError); ok {
		return se.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from a SeekError.
// Returns empty string if not a SeekError.
func GetCode(err error) string {
	if se, ok := err.(*SeekError); ok {
		return se.Code
	}
	return ""
}

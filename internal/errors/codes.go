// Package errors provides structured error handling for noteseek.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (file, index)
//   - 3XX: Model errors (load, inference)
//   - 4XX: Validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file and index I/O errors.
	CategoryIO Category = "IO"
	// CategoryModel indicates embedding model errors.
	CategoryModel Category = "MODEL"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// IO errors (200-299)
	ErrCodeFileNotFound  = "ERR_201_FILE_NOT_FOUND"
	ErrCodeFileUnread    = "ERR_202_FILE_UNREADABLE"
	ErrCodeCorruptIndex  = "ERR_203_CORRUPT_INDEX"
	ErrCodeCorruptVector = "ERR_204_CORRUPT_VECTOR"
	ErrCodeLockHeld      = "ERR_205_INDEX_LOCKED"

	// Model errors (300-399)
	ErrCodeModelLoadTimeout = "ERR_301_MODEL_LOAD_TIMEOUT"
	ErrCodeModelUnavailable = "ERR_302_MODEL_UNAVAILABLE"
	ErrCodeEmbedFailed      = "ERR_303_EMBED_FAILED"

	// Validation errors (400-499)
	ErrCodeParseFailed  = "ERR_401_PARSE_FAILED"
	ErrCodeInvalidQuery = "ERR_402_INVALID_QUERY"
	ErrCodeInvalidPath  = "ERR_403_INVALID_PATH"

	// Internal errors (500-599)
	ErrCodeInternal   = "ERR_501_INTERNAL"
	ErrCodeScanFailed = "ERR_502_SCAN_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Numeric portion, e.g. "201" in "ERR_201_FILE_NOT_FOUND"
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '3':
		return CategoryModel
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeCorruptIndex:
		return SeverityFatal
	}

	if isRetryableCode(code) {
		return SeverityWarning
	}

	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
// Transient I/O and model-load failures are retried by the scan scheduler;
// parse failures and corruption are not.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeFileUnread, ErrCodeModelLoadTimeout, ErrCodeEmbedFailed:
		return true
	default:
		return false
	}
}

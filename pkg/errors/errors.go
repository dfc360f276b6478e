// Package errors provides a structured error system for talecache with error codes, categories, and context.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents a structured error code for cache operations.
type ErrorCode string

// Error code constants grouped by category.
const (
	// Configuration errors
	ErrCodeInvalidConfig    ErrorCode = "INVALID_CONFIG"
	ErrCodeMissingConfig    ErrorCode = "MISSING_CONFIG"
	ErrCodeConfigValidation ErrorCode = "CONFIG_VALIDATION"
	ErrCodeConfigLoad       ErrorCode = "CONFIG_LOAD"
	ErrCodeConfigSave       ErrorCode = "CONFIG_SAVE"
	ErrCodeUnknownFormat    ErrorCode = "CONFIG_UNKNOWN_FORMAT"
	ErrCodeDuplicatePool    ErrorCode = "CONFIG_DUPLICATE_POOL"
	ErrCodeUnknownPool      ErrorCode = "CONFIG_UNKNOWN_POOL"
	ErrCodeUnroutableKey    ErrorCode = "CONFIG_UNROUTABLE_KEY"

	// Key and item errors
	ErrCodeInvalidKey  ErrorCode = "KEY_INVALID"
	ErrCodeInvalidItem ErrorCode = "KEY_FOREIGN_ITEM"

	// Storage errors
	ErrCodeStorageRead     ErrorCode = "STORAGE_READ"
	ErrCodeStorageWrite    ErrorCode = "STORAGE_WRITE"
	ErrCodeStorageDelete   ErrorCode = "STORAGE_DELETE"
	ErrCodeDirectoryCreate ErrorCode = "STORAGE_DIRECTORY_CREATE"

	// Serialization errors
	ErrCodeEncode ErrorCode = "SERIALIZATION_ENCODE"
	ErrCodeDecode ErrorCode = "SERIALIZATION_DECODE"

	// Operation errors
	ErrCodeCommitFailed   ErrorCode = "OPERATION_COMMIT_FAILED"
	ErrCodeProducerFailed ErrorCode = "OPERATION_PRODUCER_FAILED"

	// Internal errors
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
	ErrCodeUnknownError  ErrorCode = "UNKNOWN_ERROR"
)

// ErrorCategory represents the general category of an error.
type ErrorCategory string

const (
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryKey           ErrorCategory = "key"
	CategoryStorage       ErrorCategory = "storage"
	CategorySerialization ErrorCategory = "serialization"
	CategoryOperation     ErrorCategory = "operation"
	CategoryInternal      ErrorCategory = "internal"
)

// Sentinels for errors.Is matching; comparison is by code only.
var (
	ErrInvalidKey     = &CacheError{Code: ErrCodeInvalidKey}
	ErrInvalidItem    = &CacheError{Code: ErrCodeInvalidItem}
	ErrUnknownFormat  = &CacheError{Code: ErrCodeUnknownFormat}
	ErrUnroutableKey  = &CacheError{Code: ErrCodeUnroutableKey}
	ErrDuplicatePool  = &CacheError{Code: ErrCodeDuplicatePool}
	ErrUnknownPool    = &CacheError{Code: ErrCodeUnknownPool}
	ErrCommitFailed   = &CacheError{Code: ErrCodeCommitFailed}
	ErrProducerFailed = &CacheError{Code: ErrCodeProducerFailed}
	ErrDecode         = &CacheError{Code: ErrCodeDecode}
)

// CacheError represents a structured error with context and metadata.
type CacheError struct {
	Code     ErrorCode              `json:"code"`
	Category ErrorCategory          `json:"category"`
	Message  string                 `json:"message"`
	Details  map[string]interface{} `json:"details,omitempty"`

	Context   map[string]string `json:"context,omitempty"`
	Cause     error             `json:"-"`
	Timestamp time.Time         `json:"timestamp"`

	Component string `json:"component,omitempty"`
	Operation string `json:"operation,omitempty"`
}

// Error implements the error interface.
func (e *CacheError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Component != "" {
		if e.Operation != "" {
			msg = fmt.Sprintf("[%s:%s] %s", e.Component, e.Operation, msg)
		} else {
			msg = fmt.Sprintf("[%s] %s", e.Component, msg)
		}
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause error for error wrapping compatibility.
func (e *CacheError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a CacheError with the same code.
func (e *CacheError) Is(target error) bool {
	if cacheErr, ok := target.(*CacheError); ok {
		return e.Code == cacheErr.Code
	}
	return false
}

// String returns a detailed string representation for logging.
func (e *CacheError) String() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("Code=%s", e.Code))
	parts = append(parts, fmt.Sprintf("Category=%s", e.Category))
	parts = append(parts, fmt.Sprintf("Message=%q", e.Message))

	if e.Component != "" {
		parts = append(parts, fmt.Sprintf("Component=%s", e.Component))
	}
	if e.Operation != "" {
		parts = append(parts, fmt.Sprintf("Operation=%s", e.Operation))
	}
	if len(e.Context) > 0 {
		ctx, _ := json.Marshal(e.Context)
		parts = append(parts, fmt.Sprintf("Context=%s", ctx))
	}
	if len(e.Details) > 0 {
		details, _ := json.Marshal(e.Details)
		parts = append(parts, fmt.Sprintf("Details=%s", details))
	}
	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("Cause=%q", e.Cause.Error()))
	}

	return fmt.Sprintf("CacheError{%s}", strings.Join(parts, ", "))
}

// JSON returns the error as a JSON string.
func (e *CacheError) JSON() string {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Sprintf(`{"error":"failed to marshal error: %s"}`, err.Error())
	}
	return string(data)
}

// NewError creates a new cache error with default values.
func NewError(code ErrorCode, message string) *CacheError {
	return &CacheError{
		Code:      code,
		Category:  GetCategory(code),
		Message:   message,
		Timestamp: time.Now(),
		Details:   make(map[string]interface{}),
		Context:   make(map[string]string),
	}
}

// Newf creates a new cache error with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *CacheError {
	return NewError(code, fmt.Sprintf(format, args...))
}

// Wrap creates a new cache error carrying cause.
func Wrap(cause error, code ErrorCode, message string) *CacheError {
	return NewError(code, message).WithCause(cause)
}

// GetCategory determines the category based on the error code.
func GetCategory(code ErrorCode) ErrorCategory {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "INVALID_CONFIG") || strings.HasPrefix(codeStr, "MISSING_CONFIG") ||
		strings.HasPrefix(codeStr, "CONFIG_"):
		return CategoryConfiguration
	case strings.HasPrefix(codeStr, "KEY_"):
		return CategoryKey
	case strings.HasPrefix(codeStr, "STORAGE_"):
		return CategoryStorage
	case strings.HasPrefix(codeStr, "SERIALIZATION_"):
		return CategorySerialization
	case strings.HasPrefix(codeStr, "OPERATION_"):
		return CategoryOperation
	default:
		return CategoryInternal
	}
}

// IsConfiguration reports whether err is a caller configuration error.
// Invalid keys and foreign items count as configuration errors too.
func IsConfiguration(err error) bool {
	var cacheErr *CacheError
	if !stderrors.As(err, &cacheErr) {
		return false
	}
	return cacheErr.Category == CategoryConfiguration || cacheErr.Category == CategoryKey
}

// Is is errors.Is from the standard library.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As is errors.As from the standard library.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// CodeOf returns the code of the first CacheError in err's chain.
func CodeOf(err error) ErrorCode {
	var cacheErr *CacheError
	if stderrors.As(err, &cacheErr) {
		return cacheErr.Code
	}
	return ErrCodeUnknownError
}

// WithContext adds contextual information to an error
func (e *CacheError) WithContext(key, value string) *CacheError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// WithDetail adds detailed information to an error
func (e *CacheError) WithDetail(key string, value interface{}) *CacheError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithComponent sets the component for an error
func (e *CacheError) WithComponent(component string) *CacheError {
	e.Component = component
	return e
}

// WithOperation sets the operation for an error
func (e *CacheError) WithOperation(operation string) *CacheError {
	e.Operation = operation
	return e
}

// WithCause sets the underlying cause
func (e *CacheError) WithCause(cause error) *CacheError {
	e.Cause = cause
	return e
}

// Recommendation returns a short hint for fixing the error.
func (e *CacheError) Recommendation() string {
	recommendations := map[ErrorCode]string{
		ErrCodeInvalidKey: "Cache keys may only contain a-z, A-Z, 0-9, '.', '-' and '_' " +
			"and must contain at least one segment besides the '.' delimiter.",
		ErrCodeInvalidItem: "Save items through the pool that created them with GetItem.",
		ErrCodeUnknownFormat: "Use one of the supported formats: json, serialize, yaml.",
		ErrCodeUnroutableKey: "Register a route for the key prefix, or add a '*' route " +
			"to catch keys no other route matches.",
		ErrCodeDuplicatePool: "Every pool needs a unique name.",
		ErrCodeUnknownPool:   "Check the pool name against the configured pools.",
		ErrCodeInvalidConfig: "Check your configuration file syntax and required parameters.",
		ErrCodeCommitFailed: "One or more deferred items could not be written. " +
			"Check free disk space and permissions of the cache directory.",
	}

	if rec, exists := recommendations[e.Code]; exists {
		return rec
	}
	return "Please check the error message for details."
}

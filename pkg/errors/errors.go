package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrNotFound     ErrorCode = "NOT_FOUND"

	// Rule source errors
	ErrRulesLoad   ErrorCode = "RULES_LOAD"
	ErrRuleInvalid ErrorCode = "RULE_INVALID"

	// Link engine errors
	ErrSourceMissing ErrorCode = "SOURCE_MISSING"
	ErrDestConflict  ErrorCode = "DEST_CONFLICT"
	ErrPermission    ErrorCode = "PERMISSION"
	ErrSymlinkCreate ErrorCode = "SYMLINK_CREATE"
	ErrDirCreate     ErrorCode = "DIR_CREATE"

	// Backup store errors
	ErrBackupMove       ErrorCode = "BACKUP_MOVE"
	ErrSnapshotNotFound ErrorCode = "SNAPSHOT_NOT_FOUND"

	// Filesystem errors
	ErrFileAccess ErrorCode = "FILE_ACCESS"
)

// JshError represents a structured error with code and details
type JshError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *JshError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *JshError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *JshError) Is(target error) bool {
	var targetErr *JshError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new JshError with the given code and message
func New(code ErrorCode, message string) *JshError {
	return &JshError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new JshError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *JshError {
	return &JshError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a JshError
func Wrap(err error, code ErrorCode, message string) *JshError {
	if err == nil {
		return nil
	}
	return &JshError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *JshError {
	if err == nil {
		return nil
	}
	return &JshError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *JshError) WithDetail(key string, value interface{}) *JshError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var jshErr *JshError
	if errors.As(err, &jshErr) {
		return jshErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a JshError
func GetErrorCode(err error) ErrorCode {
	var jshErr *JshError
	if errors.As(err, &jshErr) {
		return jshErr.Code
	}
	return ErrUnknown
}

package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a machine-readable error code
type ErrorCode string

const (
	ErrorCodeProfileNotFound      ErrorCode = "PROFILE_NOT_FOUND"
	ErrorCodeProfileNoProcessorID ErrorCode = "PROFILE_NO_PROCESSOR_ID"
	ErrorCodeLedgerEntryNotFound  ErrorCode = "LEDGER_ENTRY_NOT_FOUND"
	ErrorCodeLockNotAcquired      ErrorCode = "LOCK_NOT_ACQUIRED"
	ErrorCodeDatabaseError        ErrorCode = "INTERNAL_DATABASE_ERROR"
)

// DomainError represents a structured domain error with error code and context
type DomainError struct {
	Err     error
	Details map[string]interface{}
	Code    ErrorCode
	Message string
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches another DomainError with the same code, so the package-level
// instances below work with errors.Is after WithDetail or WrapError.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

// WithDetail returns a copy of the error carrying an extra detail field
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	details := make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &DomainError{Err: e.Err, Details: details, Code: e.Code, Message: e.Message}
}

// NewDomainError creates a new domain error
func NewDomainError(code ErrorCode, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with a domain error code
func WrapError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Err:     err,
	}
}

// GetErrorCode extracts the error code from an error, returns empty string if not a DomainError
func GetErrorCode(err error) ErrorCode {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// IsNotFoundError checks if an error represents a "not found" condition
func IsNotFoundError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeProfileNotFound || code == ErrorCodeLedgerEntryNotFound
}

var (
	ErrProfileNotFound      = NewDomainError(ErrorCodeProfileNotFound, "recurring profile not found")
	ErrProfileNoProcessorID = NewDomainError(ErrorCodeProfileNoProcessorID, "recurring profile has no processor id")
	ErrLedgerEntryNotFound  = NewDomainError(ErrorCodeLedgerEntryNotFound, "ledger entry not found")
	ErrLockNotAcquired      = NewDomainError(ErrorCodeLockNotAcquired, "profile lock not acquired")
)

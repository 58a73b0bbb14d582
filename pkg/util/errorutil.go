package util

import (
	"errors"
	"fmt"
	"net/http"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

// NewCorruptStore marks the backing store file as unreadable or
// unparseable. Permanent: callers must surface it, never retry it and
// never mask it as an empty store.
func NewCorruptStore(path string, err error) error {
	return &DomainError{
		Code:       "STORE_CORRUPT",
		Message:    "ticket store is corrupt",
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"path": path},
		Err:        err,
	}
}

// NewStoreUnavailable reports that the store lock could not be acquired
// within the bounded retry window. Transient: callers may retry.
func NewStoreUnavailable(path string) error {
	return &DomainError{
		Code:       "STORE_UNAVAILABLE",
		Message:    "ticket store is temporarily unavailable",
		HTTPStatus: http.StatusServiceUnavailable,
		Details:    map[string]any{"path": path},
	}
}

// NewInvalidStatus rejects a status value outside the accepted set.
func NewInvalidStatus(status string) error {
	return NewDomainError("INVALID_STATUS", "status not in allowed set", http.StatusBadRequest,
		map[string]any{"status": status})
}

// NewMailSourceError wraps a connect/auth/fetch failure against the
// inbound mail source. Aborts the poll cycle; never surfaced over HTTP.
func NewMailSourceError(err error) error {
	return &DomainError{
		Code:       "MAIL_SOURCE",
		Message:    "mail source unavailable",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// HasCode reports whether err carries the given domain error code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

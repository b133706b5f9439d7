// Package domain defines core types, interfaces, and errors for the directory portal.
package domain

import (
	"fmt"
	"strings"
)

// NotFoundError reports that a directory record, relationship, or extension
// document does not exist.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// AccessDeniedError reports that the directory refused an operation for the
// current grant.
type AccessDeniedError struct {
	Message string
}

func (e *AccessDeniedError) Error() string { return e.Message }

// ErrAccessDenied creates an AccessDeniedError with a formatted message.
func ErrAccessDenied(format string, args ...interface{}) *AccessDeniedError {
	return &AccessDeniedError{Message: fmt.Sprintf(format, args...)}
}

// ValidationError reports malformed input, caught locally or rejected by the
// directory.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ConflictError reports a write that collides with existing directory state,
// such as a duplicate principal name or extension document.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// ErrConflict creates a ConflictError with a formatted message.
func ErrConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// ConsentError reports that the current grant lacks required permission
// scopes and interactive consent must complete before the operation can
// proceed.
type ConsentError struct {
	Missing []string
}

func (e *ConsentError) Error() string {
	if len(e.Missing) == 0 {
		return "consent required"
	}
	return "consent required for scopes: " + strings.Join(e.Missing, " ")
}

// ErrConsent creates a ConsentError for the given missing scopes.
func ErrConsent(missing ...string) *ConsentError {
	return &ConsentError{Missing: missing}
}

package domain

import (
	"errors"
	"net/http"
	"time"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
// Implementing this interface enables extensible error handling (OCP compliance).
type HTTPError interface {
	error
	StatusCode() int
}

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a resource was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}

	// UnauthorizedError indicates authentication failure
	UnauthorizedError struct {
		Message string
	}

	// ForbiddenError indicates authorization failure
	ForbiddenError struct {
		Message string
	}
)

// Error implementations
func (e *NotFoundError) Error() string     { return e.Message }
func (e *ValidationError) Error() string   { return e.Message }
func (e *UnauthorizedError) Error() string { return e.Message }
func (e *ForbiddenError) Error() string    { return e.Message }

// StatusCode implementations (HTTPError interface)
func (e *NotFoundError) StatusCode() int     { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int   { return http.StatusBadRequest }
func (e *UnauthorizedError) StatusCode() int { return http.StatusUnauthorized }
func (e *ForbiddenError) StatusCode() int    { return http.StatusForbidden }

// Is lets errors.Is match the typed errors against their sentinels
func (e *NotFoundError) Is(target error) bool     { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool   { return target == ErrValidation }
func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthorized }
func (e *ForbiddenError) Is(target error) bool    { return target == ErrForbidden }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("already exists")
	ErrValidation     = errors.New("validation failed")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrFolderNotEmpty = errors.New("folder is not empty")

	// ErrInvalidOrExpired is the only error a share token lookup ever surfaces.
	// Unknown, expired and revoked tokens must be indistinguishable to callers.
	ErrInvalidOrExpired = errors.New("share link is invalid or has expired")
)

// ConflictError represents a resource conflict with details about the existing resource
// Implements HTTPError interface for extensible error handling
type ConflictError struct {
	Message      string // Human-readable error message
	ResourceType string // Type of resource (document, folder, request)
	ResourceID   string // ID of the existing/conflicting resource
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	return e.Message
}

// StatusCode implements the HTTPError interface
func (e *ConflictError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// StaleUpdateError is returned when an optimistic-concurrency token no longer
// matches the stored row. Nothing was written.
type StaleUpdateError struct {
	ResourceID string
	Expected   time.Time
	Actual     time.Time
}

func (e *StaleUpdateError) Error() string {
	return "resource " + e.ResourceID + " was modified by someone else; reload and retry"
}

func (e *StaleUpdateError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrConflict
func (e *StaleUpdateError) Is(target error) bool {
	return target == ErrConflict
}

// Stable machine-readable error codes returned in API responses and bulk results
const (
	CodeNotFound         = "not_found"
	CodeConflict         = "conflict"
	CodeStaleUpdate      = "stale_update"
	CodeValidation       = "validation_failed"
	CodeUnauthorized     = "unauthorized"
	CodeForbidden        = "forbidden"
	CodeFolderNotEmpty   = "folder_not_empty"
	CodeInvalidOrExpired = "invalid_or_expired"
	CodeInternal         = "internal"
)

// ErrorCode classifies err into one of the stable codes.
// More specific conditions are checked first.
func ErrorCode(err error) string {
	var stale *StaleUpdateError
	switch {
	case errors.Is(err, ErrInvalidOrExpired):
		return CodeInvalidOrExpired
	case errors.Is(err, ErrFolderNotEmpty):
		return CodeFolderNotEmpty
	case errors.As(err, &stale):
		return CodeStaleUpdate
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrConflict):
		return CodeConflict
	case errors.Is(err, ErrValidation):
		return CodeValidation
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, ErrForbidden):
		return CodeForbidden
	}
	return CodeInternal
}

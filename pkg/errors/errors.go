package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies media operation failures
type ErrorCode string

const (
	ErrCodePermissionDenied     ErrorCode = "PERMISSION_DENIED"
	ErrCodeDeviceError          ErrorCode = "DEVICE_ERROR"
	ErrCodeUnsupportedOperation ErrorCode = "UNSUPPORTED_OPERATION"
	ErrCodeInvalidState         ErrorCode = "INVALID_STATE"
	ErrCodeInvalidArgument      ErrorCode = "INVALID_ARGUMENT"
	ErrCodeConflict             ErrorCode = "CONFLICT"
	ErrCodeNotActive            ErrorCode = "NOT_ACTIVE"
	ErrCodeAlreadyInitializing  ErrorCode = "ALREADY_INITIALIZING"
	ErrCodeNotFound             ErrorCode = "NOT_FOUND"
	ErrCodeInternal             ErrorCode = "INTERNAL_ERROR"
)

// MediaError carries a structured error kind instead of a loose string
type MediaError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

// Error implements error interface
func (e *MediaError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *MediaError) Unwrap() error {
	return e.Cause
}

// New creates a new media error
func New(code ErrorCode, message string, httpStatus int) *MediaError {
	return &MediaError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an existing error with a media error
func Wrap(err error, code ErrorCode, message string, httpStatus int) *MediaError {
	return &MediaError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Cause:      err,
	}
}

// Common error constructors
func NewPermissionError(message string) *MediaError {
	return New(ErrCodePermissionDenied, message, http.StatusForbidden)
}

func NewDeviceError(message string) *MediaError {
	return New(ErrCodeDeviceError, message, http.StatusConflict)
}

func NewUnsupportedOperationError(message string) *MediaError {
	return New(ErrCodeUnsupportedOperation, message, http.StatusNotImplemented)
}

func NewInvalidStateError(message string) *MediaError {
	return New(ErrCodeInvalidState, message, http.StatusConflict)
}

func NewInvalidArgumentError(message string) *MediaError {
	return New(ErrCodeInvalidArgument, message, http.StatusBadRequest)
}

func NewConflictError(message string) *MediaError {
	return New(ErrCodeConflict, message, http.StatusConflict)
}

func NewNotActiveError(message string) *MediaError {
	return New(ErrCodeNotActive, message, http.StatusConflict)
}

func NewAlreadyInitializingError(message string) *MediaError {
	return New(ErrCodeAlreadyInitializing, message, http.StatusConflict)
}

func NewNotFoundError(resource string) *MediaError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

func NewInternalError(message string) *MediaError {
	return New(ErrCodeInternal, message, http.StatusInternalServerError)
}

// GetMediaError extracts a MediaError from an error chain
func GetMediaError(err error) *MediaError {
	if err == nil {
		return nil
	}
	var mediaErr *MediaError
	if errors.As(err, &mediaErr) {
		return mediaErr
	}
	return nil
}

// CodeOf returns the error code of err, or ErrCodeInternal for plain errors
func CodeOf(err error) ErrorCode {
	if mediaErr := GetMediaError(err); mediaErr != nil {
		return mediaErr.Code
	}
	return ErrCodeInternal
}

// HasCode reports whether err carries the given code
func HasCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

package httpx

import (
	"fmt"
	"net/http"
)

// Business error codes
const (
	CodeSuccess = 0

	// Authentication/Authorization errors (1000-1099)
	CodeUnauthorized = 1001 // Not logged in / Token missing
	CodeInvalidToken = 1002 // Token invalid
	CodeTokenExpired = 1003 // Token expired
	CodeForbidden    = 1004 // No permission

	// Parameter errors (2000-2099)
	CodeParamMissing     = 2001 // Parameter missing
	CodeParamInvalid     = 2002 // Parameter format error
	CodeParamIllegal     = 2003 // Parameter value illegal
	CodeValidationFailed = 2004 // One or more fields failed validation, details in data

	// Resource/Business errors (3000-3999)
	CodeNotFound      = 3001
	CodeStateConflict = 3003

	// System errors (5000-5999)
	CodeInternalError = 5001
	CodeDatabaseError = 5002
	CodeExternalError = 5003
)

// AppError represents an application error with HTTP status and business code
type AppError struct {
	HTTPStatus int         // HTTP status code
	Code       int         // Business error code
	Message    string      // User-facing error message
	Err        error       // Internal error (for logging only, not returned to client)
	Data       interface{} // Additional data returned to the client
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("code=%d, message=%s, err=%v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("code=%d, message=%s", e.Code, e.Message)
}

// Unwrap returns the internal error
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithData adds additional data to the error
func (e *AppError) WithData(data interface{}) *AppError {
	e.Data = data
	return e
}

// NewAppError creates a new AppError
func NewAppError(httpStatus, code int, message string, err error) *AppError {
	return &AppError{
		HTTPStatus: httpStatus,
		Code:       code,
		Message:    message,
		Err:        err,
	}
}

func orDefault(message, def string) string {
	if message == "" {
		return def
	}
	return message
}

// ErrUnauthorized creates a 401 unauthorized error
func ErrUnauthorized(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, CodeUnauthorized, orDefault(message, "unauthorized"), nil)
}

// ErrInvalidToken creates a 401 invalid token error
func ErrInvalidToken(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, CodeInvalidToken, orDefault(message, "invalid token"), nil)
}

// ErrTokenExpired creates a 401 token expired error
func ErrTokenExpired(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, CodeTokenExpired, orDefault(message, "token expired"), nil)
}

// ErrForbidden creates a 403 forbidden error
func ErrForbidden(message string) *AppError {
	return NewAppError(http.StatusForbidden, CodeForbidden, orDefault(message, "forbidden"), nil)
}

// ErrParamMissing creates a 400 parameter missing error
func ErrParamMissing(message string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeParamMissing, orDefault(message, "parameter missing"), nil)
}

// ErrParamInvalid creates a 400 parameter invalid error
func ErrParamInvalid(message string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeParamInvalid, orDefault(message, "parameter format error"), nil)
}

// ErrValidation creates a 400 error carrying the per-field failure messages
func ErrValidation(failures map[string][]string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeValidationFailed, "validation failed", nil).WithData(failures)
}

// ErrNotFound creates a 404 not found error
func ErrNotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, CodeNotFound, orDefault(message, "resource not found"), nil)
}

// ErrStateConflict creates a 409 state conflict error
func ErrStateConflict(message string) *AppError {
	return NewAppError(http.StatusConflict, CodeStateConflict, orDefault(message, "current state does not allow operation"), nil)
}

// ErrInternalError creates a 500 internal error
func ErrInternalError(message string, err error) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeInternalError, orDefault(message, "internal error"), err)
}

// ErrDatabaseError creates a 500 database error
func ErrDatabaseError(message string, err error) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeDatabaseError, orDefault(message, "database error"), err)
}

// ErrExternalError creates a 502 external dependency error
func ErrExternalError(message string, err error) *AppError {
	return NewAppError(http.StatusBadGateway, CodeExternalError, orDefault(message, "external dependency failure"), err)
}

package apperror

import (
	"errors"
	"net/http"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    int          `json:"code"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// FieldError represents a validation error for a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

// Common errors
var (
	ErrNotFound       = &AppError{Code: http.StatusNotFound, Message: "Resource not found"}
	ErrBadRequest     = &AppError{Code: http.StatusBadRequest, Message: "Bad request"}
	ErrInternalServer = &AppError{Code: http.StatusInternalServerError, Message: "Internal server error"}
	ErrConflict       = &AppError{Code: http.StatusConflict, Message: "Resource already exists"}
	ErrUnprocessable  = &AppError{Code: http.StatusUnprocessableEntity, Message: "Unprocessable entity"}

	// Receipt lifecycle errors
	ErrReceiptVoided      = &AppError{Code: http.StatusConflict, Message: "Receipt is voided and cannot be modified"}
	ErrEmailNotConfigured = &AppError{Code: http.StatusConflict, Message: "Email delivery is not configured"}
	ErrOperationInFlight  = &AppError{Code: http.StatusConflict, Message: "Another operation for this receipt is still in progress"}

	// Upstream receipt service errors
	ErrUpstreamUnavailable = &AppError{Code: http.StatusBadGateway, Message: "Receipt service is unreachable"}
	ErrUpstreamRejected    = &AppError{Code: http.StatusBadGateway, Message: "Receipt service rejected the request"}
)

// NewAppError creates a new application error
func NewAppError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(fieldErrors []FieldError) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Message: "Validation failed",
		Errors:  fieldErrors,
	}
}

// NewNotFoundError creates a not found error with a custom message
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Message: resource + " not found",
	}
}

// NewConflictError creates a conflict error with a custom message
func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Message: message,
	}
}

// NewBadRequestError creates a bad request error with a custom message
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Message: message,
	}
}

// NewUpstreamError wraps an error reported by the external receipt service,
// preserving the upstream message for the caller. Client-ish upstream
// failures keep their status so the UI can react to them (404 receipt,
// 409 already voided, 422 validation); everything else becomes a 502.
func NewUpstreamError(statusCode int, message string) *AppError {
	if message == "" {
		message = "Receipt service rejected the request"
	}
	code := http.StatusBadGateway
	switch statusCode {
	case http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity:
		code = statusCode
	}
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError converts an error to AppError if possible
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{
		Code:    http.StatusInternalServerError,
		Message: err.Error(),
	}
}

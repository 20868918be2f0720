package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource conflict")
	ErrBadRequest     = errors.New("bad request")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInternalServer = errors.New("internal server error")

	// Business errors
	ErrInvalidTransition  = errors.New("invalid state transition")
	ErrUserHasActiveRide  = errors.New("user already has an active ride")
	ErrRideNotCancellable = errors.New("ride can no longer be cancelled")
	ErrInvalidCredentials = errors.New("invalid phone or password")
	ErrPhoneTaken         = errors.New("phone number already registered")
)

// APIError represents a structured API error
type APIError struct {
	Code       string `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
}

func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates a new API error
func NewAPIError(code, message string, statusCode int) *APIError {
	return &APIError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Common API errors
func NotFound(resource string) *APIError {
	return NewAPIError("not_found", fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

func BadRequest(message string) *APIError {
	return NewAPIError("bad_request", message, http.StatusBadRequest)
}

func Conflict(message string) *APIError {
	return NewAPIError("conflict", message, http.StatusConflict)
}

func InternalError(message string) *APIError {
	return NewAPIError("internal_error", message, http.StatusInternalServerError)
}

func Unauthorized(message string) *APIError {
	return NewAPIError("unauthorized", message, http.StatusUnauthorized)
}

func InvalidTransition(from, to string) *APIError {
	return NewAPIError("invalid_transition", fmt.Sprintf("cannot transition from %s to %s", from, to), http.StatusBadRequest)
}

func UserHasActiveRide() *APIError {
	return NewAPIError("active_ride_exists", "you already have an active ride", http.StatusConflict)
}

func RideNotCancellable(status string) *APIError {
	return NewAPIError("ride_not_cancellable", fmt.Sprintf("ride in status %s can no longer be cancelled", status), http.StatusConflict)
}

func FareNotConfigured(message string) *APIError {
	return NewAPIError("fare_not_configured", message, http.StatusUnprocessableEntity)
}

func InvalidCredentials() *APIError {
	return NewAPIError("invalid_credentials", "invalid phone or password", http.StatusUnauthorized)
}

func PhoneTaken() *APIError {
	return NewAPIError("phone_taken", "phone number already registered", http.StatusConflict)
}

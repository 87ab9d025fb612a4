package service

import "net/http"

// AppError is a business-rule rejection carrying the HTTP status the
// boundary should respond with. Anything else that escapes a service is
// treated as an internal error.
type AppError struct {
	Status  int
	Message string
}

func (e *AppError) Error() string { return e.Message }

// NewAppError builds a business-rule rejection.
func NewAppError(status int, message string) *AppError {
	return &AppError{Status: status, Message: message}
}

func notFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, message)
}

func badRequest(message string) *AppError {
	return NewAppError(http.StatusBadRequest, message)
}

func unauthorized(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, message)
}

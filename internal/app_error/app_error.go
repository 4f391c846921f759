package appError

import "net/http"

type AppError struct {
	Status  int
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

func NewAppError(status int, message string) *AppError {
	return &AppError{
		Status:  status,
		Message: message,
	}
}

func NewBadRequest(message string) *AppError {
	return NewAppError(http.StatusBadRequest, message)
}

func NewUnauthorized(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, message)
}

func NewNotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, message)
}

func NewConflict(message string) *AppError {
	return NewAppError(http.StatusConflict, message)
}

func NewServiceUnavailable(message string) *AppError {
	return NewAppError(http.StatusServiceUnavailable, message)
}

// Package apperrors provides a typed error carrying the HTTP status it
// should surface as, following the taxonomy of error kinds this system
// distinguishes between.
package apperrors

import (
	"fmt"
	"net/http"
)

// ErrorType classifies the origin of an AppError.
type ErrorType string

const (
	TypeValidation ErrorType = "validation"
	TypeNetwork    ErrorType = "network"
	TypeProtocol   ErrorType = "protocol"
	TypeService    ErrorType = "service"
	TypeProcessing ErrorType = "processing"
	TypeInternal   ErrorType = "internal"
)

// AppError is a typed error with an HTTP status mapping and an optional
// wrapped cause.
type AppError struct {
	Type       ErrorType
	Message    string
	Details    string
	StatusCode int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewValidationError reports a bad request (missing input, bad MIME,
// over-size upload).
func NewValidationError(message, details string) *AppError {
	return &AppError{Type: TypeValidation, Message: message, Details: details, StatusCode: http.StatusBadRequest}
}

// NewNetworkError reports a transport-level failure (refused, DNS, reset).
func NewNetworkError(message string, cause error) *AppError {
	return &AppError{Type: TypeNetwork, Message: message, StatusCode: http.StatusBadGateway, Cause: cause}
}

// NewProtocolError reports a malformed or incomplete analyzer response.
func NewProtocolError(message string, cause error) *AppError {
	return &AppError{Type: TypeProtocol, Message: message, StatusCode: http.StatusBadGateway, Cause: cause}
}

// NewServiceError reports an analyzer's own status=="error" payload.
func NewServiceError(message string) *AppError {
	return &AppError{Type: TypeService, Message: message, StatusCode: http.StatusBadGateway}
}

// NewProcessingError reports a pipeline failure (clustering, voting,
// assembly).
func NewProcessingError(message string, cause error) *AppError {
	return &AppError{Type: TypeProcessing, Message: message, StatusCode: http.StatusInternalServerError, Cause: cause}
}

// NewInternalError reports an unclassified failure.
func NewInternalError(message string, cause error) *AppError {
	return &AppError{Type: TypeInternal, Message: message, StatusCode: http.StatusInternalServerError, Cause: cause}
}

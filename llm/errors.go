package llm

import (
	"fmt"
	"net/http"
)

// ErrorType represents the type of LLM error
type ErrorType string

const (
	ErrorTypeUnknown         ErrorType = "unknown"
	ErrorTypeInvalidRequest  ErrorType = "invalid_request"
	ErrorTypeAuthentication  ErrorType = "authentication_error"
	ErrorTypePermission      ErrorType = "permission_error"
	ErrorTypeNotFound        ErrorType = "not_found"
	ErrorTypeRateLimit       ErrorType = "rate_limit_exceeded"
	ErrorTypeInvalidModel    ErrorType = "invalid_model"
	ErrorTypeServerError     ErrorType = "server_error"
	ErrorTypeTimeout         ErrorType = "timeout"
	ErrorTypeConnectionError ErrorType = "connection_error"
)

// LLMError represents an error from an LLM provider
type LLMError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Code       string    `json:"code,omitempty"`
	Provider   Provider  `json:"provider"`
	Model      string    `json:"model,omitempty"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *LLMError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s [%s]: %s", e.Provider, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// Unwrap returns the underlying error
func (e *LLMError) Unwrap() error {
	return e.Cause
}

// NewLLMError creates a new LLM error
func NewLLMError(provider Provider, errorType ErrorType, message string) *LLMError {
	return &LLMError{
		Type:     errorType,
		Message:  message,
		Provider: provider,
	}
}

// NewLLMErrorWithCause creates a new LLM error with an underlying cause
func NewLLMErrorWithCause(provider Provider, errorType ErrorType, message string, cause error) *LLMError {
	err := NewLLMError(provider, errorType, message)
	err.Cause = cause
	return err
}

// ParseHTTPError maps an HTTP status code into an appropriate LLM error
func ParseHTTPError(provider Provider, statusCode int, message string) *LLMError {
	var errorType ErrorType

	switch statusCode {
	case http.StatusBadRequest:
		errorType = ErrorTypeInvalidRequest
	case http.StatusUnauthorized:
		errorType = ErrorTypeAuthentication
	case http.StatusForbidden:
		errorType = ErrorTypePermission
	case http.StatusNotFound:
		errorType = ErrorTypeNotFound
	case http.StatusTooManyRequests:
		errorType = ErrorTypeRateLimit
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		errorType = ErrorTypeServerError
	default:
		errorType = ErrorTypeUnknown
	}

	if message == "" {
		message = fmt.Sprintf("HTTP %d error", statusCode)
	}

	return &LLMError{
		Type:       errorType,
		Message:    message,
		Provider:   provider,
		HTTPStatus: statusCode,
	}
}

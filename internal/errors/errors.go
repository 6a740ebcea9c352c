// Package errors provides structured error handling for the realtime layer:
// every failure is categorized into one of the kinds from the error handling
// design (admission, auth, permission, rate limit, transport) so the
// handshake path can map it to an HTTP status and metrics can count it.
//
// Nothing from this package ever crosses the Emit/Notifier API boundary;
// failures inside the hub are isolated per connection.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the category of error for metrics and response formatting.
type ErrorType string

const (
	// TypeAdmission indicates a connection refused pre-registry: capacity
	// exceeded, disallowed origin, or malformed handshake.
	TypeAdmission ErrorType = "admission"
	// TypeAuth indicates an invalid identity token. The connection stays
	// open, unauthenticated.
	TypeAuth ErrorType = "auth"
	// TypePermission indicates a subscribe to a disallowed namespace.
	TypePermission ErrorType = "permission"
	// TypeRateLimit indicates the per-connection event window was exceeded.
	TypeRateLimit ErrorType = "rate_limit"
	// TypeTransport indicates a send to a dead socket or malformed inbound
	// JSON. Logged and swallowed.
	TypeTransport ErrorType = "transport"
	// TypeInternal indicates an unexpected server-side error.
	TypeInternal ErrorType = "internal"
)

// Error represents a structured error with type, message, and context.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the status code used when this error surfaces on the
// handshake path. Capacity rejections carry "capacity" context and map to
// 503; other admission failures are 403.
func (e *Error) HTTPStatus() int {
	switch e.Type {
	case TypeAdmission:
		if _, ok := e.Context["capacity"]; ok {
			return http.StatusServiceUnavailable
		}
		return http.StatusForbidden
	case TypeAuth:
		return http.StatusUnauthorized
	case TypePermission:
		return http.StatusForbidden
	case TypeRateLimit:
		return http.StatusTooManyRequests
	case TypeTransport:
		return http.StatusBadRequest
	case TypeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// AdmissionError creates an admission error (connection refused pre-registry).
func AdmissionError(message string) *Error {
	return &Error{
		Type:    TypeAdmission,
		Message: message,
		Context: make(map[string]any),
	}
}

// CapacityError creates an admission error caused by a connection ceiling.
func CapacityError(message string) *Error {
	return AdmissionError(message).WithContext("capacity", true)
}

// AuthError creates an authentication error.
func AuthError(message string, cause error) *Error {
	return &Error{
		Type:    TypeAuth,
		Message: message,
		Cause:   cause,
		Context: make(map[string]any),
	}
}

// PermissionError creates a permission error.
func PermissionError(message string) *Error {
	return &Error{
		Type:    TypePermission,
		Message: message,
		Context: make(map[string]any),
	}
}

// RateLimitError creates a rate limit error.
func RateLimitError(message string) *Error {
	return &Error{
		Type:    TypeRateLimit,
		Message: message,
		Context: make(map[string]any),
	}
}

// TransportError creates a transport error.
func TransportError(message string, cause error) *Error {
	return &Error{
		Type:    TypeTransport,
		Message: message,
		Cause:   cause,
		Context: make(map[string]any),
	}
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *Error {
	return &Error{
		Type:    TypeInternal,
		Message: message,
		Cause:   cause,
		Context: make(map[string]any),
	}
}

// WithContext adds context fields to the error (chainable).
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// ErrorResponse represents the JSON structure sent to clients.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Type    ErrorType      `json:"type"`
	Context map[string]any `json:"context,omitempty"`
}

// ToResponse converts an Error to an ErrorResponse for JSON serialization.
func (e *Error) ToResponse() ErrorResponse {
	return ErrorResponse{
		Error:   e.Message,
		Type:    e.Type,
		Context: e.Context,
	}
}

// AsStructuredError converts any error into a structured Error.
// If err is already an *Error, returns it unchanged.
// Otherwise wraps it as an internal error.
func AsStructuredError(err error) *Error {
	if err == nil {
		return nil
	}

	var structuredErr *Error
	if errors.As(err, &structuredErr) {
		return structuredErr
	}

	return InternalError("internal server error", err)
}

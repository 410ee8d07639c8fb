package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError is the unified connector error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the status code that produced (or best describes) the error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// ClientConstruction wraps a failure raised while building the shared transport for key.
func ClientConstruction(key string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeClientConstruction, Message: fmt.Sprintf("could not create HTTP client %q", key),
		Details: map[string]any{"client_key": key}, Cause: cause,
	}
}

// ClientStart wraps a failure raised while starting the shared transport for key.
func ClientStart(key string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeClientStart, Message: fmt.Sprintf("could not start HTTP client %q", key),
		Retryable: true, Details: map[string]any{"client_key": key}, Cause: cause,
	}
}

// ServerConstruction wraps a failure raised while building the shared server for key.
func ServerConstruction(key string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeServerConstruction, Message: fmt.Sprintf("could not create HTTP server %q", key),
		Details: map[string]any{"server_key": key}, Cause: cause,
	}
}

// ServerStart wraps a failure raised while starting the shared server for key.
func ServerStart(key string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeServerStart, Message: fmt.Sprintf("could not start HTTP server %q", key),
		Details: map[string]any{"server_key": key}, Cause: cause,
	}
}

// ClientStopped reports a send issued on a transport that is not running.
func ClientStopped(name string) *AppError {
	return &AppError{
		Code: ErrCodeClientStopped, Message: fmt.Sprintf("HTTP client %q is not started", name),
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

// Connectivity wraps a network-level send failure.
func Connectivity(cause error) *AppError {
	return &AppError{
		Code: ErrCodeConnectivity, Message: "could not reach the remote endpoint",
		Retryable: true, Cause: cause,
	}
}

// Timeout reports a response that did not arrive within the response timeout.
func Timeout(cause error) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: "no response received within the response timeout",
		HTTPStatus: http.StatusGatewayTimeout, Retryable: true, Cause: cause,
	}
}

// ClientSecurity wraps an authentication strategy failure.
func ClientSecurity(strategy string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeClientSecurity, Message: fmt.Sprintf("%s authentication failed", strategy),
		Details: map[string]any{"strategy": strategy}, Cause: cause,
	}
}

// InvalidInput creates a new AppError for an invalid request or configuration.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		HTTPStatus: http.StatusBadRequest, Details: details,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// Internal creates a new AppError for an unexpected failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "an unexpected error occurred", Cause: cause,
	}
}

var statusCodes = map[int]ErrorCode{
	http.StatusBadRequest:           ErrCodeBadRequest,
	http.StatusUnauthorized:         ErrCodeUnauthorized,
	http.StatusProxyAuthRequired:    ErrCodeUnauthorized,
	http.StatusForbidden:            ErrCodeForbidden,
	http.StatusNotFound:             ErrCodeNotFound,
	http.StatusMethodNotAllowed:     ErrCodeMethodNotAllowed,
	http.StatusNotAcceptable:        ErrCodeNotAcceptable,
	http.StatusUnsupportedMediaType: ErrCodeUnsupportedMediaType,
	http.StatusTooManyRequests:      ErrCodeTooManyRequests,
	http.StatusInternalServerError:  ErrCodeInternalServerError,
	http.StatusServiceUnavailable:   ErrCodeServiceUnavailable,
	http.StatusBadGateway:           ErrCodeBadGateway,
	http.StatusGatewayTimeout:       ErrCodeGatewayTimeout,
	http.StatusRequestTimeout:       ErrCodeTimeout,
}

// FromStatus converts an HTTP response status into a typed error.
// Returns nil for status codes below 400.
func FromStatus(status int, body []byte) *AppError {
	if status < http.StatusBadRequest {
		return nil
	}
	code, ok := statusCodes[status]
	if !ok {
		if status >= http.StatusInternalServerError {
			code = ErrCodeInternalServerError
		} else {
			code = ErrCodeBadRequest
		}
	}
	e := New(code, fmt.Sprintf("HTTP %d %s", status, http.StatusText(status)), status)
	if len(body) > 0 {
		e.WithDetail("body", string(body))
	}
	return e
}

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

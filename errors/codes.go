package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Transport and lifecycle errors
const (
	// ErrCodeConnectivity indicates the remote endpoint could not be reached.
	ErrCodeConnectivity ErrorCode = "CONNECTIVITY"
	// ErrCodeTimeout indicates the response did not arrive within the response timeout.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeClientConstruction indicates the shared transport could not be built.
	ErrCodeClientConstruction ErrorCode = "CLIENT_CONSTRUCTION"
	// ErrCodeClientStart indicates the shared transport failed to start.
	ErrCodeClientStart ErrorCode = "CLIENT_START"
	// ErrCodeClientStopped indicates a send was issued on a transport that is not started.
	ErrCodeClientStopped ErrorCode = "CLIENT_STOPPED"
	// ErrCodeServerConstruction indicates a shared server could not be built.
	ErrCodeServerConstruction ErrorCode = "SERVER_CONSTRUCTION"
	// ErrCodeServerStart indicates a shared server failed to bind or serve.
	ErrCodeServerStart ErrorCode = "SERVER_START"
)

// Security errors
const (
	// ErrCodeSecurity indicates a generic security failure.
	ErrCodeSecurity ErrorCode = "SECURITY"
	// ErrCodeClientSecurity indicates the client-side authentication could not be performed.
	ErrCodeClientSecurity ErrorCode = "CLIENT_SECURITY"
	// ErrCodeUnauthorized indicates the remote answered 401 or 407.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeForbidden indicates the remote answered 403.
	ErrCodeForbidden ErrorCode = "FORBIDDEN"
)

// Response status errors
const (
	ErrCodeBadRequest           ErrorCode = "BAD_REQUEST"
	ErrCodeNotFound             ErrorCode = "NOT_FOUND"
	ErrCodeMethodNotAllowed     ErrorCode = "METHOD_NOT_ALLOWED"
	ErrCodeNotAcceptable        ErrorCode = "NOT_ACCEPTABLE"
	ErrCodeUnsupportedMediaType ErrorCode = "UNSUPPORTED_MEDIA_TYPE"
	ErrCodeTooManyRequests      ErrorCode = "TOO_MANY_REQUESTS"
	ErrCodeInternalServerError  ErrorCode = "INTERNAL_SERVER_ERROR"
	ErrCodeServiceUnavailable   ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeBadGateway           ErrorCode = "BAD_GATEWAY"
	ErrCodeGatewayTimeout       ErrorCode = "GATEWAY_TIMEOUT"
)

// Local errors
const (
	// ErrCodeInvalidInput indicates a request or configuration is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeInternal indicates an unexpected internal failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeConnectivity:        true,
	ErrCodeTimeout:             true,
	ErrCodeClientStart:         true,
	ErrCodeTooManyRequests:     true,
	ErrCodeServiceUnavailable:  true,
	ErrCodeBadGateway:          true,
	ErrCodeGatewayTimeout:      true,
	ErrCodeInternalServerError: false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}

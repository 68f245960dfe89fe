package dto

// APIError represents a structured error response.
// All error responses from the API use this format for consistency.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes
const (
	ErrCodeNotFound      = "not_found"
	ErrCodeBadRequest    = "bad_request"
	ErrCodeInternalError = "internal_error"
	ErrCodeValidation    = "validation_error"
	ErrCodeConflict      = "conflict"
	ErrCodeUnprocessable = "unprocessable_statement"
	ErrCodeUnavailable   = "unavailable"
	ErrCodeTimeout       = "timeout"
)

// NewAPIError creates a new APIError with the given code and message.
func NewAPIError(code, message string) APIError {
	return APIError{
		Code:    code,
		Message: message,
	}
}

// NotFoundError creates a not found error response.
func NotFoundError(resource string) APIError {
	return NewAPIError(ErrCodeNotFound, resource+" not found")
}

// BadRequestError creates a bad request error response.
func BadRequestError(message string) APIError {
	return NewAPIError(ErrCodeBadRequest, message)
}

// InternalError creates an internal server error response.
func InternalError() APIError {
	return NewAPIError(ErrCodeInternalError, "an internal error occurred")
}

// ValidationError creates a validation error response.
func ValidationError(message string) APIError {
	return NewAPIError(ErrCodeValidation, message)
}

// ConflictError is returned when a status transition is not allowed.
func ConflictError(message string) APIError {
	return NewAPIError(ErrCodeConflict, message)
}

// UnprocessableError is returned when a statement cannot be parsed.
func UnprocessableError(message string) APIError {
	return NewAPIError(ErrCodeUnprocessable, message)
}

// UnavailableError is returned when a dependency is disabled or failing.
func UnavailableError(message string) APIError {
	return NewAPIError(ErrCodeUnavailable, message)
}

// TimeoutError is returned when a dependency did not answer in time.
func TimeoutError(message string) APIError {
	return NewAPIError(ErrCodeTimeout, message)
}

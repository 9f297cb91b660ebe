// Package errors provides structured error handling for the application.
// Every failure that crosses a component boundary is an *AppError carrying a
// stable code, so callers can pick their messaging without string matching.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"
)

// ErrorCode represents an error code
type ErrorCode string

const (
	// Client errors
	CodeBadRequest       ErrorCode = "BAD_REQUEST"
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeTooManyRequests  ErrorCode = "TOO_MANY_REQUESTS"

	// Upstream and infrastructure errors
	CodeConfig            ErrorCode = "CONFIG_ERROR"
	CodeTransport         ErrorCode = "TRANSPORT_ERROR"
	CodeAPI               ErrorCode = "API_ERROR"
	CodeMalformedResponse ErrorCode = "MALFORMED_RESPONSE"
	CodeLookupFailed      ErrorCode = "LOOKUP_FAILED"
	CodeRender            ErrorCode = "RENDER_ERROR"
	CodeInternal          ErrorCode = "INTERNAL_ERROR"
)

// AppError represents an application error with structured information
type AppError struct {
	Code     ErrorCode              `json:"code"`
	Message  string                 `json:"message"`
	Details  string                 `json:"details,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	// UpstreamStatus is the HTTP status returned by an external API. Zero when
	// the failure did not come from a remote response.
	UpstreamStatus int `json:"upstream_status,omitempty"`

	Cause      error  `json:"-"`
	StackTrace string `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// StatusCode returns the HTTP status code our own API answers with
func (e *AppError) StatusCode() int {
	switch e.Code {
	case CodeBadRequest, CodeValidationFailed:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	case CodeAPI, CodeTransport, CodeMalformedResponse, CodeLookupFailed:
		return http.StatusBadGateway
	case CodeConfig:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WithMetadata adds metadata to the error
func (e *AppError) WithMetadata(key string, value interface{}) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// WithCause adds a cause error
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message, details string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Details:    details,
		StackTrace: getStackTrace(),
	}
}

// NewBadRequestError creates a bad request error
func NewBadRequestError(message string) *AppError {
	return NewAppError(CodeBadRequest, message, "")
}

// NewValidationError creates a validation error
func NewValidationError(details string) *AppError {
	return NewAppError(CodeValidationFailed, "Validation failed", details)
}

// NewConfigError reports a missing or invalid setting, raised before any
// network call is attempted.
func NewConfigError(setting string) *AppError {
	return NewAppError(
		CodeConfig,
		"Service is not configured",
		fmt.Sprintf("%s is not set", setting),
	).WithMetadata("setting", setting)
}

// NewTransportError wraps a network-level failure reaching an external service
func NewTransportError(service string, cause error) *AppError {
	return NewAppError(
		CodeTransport,
		"External service unreachable",
		fmt.Sprintf("Failed to communicate with %s", service),
	).WithCause(cause).WithMetadata("service", service)
}

// NewAPIError reports a non-2xx answer from an external service
func NewAPIError(service string, status int, message string) *AppError {
	e := NewAppError(CodeAPI, message, fmt.Sprintf("%s returned status %d", service, status))
	e.UpstreamStatus = status
	return e.WithMetadata("service", service)
}

// NewMalformedResponseError reports a 2xx answer missing expected fields
func NewMalformedResponseError(service, details string) *AppError {
	return NewAppError(CodeMalformedResponse, "Unexpected response from external service", details).
		WithMetadata("service", service)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	message := "Resource not found"
	if resource != "" {
		message = fmt.Sprintf("%s not found", resource)
	}
	return NewAppError(CodeNotFound, message, "")
}

// NewLookupFailedError reports a failed detail fetch after a successful search
func NewLookupFailedError(item string, status int) *AppError {
	e := NewAppError(CodeLookupFailed, "Lookup failed", fmt.Sprintf("details for %q returned status %d", item, status))
	e.UpstreamStatus = status
	return e.WithMetadata("item", item)
}

// NewRenderError wraps a document construction failure
func NewRenderError(cause error) *AppError {
	return NewAppError(CodeRender, "Document rendering failed", "").WithCause(cause)
}

// NewTooManyRequestsError creates a rate limit error
func NewTooManyRequestsError() *AppError {
	return NewAppError(CodeTooManyRequests, "Rate limit exceeded", "Please try again later")
}

// NewInternalError creates an internal server error
func NewInternalError(message string) *AppError {
	if message == "" {
		message = "An unexpected error occurred"
	}
	return NewAppError(CodeInternal, message, "")
}

// Wrap wraps an error as an internal error if it's not already an AppError
func Wrap(err error, message string) *AppError {
	if err == nil {
		return nil
	}

	if appErr, ok := As(err); ok {
		return appErr
	}

	return NewInternalError(message).WithCause(err)
}

// As extracts an *AppError from anywhere in the error chain
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is checks if an error is of a specific error code
func Is(err error, code ErrorCode) bool {
	if appErr, ok := As(err); ok {
		return appErr.Code == code
	}
	return false
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return CodeInternal
}

// getStackTrace captures the current stack trace
func getStackTrace() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var builder strings.Builder
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "pkg/errors") {
			builder.WriteString(fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}

	return builder.String()
}

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Value   interface{} `json:"value"`
	Tag     string      `json:"tag"`
	Message string      `json:"message"`
}

// ValidationErrors represents multiple validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}

	if len(v) == 1 {
		return v[0].Message
	}

	var messages []string
	for _, err := range v {
		messages = append(messages, err.Message)
	}

	return strings.Join(messages, "; ")
}

// NewValidationErrors creates validation errors from validator errors
func NewValidationErrors(errors []ValidationError) *AppError {
	validationErrs := ValidationErrors(errors)

	return NewAppError(
		CodeValidationFailed,
		"Validation failed",
		validationErrs.Error(),
	).WithMetadata("validation_errors", validationErrs)
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error ErrorDetails `json:"error"`
}

// ErrorDetails represents the error details in API responses
type ErrorDetails struct {
	Code           ErrorCode              `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	UpstreamStatus int                    `json:"upstream_status,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	RequestID      string                 `json:"request_id,omitempty"`
	Timestamp      string                 `json:"timestamp"`
}

// ToErrorResponse converts an AppError to an API error response
func ToErrorResponse(err *AppError, requestID string) ErrorResponse {
	return ErrorResponse{
		Error: ErrorDetails{
			Code:           err.Code,
			Message:        err.Message,
			Details:        err.Details,
			UpstreamStatus: err.UpstreamStatus,
			Metadata:       err.Metadata,
			RequestID:      requestID,
			Timestamp:      fmt.Sprintf("%d", time.Now().Unix()),
		},
	}
}

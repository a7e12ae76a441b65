package errors

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// APIError represents a structured API error response
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// ValidationError represents validation errors
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates a new APIError with the given parameters
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails creates a new APIError with additional details
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// Error codes
const (
	CodeInvalidRequest    = "INVALID_REQUEST"
	CodeValidationFailed  = "VALIDATION_FAILED"
	CodeNotFound          = "NOT_FOUND"
	CodeInvalidMetric     = "INVALID_METRIC"
	CodeInvalidCategory   = "INVALID_CATEGORY"
	CodeLoadFailure       = "LOAD_FAILURE"
	CodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	CodeInternalServer    = "INTERNAL_SERVER_ERROR"
	CodeExportFailed      = "EXPORT_FAILED"
)

// Predefined error types for common scenarios
var (
	ErrNotFound          = New(http.StatusNotFound, CodeNotFound, "The requested resource was not found")
	ErrRateLimitExceeded = New(http.StatusTooManyRequests, CodeRateLimitExceeded, "Rate limit exceeded")
	ErrInternalServer    = New(http.StatusInternalServerError, CodeInternalServer, "An unexpected error occurred")
)

// InvalidRequestWithError creates an invalid request error with details
func InvalidRequestWithError(err error) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeInvalidRequest, "Invalid request format", err.Error())
}

// ErrValidation creates a validation error with field details
func ErrValidation(field, message string) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeValidationFailed, "Request validation failed", ValidationError{
		Field:   field,
		Message: message,
	})
}

// InvalidMetricError rejects a metric that is absent or non-numeric.
func InvalidMetricError(metric string, available []string) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeInvalidMetric,
		fmt.Sprintf("metric %q is not a numeric column", metric),
		map[string]interface{}{"metric": metric, "available": available})
}

// InvalidCategoryError rejects a category filter on an unknown or numeric field.
func InvalidCategoryError(field string, available []string) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeInvalidCategory,
		fmt.Sprintf("field %q is not a categorical column", field),
		map[string]interface{}{"field": field, "available": available})
}

// LoadFailureError reports that no sales data could be loaded. details
// usually carries the missing and failed sources.
func LoadFailureError(message string, details interface{}) *APIError {
	return NewWithDetails(http.StatusServiceUnavailable, CodeLoadFailure, message, details)
}

// ExportError wraps a failure while producing a report file.
func ExportError(format string, err error) *APIError {
	return NewWithDetails(http.StatusInternalServerError, CodeExportFailed,
		fmt.Sprintf("failed to export %s report", format), err.Error())
}

// ValidationErrors represents multiple validation errors
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// NewValidationErrors creates validation errors from multiple fields
func NewValidationErrors(errors []ValidationError) *APIError {
	return NewWithDetails(
		http.StatusBadRequest,
		CodeValidationFailed,
		"Request validation failed",
		ValidationErrors{Errors: errors},
	)
}

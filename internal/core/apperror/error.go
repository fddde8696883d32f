// Package apperror provides structured error handling for the platform.
// All business errors must use AppError for consistent API responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes. Business codes map 1:1 to the ledger's failure modes.
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"

	// Validation errors (400)
	CodeValidation = "VALIDATION_ERROR"

	// Business rule violations (422)
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeSameWarehouse     = "SAME_WAREHOUSE"
	CodeNotEditable       = "NOT_EDITABLE"
	CodeReasonTooShort    = "REASON_TOO_SHORT"
	CodeWouldUnderflow    = "WOULD_UNDERFLOW"
	CodeNothingToReverse  = "NOTHING_TO_REVERSE"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeConflict  = "CONFLICT"
	CodeDuplicate = "DUPLICATE_ENTRY"
)

// AppError is the standard error type for the platform.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (row keys, quantities, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInsufficientStock names the short row and both quantities.
// Callers pass the product id; resolving it to a description is the
// consumer's lookup.
func NewInsufficientStock(product string, required, available string) *AppError {
	return &AppError{
		Code:       CodeInsufficientStock,
		Message:    fmt.Sprintf("Insufficient stock for %s: required %s, available %s", product, required, available),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"product":   product,
			"required":  required,
			"available": available,
		},
	}
}

// NewSameWarehouse rejects a transfer whose endpoints coincide.
func NewSameWarehouse() *AppError {
	return &AppError{
		Code:       CodeSameWarehouse,
		Message:    "Source and destination warehouse must differ",
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewNotEditable rejects a correction of a non-purchase movement.
func NewNotEditable(kind string) *AppError {
	return &AppError{
		Code:       CodeNotEditable,
		Message:    "Only purchase movements may be corrected",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"kind": kind},
	}
}

// NewReasonTooShort rejects a correction with an insufficient justification.
func NewReasonTooShort(minLen int) *AppError {
	return &AppError{
		Code:       CodeReasonTooShort,
		Message:    fmt.Sprintf("Correction reason must be at least %d characters", minLen),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"min_length": minLen},
	}
}

// NewWouldUnderflow rejects a correction that would drive a stock row negative,
// meaning downstream consumption already used the over-stated amount.
func NewWouldUnderflow(product string, resulting string) *AppError {
	return &AppError{
		Code:       CodeWouldUnderflow,
		Message:    "Correction would drive stock negative; quantity was already consumed downstream",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"product":            product,
			"resulting_quantity": resulting,
		},
	}
}

// NewNothingToReverse rejects a lot rejection whose output stock was already
// moved or sold elsewhere.
func NewNothingToReverse(lotCode string, required, available string) *AppError {
	return &AppError{
		Code:       CodeNothingToReverse,
		Message:    fmt.Sprintf("Lot %s output is no longer in the warehouse and cannot be reversed", lotCode),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"lot":       lotCode,
			"required":  required,
			"available": available,
		},
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewConflict creates a conflict error (409)
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewDuplicate creates a duplicate entry error (409)
func NewDuplicate(entity, field, value string) *AppError {
	return &AppError{
		Code:       CodeDuplicate,
		Message:    fmt.Sprintf("%s with this %s already exists", entity, field),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "field": field, "value": value},
	}
}

// --- Helper functions ---

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsCode checks whether err carries the given business code.
func IsCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	return IsCode(err, CodeNotFound)
}

// internal/pkg/apperr/errors.go
package apperr

import (
	"errors"
	"net/http"
)

// Error is the application error carried from services to the HTTP layer.
// Status maps directly to the HTTP response code; Extra holds additional
// response fields such as available/requested stock quantities.
type Error struct {
	Status  int
	Message string
	Extra   map[string]interface{}
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation creates a 400 error for malformed or rejected input
func Validation(message string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: message}
}

// Unauthorized creates a 401 error for missing or invalid credentials
func Unauthorized(message string) *Error {
	return &Error{Status: http.StatusUnauthorized, Message: message}
}

// Forbidden creates a 403 error for role or ownership mismatches
func Forbidden(message string) *Error {
	return &Error{Status: http.StatusForbidden, Message: message}
}

// NotFound creates a 404 error
func NotFound(message string) *Error {
	return &Error{Status: http.StatusNotFound, Message: message}
}

// Conflict creates a 400 error for duplicate keys or state conflicts
func Conflict(message string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: message}
}

// InsufficientStock creates a 400 error carrying available stock detail.
// Pass requested < 0 to omit the requested field, matching the add-to-cart
// response which only reports availability.
func InsufficientStock(message string, available, requested int) *Error {
	extra := map[string]interface{}{"available": available}
	if requested >= 0 {
		extra["requested"] = requested
	}
	return &Error{Status: http.StatusBadRequest, Message: message, Extra: extra}
}

// InsufficientStockInCart creates a 400 error for topping up an existing
// cart line, reporting available stock alongside the quantity already in
// the cart.
func InsufficientStockInCart(message string, available, inCart int) *Error {
	return &Error{
		Status:  http.StatusBadRequest,
		Message: message,
		Extra:   map[string]interface{}{"available": available, "inCart": inCart},
	}
}

// Internal wraps an unexpected failure as a 500 error
func Internal(message string, err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: message, Err: err}
}

// From converts any error into an *Error, wrapping unknown errors as internal
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("Internal Server Error", err)
}

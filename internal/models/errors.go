// Package models contains the domain types shared across the relay core.
package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse is the standardized JSON shape for ops-API error replies.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Details   string `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// AppError is a tagged application error. Components never panic or throw
// across a package boundary; they return an *AppError (or wrap one) so the
// gateway adapter and the ops HTTP server can translate it uniformly.
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotFoundError builds a not-found error for the given resource/id.
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{Code: "NOT_FOUND", Message: fmt.Sprintf("%s with ID %v not found", resource, id)}
}

// NewValidationError builds a validation error (malformed/missing argument).
func NewValidationError(message string) *AppError {
	return &AppError{Code: "VALIDATION_ERROR", Message: message}
}

// NewUnauthorizedError builds an error for a non-admin caller of an admin command.
func NewUnauthorizedError(message string) *AppError {
	return &AppError{Code: "UNAUTHORIZED", Message: message}
}

// NewConflictError builds an error for a losing matchmaker in a binding race.
func NewConflictError(message string) *AppError {
	return &AppError{Code: "CONFLICT", Message: message}
}

// NewTransientError wraps a store/gateway timeout that the caller should retry.
func NewTransientError(err error) *AppError {
	return &AppError{Code: "TRANSIENT", Message: "temporary failure, please retry", Err: err}
}

// NewInternalError wraps an unexpected store error.
func NewInternalError(err error) *AppError {
	return &AppError{Code: "INTERNAL_ERROR", Message: "internal error", Err: err}
}

// IsNotFound reports whether err is (or wraps) a not-found AppError.
func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == "NOT_FOUND"
}

// IsConflict reports whether err is (or wraps) a conflict AppError.
func IsConflict(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == "CONFLICT"
}

// RespondWithError writes a standardized JSON error response for the ops API.
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse
	var appErr *AppError

	rid := ""
	if val := c.Locals("requestid"); val != nil {
		rid = fmt.Sprintf("%v", val)
	}

	if errors.As(err, &appErr) {
		response = ErrorResponse{Error: appErr.Message, Code: appErr.Code, RequestID: rid}
		if appErr.Err != nil {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = ErrorResponse{Error: err.Error(), RequestID: rid}
	}
	return c.Status(status).JSON(response)
}

// IsSchemaMissingError reports whether err looks like a missing-table/column
// error from a database that has not yet been migrated.
func IsSchemaMissingError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "does not exist") || strings.Contains(msg, "no such table") || strings.Contains(msg, "no such column")
}

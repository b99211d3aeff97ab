package domain

import (
	"errors"
	"fmt"
)

// ErrorCode classifies business errors so transport layers can map them.
type ErrorCode string

const (
	CodeValidation          ErrorCode = "validation_error"
	CodeNotFound            ErrorCode = "not_found"
	CodeForbidden           ErrorCode = "forbidden"
	CodeInvalidState        ErrorCode = "invalid_transition"
	CodeConflict            ErrorCode = "conflict"
	CodeResourceUnavailable ErrorCode = "resource_unavailable"
	CodeCodeMismatch        ErrorCode = "code_mismatch"
	CodeAlreadyConfirmed    ErrorCode = "already_confirmed"
)

// AppError is a typed business error. Field is set when the error refers to a single input field.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
}

func (e *AppError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewValidationError reports bad input shape or range.
func NewValidationError(message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message}
}

// NewFieldValidationError reports a validation failure tied to one input field.
func NewFieldValidationError(field, message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message, Field: field}
}

// NewNotFoundError reports a missing entity.
func NewNotFoundError(entity, id string) *AppError {
	return &AppError{Code: CodeNotFound, Message: fmt.Sprintf("%s %s not found", entity, id)}
}

// NewForbiddenError reports an authorization failure.
func NewForbiddenError(message string) *AppError {
	return &AppError{Code: CodeForbidden, Message: message}
}

// NewInvalidStateError reports a state machine violation.
func NewInvalidStateError(from, to string) *AppError {
	return &AppError{Code: CodeInvalidState, Message: fmt.Sprintf("cannot transition from %s to %s", from, to)}
}

// NewConflictError reports a concurrent modification or uniqueness clash.
func NewConflictError(message string) *AppError {
	return &AppError{Code: CodeConflict, Message: message}
}

// NewResourceUnavailableError reports an overlapping reservation for a car or driver.
func NewResourceUnavailableError(resource, id string) *AppError {
	return &AppError{
		Code:    CodeResourceUnavailable,
		Message: fmt.Sprintf("%s %s is not available for the requested dates", resource, id),
		Field:   resource + "_id",
	}
}

// NewCodeMismatchError reports a booking code that does not match the booking.
func NewCodeMismatchError() *AppError {
	return &AppError{Code: CodeCodeMismatch, Message: "booking code mismatch", Field: "booking_code"}
}

// NewAlreadyConfirmedError reports a second confirmation with a different payment.
func NewAlreadyConfirmedError(bookingID string) *AppError {
	return &AppError{Code: CodeAlreadyConfirmed, Message: fmt.Sprintf("booking %s is already confirmed", bookingID)}
}

// IsCode reports whether err (or anything it wraps) is an AppError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// AsAppError unwraps err into an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}

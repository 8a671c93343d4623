package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound          = errors.New("not found")
	ErrNotAuthorized     = errors.New("not authorized")
	ErrAlreadyExists     = errors.New("already exists")
	ErrValidation        = errors.New("validation error")
	ErrInvalidParameters = errors.New("invalid parameters")
	ErrMalformedAction   = errors.New("malformed action")
	ErrInternal          = errors.New("internal error")
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s — %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// InvalidParameterError names the specific RPC parameter that was missing or
// of the wrong type. The transport layer forwards the parameter name to the
// client in the error data field.
type InvalidParameterError struct {
	Param string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter: %s", e.Param)
}

func (e *InvalidParameterError) Unwrap() error { return ErrInvalidParameters }

// NewInvalidParameterError creates an InvalidParameterError for one parameter.
func NewInvalidParameterError(param string) *InvalidParameterError {
	return &InvalidParameterError{Param: param}
}

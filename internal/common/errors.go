package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("document not found")
	ErrDuplicateID  = errors.New("duplicate document id")
	ErrInvalidState = errors.New("invalid document state")
	ErrOutOfRange   = errors.New("out of range")
	ErrEmptyRegion  = errors.New("degenerate crop region")
	ErrInvalidInput = errors.New("invalid input")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WorkflowError classifies err against the sentinel set and returns it as an
// AppError carrying a stable machine-readable code for API consumers.
func WorkflowError(err error) *AppError {
	code := "INTERNAL"
	switch {
	case errors.Is(err, ErrNotFound):
		code = "NOT_FOUND"
	case errors.Is(err, ErrDuplicateID):
		code = "DUPLICATE_ID"
	case errors.Is(err, ErrInvalidState):
		code = "INVALID_STATE"
	case errors.Is(err, ErrOutOfRange):
		code = "OUT_OF_RANGE"
	case errors.Is(err, ErrEmptyRegion):
		code = "EMPTY_REGION"
	case errors.Is(err, ErrInvalidInput):
		code = "INVALID_INPUT"
	}
	return NewAppError(code, err.Error(), err)
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

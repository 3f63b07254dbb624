package models

import (
	"errors"
	"fmt"
)

// Custom errors
var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateKey      = errors.New("duplicate key violation")
	ErrInvalidID         = errors.New("invalid ID format")
	ErrInsufficientFunds = errors.New("insufficient account balance")
	ErrBetNotPending     = errors.New("bet is not pending")
)

// ValidationError describes a domain validation failure with a stable code
type ValidationError struct {
	Code    string
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewValidationError creates a ValidationError with the given code and message
func NewValidationError(code, message string) *ValidationError {
	return &ValidationError{Code: code, Message: message}
}

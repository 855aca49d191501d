package domain

import "errors"

// ErrPhoneNotFound is returned when an edit targets a phone the record does not hold.
var ErrPhoneNotFound = errors.New("the phone number doesn't exist")

// ValidationError represents a field value that failed validation.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return e.Field + " " + e.Value + ": " + e.Message
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, value, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// IsValidationError reports whether err wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

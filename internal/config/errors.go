package config

import (
	"errors"
	"fmt"
)

// ValidationError represents a persona configuration problem.
//
// Validation errors include:
//   - Schema violations: the YAML does not satisfy the persona schema
//   - Bad values: unparseable amounts, dates, weekdays, or months
//   - Structural problems: unreadable files or duplicate business keys
//
// ValidationError includes structured fields so callers can report exactly
// which business and field is at fault.
type ValidationError struct {
	// Code identifies the error category.
	Code ValidationErrorCode

	// Business is the persona key the error belongs to, when known.
	Business string

	// Field is the dotted path of the offending field, when known.
	Field string

	// Message is a human-readable description.
	Message string
}

// ValidationErrorCode categorizes validation errors.
type ValidationErrorCode string

const (
	// ErrCodeSchema indicates the file does not satisfy the persona schema.
	ErrCodeSchema ValidationErrorCode = "SCHEMA_VIOLATION"

	// ErrCodeBadValue indicates a field that parsed but holds a value the
	// loader cannot use.
	ErrCodeBadValue ValidationErrorCode = "BAD_VALUE"

	// ErrCodeUnreadable indicates a file that could not be read or decoded.
	ErrCodeUnreadable ValidationErrorCode = "UNREADABLE"

	// ErrCodeDuplicate indicates two files claiming the same business key.
	ErrCodeDuplicate ValidationErrorCode = "DUPLICATE_KEY"
)

// Error implements the error interface.
func (e *ValidationError) Error() string {
	switch {
	case e.Business != "" && e.Field != "":
		return fmt.Sprintf("%s: %s (business=%s, field=%s)", e.Code, e.Message, e.Business, e.Field)
	case e.Business != "":
		return fmt.Sprintf("%s: %s (business=%s)", e.Code, e.Message, e.Business)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsSchemaError reports whether err is a persona schema violation.
// Uses errors.As to handle wrapped errors.
func IsSchemaError(err error) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Code == ErrCodeSchema
	}
	return false
}

func badValue(business, field, message string) *ValidationError {
	return &ValidationError{Code: ErrCodeBadValue, Business: business, Field: field, Message: message}
}

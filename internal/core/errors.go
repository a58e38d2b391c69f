package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrAmountScale   = errors.New("amount has more than 2 decimal places")
	ErrInvalidMonth  = errors.New("invalid month")
	ErrInvalidYear   = errors.New("invalid year")

	// ErrNotFound is returned at the boundary when an entity is absent or
	// owned by another user. Stores report absence with a boolean instead.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized means no current user could be resolved.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAdviceUnavailable covers every failure of the advice generator,
	// including unparseable replies.
	ErrAdviceUnavailable = errors.New("advice generation unavailable")

	// ErrAdviceTimeout is returned when the advice generator exceeds its deadline.
	ErrAdviceTimeout = errors.New("advice generation timed out")
)

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"code"`
	Message string `json:"message"`
}

// ValidationError carries field-level details for a rejected input.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, tag, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Tag: tag, Message: message}}}
}

// AsValidation unwraps err into a ValidationError when it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

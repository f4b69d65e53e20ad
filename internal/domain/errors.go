package domain

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrValidation        = errors.New("validation failed")
	ErrInvalidQuery      = errors.New("invalid query")
	ErrNotFound          = errors.New("document not found")
	ErrNotReady          = errors.New("database not ready")
)

// InputError is a rejected request carrying a message that is safe to show the client.
type InputError struct {
	kind    error
	Message string
}

func (e *InputError) Error() string {
	return e.Message
}

func (e *InputError) Unwrap() error {
	return e.kind
}

// NewValidationError reports a missing, mistyped or out of range body field.
func NewValidationError(format string, args ...interface{}) error {
	return &InputError{kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

// NewQueryError reports an unusable list query parameter.
func NewQueryError(format string, args ...interface{}) error {
	return &InputError{kind: ErrInvalidQuery, Message: fmt.Sprintf(format, args...)}
}

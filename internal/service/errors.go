package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Freeeeeet/supervision/internal/model"
	"github.com/Freeeeeet/supervision/internal/storage"
)

// ErrNotFound is returned when an id passed to the service does not resolve.
var ErrNotFound = storage.ErrNotFound

// FieldError is used to indicate an error with a specific input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is a business-rule or input violation. The operation that
// returned it made no writes.
type ValidationError struct {
	Fields []FieldError `json:"errors"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Message returns the message for a field, or "" if the field has no error
func (e *ValidationError) Message(field string) string {
	for _, f := range e.Fields {
		if f.Field == field {
			return f.Message
		}
	}
	return ""
}

// NewValidationError создаёт ошибку валидации для одного поля
func NewValidationError(field, format string, args ...any) error {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: fmt.Sprintf(format, args...)}}}
}

// IsValidationError reports whether err carries a *ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// AsValidationError unwraps err into a *ValidationError
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}

// statusError превращает ошибку перехода состояния в ошибку валидации поля status
func statusError(err error) error {
	var te *model.TransitionError
	if errors.As(err, &te) {
		return NewValidationError("status", "%s", te.Error())
	}
	return err
}

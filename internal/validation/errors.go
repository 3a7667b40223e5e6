package validation

import (
	"fmt"
	"strings"
)

/* FieldError describes one rejected input location */
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

/* Error is returned for input that fails validation. It lists every failing field. */
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return "invalid input"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

/* NewError builds a single-field validation error */
func NewError(field, format string, args ...interface{}) *Error {
	return &Error{Fields: []FieldError{{Field: field, Message: fmt.Sprintf(format, args...)}}}
}

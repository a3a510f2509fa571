package quotes

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound  = errors.New("quote not found")
	ErrDuplicate = errors.New("quote already exists")
)

// FieldViolation describes one invalid or missing extracted field.
type FieldViolation struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError enumerates every violation found in an extraction, not
// just the first one.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = fmt.Sprintf("%s: %s", v.Field, v.Reason)
	}
	return "invalid quotation: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, reason string) {
	e.Violations = append(e.Violations, FieldViolation{Field: field, Reason: reason})
}

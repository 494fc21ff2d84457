package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidation is matched by every error produced from ValidationErrors.
var ErrValidation = errors.New("validation failed")

// ValidationError describes a single invalid field.
type ValidationError struct {
	// Field is the dotted path of the offending field (e.g. "inputs[1].type").
	Field string `json:"field"`

	// Message is a human-readable description of the problem.
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates field-level validation failures.
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// AddMessage records a failure for field.
func (v *ValidationErrors) AddMessage(field, message string) {
	v.Errors = append(v.Errors, ValidationError{Field: field, Message: message})
}

// Addf records a formatted failure for field.
func (v *ValidationErrors) Addf(field, format string, args ...any) {
	v.AddMessage(field, fmt.Sprintf(format, args...))
}

// Empty reports whether no failures were recorded.
func (v *ValidationErrors) Empty() bool {
	return v == nil || len(v.Errors) == 0
}

// Err returns v as an error, or nil when nothing was recorded.
func (v *ValidationErrors) Err() error {
	if v.Empty() {
		return nil
	}
	return v
}

func (v *ValidationErrors) Error() string {
	parts := make([]string, 0, len(v.Errors))
	for _, e := range v.Errors {
		parts = append(parts, e.Error())
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

// Is lets errors.Is(err, ErrValidation) match.
func (v *ValidationErrors) Is(target error) bool {
	return target == ErrValidation
}

// Fields returns the names of all failing fields in record order.
func (v *ValidationErrors) Fields() []string {
	if v == nil {
		return nil
	}
	fields := make([]string, 0, len(v.Errors))
	for _, e := range v.Errors {
		fields = append(fields, e.Field)
	}
	return fields
}

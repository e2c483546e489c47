package models

import (
	"fmt"
	"sort"
	"strings"
)

// FieldError describes a single offending field in an input record
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates every field failure found in one input scan.
// It is only returned after the whole input has been examined, so callers
// can report all problems at once.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

// Add records a failure for a field
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// HasErrors reports whether any field failed
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	sort.Strings(parts)
	return "validation failed: " + strings.Join(parts, "; ")
}

// ConstraintViolation means a relationship input referenced an existing node
// whose type is outside the predicate's allowed target set. It is treated as
// a validation error subtype by the sanitizer.
type ConstraintViolation struct {
	Field     string
	TargetUID string
	Allowed   []string
	Got       []string
}

func (e *ConstraintViolation) Error() string {
	return fmt.Sprintf("%s: node %s has type %s, allowed types are %s",
		e.Field, e.TargetUID, strings.Join(e.Got, ","), strings.Join(e.Allowed, ","))
}

// PermissionError means the actor's level is below what the operation or a
// specific field requires. It always fails the whole operation.
type PermissionError struct {
	Message  string
	Required PermissionLevel
	Actual   PermissionLevel
}

func (e *PermissionError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("permission level %d required, actor has %d", e.Required, e.Actual)
}

// ForbiddenTypeError means untrusted filter input referenced a private or
// unknown entity type.
type ForbiddenTypeError struct {
	Type string
}

func (e *ForbiddenTypeError) Error() string {
	return fmt.Sprintf("type %q is not queryable", e.Type)
}

// ConfigurationError marks an invalid schema declaration. It is only raised
// while the registry is being built at startup, never at request time.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return "schema configuration: " + e.Message
}

// DuplicateError reports that a create collided with an existing entry. The
// caller decides whether to reuse the existing uid or force-create.
type DuplicateError struct {
	UID        string `json:"uid"`
	UniqueName string `json:"unique_name"`
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("possible duplicate of %s (%s)", e.UID, e.UniqueName)
}

// EnrichmentError means an external collaborator (geocoder, profile lookup)
// failed or returned ambiguous data for a field.
type EnrichmentError struct {
	Field  string
	Source string
	Err    error
}

func (e *EnrichmentError) Error() string {
	return fmt.Sprintf("%s: %s lookup failed: %v", e.Field, e.Source, e.Err)
}

func (e *EnrichmentError) Unwrap() error {
	return e.Err
}

package model

import (
	"errors"
	"strings"
)

var (
	// ErrConfiguration marks malformed form definitions. It is matched by
	// every *SchemaError through errors.Is.
	ErrConfiguration = errors.New("formforge: invalid form configuration")
	// ErrNotFound is returned by stores when no form carries the id.
	ErrNotFound = errors.New("formforge: form not found")
	// ErrUnknownField is returned when a runtime operation names a field the
	// form does not declare.
	ErrUnknownField = errors.New("formforge: unknown field")
	// ErrDerivedField is returned when callers try to set a computed field.
	ErrDerivedField = errors.New("formforge: field is derived")
)

// Issue is a single configuration problem tied to an optional field id.
type Issue struct {
	FieldID string `json:"fieldId,omitempty"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	if i.FieldID == "" {
		return i.Message
	}
	return i.FieldID + ": " + i.Message
}

// SchemaError collects every configuration issue found in a form
// definition.
type SchemaError struct {
	Issues []Issue
}

func (e *SchemaError) Error() string {
	if e == nil || len(e.Issues) == 0 {
		return ErrConfiguration.Error()
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.String())
	}
	return ErrConfiguration.Error() + ": " + strings.Join(parts, "; ")
}

// Is lets errors.Is(err, ErrConfiguration) match schema errors.
func (e *SchemaError) Is(target error) bool {
	return target == ErrConfiguration
}

// Add appends an issue.
func (e *SchemaError) Add(fieldID, message string) {
	e.Issues = append(e.Issues, Issue{FieldID: fieldID, Message: message})
}

// Merge appends the issues carried by err when it is a *SchemaError; other
// errors are recorded as a form-level issue.
func (e *SchemaError) Merge(err error) {
	if err == nil {
		return
	}
	var schemaErr *SchemaError
	if errors.As(err, &schemaErr) {
		e.Issues = append(e.Issues, schemaErr.Issues...)
		return
	}
	e.Add("", err.Error())
}

// Err returns e when it carries issues and nil otherwise.
func (e *SchemaError) Err() error {
	if e == nil || len(e.Issues) == 0 {
		return nil
	}
	return e
}

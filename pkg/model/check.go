package model

import (
	"fmt"
	"strings"
)

// Check lints a field list for structural problems: identity, types, option
// lists, default values and derivation references. It returns a *SchemaError
// listing every issue, or nil when the fields are well formed.
//
// Derived fields may only depend on non-derived fields. This rules out both
// cycles and multi-level chains, which the derivation engine does not order.
func Check(fields []FormField) error {
	report := &SchemaError{}
	index := make(map[string]FormField, len(fields))

	for pos, field := range fields {
		id := strings.TrimSpace(field.ID)
		if id == "" {
			report.Add("", fmt.Sprintf("field at position %d has no id", pos))
			continue
		}
		if _, exists := index[id]; exists {
			report.Add(id, "duplicate field id")
			continue
		}
		index[id] = field
	}

	for _, field := range fields {
		if strings.TrimSpace(field.ID) == "" {
			continue
		}
		checkField(field, index, report)
	}
	return report.Err()
}

func checkField(field FormField, index map[string]FormField, report *SchemaError) {
	if !field.Type.Valid() {
		report.Add(field.ID, fmt.Sprintf("unknown field type %q", field.Type))
		return
	}

	if field.Type.RequiresOptions() {
		if len(field.Options) == 0 {
			report.Add(field.ID, fmt.Sprintf("%s field requires at least one option", field.Type))
		}
	} else if len(field.Options) > 0 {
		report.Add(field.ID, fmt.Sprintf("%s field must not declare options", field.Type))
	}

	if rules := field.Validations; rules.MinLength != nil && rules.MaxLength != nil && *rules.MinLength > *rules.MaxLength {
		report.Add(field.ID, "minLength exceeds maxLength")
	}

	if field.DefaultValue != nil && field.DefaultValue.IsSet() && !defaultMatches(field) {
		report.Add(field.ID, fmt.Sprintf("default value of kind %s does not match type %s", field.DefaultValue.Kind(), field.Type))
	}

	if !field.IsDerived {
		if field.Derivation != nil {
			report.Add(field.ID, "derivation declared on a non-derived field")
		}
		return
	}
	if field.Derivation == nil {
		report.Add(field.ID, "derived field has no derivation")
		return
	}
	if len(field.Derivation.ParentFieldIDs) == 0 {
		report.Add(field.ID, "derivation lists no parent fields")
	}
	for _, parentID := range field.Derivation.ParentFieldIDs {
		if parentID == field.ID {
			report.Add(field.ID, "derivation references itself")
			continue
		}
		parent, ok := index[parentID]
		if !ok {
			report.Add(field.ID, fmt.Sprintf("derivation references unknown field %q", parentID))
			continue
		}
		if parent.IsDerived {
			report.Add(field.ID, fmt.Sprintf("derivation parent %q is itself derived", parentID))
		}
	}
}

func defaultMatches(field FormField) bool {
	value := *field.DefaultValue
	switch field.Type {
	case FieldTypeCheckbox:
		return value.Kind() == KindBool
	case FieldTypeNumber:
		_, ok := value.AsNumber()
		return ok
	case FieldTypeDate:
		_, ok := value.AsDate()
		return ok
	case FieldTypeDropdown, FieldTypeRadio:
		s, ok := value.Str()
		if !ok {
			return false
		}
		for _, option := range field.Options {
			if option == s {
				return true
			}
		}
		return false
	default:
		return value.Kind() == KindString
	}
}

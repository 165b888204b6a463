package model

import (
	"encoding/json"
	"time"
)

// FieldType is the closed set of input kinds a form field can declare.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeEmail    FieldType = "email"
	FieldTypeNumber   FieldType = "number"
	FieldTypePassword FieldType = "password"
	FieldTypeTextarea FieldType = "textarea"
	FieldTypeDropdown FieldType = "dropdown"
	FieldTypeRadio    FieldType = "radio"
	FieldTypeCheckbox FieldType = "checkbox"
	FieldTypeDate     FieldType = "date"
)

// FieldTypes lists every supported type in builder palette order.
var FieldTypes = []FieldType{
	FieldTypeText,
	FieldTypeEmail,
	FieldTypeNumber,
	FieldTypePassword,
	FieldTypeTextarea,
	FieldTypeDropdown,
	FieldTypeRadio,
	FieldTypeCheckbox,
	FieldTypeDate,
}

// Valid reports whether t is one of the known field types.
func (t FieldType) Valid() bool {
	for _, known := range FieldTypes {
		if t == known {
			return true
		}
	}
	return false
}

// TextLike reports whether length and pattern constraints apply to t.
func (t FieldType) TextLike() bool {
	switch t {
	case FieldTypeText, FieldTypeTextarea, FieldTypePassword:
		return true
	default:
		return false
	}
}

// RequiresOptions reports whether t is a choice type that needs an options
// list.
func (t FieldType) RequiresOptions() bool {
	return t == FieldTypeDropdown || t == FieldTypeRadio
}

// FormulaAge computes whole years elapsed since a single date parent.
const FormulaAge = "age"

// ValidationRules holds the optional per-field constraints. MinLength,
// MaxLength and Pattern only take effect on text-like types.
type ValidationRules struct {
	Required  bool   `json:"required,omitempty"`
	MinLength *int   `json:"minLength,omitempty"`
	MaxLength *int   `json:"maxLength,omitempty"`
	Pattern   string `json:"pattern,omitempty"`
}

// Derivation describes how a derived field computes its value from other
// fields. Formula is an open key resolved by the derivation engine.
type Derivation struct {
	ParentFieldIDs []string `json:"parentFieldIds"`
	Formula        string   `json:"formula"`
}

// FormField is a single input of a form definition.
type FormField struct {
	ID           string          `json:"id"`
	Label        string          `json:"label"`
	Type         FieldType       `json:"type"`
	Placeholder  string          `json:"placeholder,omitempty"`
	Options      []string        `json:"options,omitempty"`
	Validations  ValidationRules `json:"validations"`
	DefaultValue *Value          `json:"defaultValue,omitempty"`
	IsDerived    bool            `json:"isDerived,omitempty"`
	Derivation   *Derivation     `json:"derivation,omitempty"`
}

// UnmarshalJSON decodes the persisted field shape. A date field's default is
// stored as a plain string, so it is coerced back into a date value here.
func (f *FormField) UnmarshalJSON(data []byte) error {
	type alias FormField
	var decoded alias
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*f = FormField(decoded)
	f.DefaultValue = coerceDefault(f.Type, f.DefaultValue)
	return nil
}

func coerceDefault(typ FieldType, value *Value) *Value {
	if value == nil || typ != FieldTypeDate {
		return value
	}
	if date, ok := value.AsDate(); ok {
		coerced := Date(date)
		return &coerced
	}
	return value
}

// Clone returns a deep copy of the field.
func (f FormField) Clone() FormField {
	out := f
	if f.Options != nil {
		out.Options = append([]string(nil), f.Options...)
	}
	if f.Validations.MinLength != nil {
		n := *f.Validations.MinLength
		out.Validations.MinLength = &n
	}
	if f.Validations.MaxLength != nil {
		n := *f.Validations.MaxLength
		out.Validations.MaxLength = &n
	}
	if f.DefaultValue != nil {
		v := *f.DefaultValue
		out.DefaultValue = &v
	}
	if f.Derivation != nil {
		d := *f.Derivation
		d.ParentFieldIDs = append([]string(nil), f.Derivation.ParentFieldIDs...)
		out.Derivation = &d
	}
	return out
}

// FormConfig is a complete, persistable form definition. Fields are kept in
// display order.
//
// Timestamps persist as UTC with millisecond precision. Values built from
// time.Now or in another location only survive a round trip unchanged once
// passed through NormalizeTimestamp (or Normalize).
type FormConfig struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	CreatedAt time.Time   `json:"-"`
	UpdatedAt time.Time   `json:"-"`
	Fields    []FormField `json:"fields"`
}

// TimestampLayout is the ISO-8601 layout used for persisted timestamps.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

type formConfigJSON struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	CreatedAt string      `json:"createdAt"`
	UpdatedAt string      `json:"updatedAt"`
	Fields    []FormField `json:"fields"`
}

// MarshalJSON writes timestamps as millisecond-precision UTC ISO-8601
// strings.
func (c FormConfig) MarshalJSON() ([]byte, error) {
	fields := c.Fields
	if fields == nil {
		fields = []FormField{}
	}
	return json.Marshal(formConfigJSON{
		ID:        c.ID,
		Name:      c.Name,
		CreatedAt: FormatTimestamp(c.CreatedAt),
		UpdatedAt: FormatTimestamp(c.UpdatedAt),
		Fields:    fields,
	})
}

// UnmarshalJSON parses the persisted representation.
func (c *FormConfig) UnmarshalJSON(data []byte) error {
	var raw formConfigJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	created, err := ParseTimestamp(raw.CreatedAt)
	if err != nil {
		return err
	}
	updated, err := ParseTimestamp(raw.UpdatedAt)
	if err != nil {
		return err
	}
	*c = FormConfig{
		ID:        raw.ID,
		Name:      raw.Name,
		CreatedAt: created,
		UpdatedAt: updated,
		Fields:    raw.Fields,
	}
	return nil
}

// NormalizeTimestamp returns t in the form it has after persisting: UTC,
// truncated to milliseconds. The zero time is returned unchanged.
func NormalizeTimestamp(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC().Truncate(time.Millisecond)
}

// Normalize returns a copy with both timestamps normalized.
func (c FormConfig) Normalize() FormConfig {
	out := c.Clone()
	out.CreatedAt = NormalizeTimestamp(c.CreatedAt)
	out.UpdatedAt = NormalizeTimestamp(c.UpdatedAt)
	return out
}

// FormatTimestamp renders t in the persisted layout. The zero time renders as
// an empty string.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp accepts any RFC 3339 timestamp. Empty input yields the zero
// time.
func ParseTimestamp(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// Field returns the field with the supplied id.
func (c FormConfig) Field(id string) (FormField, bool) {
	for _, field := range c.Fields {
		if field.ID == id {
			return field, true
		}
	}
	return FormField{}, false
}

// Clone returns a deep copy of the form so callers can mutate it without
// affecting the original.
func (c FormConfig) Clone() FormConfig {
	out := c
	if c.Fields != nil {
		out.Fields = make([]FormField, len(c.Fields))
		for idx, field := range c.Fields {
			out.Fields[idx] = field.Clone()
		}
	}
	return out
}

package builder

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-formforge/pkg/model"
)

// DefaultFormName is given to freshly created forms.
const DefaultFormName = "Untitled Form"

// IDGenerator produces new form and field ids.
type IDGenerator func() string

// UUIDGenerator returns random (version 4) UUID strings.
func UUIDGenerator() string {
	return uuid.NewString()
}

// Editor applies builder operations to a form held in memory. Nothing is
// persisted until the form is handed to Library.Save.
type Editor struct {
	form  model.FormConfig
	newID IDGenerator
}

// NewForm returns an editor over a brand-new, empty form with a fresh id and
// matching creation and update timestamps.
func NewForm(now time.Time, newID IDGenerator) *Editor {
	if newID == nil {
		newID = UUIDGenerator
	}
	stamp := model.NormalizeTimestamp(now)
	return &Editor{
		form: model.FormConfig{
			ID:        newID(),
			Name:      DefaultFormName,
			CreatedAt: stamp,
			UpdatedAt: stamp,
			Fields:    []model.FormField{},
		},
		newID: newID,
	}
}

// Edit returns an editor over a copy of an existing form.
func Edit(form model.FormConfig, newID IDGenerator) *Editor {
	if newID == nil {
		newID = UUIDGenerator
	}
	return &Editor{form: form.Clone(), newID: newID}
}

// Form returns a copy of the form being edited.
func (e *Editor) Form() model.FormConfig {
	return e.form.Clone()
}

// Rename sets the form name.
func (e *Editor) Rename(name string) {
	e.form.Name = name
}

// AddField appends a field of the given type with a placeholder label. Choice
// fields start with a single option.
func (e *Editor) AddField(typ model.FieldType) (model.FormField, error) {
	if !typ.Valid() {
		return model.FormField{}, fmt.Errorf("builder: unknown field type %q", typ)
	}
	field := model.FormField{
		ID:    e.newID(),
		Label: fmt.Sprintf("New %s field", typ),
		Type:  typ,
	}
	if typ.RequiresOptions() {
		field.Options = []string{"Option 1"}
	}
	e.form.Fields = append(e.form.Fields, field)
	return field.Clone(), nil
}

// AddAgeField appends a derived number field computing the age from the date
// field parentID.
func (e *Editor) AddAgeField(parentID, label string) (model.FormField, error) {
	parent, ok := e.form.Field(parentID)
	if !ok {
		return model.FormField{}, fmt.Errorf("builder: %w: %q", model.ErrUnknownField, parentID)
	}
	if parent.Type != model.FieldTypeDate {
		return model.FormField{}, fmt.Errorf("builder: age requires a date field, %q is %s", parentID, parent.Type)
	}
	if label == "" {
		label = "Age"
	}
	field := model.FormField{
		ID:        e.newID(),
		Label:     label,
		Type:      model.FieldTypeNumber,
		IsDerived: true,
		Derivation: &model.Derivation{
			ParentFieldIDs: []string{parentID},
			Formula:        model.FormulaAge,
		},
	}
	e.form.Fields = append(e.form.Fields, field)
	return field.Clone(), nil
}

// UpdateField applies fn to the field with id. The id itself cannot change.
func (e *Editor) UpdateField(id string, fn func(*model.FormField)) error {
	idx := e.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("builder: %w: %q", model.ErrUnknownField, id)
	}
	field := e.form.Fields[idx].Clone()
	fn(&field)
	field.ID = id
	if field.Type.RequiresOptions() && len(field.Options) == 0 {
		field.Options = []string{"Option 1"}
	}
	if !field.Type.RequiresOptions() {
		field.Options = nil
	}
	e.form.Fields[idx] = field
	return nil
}

// RemoveField deletes the field with id. Removing a field that other fields
// derive from is refused.
func (e *Editor) RemoveField(id string) error {
	idx := e.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("builder: %w: %q", model.ErrUnknownField, id)
	}
	for _, field := range e.form.Fields {
		if field.Derivation == nil {
			continue
		}
		for _, parent := range field.Derivation.ParentFieldIDs {
			if parent == id {
				return fmt.Errorf("builder: field %q is used by derived field %q", id, field.ID)
			}
		}
	}
	e.form.Fields = append(e.form.Fields[:idx], e.form.Fields[idx+1:]...)
	return nil
}

// MoveField moves the field with id to position to, shifting the others.
func (e *Editor) MoveField(id string, to int) error {
	idx := e.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("builder: %w: %q", model.ErrUnknownField, id)
	}
	if to < 0 || to >= len(e.form.Fields) {
		return fmt.Errorf("builder: position %d out of range", to)
	}
	field := e.form.Fields[idx]
	rest := append(e.form.Fields[:idx:idx], e.form.Fields[idx+1:]...)
	out := make([]model.FormField, 0, len(e.form.Fields))
	out = append(out, rest[:to]...)
	out = append(out, field)
	out = append(out, rest[to:]...)
	e.form.Fields = out
	return nil
}

// AddOption appends "Option N" to a choice field.
func (e *Editor) AddOption(id string) error {
	return e.withChoice(id, func(field *model.FormField) error {
		field.Options = append(field.Options, fmt.Sprintf("Option %d", len(field.Options)+1))
		return nil
	})
}

// UpdateOption replaces the option at index.
func (e *Editor) UpdateOption(id string, index int, value string) error {
	return e.withChoice(id, func(field *model.FormField) error {
		if index < 0 || index >= len(field.Options) {
			return fmt.Errorf("builder: option %d out of range", index)
		}
		field.Options[index] = value
		return nil
	})
}

// RemoveOption deletes the option at index. The last option cannot be
// removed since choice fields need at least one.
func (e *Editor) RemoveOption(id string, index int) error {
	return e.withChoice(id, func(field *model.FormField) error {
		if index < 0 || index >= len(field.Options) {
			return fmt.Errorf("builder: option %d out of range", index)
		}
		if len(field.Options) == 1 {
			return fmt.Errorf("builder: %s field needs at least one option", field.Type)
		}
		field.Options = append(field.Options[:index], field.Options[index+1:]...)
		return nil
	})
}

func (e *Editor) withChoice(id string, fn func(*model.FormField) error) error {
	idx := e.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("builder: %w: %q", model.ErrUnknownField, id)
	}
	field := &e.form.Fields[idx]
	if !field.Type.RequiresOptions() {
		return fmt.Errorf("builder: field %q of type %s has no options", id, field.Type)
	}
	return fn(field)
}

func (e *Editor) indexOf(id string) int {
	for idx, field := range e.form.Fields {
		if field.ID == id {
			return idx
		}
	}
	return -1
}

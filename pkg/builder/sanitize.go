package builder

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formforge/pkg/model"
)

// Sanitizer strips markup from the human-readable parts of a form: its name,
// field labels, placeholders, options and text defaults. It implements
// model.Decorator.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer returns a sanitizer using bluemonday's strict policy.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// maxSanitizePasses bounds how many layers of entity encoding Text unwraps.
const maxSanitizePasses = 8

// Text sanitises a single string. Entities are decoded after the policy runs
// so plain ampersands survive, and the policy runs again on the decoded text
// until nothing changes. Text is idempotent.
func (s *Sanitizer) Text(value string) string {
	if value == "" {
		return value
	}
	current := value
	for pass := 0; pass < maxSanitizePasses; pass++ {
		next := strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(current)))
		if next == current {
			return next
		}
		current = next
	}
	// still decoding: keep the policy's escaped output
	return strings.TrimSpace(s.policy.Sanitize(current))
}

// Decorate sanitises form in place.
func (s *Sanitizer) Decorate(form *model.FormConfig) error {
	if form == nil {
		return nil
	}
	form.Name = s.Text(form.Name)
	for idx := range form.Fields {
		field := &form.Fields[idx]
		field.Label = s.Text(field.Label)
		field.Placeholder = s.Text(field.Placeholder)
		for optIdx, option := range field.Options {
			field.Options[optIdx] = s.Text(option)
		}
		if field.DefaultValue != nil {
			if str, ok := field.DefaultValue.Str(); ok && field.Type != model.FieldTypePassword {
				cleaned := model.String(s.Text(str))
				field.DefaultValue = &cleaned
			}
		}
	}
	return nil
}

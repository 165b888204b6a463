package validation

import (
	"github.com/goliatone/go-formforge/pkg/model"
)

// Validator is the compiled whole-form validator. It is immutable and safe to
// share between sessions of the same form.
type Validator struct {
	rules map[string]FieldRule
	order []string
}

// Rule returns the compiled rule for a user-entered field.
func (v *Validator) Rule(id string) (FieldRule, bool) {
	if v == nil {
		return FieldRule{}, false
	}
	rule, ok := v.rules[id]
	return rule, ok
}

// FieldIDs lists the validated fields in display order.
func (v *Validator) FieldIDs() []string {
	if v == nil {
		return nil
	}
	return append([]string(nil), v.order...)
}

// Field checks a single value. Fields without rules (derived or unknown ids)
// always pass.
func (v *Validator) Field(id string, value model.Value) Outcome {
	rule, ok := v.Rule(id)
	if !ok {
		return pass()
	}
	return rule.Validate(value)
}

// Validate checks every validated field against values and never fails to
// produce an answer.
func (v *Validator) Validate(values model.Values) Result {
	result := Result{}
	if v == nil {
		return result
	}
	for _, id := range v.order {
		outcome := v.rules[id].Validate(values.Get(id))
		if outcome.Valid {
			continue
		}
		if result.Errors == nil {
			result.Errors = make(map[string]string)
		}
		result.Errors[id] = outcome.Message
		result.order = append(result.order, id)
	}
	return result
}

// Result maps failing field ids to their message. Passing fields are absent.
type Result struct {
	Errors map[string]string `json:"errors,omitempty"`
	order  []string
}

// Valid reports whether no field failed.
func (r Result) Valid() bool { return len(r.Errors) == 0 }

// Error returns the message for id and whether the field failed.
func (r Result) Error(id string) (string, bool) {
	msg, ok := r.Errors[id]
	return msg, ok
}

// FieldIDs lists the failing field ids in display order.
func (r Result) FieldIDs() []string {
	return append([]string(nil), r.order...)
}

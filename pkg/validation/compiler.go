package validation

import (
	"fmt"
	"unicode/utf8"

	"github.com/goliatone/go-formforge/pkg/model"
)

// EmailPattern is the address syntax accepted by email fields.
const EmailPattern = `^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`

var emailRe = MustCompilePattern(EmailPattern)

// Message used when an email field holds a malformed address.
const MessageInvalidEmail = "Invalid email address."

// Outcome is the result of checking one value against one field.
type Outcome struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

func pass() Outcome { return Outcome{Valid: true} }

func fail(format string, args ...any) Outcome {
	return Outcome{Message: fmt.Sprintf(format, args...)}
}

// check is one link in a field's rule chain. It only sees non-empty values
// unless it is the required check.
type check func(model.Value) Outcome

// FieldRule is the compiled rule set for a single user-entered field.
type FieldRule struct {
	ID       string
	Label    string
	Type     model.FieldType
	Optional bool

	required check
	checks   []check
}

// Validate runs the rule chain against value. The first failing rule wins.
func (r FieldRule) Validate(value model.Value) Outcome {
	if r.required != nil {
		if outcome := r.required(value); !outcome.Valid {
			return outcome
		}
	} else if value.IsEmpty() {
		return pass()
	}
	for _, c := range r.checks {
		if outcome := c(value); !outcome.Valid {
			return outcome
		}
	}
	return pass()
}

// Compile turns a field list into a whole-form Validator. Structural schema
// problems and invalid patterns are reported together as a
// *model.SchemaError. Derived fields are computed rather than entered, so
// they receive no rules.
func Compile(fields []model.FormField) (*Validator, error) {
	report := &model.SchemaError{}
	report.Merge(model.Check(fields))

	v := &Validator{rules: make(map[string]FieldRule, len(fields))}
	for _, field := range fields {
		if field.IsDerived || field.ID == "" {
			continue
		}
		if _, dup := v.rules[field.ID]; dup {
			continue
		}
		rule, err := compileField(field)
		if err != nil {
			report.Add(field.ID, err.Error())
			continue
		}
		v.rules[field.ID] = rule
		v.order = append(v.order, field.ID)
	}
	if err := report.Err(); err != nil {
		return nil, err
	}
	return v, nil
}

// MustCompile is like Compile but panics on configuration errors. Intended
// for fixtures and tests.
func MustCompile(fields []model.FormField) *Validator {
	v, err := Compile(fields)
	if err != nil {
		panic(err)
	}
	return v
}

func compileField(field model.FormField) (FieldRule, error) {
	label := field.Label
	if label == "" {
		label = field.ID
	}
	rule := FieldRule{
		ID:       field.ID,
		Label:    label,
		Type:     field.Type,
		Optional: !field.Validations.Required,
	}
	if field.Validations.Required {
		rule.required = requiredCheck(field.Type, label)
	}

	switch field.Type {
	case model.FieldTypeText, model.FieldTypeTextarea, model.FieldTypePassword:
		textChecks, err := textLikeChecks(field, label)
		if err != nil {
			return FieldRule{}, err
		}
		rule.checks = append(rule.checks, stringCheck(label))
		rule.checks = append(rule.checks, textChecks...)
	case model.FieldTypeEmail:
		rule.checks = append(rule.checks, stringCheck(label), emailCheck())
	case model.FieldTypeDropdown, model.FieldTypeRadio:
		rule.checks = append(rule.checks, stringCheck(label), optionCheck(label, field.Options))
	case model.FieldTypeCheckbox:
		rule.checks = append(rule.checks, booleanCheck(label))
	case model.FieldTypeNumber:
		rule.checks = append(rule.checks, numberCheck(label))
	case model.FieldTypeDate:
		rule.checks = append(rule.checks, dateCheck(label))
	default:
		return FieldRule{}, fmt.Errorf("unknown field type %q", field.Type)
	}
	return rule, nil
}

func requiredCheck(typ model.FieldType, label string) check {
	message := fmt.Sprintf("%s is required.", label)
	if typ == model.FieldTypeCheckbox {
		return func(value model.Value) Outcome {
			if b, ok := value.BoolValue(); ok && b {
				return pass()
			}
			return Outcome{Message: message}
		}
	}
	return func(value model.Value) Outcome {
		if value.IsEmpty() {
			return Outcome{Message: message}
		}
		return pass()
	}
}

func textLikeChecks(field model.FormField, label string) ([]check, error) {
	var checks []check
	rules := field.Validations
	if rules.MinLength != nil {
		bound := *rules.MinLength
		checks = append(checks, func(value model.Value) Outcome {
			s, _ := value.Str()
			if utf8.RuneCountInString(s) < bound {
				return fail("%s must be at least %d characters.", label, bound)
			}
			return pass()
		})
	}
	if rules.MaxLength != nil {
		bound := *rules.MaxLength
		checks = append(checks, func(value model.Value) Outcome {
			s, _ := value.Str()
			if utf8.RuneCountInString(s) > bound {
				return fail("%s must be at most %d characters.", label, bound)
			}
			return pass()
		})
	}
	if rules.Pattern != "" {
		re, err := CompilePattern(Anchor(rules.Pattern))
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %v", rules.Pattern, err)
		}
		checks = append(checks, func(value model.Value) Outcome {
			s, _ := value.Str()
			if !re.MatchString(s) {
				return fail("Invalid %s", label)
			}
			return pass()
		})
	}
	return checks, nil
}

func stringCheck(label string) check {
	return func(value model.Value) Outcome {
		if _, ok := value.Str(); !ok {
			return fail("%s must be text.", label)
		}
		return pass()
	}
}

func emailCheck() check {
	return func(value model.Value) Outcome {
		s, _ := value.Str()
		if !emailRe.MatchString(s) {
			return Outcome{Message: MessageInvalidEmail}
		}
		return pass()
	}
}

func optionCheck(label string, options []string) check {
	allowed := make(map[string]struct{}, len(options))
	for _, option := range options {
		allowed[option] = struct{}{}
	}
	return func(value model.Value) Outcome {
		s, _ := value.Str()
		if _, ok := allowed[s]; !ok {
			return fail("%s must be one of the available options.", label)
		}
		return pass()
	}
}

func booleanCheck(label string) check {
	return func(value model.Value) Outcome {
		if _, ok := value.BoolValue(); !ok {
			return fail("%s must be checked or unchecked.", label)
		}
		return pass()
	}
}

func numberCheck(label string) check {
	return func(value model.Value) Outcome {
		if _, ok := value.AsNumber(); !ok {
			return fail("%s must be a number.", label)
		}
		return pass()
	}
}

func dateCheck(label string) check {
	return func(value model.Value) Outcome {
		if _, ok := value.AsDate(); !ok {
			return fail("%s must be a valid date.", label)
		}
		return pass()
	}
}

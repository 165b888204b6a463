package prompt

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/goliatone/go-formforge/pkg/model"
	"github.com/goliatone/go-formforge/pkg/session"
	"github.com/goliatone/go-formforge/pkg/validation"
)

// NoneOption is offered first on optional dropdown and radio fields so the
// user can leave them empty.
const NoneOption = "(none)"

// Filler walks a user through a form session in the terminal.
type Filler struct {
	driver      PromptDriver
	theme       Theme
	maxAttempts int
	logger      *zap.Logger
}

// New constructs a Filler with the survey driver writing to stdout.
func New(options ...Option) *Filler {
	f := &Filler{
		theme:  DefaultTheme,
		logger: zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(f)
	}
	if f.driver == nil {
		f.driver = NewSurveyDriver(os.Stdout)
	}
	return f
}

// Fill prompts every editable field in display order, then submits. When
// submission fails validation the failing fields are listed and asked
// again until the session submits cleanly. The final validation result is
// returned.
func (f *Filler) Fill(ctx context.Context, s *session.Session) (validation.Result, error) {
	if ctx == nil {
		return validation.Result{}, errors.New("prompt: context is required")
	}
	if s == nil {
		return validation.Result{}, errors.New("prompt: session is nil")
	}
	form := s.Form()

	for _, field := range form.Fields {
		if field.IsDerived {
			continue
		}
		if err := f.promptField(ctx, s, field); err != nil {
			return validation.Result{}, err
		}
	}

	for {
		result, err := s.Submit(ctx)
		if err != nil {
			return result, err
		}
		if result.Valid() {
			f.logger.Debug("form filled", zap.String("form", form.ID))
			return result, nil
		}

		for _, id := range result.FieldIDs() {
			msg, _ := result.Error(id)
			if err := f.driver.Info(ctx, f.theme.ErrorPrefix+msg); err != nil {
				return result, err
			}
		}
		for _, id := range result.FieldIDs() {
			field, ok := form.Field(id)
			if !ok || field.IsDerived {
				continue
			}
			if err := f.promptField(ctx, s, field); err != nil {
				return result, err
			}
		}
	}
}

func (f *Filler) promptField(ctx context.Context, s *session.Session, field model.FormField) error {
	for attempt := 1; ; attempt++ {
		value, err := f.ask(ctx, field, s.Value(field.ID), answerCheck(s, field.ID))
		if err != nil {
			return err
		}
		change, err := s.Set(field.ID, value)
		if err != nil {
			return fmt.Errorf("prompt: set %s: %w", field.ID, err)
		}
		if err := f.reportDerived(ctx, s, change.Derived); err != nil {
			return err
		}

		msg, failed := change.Errors[field.ID]
		if !failed {
			return nil
		}
		if err := f.driver.Info(ctx, f.theme.ErrorPrefix+msg); err != nil {
			return err
		}
		if f.maxAttempts > 0 && attempt >= f.maxAttempts {
			return fmt.Errorf("%w: %s", ErrTooManyAttempts, label(field))
		}
	}
}

func (f *Filler) ask(ctx context.Context, field model.FormField, current model.Value, check AnswerCheck) (model.Value, error) {
	message := label(field)
	if field.Validations.Required {
		message += " *"
	}
	help := field.Placeholder

	switch field.Type {
	case model.FieldTypeCheckbox:
		def, _ := current.BoolValue()
		answer, err := f.driver.Confirm(ctx, ConfirmConfig{Message: message, Default: def, Help: help})
		if err != nil {
			return model.Unset(), err
		}
		return model.Bool(answer), nil

	case model.FieldTypeDropdown, model.FieldTypeRadio:
		options := append([]string(nil), field.Options...)
		if !field.Validations.Required {
			options = append([]string{NoneOption}, options...)
		}
		def := 0
		if str, ok := current.Str(); ok {
			if idx := indexOf(options, str); idx >= 0 {
				def = idx
			}
		}
		idx, err := f.driver.Select(ctx, SelectConfig{Message: message, Options: options, DefaultIndex: def, Help: help})
		if err != nil {
			return model.Unset(), err
		}
		if idx < 0 || idx >= len(options) || options[idx] == NoneOption {
			return model.Unset(), nil
		}
		return model.String(options[idx]), nil

	case model.FieldTypePassword:
		answer, err := f.driver.Password(ctx, InputConfig{Message: message, Help: help, Check: check})
		if err != nil {
			return model.Unset(), err
		}
		return model.String(answer), nil

	case model.FieldTypeTextarea:
		answer, err := f.driver.TextArea(ctx, TextAreaConfig{Message: message, Default: current.Display(), Help: help, Check: check})
		if err != nil {
			return model.Unset(), err
		}
		return model.String(answer), nil

	default:
		if field.Type == model.FieldTypeDate && help == "" {
			help = "YYYY-MM-DD"
		}
		answer, err := f.driver.Input(ctx, InputConfig{Message: message, Default: current.Display(), Help: help, Check: check})
		if err != nil {
			return model.Unset(), err
		}
		return model.String(answer), nil
	}
}

func (f *Filler) reportDerived(ctx context.Context, s *session.Session, ids []string) error {
	form := s.Form()
	for _, id := range ids {
		field, ok := form.Field(id)
		if !ok {
			continue
		}
		shown := s.Value(id).Display()
		if shown == "" {
			shown = "-"
		}
		if err := f.driver.Info(ctx, fmt.Sprintf("%s%s: %s", f.theme.InfoPrefix, label(field), shown)); err != nil {
			return err
		}
	}
	return nil
}

// answerCheck runs the field's validation rule against a typed answer, so
// the terminal can refuse it before the session sees it.
func answerCheck(s *session.Session, id string) AnswerCheck {
	rule, ok := s.Rule(id)
	if !ok {
		return nil
	}
	return func(answer string) error {
		if outcome := rule.Validate(model.String(answer)); !outcome.Valid {
			return errors.New(outcome.Message)
		}
		return nil
	}
}

func label(field model.FormField) string {
	if field.Label != "" {
		return field.Label
	}
	return field.ID
}

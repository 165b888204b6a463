package session

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-formforge/pkg/derive"
	"github.com/goliatone/go-formforge/pkg/model"
	"github.com/goliatone/go-formforge/pkg/validation"
)

// Option configures a Session.
type Option func(*options)

type options struct {
	sink             Sink
	logger           *zap.Logger
	validateOnChange bool
	registry         *derive.Registry
	now              func() time.Time
	initial          model.Values
}

// WithSink sets the collaborator that receives valid submissions.
func WithSink(sink Sink) Option {
	return func(o *options) {
		o.sink = sink
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithValidateOnChange toggles inline validation after every Set. It is on by
// default.
func WithValidateOnChange(enabled bool) Option {
	return func(o *options) {
		o.validateOnChange = enabled
	}
}

// WithRegistry selects the formula registry used for derived fields.
func WithRegistry(reg *derive.Registry) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// WithClock overrides the time source used by derivation formulas.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithValues pre-fills entered values on top of the field defaults.
func WithValues(values model.Values) Option {
	return func(o *options) {
		o.initial = values.Clone()
	}
}

// Change describes the effect of a single Set call.
type Change struct {
	FieldID string
	// Derived lists derived fields whose value changed as a consequence.
	Derived []string
	// Errors holds the inline error state after the change, keyed by field.
	Errors map[string]string
}

// Session owns the live values of one form-filling session. It is not safe
// for concurrent use; each user input is expected to run to completion
// before the next one is applied.
type Session struct {
	form      model.FormConfig
	validator *validation.Validator
	engine    *derive.Engine
	sink      Sink
	logger    *zap.Logger
	inline    bool

	values model.Values
	errors map[string]string
}

// New compiles the form's validator and derivation engine and seeds the
// session with default values. Configuration problems are returned as a
// *model.SchemaError before any value is accepted.
func New(form model.FormConfig, opts ...Option) (*Session, error) {
	cfg := options{
		logger:           zap.NewNop(),
		validateOnChange: true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	report := &model.SchemaError{}
	validator, err := validation.Compile(form.Fields)
	report.Merge(err)

	engineOpts := []derive.Option{derive.WithLogger(cfg.logger)}
	if cfg.registry != nil {
		engineOpts = append(engineOpts, derive.WithRegistry(cfg.registry))
	}
	if cfg.now != nil {
		engineOpts = append(engineOpts, derive.WithClock(cfg.now))
	}
	engine, err := derive.New(form.Fields, engineOpts...)
	report.Merge(err)

	if err := report.Err(); err != nil {
		return nil, err
	}

	s := &Session{
		form:      form.Clone(),
		validator: validator,
		engine:    engine,
		sink:      cfg.sink,
		logger:    cfg.logger.With(zap.String("form", form.ID)),
		inline:    cfg.validateOnChange,
		errors:    make(map[string]string),
	}
	s.values = s.seed(cfg.initial)
	return s, nil
}

func (s *Session) seed(initial model.Values) model.Values {
	values := make(model.Values, len(s.form.Fields))
	for _, field := range s.form.Fields {
		if field.IsDerived {
			continue
		}
		switch {
		case field.DefaultValue != nil && field.DefaultValue.IsSet():
			values[field.ID] = *field.DefaultValue
		case field.Type == model.FieldTypeCheckbox:
			values[field.ID] = model.Bool(false)
		}
	}
	for id, value := range initial {
		if field, ok := s.form.Field(id); ok && !field.IsDerived {
			values[id] = value
		}
	}
	derived, _ := s.engine.Recompute(values)
	return derived
}

// Form returns a copy of the form definition driving the session.
func (s *Session) Form() model.FormConfig {
	return s.form.Clone()
}

// Values returns a copy of the current values, derived ones included.
func (s *Session) Values() model.Values {
	return s.values.Clone()
}

// Value returns the current value of a field.
func (s *Session) Value(id string) model.Value {
	return s.values.Get(id)
}

// Rule returns the compiled validation rule of a field, so front ends can
// check answers before they are set.
func (s *Session) Rule(id string) (validation.FieldRule, bool) {
	return s.validator.Rule(id)
}

// Errors returns a copy of the inline error state.
func (s *Session) Errors() map[string]string {
	out := make(map[string]string, len(s.errors))
	for id, msg := range s.errors {
		out[id] = msg
	}
	return out
}

// Set applies one user edit. Derived values are recomputed before the edited
// field is re-validated, so inline errors always reflect the derived state of
// the same event. Derived and unknown fields cannot be set.
func (s *Session) Set(id string, value model.Value) (Change, error) {
	field, ok := s.form.Field(id)
	if !ok {
		return Change{}, fmt.Errorf("session: %w: %q", model.ErrUnknownField, id)
	}
	if field.IsDerived {
		return Change{}, fmt.Errorf("session: %w: %q", model.ErrDerivedField, id)
	}

	next := s.values.Clone()
	if value.IsSet() {
		next[id] = value
	} else {
		delete(next, id)
	}
	updated, derived := s.engine.Recompute(next)
	s.values = updated

	if len(derived) > 0 {
		s.logger.Debug("derived values updated",
			zap.String("field", id),
			zap.Strings("derived", derived))
	}

	if s.inline {
		s.revalidate(id)
	} else {
		// an edit supersedes the error reported for the previous value
		delete(s.errors, id)
	}

	return Change{
		FieldID: id,
		Derived: derived,
		Errors:  s.Errors(),
	}, nil
}

func (s *Session) revalidate(id string) {
	outcome := s.validator.Field(id, s.values.Get(id))
	if outcome.Valid {
		delete(s.errors, id)
		return
	}
	s.errors[id] = outcome.Message
}

// Validate runs the whole-form validator against the current values without
// submitting. The inline error state is replaced by the result.
func (s *Session) Validate() validation.Result {
	result := s.validator.Validate(s.values)
	s.errors = make(map[string]string, len(result.Errors))
	for id, msg := range result.Errors {
		s.errors[id] = msg
	}
	return result
}

// Submit validates the whole form. When any field fails, every failure is
// returned and the sink is not called. Otherwise the sink receives a copy of
// the values exactly once; its error, if any, is returned.
func (s *Session) Submit(ctx context.Context) (validation.Result, error) {
	if err := ctx.Err(); err != nil {
		return validation.Result{}, err
	}
	result := s.Validate()
	if !result.Valid() {
		s.logger.Info("submission rejected",
			zap.Strings("fields", result.FieldIDs()))
		return result, nil
	}
	if s.sink == nil {
		return result, nil
	}
	if err := s.sink.OnValidSubmit(ctx, s.form, s.values.Clone()); err != nil {
		return result, fmt.Errorf("session: submit sink: %w", err)
	}
	return result, nil
}

// Reset restores the default values and clears inline errors.
func (s *Session) Reset() {
	s.values = s.seed(nil)
	s.errors = make(map[string]string)
}

package builder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-formforge/pkg/derive"
	"github.com/goliatone/go-formforge/pkg/model"
	"github.com/goliatone/go-formforge/pkg/store"
	"github.com/goliatone/go-formforge/pkg/validation"
)

// Option configures a Library.
type Option func(*Library)

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Library) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithClock overrides the time source used for UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(l *Library) {
		if now != nil {
			l.now = now
		}
	}
}

// WithDecorators replaces the decorators applied before every save.
func WithDecorators(decorators ...model.Decorator) Option {
	return func(l *Library) {
		l.decorators = decorators
	}
}

// WithRegistry selects the formula registry used when linting forms.
func WithRegistry(reg *derive.Registry) Option {
	return func(l *Library) {
		if reg != nil {
			l.registry = reg
		}
	}
}

// Library is the builder's view of the form store. Reads degrade instead of
// failing so a broken store never takes the session down; writes validate
// the definition first and report storage failures to the caller.
type Library struct {
	store      store.Store
	logger     *zap.Logger
	now        func() time.Time
	decorators []model.Decorator
	registry   *derive.Registry
}

// NewLibrary wraps s. By default every saved form is sanitised.
func NewLibrary(s store.Store, opts ...Option) *Library {
	l := &Library{
		store:      s,
		logger:     zap.NewNop(),
		now:        time.Now,
		decorators: []model.Decorator{NewSanitizer()},
		registry:   derive.DefaultRegistry(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// List returns every stored form. When the store fails the error is logged
// as a warning and an empty list is returned alongside it, so callers can
// surface the warning and carry on.
func (l *Library) List(ctx context.Context) ([]model.FormConfig, error) {
	forms, err := l.store.List(ctx)
	if err != nil {
		l.logger.Warn("could not load forms from storage", zap.Error(err))
		return []model.FormConfig{}, fmt.Errorf("builder: list forms: %w", err)
	}
	if forms == nil {
		forms = []model.FormConfig{}
	}
	return forms, nil
}

// Get returns the form with id; model.ErrNotFound when it does not exist.
func (l *Library) Get(ctx context.Context, id string) (model.FormConfig, error) {
	form, err := l.store.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			l.logger.Warn("could not load form from storage", zap.String("form", id), zap.Error(err))
		}
		return model.FormConfig{}, fmt.Errorf("builder: get form %s: %w", id, err)
	}
	return form, nil
}

// Lint reports every configuration issue in form without saving it.
func (l *Library) Lint(form model.FormConfig) validation.SchemaValidationResult {
	return validation.Lint(form.Fields, l.formulaCheck)
}

func (l *Library) formulaCheck(fields []model.FormField) error {
	return derive.Check(fields, l.registry)
}

// Save decorates, validates and persists form, refreshing UpdatedAt. The
// stored copy is returned. Forms with configuration errors are not saved.
func (l *Library) Save(ctx context.Context, form model.FormConfig) (model.FormConfig, error) {
	out := form.Clone()
	if err := model.ApplyDecorators(&out, l.decorators...); err != nil {
		return model.FormConfig{}, fmt.Errorf("builder: decorate form: %w", err)
	}

	if result := l.Lint(out); !result.Valid {
		report := &model.SchemaError{}
		for _, issue := range result.Issues {
			report.Add(issue.Field, issue.Message)
		}
		return model.FormConfig{}, report
	}

	now := model.NormalizeTimestamp(l.now())
	if out.CreatedAt.IsZero() {
		out.CreatedAt = now
	}
	out.CreatedAt = model.NormalizeTimestamp(out.CreatedAt)
	out.UpdatedAt = now

	if err := l.store.Put(ctx, out); err != nil {
		l.logger.Error("could not save form to storage", zap.String("form", out.ID), zap.Error(err))
		return model.FormConfig{}, fmt.Errorf("builder: save form %s: %w", out.ID, err)
	}
	l.logger.Info("form saved", zap.String("form", out.ID), zap.String("name", out.Name))
	return out, nil
}

// Delete removes the form with id.
func (l *Library) Delete(ctx context.Context, id string) error {
	if err := l.store.Delete(ctx, id); err != nil {
		l.logger.Error("could not delete form", zap.String("form", id), zap.Error(err))
		return fmt.Errorf("builder: delete form %s: %w", id, err)
	}
	l.logger.Info("form deleted", zap.String("form", id))
	return nil
}

package derive

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-formforge/pkg/model"
)

// Option configures an Engine.
type Option func(*Engine)

// WithRegistry swaps the formula registry.
func WithRegistry(reg *Registry) Option {
	return func(e *Engine) {
		if reg != nil {
			e.registry = reg
		}
	}
}

// WithClock overrides the time source passed to formulas.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger attaches a logger used to report unknown formulas.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

type binding struct {
	fieldID string
	parents []string
	formula string
	compute Formula
}

// Gap records a derived field whose formula is not registered. Its value
// always stays unset.
type Gap struct {
	FieldID string
	Formula string
}

// Engine recomputes derived field values from their parents. It holds no
// per-session state and can be shared.
type Engine struct {
	registry *Registry
	now      func() time.Time
	logger   *zap.Logger
	bindings []binding
	gaps     []Gap
	derived  map[string]struct{}
}

// New binds every derived field in fields to its formula. Known formulas are
// checked against their declared arity and parent types; mismatches are
// reported as a *model.SchemaError. Unknown formulas are kept as gaps.
func New(fields []model.FormField, opts ...Option) (*Engine, error) {
	e := &Engine{
		registry: DefaultRegistry(),
		now:      time.Now,
		logger:   zap.NewNop(),
		derived:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}

	if err := Check(fields, e.registry); err != nil {
		return nil, err
	}

	for _, field := range fields {
		if !field.IsDerived || field.Derivation == nil {
			continue
		}
		e.derived[field.ID] = struct{}{}
		b := binding{
			fieldID: field.ID,
			parents: append([]string(nil), field.Derivation.ParentFieldIDs...),
			formula: field.Derivation.Formula,
		}
		if spec, ok := e.registry.Lookup(b.formula); ok {
			b.compute = spec.Compute
		} else {
			e.gaps = append(e.gaps, Gap{FieldID: field.ID, Formula: b.formula})
			e.logger.Warn("derivation formula not registered",
				zap.String("field", field.ID),
				zap.String("formula", b.formula))
		}
		e.bindings = append(e.bindings, b)
	}
	return e, nil
}

// Check validates derived fields against the formulas registered in reg.
// Unknown formulas are not errors.
func Check(fields []model.FormField, reg *Registry) error {
	if reg == nil {
		reg = DefaultRegistry()
	}
	types := make(map[string]model.FieldType, len(fields))
	for _, field := range fields {
		types[field.ID] = field.Type
	}

	report := &model.SchemaError{}
	for _, field := range fields {
		if !field.IsDerived || field.Derivation == nil {
			continue
		}
		spec, ok := reg.Lookup(field.Derivation.Formula)
		if !ok {
			continue
		}
		parents := field.Derivation.ParentFieldIDs
		if spec.Arity > 0 && len(parents) != spec.Arity {
			report.Add(field.ID, fmt.Sprintf("formula %q expects %d parent field(s), got %d", spec.Name, spec.Arity, len(parents)))
			continue
		}
		for idx, parentID := range parents {
			if idx >= len(spec.ParentTypes) || spec.ParentTypes[idx] == "" {
				continue
			}
			got, known := types[parentID]
			if known && got != spec.ParentTypes[idx] {
				report.Add(field.ID, fmt.Sprintf("formula %q requires parent %q to be %s, got %s", spec.Name, parentID, spec.ParentTypes[idx], got))
			}
		}
		if spec.ResultType != "" && field.Type != spec.ResultType {
			report.Add(field.ID, fmt.Sprintf("formula %q produces %s values, field is %s", spec.Name, spec.ResultType, field.Type))
		}
	}
	return report.Err()
}

// Gaps lists derived fields whose formula is not registered.
func (e *Engine) Gaps() []Gap {
	return append([]Gap(nil), e.gaps...)
}

// IsDerived reports whether id is bound to a formula.
func (e *Engine) IsDerived(id string) bool {
	_, ok := e.derived[id]
	return ok
}

// Recompute evaluates every derivation against values and returns a new map
// together with the ids whose value changed. values is never mutated. A
// derived entry is only written when its computed value differs from the
// current one, and unset results remove the entry, so applying Recompute to
// its own output yields no further changes.
func (e *Engine) Recompute(values model.Values) (model.Values, []string) {
	out := values.Clone()
	if e == nil || len(e.bindings) == 0 {
		return out, nil
	}

	now := e.now()
	var changed []string
	for _, b := range e.bindings {
		next := model.Unset()
		if b.compute != nil {
			parents := make([]model.Value, len(b.parents))
			for idx, parentID := range b.parents {
				parents[idx] = values.Get(parentID)
			}
			next = b.compute(parents, now)
		}

		current := out.Get(b.fieldID)
		if current.Equal(next) {
			continue
		}
		if next.IsSet() {
			out[b.fieldID] = next
		} else {
			delete(out, b.fieldID)
		}
		changed = append(changed, b.fieldID)
	}
	return out, changed
}

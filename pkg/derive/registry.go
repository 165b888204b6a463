package derive

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-formforge/pkg/model"
)

// Formula computes a derived value from the parents' current values, in the
// order the derivation lists them. It must be pure; now is supplied by the
// engine so results are reproducible. Returning model.Unset() means "not yet
// computable".
type Formula func(parents []model.Value, now time.Time) model.Value

// Spec describes a registered formula and the parent shape it accepts.
// ParentTypes, when set, must have one entry per parent; a zero FieldType
// accepts any parent type.
type Spec struct {
	Name        string
	Arity       int
	ParentTypes []model.FieldType
	ResultType  model.FieldType
	Compute     Formula
}

// Registry resolves formula keys to their Spec. The zero value is empty;
// NewRegistry returns one seeded with the built-in formulas.
type Registry struct {
	mu    sync.RWMutex
	specs map[string]Spec
}

// NewRegistry constructs a registry with the built-in formulas registered.
func NewRegistry() *Registry {
	reg := &Registry{}
	reg.registerBuiltins()
	return reg
}

// Register adds or replaces a formula. Empty names and nil functions are
// ignored.
func (r *Registry) Register(spec Spec) {
	if r == nil || spec.Compute == nil {
		return
	}
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return
	}
	spec.Name = name
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.specs == nil {
		r.specs = make(map[string]Spec)
	}
	r.specs[name] = spec
}

// Lookup returns the spec registered under name.
func (r *Registry) Lookup(name string) (Spec, bool) {
	if r == nil {
		return Spec{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.specs[name]
	return spec, ok
}

// Names lists the registered formula keys in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.specs))
	for name := range r.specs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) registerBuiltins() {
	r.Register(Spec{
		Name:        model.FormulaAge,
		Arity:       1,
		ParentTypes: []model.FieldType{model.FieldTypeDate},
		ResultType:  model.FieldTypeNumber,
		Compute:     Age,
	})
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry used when an engine is
// built without WithRegistry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

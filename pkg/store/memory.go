package store

import (
	"context"
	"sync"

	"github.com/goliatone/go-formforge/pkg/model"
)

// Memory keeps forms in insertion order. It stores deep copies so callers
// cannot mutate persisted state through returned values.
type Memory struct {
	mu    sync.RWMutex
	order []string
	forms map[string]model.FormConfig
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{forms: make(map[string]model.FormConfig)}
}

func (m *Memory) List(ctx context.Context) ([]model.FormConfig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.FormConfig, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.forms[id].Clone())
	}
	return out, nil
}

func (m *Memory) Get(ctx context.Context, id string) (model.FormConfig, error) {
	if err := ctx.Err(); err != nil {
		return model.FormConfig{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	form, ok := m.forms[id]
	if !ok {
		return model.FormConfig{}, model.ErrNotFound
	}
	return form.Clone(), nil
}

func (m *Memory) Put(ctx context.Context, form model.FormConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := requireID(form.ID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.forms[form.ID]; !exists {
		m.order = append(m.order, form.ID)
	}
	m.forms[form.ID] = form.Clone()
	return nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.forms[id]; !exists {
		return nil
	}
	delete(m.forms, id)
	for idx, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:idx], m.order[idx+1:]...)
			break
		}
	}
	return nil
}

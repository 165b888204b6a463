package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goliatone/go-formforge/pkg/model"
)

// Store persists form definitions keyed by id. Put is last-write-wins.
// Get returns model.ErrNotFound for unknown ids; Delete of an unknown id is
// not an error.
type Store interface {
	List(ctx context.Context) ([]model.FormConfig, error)
	Get(ctx context.Context, id string) (model.FormConfig, error)
	Put(ctx context.Context, form model.FormConfig) error
	Delete(ctx context.Context, id string) error
}

// Closer is implemented by stores holding an open handle.
type Closer interface {
	Close() error
}

// Driver names accepted by Open.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverBolt   = "bolt"
)

// Config selects and configures a store driver.
type Config struct {
	Driver string
	// Path is the database file for file-backed drivers.
	Path string
}

// Open returns the store named by cfg.Driver. File-backed stores must be
// closed by the caller.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverMemory:
		return NewMemory(), nil
	case DriverSQLite:
		s, err := OpenSQLite(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverBolt:
		b, err := OpenBolt(cfg.Path)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

func encode(form model.FormConfig) ([]byte, error) {
	raw, err := json.Marshal(form)
	if err != nil {
		return nil, fmt.Errorf("store: encode form %s: %w", form.ID, err)
	}
	return raw, nil
}

func decode(raw []byte) (model.FormConfig, error) {
	var form model.FormConfig
	if err := json.Unmarshal(raw, &form); err != nil {
		return model.FormConfig{}, fmt.Errorf("store: decode form: %w", err)
	}
	return form, nil
}

func requireID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("store: form id is required")
	}
	return nil
}

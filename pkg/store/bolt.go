package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/goliatone/go-formforge/pkg/model"
)

var formsBucket = []byte("forms")

// Bolt stores forms as JSON values in a single bbolt bucket keyed by id.
type Bolt struct {
	db *bolt.DB
}

// OpenBolt opens (creating if needed) the bbolt file at path.
func OpenBolt(path string) (*Bolt, error) {
	if path == "" {
		return nil, errors.New("store: bolt path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(formsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Bolt{db: db}, nil
}

// List returns forms ordered by creation time, then id.
func (b *Bolt) List(ctx context.Context) ([]model.FormConfig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var forms []model.FormConfig
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(formsBucket).ForEach(func(_, v []byte) error {
			form, err := decode(v)
			if err != nil {
				return err
			}
			forms = append(forms, form)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(forms, func(i, j int) bool {
		if forms[i].CreatedAt.Equal(forms[j].CreatedAt) {
			return forms[i].ID < forms[j].ID
		}
		return forms[i].CreatedAt.Before(forms[j].CreatedAt)
	})
	return forms, nil
}

func (b *Bolt) Get(ctx context.Context, id string) (model.FormConfig, error) {
	if err := ctx.Err(); err != nil {
		return model.FormConfig{}, err
	}
	var raw []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(formsBucket).Get([]byte(id)); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return model.FormConfig{}, err
	}
	if raw == nil {
		return model.FormConfig{}, model.ErrNotFound
	}
	return decode(raw)
}

func (b *Bolt) Put(ctx context.Context, form model.FormConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := requireID(form.ID); err != nil {
		return err
	}
	body, err := encode(form)
	if err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(formsBucket).Put([]byte(form.ID), body)
	})
}

func (b *Bolt) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(formsBucket).Delete([]byte(id))
	})
}

// Close releases the file lock.
func (b *Bolt) Close() error {
	return b.db.Close()
}

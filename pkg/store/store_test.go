package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formforge/pkg/model"
	"github.com/goliatone/go-formforge/pkg/store"
)

func sampleForm(id, name string, created time.Time) model.FormConfig {
	return model.FormConfig{
		ID:        id,
		Name:      name,
		CreatedAt: created,
		UpdatedAt: created,
		Fields: []model.FormField{
			{ID: "email", Label: "Email", Type: model.FieldTypeEmail, Validations: model.ValidationRules{Required: true}},
			{ID: "dob", Label: "Date of birth", Type: model.FieldTypeDate},
			{
				ID: "age", Label: "Age", Type: model.FieldTypeNumber, IsDerived: true,
				Derivation: &model.Derivation{ParentFieldIDs: []string{"dob"}, Formula: model.FormulaAge},
			},
		},
	}
}

func openStores(t *testing.T) map[string]store.Store {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	sqlite, err := store.Open(ctx, store.Config{Driver: store.DriverSQLite, Path: filepath.Join(dir, "forms.db")})
	require.NoError(t, err)
	bolt, err := store.Open(ctx, store.Config{Driver: "BOLT", Path: filepath.Join(dir, "forms.bolt")})
	require.NoError(t, err)
	mem, err := store.Open(ctx, store.Config{})
	require.NoError(t, err)

	t.Cleanup(func() {
		for _, s := range []store.Store{sqlite, bolt} {
			if closer, ok := s.(store.Closer); ok {
				_ = closer.Close()
			}
		}
	})

	return map[string]store.Store{
		"memory": mem,
		"sqlite": sqlite,
		"bolt":   bolt,
	}
}

func TestStoreContract(t *testing.T) {
	base := time.Date(2025, time.January, 10, 9, 0, 0, 0, time.UTC)

	for name, s := range openStores(t) {
		s := s
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			forms, err := s.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, forms)

			_, err = s.Get(ctx, "missing")
			require.ErrorIs(t, err, model.ErrNotFound)

			first := sampleForm("b-form", "First", base)
			second := sampleForm("a-form", "Second", base.Add(time.Minute))
			require.NoError(t, s.Put(ctx, first))
			require.NoError(t, s.Put(ctx, second))

			got, err := s.Get(ctx, "b-form")
			require.NoError(t, err)
			if diff := cmp.Diff(first, got); diff != "" {
				t.Fatalf("get mismatch (-want +got):\n%s", diff)
			}

			first.Name = "First (edited)"
			first.UpdatedAt = base.Add(time.Hour)
			require.NoError(t, s.Put(ctx, first))

			forms, err = s.List(ctx)
			require.NoError(t, err)
			require.Len(t, forms, 2)
			assert.Equal(t, "b-form", forms[0].ID)
			assert.Equal(t, "First (edited)", forms[0].Name)
			assert.True(t, forms[0].UpdatedAt.Equal(base.Add(time.Hour)))
			assert.Equal(t, "a-form", forms[1].ID)

			require.NoError(t, s.Delete(ctx, "b-form"))
			require.NoError(t, s.Delete(ctx, "b-form"))
			_, err = s.Get(ctx, "b-form")
			require.ErrorIs(t, err, model.ErrNotFound)

			forms, err = s.List(ctx)
			require.NoError(t, err)
			require.Len(t, forms, 1)
			assert.Equal(t, "a-form", forms[0].ID)

			require.Error(t, s.Put(ctx, model.FormConfig{Name: "no id"}))
		})
	}
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	form := sampleForm("f", "Form", time.Now().UTC())
	require.NoError(t, mem.Put(ctx, form))

	form.Fields[0].Label = "mutated after put"
	got, err := mem.Get(ctx, "f")
	require.NoError(t, err)
	assert.Equal(t, "Email", got.Fields[0].Label)

	got.Fields[0].Label = "mutated after get"
	again, err := mem.Get(ctx, "f")
	require.NoError(t, err)
	assert.Equal(t, "Email", again.Fields[0].Label)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := store.Open(context.Background(), store.Config{Driver: "redis"})
	require.Error(t, err)
}

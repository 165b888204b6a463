package builder_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/goliatone/go-formforge/pkg/builder"
	"github.com/goliatone/go-formforge/pkg/model"
	"github.com/goliatone/go-formforge/pkg/store"
)

var fixedNow = time.Date(2026, time.October, 19, 8, 30, 15, 123456789, time.UTC)

func sequentialIDs() builder.IDGenerator {
	next := 0
	return func() string {
		next++
		return fmt.Sprintf("id-%d", next)
	}
}

func TestNewFormDefaults(t *testing.T) {
	t.Parallel()

	form := builder.NewForm(fixedNow, sequentialIDs()).Form()
	want := model.FormConfig{
		ID:        "id-1",
		Name:      builder.DefaultFormName,
		CreatedAt: fixedNow.Truncate(time.Millisecond),
		UpdatedAt: fixedNow.Truncate(time.Millisecond),
		Fields:    []model.FormField{},
	}
	if diff := cmp.Diff(want, form); diff != "" {
		t.Fatalf("new form mismatch (-want +got):\n%s", diff)
	}
}

func TestEditorFieldOperations(t *testing.T) {
	t.Parallel()

	ed := builder.NewForm(fixedNow, sequentialIDs())

	name, err := ed.AddField(model.FieldTypeText)
	require.NoError(t, err)
	plan, err := ed.AddField(model.FieldTypeDropdown)
	require.NoError(t, err)
	dob, err := ed.AddField(model.FieldTypeDate)
	require.NoError(t, err)

	assert.Equal(t, "New text field", name.Label)
	assert.Equal(t, []string{"Option 1"}, plan.Options)

	_, err = ed.AddField(model.FieldType("slider"))
	assert.Error(t, err)

	age, err := ed.AddAgeField(dob.ID, "")
	require.NoError(t, err)
	assert.True(t, age.IsDerived)
	assert.Equal(t, "Age", age.Label)

	_, err = ed.AddAgeField(name.ID, "Age")
	assert.Error(t, err, "age needs a date parent")

	require.NoError(t, ed.AddOption(plan.ID))
	require.NoError(t, ed.UpdateOption(plan.ID, 0, "Free"))
	require.NoError(t, ed.UpdateOption(plan.ID, 1, "Pro"))
	assert.Error(t, ed.AddOption(name.ID), "text fields have no options")

	err = ed.RemoveField(dob.ID)
	assert.Error(t, err, "date field is a derivation parent")

	require.NoError(t, ed.UpdateField(name.ID, func(f *model.FormField) {
		f.Label = "Full name"
		f.ID = "hijacked"
		f.Validations.Required = true
	}))

	require.NoError(t, ed.MoveField(age.ID, 0))

	form := ed.Form()
	ids := make([]string, 0, len(form.Fields))
	for _, f := range form.Fields {
		ids = append(ids, f.ID)
	}
	if diff := cmp.Diff([]string{age.ID, name.ID, plan.ID, dob.ID}, ids); diff != "" {
		t.Fatalf("field order mismatch (-want +got):\n%s", diff)
	}

	got, ok := form.Field(name.ID)
	require.True(t, ok)
	assert.Equal(t, "Full name", got.Label)
	assert.True(t, got.Validations.Required)

	got, _ = form.Field(plan.ID)
	assert.Equal(t, []string{"Free", "Pro"}, got.Options)

	require.NoError(t, ed.RemoveField(age.ID))
	require.NoError(t, ed.RemoveField(dob.ID))
	assert.Len(t, ed.Form().Fields, 2)
}

func TestEditorKeepsAtLeastOneOption(t *testing.T) {
	t.Parallel()

	ed := builder.NewForm(fixedNow, sequentialIDs())
	radio, err := ed.AddField(model.FieldTypeRadio)
	require.NoError(t, err)

	assert.Error(t, ed.RemoveOption(radio.ID, 0))
	require.NoError(t, ed.AddOption(radio.ID))
	require.NoError(t, ed.RemoveOption(radio.ID, 0))

	got, _ := ed.Form().Field(radio.ID)
	assert.Equal(t, []string{"Option 2"}, got.Options)

	require.NoError(t, ed.UpdateField(radio.ID, func(f *model.FormField) { f.Type = model.FieldTypeText }))
	got, _ = ed.Form().Field(radio.ID)
	assert.Nil(t, got.Options, "options are dropped when the type no longer needs them")
}

func TestEditDoesNotAliasInput(t *testing.T) {
	t.Parallel()

	original := model.FormConfig{
		ID:     "f",
		Name:   "Form",
		Fields: []model.FormField{{ID: "a", Label: "A", Type: model.FieldTypeText}},
	}
	ed := builder.Edit(original, nil)
	require.NoError(t, ed.UpdateField("a", func(f *model.FormField) { f.Label = "Changed" }))
	assert.Equal(t, "A", original.Fields[0].Label)
}

func TestSanitizerStripsMarkup(t *testing.T) {
	t.Parallel()

	def := model.String("<b>hi</b>")
	form := model.FormConfig{
		Name: "<script>alert(1)</script>Tom & Jerry",
		Fields: []model.FormField{
			{ID: "a", Label: "<i>Name</i>", Type: model.FieldTypeText, Placeholder: "<p>type</p>", DefaultValue: &def},
			{ID: "b", Label: "Pick", Type: model.FieldTypeRadio, Options: []string{"<em>One</em>", "Two"}},
		},
	}
	require.NoError(t, builder.NewSanitizer().Decorate(&form))

	assert.Equal(t, "Tom & Jerry", form.Name)
	assert.Equal(t, "Name", form.Fields[0].Label)
	assert.Equal(t, "type", form.Fields[0].Placeholder)
	assert.True(t, form.Fields[0].DefaultValue.Equal(model.String("hi")))
	assert.Equal(t, []string{"One", "Two"}, form.Fields[1].Options)
}

func TestSanitizerDoesNotDecodeEntitiesIntoMarkup(t *testing.T) {
	t.Parallel()

	sanitizer := builder.NewSanitizer()
	cases := map[string]string{
		"&lt;script&gt;alert(1)&lt;/script&gt;Docs": "Docs",
		"&amp;lt;b&amp;gt;bold&amp;lt;/b&amp;gt;":   "bold",
		"&lt;img src=x onerror=alert(1)&gt;":        "",
		"Fish &amp; Chips":                          "Fish & Chips",
		"1 < 2":                                     "1 < 2",
	}
	for input, want := range cases {
		got := sanitizer.Text(input)
		assert.Equal(t, want, got, "input %q", input)
		assert.Equal(t, got, sanitizer.Text(got), "sanitising %q twice", input)
	}
}

func TestLibrarySaveIsIdempotentForEncodedMarkup(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	lib := builder.NewLibrary(store.NewMemory(), builder.WithClock(func() time.Time { return fixedNow }))

	form := builder.NewForm(fixedNow, sequentialIDs()).Form()
	form.Name = "&lt;script&gt;alert(1)&lt;/script&gt;Survey"

	first, err := lib.Save(ctx, form)
	require.NoError(t, err)
	assert.Equal(t, "Survey", first.Name)
	assert.NotContains(t, first.Name, "<")

	second, err := lib.Save(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, first.Name, second.Name)
}

func TestLibrarySaveRefreshesTimestampAndPersists(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := store.NewMemory()
	later := fixedNow.Add(time.Hour)
	lib := builder.NewLibrary(mem, builder.WithClock(func() time.Time { return later }))

	form := builder.NewForm(fixedNow, sequentialIDs()).Form()
	form.Name = "<b>Signup</b>"

	saved, err := lib.Save(ctx, form)
	require.NoError(t, err)
	assert.Equal(t, "Signup", saved.Name)
	assert.Equal(t, form.CreatedAt, saved.CreatedAt)
	assert.Equal(t, later.Truncate(time.Millisecond), saved.UpdatedAt)

	stored, err := lib.Get(ctx, form.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(saved, stored); diff != "" {
		t.Fatalf("stored form mismatch (-want +got):\n%s", diff)
	}

	forms, err := lib.List(ctx)
	require.NoError(t, err)
	assert.Len(t, forms, 1)

	require.NoError(t, lib.Delete(ctx, form.ID))
	_, err = lib.Get(ctx, form.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestLibrarySaveRejectsMisconfiguredForm(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := store.NewMemory()
	lib := builder.NewLibrary(mem)

	form := model.FormConfig{
		ID:   "bad",
		Name: "Bad",
		Fields: []model.FormField{
			{ID: "name", Label: "Name", Type: model.FieldTypeText, Validations: model.ValidationRules{Pattern: "("}},
			{ID: "pick", Label: "Pick", Type: model.FieldTypeDropdown},
		},
	}
	_, err := lib.Save(ctx, form)
	assert.ErrorIs(t, err, model.ErrConfiguration)

	var schemaErr *model.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Len(t, schemaErr.Issues, 2)

	forms, err := mem.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, forms, "invalid forms are never persisted")

	result := lib.Lint(form)
	assert.False(t, result.Valid)
}

type brokenStore struct{}

var errDisk = errors.New("disk unavailable")

func (brokenStore) List(context.Context) ([]model.FormConfig, error) { return nil, errDisk }
func (brokenStore) Get(context.Context, string) (model.FormConfig, error) {
	return model.FormConfig{}, errDisk
}
func (brokenStore) Put(context.Context, model.FormConfig) error { return errDisk }
func (brokenStore) Delete(context.Context, string) error        { return errDisk }

func TestLibraryDegradesWhenStorageFails(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.WarnLevel)
	lib := builder.NewLibrary(brokenStore{}, builder.WithLogger(zap.New(core)))
	ctx := context.Background()

	forms, err := lib.List(ctx)
	assert.ErrorIs(t, err, errDisk)
	assert.NotNil(t, forms)
	assert.Empty(t, forms)
	assert.Equal(t, 1, logs.FilterMessage("could not load forms from storage").Len())

	_, err = lib.Save(ctx, builder.NewForm(fixedNow, nil).Form())
	assert.ErrorIs(t, err, errDisk)
	assert.Equal(t, 1, logs.FilterMessage("could not save form to storage").Len())
}

package derive_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zaptest"

	"github.com/goliatone/go-formforge/pkg/derive"
	"github.com/goliatone/go-formforge/pkg/model"
)

var fixedNow = time.Date(2026, time.October, 19, 14, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func ageFields() []model.FormField {
	return []model.FormField{
		{ID: "dob", Label: "Date of birth", Type: model.FieldTypeDate},
		{
			ID:         "age",
			Label:      "Age",
			Type:       model.FieldTypeNumber,
			IsDerived:  true,
			Derivation: &model.Derivation{ParentFieldIDs: []string{"dob"}, Formula: model.FormulaAge},
		},
	}
}

func newEngine(t *testing.T, fields []model.FormField, opts ...derive.Option) *derive.Engine {
	t.Helper()
	opts = append([]derive.Option{derive.WithClock(clock), derive.WithLogger(zaptest.NewLogger(t))}, opts...)
	engine, err := derive.New(fields, opts...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestAgeBoundaries(t *testing.T) {
	t.Parallel()

	engine := newEngine(t, ageFields())
	cases := []struct {
		name string
		dob  time.Time
		want model.Value
	}{
		{"today", fixedNow, model.Number(0)},
		{"exactly 30 years", fixedNow.AddDate(-30, 0, 0), model.Number(30)},
		{"30 years and a day", fixedNow.AddDate(-30, 0, -1), model.Number(30)},
		{"turns 30 tomorrow", fixedNow.AddDate(-30, 0, 1), model.Number(29)},
		{"future date", fixedNow.AddDate(0, 0, 1), model.Unset()},
	}
	for _, tc := range cases {
		out, _ := engine.Recompute(model.Values{"dob": model.Date(tc.dob)})
		if got := out.Get("age"); !got.Equal(tc.want) {
			t.Fatalf("%s: want %#v got %#v", tc.name, tc.want, got)
		}
	}
}

func TestAgeFromStringAndInvalidParents(t *testing.T) {
	t.Parallel()

	engine := newEngine(t, ageFields())

	out, changed := engine.Recompute(model.Values{"dob": model.String("1996-10-19")})
	if got := out.Get("age"); !got.Equal(model.Number(30)) {
		t.Fatalf("expected 30 from string date, got %#v", got)
	}
	if diff := cmp.Diff([]string{"age"}, changed); diff != "" {
		t.Fatalf("changed mismatch (-want +got):\n%s", diff)
	}

	for _, parent := range []model.Value{model.String("not a date"), model.Unset(), model.Number(1990)} {
		out, _ := engine.Recompute(model.Values{"dob": parent, "age": model.Number(30)})
		if out.Get("age").IsSet() {
			t.Fatalf("parent %#v should leave age unset, got %#v", parent, out.Get("age"))
		}
		if _, present := out["age"]; present {
			t.Fatalf("unset derived values should be removed from the map")
		}
	}
}

func TestLeapDayBirthday(t *testing.T) {
	t.Parallel()

	years, ok := derive.YearsBetween(
		time.Date(2000, time.February, 29, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.February, 28, 12, 0, 0, 0, time.UTC),
	)
	if !ok || years != 24 {
		t.Fatalf("expected 24 before the leap-day birthday, got %d %v", years, ok)
	}
	years, _ = derive.YearsBetween(
		time.Date(2000, time.February, 29, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
	)
	if years != 25 {
		t.Fatalf("expected 25 after the leap-day birthday, got %d", years)
	}
}

func TestRecomputeIsIdempotentAndPure(t *testing.T) {
	t.Parallel()

	engine := newEngine(t, ageFields())
	input := model.Values{"dob": model.Date(fixedNow.AddDate(-41, -2, 0))}

	first, changed := engine.Recompute(input)
	if len(changed) != 1 {
		t.Fatalf("expected one change, got %v", changed)
	}
	if _, present := input["age"]; present {
		t.Fatalf("Recompute must not mutate its input")
	}

	second, changed := engine.Recompute(first)
	if len(changed) != 0 {
		t.Fatalf("second pass should not change anything, got %v", changed)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("recompute not idempotent (-first +second):\n%s", diff)
	}
}

func TestUnknownFormulaIsAGap(t *testing.T) {
	t.Parallel()

	fields := []model.FormField{
		{ID: "start", Label: "Start", Type: model.FieldTypeDate},
		{
			ID: "weekday", Label: "Weekday", Type: model.FieldTypeText, IsDerived: true,
			Derivation: &model.Derivation{ParentFieldIDs: []string{"start"}, Formula: "weekday"},
		},
	}
	engine := newEngine(t, fields)

	if diff := cmp.Diff([]derive.Gap{{FieldID: "weekday", Formula: "weekday"}}, engine.Gaps()); diff != "" {
		t.Fatalf("gaps mismatch (-want +got):\n%s", diff)
	}
	out, changed := engine.Recompute(model.Values{"start": model.String("2024-01-01")})
	if out.Get("weekday").IsSet() || len(changed) != 0 {
		t.Fatalf("unknown formula must leave the field unset, got %#v (%v)", out.Get("weekday"), changed)
	}
}

func TestCustomFormulaRegistration(t *testing.T) {
	t.Parallel()

	reg := derive.NewRegistry()
	reg.Register(derive.Spec{
		Name:       "sum",
		ResultType: model.FieldTypeNumber,
		Compute: func(parents []model.Value, _ time.Time) model.Value {
			total := 0.0
			for _, parent := range parents {
				n, ok := parent.AsNumber()
				if !ok {
					return model.Unset()
				}
				total += n
			}
			return model.Number(total)
		},
	})

	fields := []model.FormField{
		{ID: "a", Label: "A", Type: model.FieldTypeNumber},
		{ID: "b", Label: "B", Type: model.FieldTypeNumber},
		{
			ID: "total", Label: "Total", Type: model.FieldTypeNumber, IsDerived: true,
			Derivation: &model.Derivation{ParentFieldIDs: []string{"a", "b"}, Formula: "sum"},
		},
	}
	engine := newEngine(t, fields, derive.WithRegistry(reg))

	out, _ := engine.Recompute(model.Values{"a": model.Number(2), "b": model.String("3.5")})
	if got := out.Get("total"); !got.Equal(model.Number(5.5)) {
		t.Fatalf("expected 5.5, got %#v", got)
	}
	if diff := cmp.Diff([]string{"age", "sum"}, reg.Names()); diff != "" {
		t.Fatalf("registry names mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckRejectsWrongParentShape(t *testing.T) {
	t.Parallel()

	fields := []model.FormField{
		{ID: "name", Label: "Name", Type: model.FieldTypeText},
		{ID: "dob", Label: "DOB", Type: model.FieldTypeDate},
		{
			ID: "age", Label: "Age", Type: model.FieldTypeNumber, IsDerived: true,
			Derivation: &model.Derivation{ParentFieldIDs: []string{"name"}, Formula: model.FormulaAge},
		},
		{
			ID: "age2", Label: "Age 2", Type: model.FieldTypeNumber, IsDerived: true,
			Derivation: &model.Derivation{ParentFieldIDs: []string{"dob", "name"}, Formula: model.FormulaAge},
		},
		{
			ID: "age3", Label: "Age 3", Type: model.FieldTypeText, IsDerived: true,
			Derivation: &model.Derivation{ParentFieldIDs: []string{"dob"}, Formula: model.FormulaAge},
		},
	}

	_, err := derive.New(fields)
	if !errors.Is(err, model.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	var schemaErr *model.SchemaError
	errors.As(err, &schemaErr)

	got := make([]string, 0, len(schemaErr.Issues))
	for _, issue := range schemaErr.Issues {
		got = append(got, issue.String())
	}
	want := []string{
		`age: formula "age" requires parent "name" to be date, got text`,
		`age2: formula "age" expects 1 parent field(s), got 2`,
		`age3: formula "age" produces number values, field is text`,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("issues mismatch (-want +got):\n%s", diff)
	}
}

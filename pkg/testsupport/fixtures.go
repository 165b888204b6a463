package testsupport

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/goliatone/go-formforge/pkg/export"
	"github.com/goliatone/go-formforge/pkg/model"
)

// FixtureNow is the instant fixtures are written against.
var FixtureNow = time.Date(2026, time.October, 19, 9, 0, 0, 0, time.UTC)

// FixturePath resolves name inside this package's testdata directory so
// tests in any package can share fixtures.
func FixturePath(name string) string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return filepath.Join("testdata", name)
	}
	return filepath.Join(filepath.Dir(file), "testdata", name)
}

// MustLoadForm loads a JSON or YAML form fixture by name.
func MustLoadForm(t *testing.T, name string) model.FormConfig {
	t.Helper()

	form, err := LoadForm(FixturePath(name))
	if err != nil {
		t.Fatalf("load form fixture: %v", err)
	}
	return form
}

// LoadForm reads a form definition, returning an error for callers managing
// setup outside of *testing.T.
func LoadForm(path string) (model.FormConfig, error) {
	if path == "" {
		return model.FormConfig{}, errors.New("testsupport: form path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return model.FormConfig{}, fmt.Errorf("testsupport: read form: %w", err)
	}
	form, err := export.Unmarshal(data, export.FormatFromPath(path))
	if err != nil {
		return model.FormConfig{}, fmt.Errorf("testsupport: decode form: %w", err)
	}
	return form, nil
}

// Clock returns a time source frozen at now.
func Clock(now time.Time) func() time.Time {
	return func() time.Time { return now }
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

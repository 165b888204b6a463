package preview_test

import (
	"context"
	"strings"
	"testing"

	theme "github.com/goliatone/go-theme"
	"go.uber.org/zap/zaptest"

	"github.com/goliatone/go-formforge/pkg/model"
	"github.com/goliatone/go-formforge/pkg/preview"
	"github.com/goliatone/go-formforge/pkg/testsupport"
)

func newRenderer(t *testing.T, opts ...preview.Option) *preview.Renderer {
	t.Helper()
	r, err := preview.New(append([]preview.Option{preview.WithLogger(zaptest.NewLogger(t))}, opts...)...)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	return r
}

func render(t *testing.T, r *preview.Renderer, req preview.Request) string {
	t.Helper()
	out, err := r.Render(context.Background(), req)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	return string(out)
}

func assertContains(t *testing.T, page string, fragments ...string) {
	t.Helper()
	for _, fragment := range fragments {
		if !strings.Contains(page, fragment) {
			t.Fatalf("expected page to contain %q, got:\n%s", fragment, page)
		}
	}
}

func TestRenderSignupFixture(t *testing.T) {
	t.Parallel()

	form := testsupport.MustLoadForm(t, "signup.yaml")
	page := render(t, newRenderer(t), preview.Request{Form: form})

	assertContains(t, page,
		"<title>Signup</title>",
		`action="/forms/signup/submissions"`,
		`type="email" id="email" name="email"`,
		`placeholder="you@example.com" required>`,
		`minlength="3" maxlength="12" pattern="[a-z0-9_]+" required>`,
		`<option value="Free" selected>Free</option>`,
		`<option value="Pro">Pro</option>`,
		`type="date" id="dob"`,
		`readonly data-formula="age" data-parents="dob"`,
		`type="checkbox" id="terms" name="terms" required>`,
		"theme-formforge variant-light",
		"--accent: #2563eb;",
	)
	if strings.Contains(page, `id="age" name="age" required`) {
		t.Fatalf("derived fields must not be required inputs")
	}
}

func TestRenderPrefillsValues(t *testing.T) {
	t.Parallel()

	form := testsupport.MustLoadForm(t, "signup.yaml")
	page := render(t, newRenderer(t), preview.Request{
		Form: form,
		Values: model.Values{
			"username": model.String("gopher"),
			"plan":     model.String("Pro"),
			"age":      model.Number(30),
			"terms":    model.Bool(true),
		},
	})

	assertContains(t, page,
		`id="username" name="username" value="gopher"`,
		`<option value="Pro" selected>Pro</option>`,
		`id="age" name="age" value="30"`,
		`name="terms" checked required>`,
	)
}

func TestRenderEscapesDefinitionText(t *testing.T) {
	t.Parallel()

	form := model.FormConfig{
		ID:   "x",
		Name: `Tom & "Jerry"`,
		Fields: []model.FormField{
			{ID: "note", Label: "<b>Note</b>", Type: model.FieldTypeTextarea, Placeholder: `"quoted"`},
		},
	}
	page := render(t, newRenderer(t), preview.Request{Form: form})

	if strings.Contains(page, "<b>Note</b>") {
		t.Fatalf("label markup must be escaped:\n%s", page)
	}
	assertContains(t, page, "&lt;b&gt;Note&lt;/b&gt;", "Tom &amp; ")
}

func TestRenderDarkVariantOverridesTokens(t *testing.T) {
	t.Parallel()

	form := testsupport.MustLoadForm(t, "signup.yaml")
	page := render(t, newRenderer(t), preview.Request{Form: form, Variant: "dark"})

	assertContains(t, page,
		"variant-dark",
		"--surface: #111827;",
		"--radius: 6px;",
	)

	if _, err := newRenderer(t).Render(context.Background(), preview.Request{Form: form, Theme: "missing"}); err == nil {
		t.Fatalf("expected unknown theme to fail")
	}
	if _, err := newRenderer(t).Render(context.Background(), preview.Request{Form: form, Variant: "sepia"}); err == nil {
		t.Fatalf("expected unknown variant to fail")
	}
}

type selectorCall struct {
	name    string
	variant string
}

type stubThemeSelector struct {
	selection *theme.Selection
	calls     []selectorCall
}

func (s *stubThemeSelector) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	s.calls = append(s.calls, selectorCall{name: name, variant: variant})
	return s.selection, nil
}

func TestRenderUsesThemeSelector(t *testing.T) {
	t.Parallel()

	manifest := &theme.Manifest{
		Name:    "acme",
		Version: "1.0.0",
		Tokens:  map[string]string{"brand": "#123456"},
		Assets: theme.Assets{
			Prefix: "/assets/acme",
			Files:  map[string]string{preview.StylesheetAssetKey: "theme.css"},
		},
	}
	selector := &stubThemeSelector{selection: &theme.Selection{Theme: "acme", Variant: "compact", Manifest: manifest}}

	form := testsupport.MustLoadForm(t, "signup.yaml")
	page := render(t, newRenderer(t, preview.WithThemeSelector(selector)), preview.Request{
		Form: form, Theme: "acme", Variant: "compact",
	})

	if len(selector.calls) != 1 || selector.calls[0] != (selectorCall{name: "acme", variant: "compact"}) {
		t.Fatalf("unexpected selector calls: %+v", selector.calls)
	}
	assertContains(t, page,
		`<link rel="stylesheet" href="/assets/acme/theme.css">`,
		"--brand: #123456;",
		"theme-acme variant-compact",
	)
}

package preview

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"strings"

	gotemplate "github.com/goliatone/go-template"
	theme "github.com/goliatone/go-theme"
	"go.uber.org/zap"

	"github.com/goliatone/go-formforge/pkg/model"
)

//go:embed templates/*.tpl
var embeddedTemplates embed.FS

// TemplatesFS exposes the built-in page templates.
func TemplatesFS() fs.FS {
	return embeddedTemplates
}

// TemplateRenderer is the part of the go-template engine the preview needs.
type TemplateRenderer interface {
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
}

// Option configures a Renderer.
type Option func(*config)

type config struct {
	templateFS fs.FS
	templates  TemplateRenderer
	selector   theme.ThemeSelector
	logger     *zap.Logger
}

// WithTemplatesFS replaces the template bundle. Theme manifests refer to
// templates by their path inside it.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplateRenderer injects a preconfigured template engine.
func WithTemplateRenderer(renderer TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templates = renderer
		}
	}
}

// WithThemeSelector resolves themes through selector instead of the built-in
// manifest.
func WithThemeSelector(selector theme.ThemeSelector) Option {
	return func(cfg *config) {
		if selector != nil {
			cfg.selector = selector
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// Renderer turns a form definition into a standalone HTML preview page.
type Renderer struct {
	templates TemplateRenderer
	selector  theme.ThemeSelector
	logger    *zap.Logger
}

// New constructs a Renderer. Without options it renders the embedded
// template with the built-in theme.
func New(options ...Option) (*Renderer, error) {
	cfg := config{logger: zap.NewNop()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}
	if cfg.selector == nil {
		cfg.selector = NewManifestSelector(DefaultVariant, DefaultManifest())
	}

	renderer := cfg.templates
	if renderer == nil {
		engine, err := gotemplate.NewRenderer(
			gotemplate.WithFS(cfg.templateFS),
			gotemplate.WithExtension(".tpl"),
		)
		if err != nil {
			return nil, fmt.Errorf("preview: configure template renderer: %w", err)
		}
		renderer = engine
	}

	return &Renderer{templates: renderer, selector: cfg.selector, logger: cfg.logger}, nil
}

// ContentType is the media type of rendered pages.
func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Request selects what to render.
type Request struct {
	Form model.FormConfig
	// Values prefill the page; missing fields show their defaults.
	Values model.Values
	// Theme and Variant pick the look; empty means the selector default.
	Theme   string
	Variant string
}

// Render produces the preview page for req.
func (r *Renderer) Render(ctx context.Context, req Request) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r == nil || r.templates == nil {
		return nil, errors.New("preview: template renderer is nil")
	}

	selection, err := r.selector.Select(req.Theme, req.Variant)
	if err != nil {
		return nil, fmt.Errorf("preview: select theme: %w", err)
	}
	themeCfg := rendererConfig(selection)
	page := themeCfg.Partials[PageTemplateKey]

	out, err := r.templates.RenderTemplate(page, map[string]any{
		"form":  formContext(req.Form, req.Values),
		"theme": themeContext(themeCfg),
	})
	if err != nil {
		return nil, fmt.Errorf("preview: render %s: %w", page, err)
	}
	r.logger.Debug("form preview rendered",
		zap.String("form", req.Form.ID),
		zap.String("theme", themeCfg.Theme),
		zap.String("variant", themeCfg.Variant))
	return []byte(out), nil
}

func themeContext(cfg *theme.RendererConfig) map[string]any {
	return map[string]any{
		"name":       cfg.Theme,
		"variant":    cfg.Variant,
		"style":      cssVarsStyle(cfg.CSSVars),
		"stylesheet": cfg.AssetURL(StylesheetAssetKey),
	}
}

// formContext flattens the form into plain strings and booleans so the
// template never formats numbers itself.
func formContext(form model.FormConfig, values model.Values) map[string]any {
	fields := make([]any, 0, len(form.Fields))
	for _, field := range form.Fields {
		current := values.Get(field.ID)
		if !current.IsSet() && field.DefaultValue != nil {
			current = *field.DefaultValue
		}
		fields = append(fields, fieldContext(field, current))
	}
	return map[string]any{
		"id":     form.ID,
		"name":   displayName(form),
		"action": "/forms/" + form.ID + "/submissions",
		"fields": fields,
	}
}

func fieldContext(field model.FormField, current model.Value) map[string]any {
	rules := field.Validations
	ctx := map[string]any{
		"id":          field.ID,
		"label":       fieldLabel(field),
		"type":        string(field.Type),
		"inputType":   inputType(field.Type),
		"placeholder": field.Placeholder,
		"required":    rules.Required && !field.IsDerived,
		"derived":     field.IsDerived,
		"value":       current.Display(),
		"minLength":   "",
		"maxLength":   "",
		"pattern":     "",
		"formula":     "",
		"parents":     "",
	}
	if field.Type.TextLike() {
		if rules.MinLength != nil {
			ctx["minLength"] = strconv.Itoa(*rules.MinLength)
		}
		if rules.MaxLength != nil {
			ctx["maxLength"] = strconv.Itoa(*rules.MaxLength)
		}
		if field.Type != model.FieldTypeTextarea {
			ctx["pattern"] = rules.Pattern
		}
	}
	if field.Type == model.FieldTypePassword {
		ctx["value"] = ""
	}
	if checked, ok := current.BoolValue(); ok {
		ctx["checked"] = checked
	}
	if field.Derivation != nil {
		ctx["formula"] = field.Derivation.Formula
		ctx["parents"] = strings.Join(field.Derivation.ParentFieldIDs, " ")
	}
	if field.Type.RequiresOptions() {
		selected, _ := current.Str()
		options := make([]any, 0, len(field.Options))
		for _, option := range field.Options {
			options = append(options, map[string]any{
				"value":    option,
				"selected": option == selected,
			})
		}
		ctx["options"] = options
	}
	return ctx
}

func inputType(t model.FieldType) string {
	switch t {
	case model.FieldTypeEmail:
		return "email"
	case model.FieldTypeNumber:
		return "number"
	case model.FieldTypePassword:
		return "password"
	case model.FieldTypeDate:
		return "date"
	default:
		return "text"
	}
}

func fieldLabel(field model.FormField) string {
	if field.Label != "" {
		return field.Label
	}
	return field.ID
}

func displayName(form model.FormConfig) string {
	if strings.TrimSpace(form.Name) != "" {
		return form.Name
	}
	return form.ID
}

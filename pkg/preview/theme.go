package preview

import (
	"fmt"
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"
)

const (
	// DefaultThemeName is the built-in theme.
	DefaultThemeName = "formforge"
	// DefaultVariant is used when no variant is requested.
	DefaultVariant = "light"

	// PageTemplateKey names the manifest template that renders a whole page.
	PageTemplateKey = "forms.preview"
	// StylesheetAssetKey names the manifest asset linked as the page stylesheet.
	StylesheetAssetKey = "preview.stylesheet"

	defaultPageTemplate = "templates/preview.tpl"
)

// DefaultManifest describes the built-in theme with light and dark variants.
func DefaultManifest() *theme.Manifest {
	return &theme.Manifest{
		Name:    DefaultThemeName,
		Version: "1.0.0",
		Tokens: map[string]string{
			"surface":    "#ffffff",
			"text":       "#1f2933",
			"accent":     "#2563eb",
			"error":      "#b91c1c",
			"radius":     "6px",
			"font-stack": "system-ui, sans-serif",
		},
		Templates: map[string]string{
			PageTemplateKey: defaultPageTemplate,
		},
		Variants: map[string]theme.Variant{
			"light": {},
			"dark": {
				Tokens: map[string]string{
					"surface": "#111827",
					"text":    "#f9fafb",
					"accent":  "#60a5fa",
				},
			},
		},
	}
}

// ManifestSelector resolves themes from a fixed set of manifests. It
// satisfies theme.ThemeSelector.
type ManifestSelector struct {
	manifests      map[string]*theme.Manifest
	defaultTheme   string
	defaultVariant string
}

var _ theme.ThemeSelector = (*ManifestSelector)(nil)

// NewManifestSelector indexes manifests by name. The first manifest is the
// default theme.
func NewManifestSelector(defaultVariant string, manifests ...*theme.Manifest) *ManifestSelector {
	s := &ManifestSelector{
		manifests:      make(map[string]*theme.Manifest, len(manifests)),
		defaultVariant: defaultVariant,
	}
	for _, m := range manifests {
		if m == nil || strings.TrimSpace(m.Name) == "" {
			continue
		}
		if s.defaultTheme == "" {
			s.defaultTheme = m.Name
		}
		s.manifests[m.Name] = m
	}
	return s
}

// Select returns the named theme and variant. Empty arguments fall back to
// the defaults.
func (s *ManifestSelector) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	if name == "" {
		name = s.defaultTheme
	}
	if variant == "" {
		variant = s.defaultVariant
	}
	manifest, ok := s.manifests[name]
	if !ok {
		return nil, fmt.Errorf("preview: unknown theme %q", name)
	}
	if variant != "" && len(manifest.Variants) > 0 {
		if _, ok := manifest.Variants[variant]; !ok {
			return nil, fmt.Errorf("preview: theme %q has no variant %q", name, variant)
		}
	}
	return &theme.Selection{Theme: name, Variant: variant, Manifest: manifest}, nil
}

// rendererConfig flattens a selection: variant tokens, templates and asset
// files override the base manifest.
func rendererConfig(selection *theme.Selection) *theme.RendererConfig {
	cfg := &theme.RendererConfig{
		Partials: map[string]string{PageTemplateKey: defaultPageTemplate},
		Tokens:   map[string]string{},
		CSSVars:  map[string]string{},
	}
	if selection == nil || selection.Manifest == nil {
		cfg.AssetURL = func(string) string { return "" }
		return cfg
	}
	manifest := selection.Manifest
	cfg.Theme = selection.Theme
	cfg.Variant = selection.Variant

	prefix := manifest.Assets.Prefix
	files := map[string]string{}
	merge(cfg.Tokens, manifest.Tokens)
	merge(cfg.Partials, manifest.Templates)
	merge(files, manifest.Assets.Files)
	if variant, ok := manifest.Variants[selection.Variant]; ok {
		merge(cfg.Tokens, variant.Tokens)
		merge(cfg.Partials, variant.Templates)
		merge(files, variant.Assets.Files)
		if variant.Assets.Prefix != "" {
			prefix = variant.Assets.Prefix
		}
	}
	for key, value := range cfg.Tokens {
		cfg.CSSVars["--"+key] = value
	}
	cfg.AssetURL = func(key string) string {
		file, ok := files[key]
		if !ok || file == "" {
			return ""
		}
		if prefix == "" || strings.Contains(file, "://") {
			return file
		}
		return strings.TrimSuffix(prefix, "/") + "/" + strings.TrimPrefix(file, "/")
	}
	return cfg
}

func merge(dst, src map[string]string) {
	for key, value := range src {
		dst[key] = value
	}
}

// cssVarsStyle renders CSS custom properties in a stable order.
func cssVarsStyle(vars map[string]string) string {
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+": "+vars[key]+";")
	}
	return strings.Join(parts, " ")
}

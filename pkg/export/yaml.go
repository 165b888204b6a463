package export

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formforge/pkg/model"
)

// Format names a serialisation of a form definition.
type Format string

const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatOpenAPI Format = "openapi"
)

// FormatFromPath picks JSON or YAML from a file extension, defaulting to
// JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// MarshalYAML encodes form as YAML. The document mirrors the persisted JSON
// shape key for key, in the same order.
func MarshalYAML(form model.FormConfig) ([]byte, error) {
	raw, err := json.Marshal(form)
	if err != nil {
		return nil, fmt.Errorf("export: encode form: %w", err)
	}
	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return nil, fmt.Errorf("export: convert form to yaml: %w", err)
	}
	blockStyle(&node)
	out, err := yaml.Marshal(&node)
	if err != nil {
		return nil, fmt.Errorf("export: encode yaml: %w", err)
	}
	return out, nil
}

// UnmarshalYAML decodes a form definition written by MarshalYAML or by
// hand.
func UnmarshalYAML(data []byte) (model.FormConfig, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return model.FormConfig{}, fmt.Errorf("export: decode yaml: %w", err)
	}
	raw, err := plainValue(&node)
	if err != nil {
		return model.FormConfig{}, fmt.Errorf("export: decode yaml: %w", err)
	}
	bridged, err := json.Marshal(raw)
	if err != nil {
		return model.FormConfig{}, fmt.Errorf("export: convert yaml form: %w", err)
	}
	var form model.FormConfig
	if err := json.Unmarshal(bridged, &form); err != nil {
		return model.FormConfig{}, fmt.Errorf("export: decode form: %w", err)
	}
	return form, nil
}

// Marshal encodes form in the requested format. FormatOpenAPI emits the
// payload schema as indented JSON.
func Marshal(form model.FormConfig, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return MarshalYAML(form)
	case FormatOpenAPI:
		return json.MarshalIndent(OpenAPISchema(form), "", "  ")
	case FormatJSON, "":
		return json.MarshalIndent(form, "", "  ")
	default:
		return nil, fmt.Errorf("export: unknown format %q", format)
	}
}

// Unmarshal decodes a JSON or YAML form definition.
func Unmarshal(data []byte, format Format) (model.FormConfig, error) {
	switch format {
	case FormatYAML:
		return UnmarshalYAML(data)
	case FormatJSON, "":
		var form model.FormConfig
		if err := json.Unmarshal(data, &form); err != nil {
			return model.FormConfig{}, fmt.Errorf("export: decode form: %w", err)
		}
		return form, nil
	default:
		return model.FormConfig{}, fmt.Errorf("export: cannot import %q", format)
	}
}

// blockStyle drops the flow and quoting styles inherited from JSON so the
// encoder picks plain YAML, quoting only where a scalar would otherwise
// change type.
func blockStyle(node *yaml.Node) {
	node.Style = 0
	for _, child := range node.Content {
		blockStyle(child)
	}
}

// plainValue converts a YAML node into values encoding/json understands.
// Timestamps stay as their source text so the model parses them itself.
func plainValue(node *yaml.Node) (any, error) {
	switch node.Kind {
	case 0:
		return nil, nil
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return plainValue(node.Content[0])
	case yaml.AliasNode:
		return plainValue(node.Alias)
	case yaml.MappingNode:
		out := make(map[string]any, len(node.Content)/2)
		for idx := 0; idx+1 < len(node.Content); idx += 2 {
			value, err := plainValue(node.Content[idx+1])
			if err != nil {
				return nil, err
			}
			out[node.Content[idx].Value] = value
		}
		return out, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(node.Content))
		for _, child := range node.Content {
			value, err := plainValue(child)
			if err != nil {
				return nil, err
			}
			out = append(out, value)
		}
		return out, nil
	default:
		switch node.ShortTag() {
		case "!!str", "!!timestamp":
			return node.Value, nil
		}
		var value any
		if err := node.Decode(&value); err != nil {
			return nil, fmt.Errorf("line %d: %w", node.Line, err)
		}
		return value, nil
	}
}

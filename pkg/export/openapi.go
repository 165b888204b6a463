package export

import (
	"context"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formforge/pkg/model"
	"github.com/goliatone/go-formforge/pkg/validation"
)

const (
	// DerivationExtension carries a derived field's formula and parents.
	DerivationExtension = "x-formforge-derivation"
	// FieldTypeExtension records the original field type, since several
	// types share one JSON schema type.
	FieldTypeExtension = "x-formforge-type"

	openAPIVersion = "3.0.3"
)

// OpenAPISchema describes the payload a valid submission of form produces.
// Derived fields are marked readOnly.
func OpenAPISchema(form model.FormConfig) *openapi3.Schema {
	schema := openapi3.NewObjectSchema()
	schema.Title = form.Name
	schema.Properties = make(openapi3.Schemas, len(form.Fields))

	var required []string
	for _, field := range form.Fields {
		schema.WithProperty(field.ID, fieldSchema(field))
		if field.Validations.Required && !field.IsDerived {
			required = append(required, field.ID)
		}
	}
	if len(required) > 0 {
		schema.WithRequired(required)
	}
	return schema
}

func fieldSchema(field model.FormField) *openapi3.Schema {
	var schema *openapi3.Schema
	switch field.Type {
	case model.FieldTypeEmail:
		schema = openapi3.NewStringSchema().WithFormat("email")
	case model.FieldTypeDate:
		schema = openapi3.NewStringSchema().WithFormat("date")
	case model.FieldTypeNumber:
		schema = openapi3.NewFloat64Schema()
	case model.FieldTypeCheckbox:
		schema = openapi3.NewBoolSchema()
		if field.Validations.Required {
			schema.WithEnum(true)
		}
	case model.FieldTypeDropdown, model.FieldTypeRadio:
		schema = openapi3.NewStringSchema()
		enum := make([]any, 0, len(field.Options))
		for _, option := range field.Options {
			enum = append(enum, option)
		}
		schema.WithEnum(enum...)
	default:
		schema = openapi3.NewStringSchema()
		if field.Type == model.FieldTypePassword {
			schema.WithFormat("password")
		}
	}

	schema.Title = field.Label
	schema.Description = field.Placeholder
	if field.DefaultValue != nil && field.DefaultValue.IsSet() {
		schema.WithDefault(field.DefaultValue.Interface())
	}

	if field.Type.TextLike() {
		rules := field.Validations
		if rules.MinLength != nil {
			schema.WithMinLength(int64(*rules.MinLength))
		} else if rules.Required {
			schema.WithMinLength(1)
		}
		if rules.MaxLength != nil {
			schema.WithMaxLength(int64(*rules.MaxLength))
		}
		if rules.Pattern != "" {
			schema.WithPattern(validation.Anchor(rules.Pattern))
		}
	} else if field.Validations.Required && schema.Type.Is(openapi3.TypeString) && len(schema.Enum) == 0 {
		schema.WithMinLength(1)
	}

	schema.Extensions = map[string]any{FieldTypeExtension: string(field.Type)}
	if field.IsDerived && field.Derivation != nil {
		schema.ReadOnly = true
		schema.Extensions[DerivationExtension] = map[string]any{
			"formula":        field.Derivation.Formula,
			"parentFieldIds": append([]string(nil), field.Derivation.ParentFieldIDs...),
		}
	}
	return schema
}

// Document wraps the payload schema in an OpenAPI document with a single
// submit operation, and validates the result.
func Document(ctx context.Context, form model.FormConfig) (*openapi3.T, error) {
	payload := OpenAPISchema(form)
	name := form.Name
	if name == "" {
		name = form.ID
	}

	op := openapi3.NewOperation()
	op.OperationID = "submit-" + form.ID
	op.Summary = "Submit " + name
	op.RequestBody = &openapi3.RequestBodyRef{
		Value: openapi3.NewRequestBody().WithRequired(true).WithJSONSchema(payload),
	}
	op.Responses = openapi3.NewResponses(
		openapi3.WithStatus(204, &openapi3.ResponseRef{
			Value: openapi3.NewResponse().WithDescription("Submission accepted"),
		}),
		openapi3.WithStatus(422, &openapi3.ResponseRef{
			Value: openapi3.NewResponse().WithDescription("Validation failed"),
		}),
	)

	doc := &openapi3.T{
		OpenAPI: openAPIVersion,
		Info:    &openapi3.Info{Title: name, Version: model.FormatTimestamp(form.UpdatedAt)},
		Paths: openapi3.NewPaths(
			openapi3.WithPath("/forms/"+form.ID+"/submissions", &openapi3.PathItem{Post: op}),
		),
	}
	if doc.Info.Version == "" {
		doc.Info.Version = "draft"
	}
	if err := doc.Validate(ctx, openapi3.SetRegexCompiler(compilePattern)); err != nil {
		return nil, fmt.Errorf("export: openapi document for %s: %w", form.ID, err)
	}
	return doc, nil
}

// Payload converts submitted values into the shape OpenAPISchema describes:
// numbers and dates normalised, empty entries omitted.
func Payload(form model.FormConfig, values model.Values) map[string]any {
	out := make(map[string]any, len(values))
	for _, field := range form.Fields {
		value := values.Get(field.ID)
		if value.IsEmpty() {
			continue
		}
		switch field.Type {
		case model.FieldTypeNumber:
			if n, ok := value.AsNumber(); ok {
				out[field.ID] = n
				continue
			}
		case model.FieldTypeDate:
			if d, ok := value.AsDate(); ok {
				out[field.ID] = d.Format(model.DateLayout)
				continue
			}
		}
		out[field.ID] = value.Interface()
	}
	return out
}

// ValidatePayload checks payload against schema.
func ValidatePayload(schema *openapi3.Schema, payload map[string]any) error {
	return schema.VisitJSON(payload, openapi3.MultiErrors(), openapi3.SetSchemaRegexCompiler(compilePattern))
}

// compilePattern makes kin-openapi read patterns with the same ECMAScript
// dialect the form validator uses.
func compilePattern(expr string) (openapi3.RegexMatcher, error) {
	p, err := validation.CompilePattern(expr)
	if err != nil {
		return nil, err
	}
	return p, nil
}

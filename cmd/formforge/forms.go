package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formforge/pkg/builder"
	"github.com/goliatone/go-formforge/pkg/derive"
	"github.com/goliatone/go-formforge/pkg/export"
	"github.com/goliatone/go-formforge/pkg/model"
	"github.com/goliatone/go-formforge/pkg/validation"
)

func (c *cli) formCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "form", Short: "Manage form definitions"}
	cmd.AddCommand(c.formListCmd())
	cmd.AddCommand(c.formShowCmd())
	cmd.AddCommand(c.formNewCmd())
	cmd.AddCommand(c.formRenameCmd())
	cmd.AddCommand(c.formAddFieldCmd())
	cmd.AddCommand(c.formRemoveFieldCmd())
	cmd.AddCommand(c.formDeleteCmd())
	cmd.AddCommand(c.formExportCmd())
	cmd.AddCommand(c.formImportCmd())
	cmd.AddCommand(c.formLintCmd())
	cmd.AddCommand(c.formFillCmd())
	cmd.AddCommand(c.formPreviewCmd())
	return cmd
}

func (c *cli) formListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored forms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withLibrary(cmd.Context(), func(ctx context.Context, lib *builder.Library) error {
				forms, err := lib.List(ctx)
				if err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), "warning: could not load forms:", err)
				}
				if c.jsonOutput() {
					return c.printJSON(forms)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(c.out)
				tw.AppendHeader(table.Row{"ID", "Name", "Fields", "Updated"})
				for _, form := range forms {
					tw.AppendRow(table.Row{form.ID, form.Name, len(form.Fields), model.FormatTimestamp(form.UpdatedAt)})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func (c *cli) formShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <form-id>",
		Short: "Show a form and its fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withLibrary(cmd.Context(), func(ctx context.Context, lib *builder.Library) error {
				form, err := lib.Get(ctx, args[0])
				if err != nil {
					return err
				}
				if c.jsonOutput() {
					return c.printJSON(form)
				}
				fmt.Fprintf(c.out, "%s (%s)\n", form.Name, form.ID)
				tw := table.NewWriter()
				tw.SetOutputMirror(c.out)
				tw.AppendHeader(table.Row{"#", "ID", "Label", "Type", "Required", "Rules"})
				for idx, field := range form.Fields {
					tw.AppendRow(table.Row{idx, field.ID, field.Label, field.Type, field.Validations.Required, describeRules(field)})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func (c *cli) formNewCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create an empty form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withLibrary(cmd.Context(), func(ctx context.Context, lib *builder.Library) error {
				ed := builder.NewForm(time.Now(), nil)
				if name != "" {
					ed.Rename(name)
				}
				saved, err := lib.Save(ctx, ed.Form())
				if err != nil {
					return err
				}
				if c.jsonOutput() {
					return c.printJSON(saved)
				}
				fmt.Fprintln(c.out, saved.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "form name")
	return cmd
}

func (c *cli) formRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <form-id> <name>",
		Short: "Rename a form",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.editForm(cmd.Context(), args[0], func(ed *builder.Editor) error {
				ed.Rename(args[1])
				return nil
			})
		},
	}
}

type fieldFlags struct {
	typ         string
	label       string
	placeholder string
	options     []string
	required    bool
	minLength   int
	maxLength   int
	pattern     string
	ageOf       string
	position    int
}

func (c *cli) formAddFieldCmd() *cobra.Command {
	var f fieldFlags
	cmd := &cobra.Command{
		Use:   "add-field <form-id>",
		Short: "Append a field to a form",
		Long: `Append a field to a form.

Use --age-of <date-field-id> to add a derived age field instead of an
editable one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.editForm(cmd.Context(), args[0], func(ed *builder.Editor) error {
				var (
					field model.FormField
					err   error
				)
				if f.ageOf != "" {
					field, err = ed.AddAgeField(f.ageOf, f.label)
				} else {
					field, err = ed.AddField(model.FieldType(f.typ))
				}
				if err != nil {
					return err
				}
				if f.ageOf == "" {
					err = ed.UpdateField(field.ID, func(target *model.FormField) {
						applyFieldFlags(cmd, f, target)
					})
					if err != nil {
						return err
					}
				}
				if cmd.Flags().Changed("position") {
					if err := ed.MoveField(field.ID, f.position); err != nil {
						return err
					}
				}
				fmt.Fprintln(c.out, field.ID)
				return nil
			})
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&f.typ, "type", "t", string(model.FieldTypeText), "field type ("+fieldTypeList()+")")
	flags.StringVarP(&f.label, "label", "l", "", "field label")
	flags.StringVar(&f.placeholder, "placeholder", "", "placeholder text")
	flags.StringSliceVar(&f.options, "option", nil, "choice option (repeatable)")
	flags.BoolVar(&f.required, "required", false, "field must be filled")
	flags.IntVar(&f.minLength, "min-length", 0, "minimum length for text fields")
	flags.IntVar(&f.maxLength, "max-length", 0, "maximum length for text fields")
	flags.StringVar(&f.pattern, "pattern", "", "regular expression text fields must match")
	flags.StringVar(&f.ageOf, "age-of", "", "derive an age from this date field")
	flags.IntVar(&f.position, "position", 0, "insert at this index")
	return cmd
}

func applyFieldFlags(cmd *cobra.Command, f fieldFlags, target *model.FormField) {
	flags := cmd.Flags()
	if f.label != "" {
		target.Label = f.label
	}
	target.Placeholder = f.placeholder
	if len(f.options) > 0 {
		target.Options = append([]string(nil), f.options...)
	}
	target.Validations.Required = f.required
	if flags.Changed("min-length") {
		n := f.minLength
		target.Validations.MinLength = &n
	}
	if flags.Changed("max-length") {
		n := f.maxLength
		target.Validations.MaxLength = &n
	}
	target.Validations.Pattern = f.pattern
}

func (c *cli) formRemoveFieldCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-field <form-id> <field-id>",
		Short: "Remove a field from a form",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.editForm(cmd.Context(), args[0], func(ed *builder.Editor) error {
				return ed.RemoveField(args[1])
			})
		},
	}
}

func (c *cli) formDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <form-id>",
		Short: "Delete a form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withLibrary(cmd.Context(), func(ctx context.Context, lib *builder.Library) error {
				return lib.Delete(ctx, args[0])
			})
		},
	}
}

func (c *cli) formExportCmd() *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export <form-id>",
		Short: "Export a form as JSON, YAML or an OpenAPI schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withLibrary(cmd.Context(), func(ctx context.Context, lib *builder.Library) error {
				form, err := lib.Get(ctx, args[0])
				if err != nil {
					return err
				}
				var raw []byte
				if export.Format(format) == export.FormatOpenAPI {
					doc, err := export.Document(ctx, form)
					if err != nil {
						return err
					}
					raw, err = doc.MarshalJSON()
					if err != nil {
						return err
					}
					raw = append(raw, '\n')
				} else {
					raw, err = export.Marshal(form, export.Format(format))
					if err != nil {
						return err
					}
				}
				if output == "" {
					_, err = c.out.Write(raw)
					return err
				}
				if err := os.WriteFile(output, raw, 0o644); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "form written to %s\n", output)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(export.FormatJSON), "json, yaml or openapi")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	return cmd
}

func (c *cli) formImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a JSON or YAML form definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form, err := readFormFile(args[0])
			if err != nil {
				return err
			}
			if strings.TrimSpace(form.ID) == "" {
				form.ID = builder.UUIDGenerator()
			}
			return c.withLibrary(cmd.Context(), func(ctx context.Context, lib *builder.Library) error {
				saved, err := lib.Save(ctx, form)
				if err != nil {
					return describeSaveError(err)
				}
				fmt.Fprintln(c.out, saved.ID)
				return nil
			})
		},
	}
}

func (c *cli) formLintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lint <form-id|file>",
		Short: "Report configuration problems in a form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withLibrary(cmd.Context(), func(ctx context.Context, lib *builder.Library) error {
				form, err := c.loadForm(ctx, lib, args[0])
				if err != nil {
					return err
				}
				result := lib.Lint(form)
				if c.jsonOutput() {
					if err := c.printJSON(result); err != nil {
						return err
					}
				} else {
					printIssues(c, result)
				}
				if !result.Valid {
					return fmt.Errorf("%d problem(s) found", len(result.Issues))
				}
				return nil
			})
		},
	}
}

func (c *cli) formulaCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "formula", Short: "Inspect derivation formulas"}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered formulas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := derive.DefaultRegistry()
			tw := table.NewWriter()
			tw.SetOutputMirror(c.out)
			tw.AppendHeader(table.Row{"Name", "Parents", "Result"})
			for _, name := range reg.Names() {
				spec, _ := reg.Lookup(name)
				parents := make([]string, 0, len(spec.ParentTypes))
				for _, typ := range spec.ParentTypes {
					parents = append(parents, string(typ))
				}
				tw.AppendRow(table.Row{spec.Name, strings.Join(parents, ", "), spec.ResultType})
			}
			tw.Render()
			return nil
		},
	})
	return cmd
}

// editForm loads a form, applies fn through an Editor and saves the result.
func (c *cli) editForm(ctx context.Context, id string, fn func(ed *builder.Editor) error) error {
	return c.withLibrary(ctx, func(ctx context.Context, lib *builder.Library) error {
		form, err := lib.Get(ctx, id)
		if err != nil {
			return err
		}
		ed := builder.Edit(form, nil)
		if err := fn(ed); err != nil {
			return err
		}
		if _, err := lib.Save(ctx, ed.Form()); err != nil {
			return describeSaveError(err)
		}
		return nil
	})
}

// loadForm resolves ref as a file path when one exists, otherwise as a
// stored form id.
func (c *cli) loadForm(ctx context.Context, lib *builder.Library, ref string) (model.FormConfig, error) {
	if info, err := os.Stat(ref); err == nil && !info.IsDir() {
		return readFormFile(ref)
	}
	return lib.Get(ctx, ref)
}

func readFormFile(path string) (model.FormConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.FormConfig{}, err
	}
	return export.Unmarshal(raw, export.FormatFromPath(path))
}

func describeSaveError(err error) error {
	var schemaErr *model.SchemaError
	if !errors.As(err, &schemaErr) {
		return err
	}
	lines := make([]string, 0, len(schemaErr.Issues)+1)
	lines = append(lines, "form not saved:")
	for _, issue := range schemaErr.Issues {
		lines = append(lines, "  - "+issue.String())
	}
	return errors.New(strings.Join(lines, "\n"))
}

func printIssues(c *cli, result validation.SchemaValidationResult) {
	if result.Valid {
		fmt.Fprintln(c.out, "ok")
		return
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(c.out)
	tw.AppendHeader(table.Row{"Field", "Problem"})
	for _, issue := range result.Issues {
		tw.AppendRow(table.Row{issue.Field, issue.Message})
	}
	tw.Render()
}

func describeRules(field model.FormField) string {
	var parts []string
	rules := field.Validations
	if rules.MinLength != nil {
		parts = append(parts, fmt.Sprintf("min %d", *rules.MinLength))
	}
	if rules.MaxLength != nil {
		parts = append(parts, fmt.Sprintf("max %d", *rules.MaxLength))
	}
	if rules.Pattern != "" {
		parts = append(parts, "pattern "+rules.Pattern)
	}
	if len(field.Options) > 0 {
		parts = append(parts, "options "+strings.Join(field.Options, "/"))
	}
	if field.IsDerived && field.Derivation != nil {
		parts = append(parts, fmt.Sprintf("%s(%s)", field.Derivation.Formula, strings.Join(field.Derivation.ParentFieldIDs, ", ")))
	}
	return strings.Join(parts, ", ")
}

func fieldTypeList() string {
	names := make([]string, 0, len(model.FieldTypes))
	for _, typ := range model.FieldTypes {
		names = append(names, string(typ))
	}
	return strings.Join(names, ", ")
}

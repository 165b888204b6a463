package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formforge/pkg/builder"
	"github.com/goliatone/go-formforge/pkg/preview"
)

func (c *cli) formPreviewCmd() *cobra.Command {
	var output, themeName, variant, templatesDir string
	cmd := &cobra.Command{
		Use:   "preview <form-id|file>",
		Short: "Render a form as a standalone HTML page",
		Long: `Render a form as a standalone HTML page.

The page shows every field with its defaults and validation attributes; derived
fields are read-only. Themes come from the built-in manifest (variants light
and dark). A templates directory can replace the page template.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withLibrary(cmd.Context(), func(ctx context.Context, lib *builder.Library) error {
				form, err := c.loadForm(ctx, lib, args[0])
				if err != nil {
					return err
				}

				opts := []preview.Option{preview.WithLogger(c.logger)}
				if templatesDir != "" {
					opts = append(opts, preview.WithTemplatesFS(os.DirFS(templatesDir)))
				}
				renderer, err := preview.New(opts...)
				if err != nil {
					return err
				}
				page, err := renderer.Render(ctx, preview.Request{Form: form, Theme: themeName, Variant: variant})
				if err != nil {
					return err
				}

				if output == "" {
					_, err = c.out.Write(page)
					return err
				}
				if err := os.WriteFile(output, page, 0o644); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "preview written to %s\n", output)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().StringVar(&themeName, "theme", "", "theme name (default "+preview.DefaultThemeName+")")
	cmd.Flags().StringVar(&variant, "variant", "", "theme variant (default "+preview.DefaultVariant+")")
	cmd.Flags().StringVar(&templatesDir, "templates", "", "directory holding templates/preview.tpl")
	return cmd
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-formforge/internal/logging"
	"github.com/goliatone/go-formforge/pkg/builder"
	"github.com/goliatone/go-formforge/pkg/export"
	"github.com/goliatone/go-formforge/pkg/model"
	"github.com/goliatone/go-formforge/pkg/prompt"
	"github.com/goliatone/go-formforge/pkg/session"
)

func (c *cli) formFillCmd() *cobra.Command {
	var sinkName, output string
	var checkPayload bool
	cmd := &cobra.Command{
		Use:   "fill <form-id|file>",
		Short: "Fill a form interactively and submit it",
		Long: `Fill a form interactively and submit it.

Every editable field is prompted in order. Derived values are shown as soon as
their inputs change, invalid answers are asked again, and the submission is
handed to the chosen sink once the whole form passes validation.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withLibrary(cmd.Context(), func(ctx context.Context, lib *builder.Library) error {
				form, err := c.loadForm(ctx, lib, args[0])
				if err != nil {
					return err
				}

				sink, closeSink, err := c.openSink(sinkName, output)
				if err != nil {
					return err
				}
				defer closeSink()
				if checkPayload {
					sink = payloadCheck(sink)
				}

				s, err := session.New(form,
					session.WithSink(sink),
					session.WithLogger(c.logger))
				if err != nil {
					return describeSaveError(err)
				}

				filler := prompt.New(
					prompt.WithPromptDriver(prompt.NewSurveyDriver(cmd.ErrOrStderr())),
					prompt.WithLogger(c.logger))
				_, err = filler.Fill(ctx, s)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&sinkName, "sink", "json", "where submissions go: json or log")
	cmd.Flags().StringVarP(&output, "output", "o", "", "file receiving JSON submissions (stdout if empty)")
	cmd.Flags().BoolVar(&checkPayload, "check-payload", false, "validate the submission against the exported OpenAPI schema")
	return cmd
}

func (c *cli) openSink(name, output string) (session.Sink, func(), error) {
	noop := func() {}
	switch name {
	case "log":
		logger := c.logger
		if !logger.Core().Enabled(zap.InfoLevel) {
			// submissions are logged at info even when the process logs less
			verbose, err := logging.New("info", c.settings.Log.Dev)
			if err != nil {
				return nil, noop, err
			}
			logger = verbose
		}
		return session.LogSink{Logger: logger}, func() { _ = logger.Sync() }, nil
	case "json", "":
		if output == "" {
			return session.JSONSink{W: c.out}, noop, nil
		}
		f, err := os.OpenFile(output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, noop, err
		}
		return session.JSONSink{W: f}, func() { _ = f.Close() }, nil
	default:
		return nil, noop, fmt.Errorf("unknown sink %q (want json or log)", name)
	}
}

// payloadCheck validates each submission against the form's OpenAPI payload
// schema before passing it on.
func payloadCheck(next session.Sink) session.Sink {
	return session.SinkFunc(func(ctx context.Context, form model.FormConfig, values model.Values) error {
		schema := export.OpenAPISchema(form)
		if err := export.ValidatePayload(schema, export.Payload(form, values)); err != nil {
			return fmt.Errorf("payload does not match schema: %w", err)
		}
		return next.OnValidSubmit(ctx, form, values)
	})
}

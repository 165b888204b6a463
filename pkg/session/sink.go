package session

import (
	"context"
	"encoding/json"
	"io"

	"go.uber.org/zap"

	"github.com/goliatone/go-formforge/pkg/model"
)

// Sink receives the values of a submission that passed whole-form
// validation.
type Sink interface {
	OnValidSubmit(ctx context.Context, form model.FormConfig, values model.Values) error
}

// SinkFunc adapts a function into a Sink.
type SinkFunc func(ctx context.Context, form model.FormConfig, values model.Values) error

// OnValidSubmit calls the underlying function.
func (fn SinkFunc) OnValidSubmit(ctx context.Context, form model.FormConfig, values model.Values) error {
	return fn(ctx, form, values)
}

// LogSink records submissions on a logger.
type LogSink struct {
	Logger *zap.Logger
}

func (s LogSink) OnValidSubmit(_ context.Context, form model.FormConfig, values model.Values) error {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("form submitted",
		zap.String("form", form.ID),
		zap.String("name", form.Name),
		zap.Any("values", values.Plain()))
	return nil
}

// JSONSink writes each submission as one JSON object per line.
type JSONSink struct {
	W io.Writer
}

// Submission is the payload written by JSONSink.
type Submission struct {
	FormID string         `json:"formId"`
	Name   string         `json:"name"`
	Values map[string]any `json:"values"`
}

func (s JSONSink) OnValidSubmit(_ context.Context, form model.FormConfig, values model.Values) error {
	return json.NewEncoder(s.W).Encode(Submission{
		FormID: form.ID,
		Name:   form.Name,
		Values: values.Plain(),
	})
}

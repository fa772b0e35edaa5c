package main

import (
	"context"
	"log/slog"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// slogSpanExporter writes completed spans to the operational logger, so a
// traced run needs no collector infrastructure.
type slogSpanExporter struct {
	logger *slog.Logger
}

func (e *slogSpanExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, span := range spans {
		e.logger.Info("span",
			"name", span.Name(),
			"duration", span.EndTime().Sub(span.StartTime()),
			"status", span.Status().Code.String(),
		)
	}
	return nil
}

func (e *slogSpanExporter) Shutdown(context.Context) error { return nil }

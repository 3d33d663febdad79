// Package federatord wires the coordinator and participant services into
// runnable processes.
package federatord

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"

	"github.com/absmach/supermq/pkg/jaeger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("failed to parse log level: %w", err)
	}
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: lvl,
	})
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	return logger, nil
}

// newTracerProvider returns a jaeger provider when otelURL is set and a noop
// one otherwise. The returned func flushes the provider.
func newTracerProvider(ctx context.Context, svcName, instanceID string, otelURL url.URL, ratio float64, logger *slog.Logger) (trace.TracerProvider, func(), error) {
	if otelURL == (url.URL{}) {
		return noop.NewTracerProvider(), func() {}, nil
	}

	tp, err := jaeger.NewProvider(ctx, svcName, otelURL, instanceID, ratio)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize opentelemetry: %w", err)
	}
	otel.SetTracerProvider(tp)

	return tp, func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Error("error shutting down tracer provider", slog.Any("error", err))
		}
	}, nil
}

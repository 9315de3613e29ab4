// Package observability installs the OpenTelemetry tracer provider.
package observability

import (
	"context"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/abhisek/notequiz/internal/logging"
)

const serviceName = "notequiz"

// Shutdown flushes and stops the tracer provider.
type Shutdown func(context.Context) error

// InitTracing exports every span as pretty-printed JSON to w and makes the
// provider global. Spans are written synchronously so a short CLI run
// loses nothing.
func InitTracing(w io.Writer, version string, log *logging.Logger) (Shutdown, error) {
	exp, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", serviceName),
		attribute.String("service.version", version),
	)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exp),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	if log != nil {
		log.Debug("tracing enabled", "exporter", "stdout")
	}
	return tp.Shutdown, nil
}

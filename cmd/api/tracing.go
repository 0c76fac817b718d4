// cmd/api/tracing.go
// This file installs the OpenTelemetry tracer provider. Without a collector
// endpoint the global no-op provider stays in place and spans cost nothing.
package main

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const serviceName = "book-inventory"

// setupTracing exports spans over OTLP/HTTP when settings name an endpoint.
// The returned function flushes and stops the exporter.
func setupTracing(ctx context.Context, settings serverConfig) (func(context.Context) error, error) {
	if settings.otel.endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(settings.otel.endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res := resource.NewWithAttributes("",
		attribute.String("service.name", serviceName),
		attribute.String("service.version", appVersion),
		attribute.String("deployment.environment", settings.environment),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}

package shipper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// OTLPSink exports each batch as gauge points in a single OTLP/HTTP request.
// A fresh meter provider with a manual reader is built per Send, so nothing
// is exported outside of a pipeline run.
type OTLPSink struct {
	endpoint string
	timeout  time.Duration
	headers  map[string]string
}

// NewOTLP returns a sink exporting to the OTLP/HTTP metrics URL endpoint,
// e.g. http://localhost:4318/v1/metrics.
func NewOTLP(endpoint string, timeout time.Duration, headers map[string]string) *OTLPSink {
	return &OTLPSink{endpoint: endpoint, timeout: timeout, headers: headers}
}

func (o *OTLPSink) Name() string { return "otlp" }

// Send records every event on a namespace-scoped meter, collects once and
// exports the collected batch.
func (o *OTLPSink) Send(ctx context.Context, namespace string, events []Event) (err error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpointURL(o.endpoint),
		otlpmetrichttp.WithRetry(otlpmetrichttp.RetryConfig{Enabled: false}),
	}
	if o.timeout > 0 {
		opts = append(opts, otlpmetrichttp.WithTimeout(o.timeout))
	}
	if len(o.headers) > 0 {
		opts = append(opts, otlpmetrichttp.WithHeaders(o.headers))
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return fmt.Errorf("new exporter: %w", err)
	}
	defer func() {
		err = errors.Join(err, exporter.Shutdown(context.WithoutCancel(ctx)))
	}()

	rm, err := collect(ctx, namespace, events)
	if err != nil {
		return err
	}
	if err := exporter.Export(ctx, rm); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}

// collect records events through the metric API and returns the collected
// resource metrics.
func collect(ctx context.Context, namespace string, events []Event) (*metricdata.ResourceMetrics, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceName(namespace)),
	)
	if err != nil {
		return nil, fmt.Errorf("resource: %w", err)
	}

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(res),
	)
	defer func() { _ = provider.Shutdown(context.WithoutCancel(ctx)) }()

	meter := provider.Meter(namespace)
	intGauges := map[string]metric.Int64Gauge{}
	floatGauges := map[string]metric.Float64Gauge{}

	for _, e := range events {
		attrs := make([]attribute.KeyValue, 0, len(e.Labels))
		for _, l := range e.Labels {
			attrs = append(attrs, attribute.String(l.Name, l.Value))
		}
		set := metric.WithAttributes(attrs...)

		if e.Integral() {
			g, ok := intGauges[e.Name]
			if !ok {
				if g, err = meter.Int64Gauge(e.Name, metric.WithDescription(metricHelp[e.Name])); err != nil {
					return nil, fmt.Errorf("gauge %s: %w", e.Name, err)
				}
				intGauges[e.Name] = g
			}
			g.Record(ctx, e.Value.IntPart(), set)
			continue
		}

		g, ok := floatGauges[e.Name]
		if !ok {
			if g, err = meter.Float64Gauge(e.Name, metric.WithDescription(metricHelp[e.Name])); err != nil {
				return nil, fmt.Errorf("gauge %s: %w", e.Name, err)
			}
			floatGauges[e.Name] = g
		}
		g.Record(ctx, e.Float(), set)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		return nil, fmt.Errorf("collect: %w", err)
	}
	return &rm, nil
}

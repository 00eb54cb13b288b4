// internal/common/observability/metrics.go
package observability

import (
	"context"
	"fmt"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// Observability records aggregation and scan timings through an OpenTelemetry meter
// exported in Prometheus format.
type Observability struct {
	meterProvider *metric.MeterProvider
	operations    otelmetric.Int64Counter
	duration      otelmetric.Float64Histogram
	alerts        otelmetric.Int64Histogram
}

// New registers the exporter on reg (the default registry when nil).
func New(serviceName string, reg promclient.Registerer) (*Observability, error) {
	opts := []prometheus.Option{}
	if reg != nil {
		opts = append(opts, prometheus.WithRegisterer(reg))
	}
	exporter, err := prometheus.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	res := resource.NewSchemaless(attribute.String("service.name", serviceName))
	provider := metric.NewMeterProvider(
		metric.WithReader(exporter),
		metric.WithResource(res),
	)
	otel.SetMeterProvider(provider)
	meter := provider.Meter(serviceName)

	operations, err := meter.Int64Counter(
		"followup.operations",
		otelmetric.WithDescription("Follow-up engine operations by name and status"),
	)
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram(
		"followup.operation.duration",
		otelmetric.WithDescription("Follow-up engine operation duration"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}
	alerts, err := meter.Int64Histogram(
		"followup.alerts.per_user",
		otelmetric.WithDescription("Alerts returned per aggregation"),
	)
	if err != nil {
		return nil, err
	}

	return &Observability{
		meterProvider: provider,
		operations:    operations,
		duration:      duration,
		alerts:        alerts,
	}, nil
}

// NewNoop returns an instance whose recorders do nothing.
func NewNoop() *Observability {
	return &Observability{}
}

func (o *Observability) RecordOperation(ctx context.Context, name string, elapsed time.Duration, err error) {
	if o == nil || o.operations == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("operation", name),
		attribute.String("status", status),
	)
	o.operations.Add(ctx, 1, attrs)
	o.duration.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)
}

func (o *Observability) RecordAlertCount(ctx context.Context, n int) {
	if o == nil || o.alerts == nil {
		return
	}
	o.alerts.Record(ctx, int64(n))
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil || o.meterProvider == nil {
		return nil
	}
	return o.meterProvider.Shutdown(ctx)
}

package store

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/breatheroute/planner/internal/state"
)

const instrumentationName = "github.com/breatheroute/planner/internal/store"

// Metrics holds the OpenTelemetry instruments used by a Store.
type Metrics struct {
	actions        metric.Int64Counter
	effectDuration metric.Float64Histogram
	tracer         trace.Tracer
}

// NewMetrics creates the store instruments on the global providers.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(instrumentationName)

	actions, err := meter.Int64Counter(
		"planner.store.actions",
		metric.WithDescription("Number of dispatched actions"),
		metric.WithUnit("{action}"),
	)
	if err != nil {
		return nil, err
	}

	effectDuration, err := meter.Float64Histogram(
		"planner.effect.duration",
		metric.WithDescription("Duration of effect runs in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		actions:        actions,
		effectDuration: effectDuration,
		tracer:         otel.Tracer(instrumentationName),
	}, nil
}

func (m *Metrics) recordAction(t state.Type) {
	m.actions.Add(context.Background(), 1, metric.WithAttributes(attribute.String("action.type", string(t))))
}

func (m *Metrics) observe(ctx context.Context, name string, run func(context.Context) error) error {
	ctx, span := m.tracer.Start(ctx, "effect "+name,
		trace.WithAttributes(attribute.String("effect.name", name)),
	)
	defer span.End()

	start := time.Now()
	err := run(ctx)

	attrs := []attribute.KeyValue{attribute.String("effect.name", name)}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		attrs = append(attrs, attribute.Bool("error", true))
	}
	m.effectDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(attrs...))

	return err
}

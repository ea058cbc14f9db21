package typeahead

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const (
	outcomeOK     = "ok"
	outcomeError  = "error"
	outcomeStale  = "stale"
	outcomeClosed = "closed"
)

type metrics struct {
	lookups  metric.Int64Counter
	duration metric.Float64Histogram
}

func newMetrics(mp metric.MeterProvider, logger *slog.Logger) metrics {
	meter := mp.Meter(instrumentationName)

	lookups, err := meter.Int64Counter("typeahead.lookups",
		metric.WithDescription("Lookups dispatched by typeahead sessions, by outcome"),
	)
	if err != nil {
		logger.Warn("failed to create lookup counter", "error", err)
		lookups = noop.Int64Counter{}
	}

	duration, err := meter.Float64Histogram("typeahead.lookup.duration",
		metric.WithDescription("Time spent in the search callback"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		logger.Warn("failed to create lookup duration histogram", "error", err)
		duration = noop.Float64Histogram{}
	}

	return metrics{lookups: lookups, duration: duration}
}

func (m metrics) record(ctx context.Context, outcome string, took time.Duration) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.lookups.Add(ctx, 1, attrs)
	m.duration.Record(ctx, float64(took)/float64(time.Millisecond), attrs)
}

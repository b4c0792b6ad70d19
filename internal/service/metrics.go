package service

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "planboard"

// boardMetrics groups the instruments recorded by refresh cycles
type boardMetrics struct {
	weekFetches     metric.Int64Counter
	refreshDuration metric.Float64Histogram
	discarded       metric.Int64Counter
}

func newBoardMetrics() *boardMetrics {
	meter := otel.Meter(instrumentationName)
	fallback := noop.NewMeterProvider().Meter(instrumentationName)

	weekFetches, err := meter.Int64Counter("planboard.week_fetches",
		metric.WithDescription("Week plan fetches by outcome"))
	if err != nil {
		weekFetches, _ = fallback.Int64Counter("planboard.week_fetches")
	}

	refreshDuration, err := meter.Float64Histogram("planboard.refresh.duration",
		metric.WithDescription("Duration of a refresh cycle"),
		metric.WithUnit("s"))
	if err != nil {
		refreshDuration, _ = fallback.Float64Histogram("planboard.refresh.duration")
	}

	discarded, err := meter.Int64Counter("planboard.refresh.discarded",
		metric.WithDescription("Refresh cycles superseded before commit"))
	if err != nil {
		discarded, _ = fallback.Int64Counter("planboard.refresh.discarded")
	}

	return &boardMetrics{
		weekFetches:     weekFetches,
		refreshDuration: refreshDuration,
		discarded:       discarded,
	}
}

package obs

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	sweepOnce  sync.Once
	sweepItems metric.Int64Counter
)

func sweepCounter() metric.Int64Counter {
	sweepOnce.Do(func() {
		c, err := otel.Meter("quotex/worker").Int64Counter("sweep.items",
			metric.WithDescription("Records touched by background sweeps."),
			metric.WithUnit("{record}"),
		)
		if err == nil {
			sweepItems = c
		}
	})
	return sweepItems
}

// RecordSweep counts one sweep run in Prometheus and the records it touched
// through the OpenTelemetry meter.
func RecordSweep(ctx context.Context, kind, result string, items int) {
	if SweepRunsTotal != nil {
		SweepRunsTotal.WithLabelValues(kind, result).Inc()
	}
	if c := sweepCounter(); c != nil && items > 0 {
		c.Add(ctx, int64(items), metric.WithAttributes(attribute.String("kind", kind)))
	}
}

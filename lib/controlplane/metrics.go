package controlplane

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	sourceReal      = "real"
	sourceSimulated = "simulated"
)

// Metrics holds the otel instruments for control-plane dispatches.
type Metrics struct {
	dispatchDuration metric.Float64Histogram
	fallbacksTotal   metric.Int64Counter
}

// NewMetrics creates and registers the control-plane instruments.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	dispatchDuration, err := meter.Float64Histogram(
		"mirage_controlplane_dispatch_duration_seconds",
		metric.WithDescription("Time to serve a control-plane action"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	fallbacksTotal, err := meter.Int64Counter(
		"mirage_controlplane_fallbacks_total",
		metric.WithDescription("Total number of real-provider failures masked by simulation"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		dispatchDuration: dispatchDuration,
		fallbacksTotal:   fallbacksTotal,
	}, nil
}

func (c *ControlPlane) recordDispatch(ctx context.Context, action, source, status string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.dispatchDuration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(
			attribute.String("action", action),
			attribute.String("source", source),
			attribute.String("status", status),
		))
}

func (c *ControlPlane) recordFallback(ctx context.Context, action string) {
	if c.metrics == nil {
		return
	}
	c.metrics.fallbacksTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.String("action", action)))
}

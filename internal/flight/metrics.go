package flight

import (
	"context"
	"fmt"
	"math"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/aerocade/flightcore/internal/lifecycle"
	"github.com/aerocade/flightcore/pkg/core"
)

const instrumentationName = "github.com/aerocade/flightcore/internal/flight"

type metrics struct {
	ticks       metric.Int64Counter
	mixed       metric.Int64Counter
	transitions metric.Int64Counter
	throttle    metric.Int64Counter
	thrust      metric.Float64Gauge
	proximity   metric.Float64Histogram
}

// newMetrics uses the global OTel meter (no-op if not configured).
func newMetrics() (*metrics, error) {
	m := otel.Meter(instrumentationName)
	out := &metrics{}

	var err error
	if out.ticks, err = m.Int64Counter("flight.ticks",
		metric.WithDescription("Fixed ticks processed")); err != nil {
		return nil, fmt.Errorf("creating ticks counter: %w", err)
	}
	if out.mixed, err = m.Int64Counter("flight.surfaces.mixed",
		metric.WithDescription("Control surface deflections written")); err != nil {
		return nil, fmt.Errorf("creating mixed counter: %w", err)
	}
	if out.transitions, err = m.Int64Counter("flight.lifecycle.transitions",
		metric.WithDescription("Kill and respawn transitions")); err != nil {
		return nil, fmt.Errorf("creating transitions counter: %w", err)
	}
	if out.throttle, err = m.Int64Counter("flight.throttle.events",
		metric.WithDescription("Scripted throttle changes and reversions")); err != nil {
		return nil, fmt.Errorf("creating throttle counter: %w", err)
	}
	if out.thrust, err = m.Float64Gauge("flight.thrust",
		metric.WithDescription("Current thrust fraction"),
		metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("creating thrust gauge: %w", err)
	}
	if out.proximity, err = m.Float64Histogram("flight.proximity.min",
		metric.WithDescription("Nearest terrain distance per tick"),
		metric.WithUnit("m")); err != nil {
		return nil, fmt.Errorf("creating proximity histogram: %w", err)
	}
	return out, nil
}

func (m *metrics) recordTick(ctx context.Context, mixed int, t core.Telemetry, minDist float64) {
	m.ticks.Add(ctx, 1)
	if mixed > 0 {
		m.mixed.Add(ctx, int64(mixed))
	}
	m.thrust.Record(ctx, t.Thrust, metric.WithAttributes(attribute.Bool("override", t.Override)))
	if !math.IsInf(minDist, 0) && !math.IsNaN(minDist) {
		m.proximity.Record(ctx, minDist)
	}
}

func (m *metrics) recordTransition(ctx context.Context, to lifecycle.State) {
	m.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("to", to.String())))
}

func (m *metrics) recordThrottle(ctx context.Context, kind core.ThrottleEventKind) {
	m.throttle.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(kind))))
}

package sim

import (
	"context"
	"fmt"

	"github.com/milk9111/flightrig/ecs"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// InstrumentationName scopes the loop instruments.
const InstrumentationName = "github.com/milk9111/flightrig/sim"

func meter() metric.Meter {
	return otel.Meter(InstrumentationName)
}

type loopMetrics struct {
	steps     metric.Int64Counter
	stepTime  metric.Float64Histogram
	simulated metric.Float64Counter
	cuts      metric.Int64Counter
	bodies    metric.Int64ObservableGauge
	reg       metric.Registration
}

// newLoopMetrics registers the loop instruments on m. The global provider is
// a no-op unless one has been installed.
func newLoopMetrics(m metric.Meter, pw *ecs.PhysicsWorld) (*loopMetrics, error) {
	lm := &loopMetrics{}
	var err error

	lm.steps, err = m.Int64Counter(
		"sim.steps",
		metric.WithDescription("Physics steps completed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating steps counter: %w", err)
	}

	lm.stepTime, err = m.Float64Histogram(
		"sim.step.duration",
		metric.WithDescription("Wall time spent in one physics step"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating step duration histogram: %w", err)
	}

	lm.simulated, err = m.Float64Counter(
		"sim.simulated_time",
		metric.WithDescription("Simulated seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating simulated time counter: %w", err)
	}

	lm.cuts, err = m.Int64Counter(
		"sim.actuator.cuts",
		metric.WithDescription("Actuator drives cut"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating cuts counter: %w", err)
	}

	lm.bodies, err = m.Int64ObservableGauge(
		"sim.bodies",
		metric.WithDescription("Bodies registered with the physics world"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating bodies gauge: %w", err)
	}

	lm.reg, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			o.ObserveInt64(lm.bodies, int64(pw.BodyCount()))
			return nil
		},
		lm.bodies,
	)
	if err != nil {
		return nil, fmt.Errorf("registering bodies callback: %w", err)
	}

	return lm, nil
}

// unregister drops the bodies callback so a stopped loop no longer pins its
// physics world.
func (lm *loopMetrics) unregister() error {
	if lm == nil || lm.reg == nil {
		return nil
	}
	err := lm.reg.Unregister()
	lm.reg = nil
	if err != nil {
		return fmt.Errorf("unregistering bodies callback: %w", err)
	}
	return nil
}

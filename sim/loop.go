// Package sim drives the fixed-step simulate/sync/render loop.
package sim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/milk9111/flightrig/ecs"
	"github.com/milk9111/flightrig/ecs/system"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/metric"
)

var ErrStopped = errors.New("sim: loop stopped")

// DefaultDt is one 60 Hz frame.
const DefaultDt = 1.0 / 60

type State int

const (
	Running State = iota
	Stopped
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Clock selects what actuator thresholds are measured against.
type Clock int

const (
	// WallClock measures elapsed real time since the loop started.
	WallClock Clock = iota
	// SimClock uses simulated time, so headless runs cut at the same step
	// every time.
	SimClock
)

type Option func(*Loop)

func WithDt(dt float64) Option {
	return func(l *Loop) {
		if dt > 0 {
			l.dt = dt
		}
	}
}

func WithClock(c Clock) Option {
	return func(l *Loop) { l.clock = c }
}

// WithNow replaces time.Now for the wall clock.
func WithNow(now func() time.Time) Option {
	return func(l *Loop) { l.now = now }
}

// WithFrameLimit makes Run return after n frames. Zero runs until stopped.
func WithFrameLimit(n int) Option {
	return func(l *Loop) { l.frameLimit = n }
}

func WithMeter(m metric.Meter) Option {
	return func(l *Loop) { l.meter = m }
}

// WithCloser hands a resource to the loop; Stop closes it.
func WithCloser(c io.Closer) Option {
	return func(l *Loop) {
		if c != nil {
			l.closers = append(l.closers, c)
		}
	}
}

// WithEventHandler receives every drained world event after a step.
func WithEventHandler(fn func(ecs.Event)) Option {
	return func(l *Loop) { l.onEvent = fn }
}

// Loop owns the world, the physics world and the systems that run on them.
// It is driven from a single goroutine.
type Loop struct {
	w         *ecs.World
	pw        *ecs.PhysicsWorld
	scheduler *ecs.Scheduler
	render    *system.RenderSystem
	log       zerolog.Logger

	dt         float64
	clock      Clock
	now        func() time.Time
	start      time.Time
	started    bool
	frame      int
	frameLimit int
	state      State

	meter   metric.Meter
	metrics *loopMetrics
	closers []io.Closer
	onEvent func(ecs.Event)
}

// New builds a running loop. render may be nil for loops that never draw.
func New(w *ecs.World, pw *ecs.PhysicsWorld, scheduler *ecs.Scheduler, render *system.RenderSystem, log zerolog.Logger, opts ...Option) (*Loop, error) {
	if w == nil || pw == nil {
		return nil, errors.New("sim: world and physics world are required")
	}
	if scheduler == nil {
		scheduler = ecs.NewScheduler()
	}
	l := &Loop{
		w:         w,
		pw:        pw,
		scheduler: scheduler,
		render:    render,
		log:       log.With().Str("component", "sim").Logger(),
		dt:        DefaultDt,
		now:       time.Now,
		meter:     meter(),
	}
	for _, opt := range opts {
		opt(l)
	}

	metrics, err := newLoopMetrics(l.meter, pw)
	if err != nil {
		return nil, err
	}
	l.metrics = metrics
	return l, nil
}

// ForceSystems returns the per-frame force and actuator systems in run
// order: wings, thrusters, actuators.
func ForceSystems(log zerolog.Logger, script *system.ControlScript) (*ecs.Scheduler, *system.ActuatorSystem) {
	actuators := system.NewActuatorSystem(log, script)
	return ecs.NewScheduler(
		system.NewWingSystem(),
		system.NewThrustSystem(),
		actuators,
	), actuators
}

func (l *Loop) World() *ecs.World               { return l.w }
func (l *Loop) PhysicsWorld() *ecs.PhysicsWorld { return l.pw }
func (l *Loop) State() State                    { return l.state }
func (l *Loop) FrameCount() int                 { return l.frame }
func (l *Loop) Dt() float64                     { return l.dt }

// Elapsed is the time actuator thresholds compare against.
func (l *Loop) Elapsed() float64 {
	if l.clock == SimClock {
		return l.pw.SimulatedTime()
	}
	if !l.started {
		return 0
	}
	return l.now().Sub(l.start).Seconds()
}

// Advance runs forces and actuators, steps physics by exactly dt and syncs
// transforms. It does not draw.
func (l *Loop) Advance(ctx context.Context) error {
	if l.state == Stopped {
		return ErrStopped
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if !l.started {
		l.start = l.now()
		l.started = true
	}

	tick := ecs.Tick{Frame: l.frame, Elapsed: l.Elapsed(), Dt: l.dt}
	if err := l.scheduler.Update(l.w, l.pw, tick); err != nil {
		return fmt.Errorf("frame %d: systems: %w", l.frame, err)
	}

	began := time.Now()
	if err := l.pw.Step(l.dt); err != nil {
		return fmt.Errorf("frame %d: %w", l.frame, err)
	}
	ms := float64(time.Since(began).Microseconds()) / 1000
	l.metrics.steps.Add(ctx, 1)
	l.metrics.stepTime.Record(ctx, ms)
	l.metrics.simulated.Add(ctx, l.dt)

	l.pw.SyncEntities(l.w)
	l.drainEvents(ctx)
	l.frame++
	return nil
}

// Render draws the current transforms.
func (l *Loop) Render() {
	if l.state == Stopped || l.render == nil {
		return
	}
	l.render.Draw(l.w)
}

// Frame is one full frame: Advance then Render.
func (l *Loop) Frame(ctx context.Context) error {
	if err := l.Advance(ctx); err != nil {
		return err
	}
	l.Render()
	return nil
}

// Run drives frames until ctx is done, quit fires, the frame limit is
// reached or a frame fails. Quit and ctx are only checked between frames.
// The loop is stopped on return.
func (l *Loop) Run(ctx context.Context, quit <-chan struct{}) error {
	defer func() { _ = l.Stop() }()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-quit:
			l.log.Info().Int("frame", l.frame).Msg("quit requested")
			return nil
		default:
		}
		if l.frameLimit > 0 && l.frame >= l.frameLimit {
			return nil
		}
		if err := l.Frame(ctx); err != nil {
			l.log.Error().Err(err).Int("frame", l.frame).Msg("frame failed")
			return err
		}
	}
}

// Stop releases the physics world and every closer handed to the loop.
// Later calls do nothing.
func (l *Loop) Stop() error {
	if l.state == Stopped {
		return nil
	}
	l.state = Stopped

	var errs []error
	if err := l.metrics.unregister(); err != nil {
		errs = append(errs, err)
	}
	for _, c := range l.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := l.pw.Close(); err != nil {
		errs = append(errs, err)
	}
	l.log.Info().
		Int("frames", l.frame).
		Float64("simulated", l.pw.SimulatedTime()).
		Msg("loop stopped")
	return errors.Join(errs...)
}

func (l *Loop) drainEvents(ctx context.Context) {
	for _, evt := range l.w.Events().Drain() {
		if evt.Type == ecs.EventActuatorCut {
			l.metrics.cuts.Add(ctx, 1)
		}
		l.log.Debug().Str("event", string(evt.Type)).Int("frame", l.frame).Msg("event")
		if l.onEvent != nil {
			l.onEvent(evt)
		}
	}
}

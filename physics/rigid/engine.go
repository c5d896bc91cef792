// Package rigid is the default 3D physics.Engine backend. It is a small
// sequential-impulse solver: semi-implicit Euler integration, point and
// angular joint constraints with a hinge limit and velocity motor, and
// box-corner contacts against static boxes. Integration phases run on a
// worker pool sized at construction.
package rigid

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/flightrig/physics"
	"golang.org/x/sync/errgroup"
)

// Options configures an Engine.
type Options struct {
	Gravity        mgl64.Vec3
	Workers        int
	Iterations     int
	Material       physics.Material
	LinearDamping  float64
	AngularDamping float64
	// Baumgarte is the fraction of positional error fed back per step.
	Baumgarte float64
	// Slop is the penetration depth tolerated before contacts push back.
	Slop float64
}

func DefaultOptions() Options {
	return Options{
		Gravity:        physics.Gravity,
		Workers:        2,
		Iterations:     10,
		Material:       physics.DefaultMaterial,
		AngularDamping: 0.05,
		Baumgarte:      0.2,
		Slop:           0.005,
	}
}

type Engine struct {
	opts   Options
	bodies []*Body
	joints []solver

	done     chan error
	inFlight bool
	closed   bool
}

var _ physics.Engine = (*Engine)(nil)

func New(opts Options) *Engine {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Iterations <= 0 {
		opts.Iterations = 1
	}
	return &Engine{opts: opts}
}

func (e *Engine) Options() Options { return e.opts }

func (e *Engine) CreateStatic(halfExtents mgl64.Vec3, pose physics.Pose) (physics.Body, error) {
	if e.closed {
		return nil, physics.ErrEngineClosed
	}
	if e.inFlight {
		return nil, physics.ErrStepInFlight
	}
	b := &Body{engine: e, static: true, halfExtents: halfExtents, pose: pose}
	e.bodies = append(e.bodies, b)
	return b, nil
}

func (e *Engine) CreateDynamic(halfExtents mgl64.Vec3, pose physics.Pose) (physics.Body, error) {
	if e.closed {
		return nil, physics.ErrEngineClosed
	}
	if e.inFlight {
		return nil, physics.ErrStepInFlight
	}
	b := &Body{engine: e, halfExtents: halfExtents, pose: pose}
	b.setMassProperties(1, physics.BoxInertia(1, halfExtents))
	e.bodies = append(e.bodies, b)
	return b, nil
}

func (e *Engine) CreateFixedJoint(a physics.Body, frameA physics.Pose, b physics.Body, frameB physics.Pose) (physics.Joint, error) {
	base, err := e.newJoint(physics.JointFixed, a, frameA, b, frameB)
	if err != nil {
		return nil, err
	}
	j := &FixedJoint{jointBase: base}
	e.joints = append(e.joints, j)
	return j, nil
}

func (e *Engine) CreateRevoluteJoint(a physics.Body, frameA physics.Pose, b physics.Body, frameB physics.Pose, cfg physics.RevoluteConfig) (physics.RevoluteJoint, error) {
	base, err := e.newJoint(physics.JointRevolute, a, frameA, b, frameB)
	if err != nil {
		return nil, err
	}
	j := &RevoluteJoint{jointBase: base, cfg: cfg, velocity: cfg.DriveVelocity}
	e.joints = append(e.joints, j)
	return j, nil
}

func (e *Engine) newJoint(kind physics.JointKind, a physics.Body, frameA physics.Pose, b physics.Body, frameB physics.Pose) (jointBase, error) {
	if e.closed {
		return jointBase{}, physics.ErrEngineClosed
	}
	if e.inFlight {
		return jointBase{}, physics.ErrStepInFlight
	}
	if a == nil || b == nil {
		return jointBase{}, physics.ErrNilBody
	}
	ba, okA := a.(*Body)
	bb, okB := b.(*Body)
	if !okA || !okB || ba.engine != e || bb.engine != e {
		return jointBase{}, physics.ErrForeignBody
	}
	return jointBase{kind: kind, a: ba, b: bb, frameA: frameA, frameB: frameB, collision: true}, nil
}

// RemoveBody detaches a body and every joint that references it.
func (e *Engine) RemoveBody(b physics.Body) error {
	if e.inFlight {
		return physics.ErrStepInFlight
	}
	body, ok := b.(*Body)
	if !ok || body.engine != e {
		return physics.ErrForeignBody
	}
	kept := e.bodies[:0]
	for _, cur := range e.bodies {
		if cur != body {
			kept = append(kept, cur)
		}
	}
	e.bodies = kept

	joints := e.joints[:0]
	for _, j := range e.joints {
		ja, jb := j.pair()
		if ja != body && jb != body {
			joints = append(joints, j)
		}
	}
	e.joints = joints
	body.removed = true
	return nil
}

// Simulate starts one step of dt seconds in the background.
func (e *Engine) Simulate(dt float64) error {
	if e.closed {
		return physics.ErrEngineClosed
	}
	if e.inFlight {
		return physics.ErrStepInFlight
	}
	e.inFlight = true
	e.done = make(chan error, 1)
	go func() {
		e.done <- e.step(dt)
	}()
	return nil
}

// FetchResults reports whether the in-flight step has finished; with block
// set it waits for it.
func (e *Engine) FetchResults(block bool) (bool, error) {
	if !e.inFlight {
		return true, nil
	}
	var err error
	if block {
		err = <-e.done
	} else {
		select {
		case err = <-e.done:
		default:
			return false, nil
		}
	}
	e.inFlight = false
	return true, err
}

func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	if e.inFlight {
		_, _ = e.FetchResults(true)
	}
	e.closed = true
	e.bodies = nil
	e.joints = nil
	return nil
}

func (e *Engine) step(dt float64) error {
	if dt <= 0 {
		return nil
	}
	dynamic := make([]*Body, 0, len(e.bodies))
	statics := make([]*Body, 0, 1)
	for _, b := range e.bodies {
		if b.static {
			statics = append(statics, b)
		} else {
			dynamic = append(dynamic, b)
		}
	}

	gravity := e.opts.Gravity
	if err := e.parallel(len(dynamic), func(i int) {
		b := dynamic[i]
		b.integrateVelocity(gravity, dt, e.opts.LinearDamping, e.opts.AngularDamping)
		b.findContacts(statics, e.opts.Material.Restitution)
	}); err != nil {
		return err
	}

	for _, j := range e.joints {
		j.prepare(dt)
	}
	beta := e.opts.Baumgarte
	for it := 0; it < e.opts.Iterations; it++ {
		for _, j := range e.joints {
			j.solve(dt, beta)
		}
		for _, b := range dynamic {
			b.solveContacts(dt, beta, e.opts.Slop, e.opts.Material.DynamicFriction)
		}
	}

	return e.parallel(len(dynamic), func(i int) {
		dynamic[i].integratePosition(dt)
	})
}

// parallel runs fn over [0,n) in contiguous chunks, one per worker.
func (e *Engine) parallel(n int, fn func(i int)) error {
	if n == 0 {
		return nil
	}
	workers := e.opts.Workers
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers

	var g errgroup.Group
	g.SetLimit(workers)
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		g.Go(func() error {
			for i := start; i < end; i++ {
				fn(i)
			}
			return nil
		})
	}
	return g.Wait()
}

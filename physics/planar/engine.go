// Package planar is a side-view physics.Engine on Chipmunk2D. The world's
// (-Z, Y) plane maps to Chipmunk's (X, Y) plane and rotations about +X map to
// Chipmunk angles. Lateral (X) positions are kept per body but never
// simulated; forces lose their X component.
package planar

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/flightrig/physics"
)

// rigGroup puts every dynamic shape in one Chipmunk group: projected into the
// plane, rig parts overlap and must not collide with each other.
const rigGroup = 1

type Options struct {
	Gravity    mgl64.Vec3
	Iterations int
	Material   physics.Material
}

func DefaultOptions() Options {
	return Options{
		Gravity:    physics.Gravity,
		Iterations: 20,
		Material:   physics.DefaultMaterial,
	}
}

type Engine struct {
	opts        Options
	space       *cp.Space
	bodies      []*Body
	constraints map[*cp.Constraint]struct{}

	done     chan struct{}
	inFlight bool
	closed   bool
}

var _ physics.Engine = (*Engine)(nil)

func New(opts Options) *Engine {
	space := cp.NewSpace()
	if opts.Iterations > 0 {
		space.Iterations = uint(opts.Iterations)
	}
	space.SetGravity(toPlane(opts.Gravity))
	return &Engine{opts: opts, space: space, constraints: make(map[*cp.Constraint]struct{})}
}

// Space returns the underlying Chipmunk space for debug drawing.
func (e *Engine) Space() *cp.Space {
	if e == nil {
		return nil
	}
	return e.space
}

func (e *Engine) CreateStatic(halfExtents mgl64.Vec3, pose physics.Pose) (physics.Body, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	c := toPlane(pose.Position)
	w, h := halfExtents[2], halfExtents[1]
	bb := cp.BB{L: c.X - w, B: c.Y - h, R: c.X + w, T: c.Y + h}
	shape := cp.NewBox2(e.space.StaticBody, bb, 0)
	e.applyMaterial(shape)
	e.space.AddShape(shape)

	b := &Body{engine: e, static: true, shape: shape, halfExtents: halfExtents, staticPose: pose}
	e.bodies = append(e.bodies, b)
	return b, nil
}

func (e *Engine) CreateDynamic(halfExtents mgl64.Vec3, pose physics.Pose) (physics.Body, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	w, h := 2*halfExtents[2], 2*halfExtents[1]
	body := cp.NewBody(1, cp.MomentForBox(1, w, h))
	shape := cp.NewBox(body, w, h, 0)
	e.applyMaterial(shape)
	shape.SetFilter(cp.NewShapeFilter(rigGroup, cp.ALL_CATEGORIES, cp.ALL_CATEGORIES))

	b := &Body{engine: e, body: body, shape: shape, halfExtents: halfExtents}
	body.SetVelocityUpdateFunc(func(cb *cp.Body, gravity cp.Vector, damping float64, dt float64) {
		acc := gravity
		if m := cb.Mass(); m > 0 {
			acc = acc.Add(b.force.Mult(1 / m))
		}
		cp.BodyUpdateVelocity(cb, acc, damping, dt)
	})
	b.SetPose(pose)

	e.space.AddBody(body)
	e.space.AddShape(shape)
	e.bodies = append(e.bodies, b)
	return b, nil
}

func (e *Engine) CreateFixedJoint(a physics.Body, frameA physics.Pose, b physics.Body, frameB physics.Pose) (physics.Joint, error) {
	ba, bb, err := e.own(a, b)
	if err != nil {
		return nil, err
	}
	j := &Joint{kind: physics.JointFixed, engine: e, a: ba, b: bb, collision: true}
	j.pivot = cp.NewPivotJoint2(ba.cpBody(e), bb.cpBody(e), anchor(frameA), anchor(frameB))
	j.lock = cp.NewGearJoint(ba.cpBody(e), bb.cpBody(e), bb.angle()-ba.angle(), 1)
	j.add(j.pivot, j.lock)
	return j, nil
}

func (e *Engine) CreateRevoluteJoint(a physics.Body, frameA physics.Pose, b physics.Body, frameB physics.Pose, cfg physics.RevoluteConfig) (physics.RevoluteJoint, error) {
	ba, bb, err := e.own(a, b)
	if err != nil {
		return nil, err
	}
	j := &RevoluteJoint{
		Joint:    Joint{kind: physics.JointRevolute, engine: e, a: ba, b: bb, collision: true},
		cfg:      cfg,
		velocity: cfg.DriveVelocity,
		rest:     bb.angle() - ba.angle(),
	}
	j.pivot = cp.NewPivotJoint2(ba.cpBody(e), bb.cpBody(e), anchor(frameA), anchor(frameB))
	j.add(j.pivot)
	if cfg.LimitEnabled {
		j.lock = cp.NewRotaryLimitJoint(ba.cpBody(e), bb.cpBody(e), j.rest+cfg.LimitLower, j.rest+cfg.LimitUpper)
		j.add(j.lock)
	}
	j.rebuildMotor()
	return j, nil
}

func (e *Engine) RemoveBody(b physics.Body) error {
	if e.inFlight {
		return physics.ErrStepInFlight
	}
	body, ok := b.(*Body)
	if !ok || body.engine != e {
		return physics.ErrForeignBody
	}
	if body.shape != nil {
		e.space.RemoveShape(body.shape)
	}
	if body.body != nil {
		for _, c := range body.constraints {
			e.removeConstraint(c)
		}
		e.space.RemoveBody(body.body)
	}
	for i, cur := range e.bodies {
		if cur == body {
			e.bodies = append(e.bodies[:i], e.bodies[i+1:]...)
			break
		}
	}
	body.removed = true
	return nil
}

func (e *Engine) Simulate(dt float64) error {
	if err := e.ready(); err != nil {
		return err
	}
	e.inFlight = true
	e.done = make(chan struct{})
	go func() {
		defer close(e.done)
		e.space.Step(dt)
		for _, b := range e.bodies {
			b.force = cp.Vector{}
		}
	}()
	return nil
}

func (e *Engine) FetchResults(block bool) (bool, error) {
	if !e.inFlight {
		return true, nil
	}
	if block {
		<-e.done
	} else {
		select {
		case <-e.done:
		default:
			return false, nil
		}
	}
	e.inFlight = false
	return true, nil
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
	e.space = nil
	return nil
}

func (e *Engine) ready() error {
	if e.closed {
		return physics.ErrEngineClosed
	}
	if e.inFlight {
		return physics.ErrStepInFlight
	}
	return nil
}

func (e *Engine) own(a, b physics.Body) (*Body, *Body, error) {
	if err := e.ready(); err != nil {
		return nil, nil, err
	}
	if a == nil || b == nil {
		return nil, nil, physics.ErrNilBody
	}
	ba, okA := a.(*Body)
	bb, okB := b.(*Body)
	if !okA || !okB || ba.engine != e || bb.engine != e {
		return nil, nil, physics.ErrForeignBody
	}
	return ba, bb, nil
}

func (e *Engine) addConstraint(c *cp.Constraint) {
	e.space.AddConstraint(c)
	e.constraints[c] = struct{}{}
}

func (e *Engine) removeConstraint(c *cp.Constraint) {
	if _, ok := e.constraints[c]; !ok {
		return
	}
	delete(e.constraints, c)
	e.space.RemoveConstraint(c)
}

func (e *Engine) applyMaterial(shape *cp.Shape) {
	shape.SetFriction(e.opts.Material.DynamicFriction)
	shape.SetElasticity(e.opts.Material.Restitution)
}

// toPlane projects a world vector onto the side-view plane.
func toPlane(v mgl64.Vec3) cp.Vector {
	return cp.Vector{X: -v[2], Y: v[1]}
}

func anchor(frame physics.Pose) cp.Vector {
	return toPlane(frame.Position)
}

// twistX extracts the rotation angle of q about the world X axis.
func twistX(q mgl64.Quat) float64 {
	if q.W < 0 {
		q = q.Scale(-1)
	}
	return 2 * math.Atan2(q.V[0], q.W)
}

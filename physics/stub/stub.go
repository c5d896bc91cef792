// Package stub is a deterministic in-memory physics.Engine for tests. It
// integrates gravity and applied forces with semi-implicit Euler, records every
// force it was given, kinematically drives revolute joints and clamps them to
// their limits. It does not resolve contacts.
package stub

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/flightrig/physics"
)

type Engine struct {
	Gravity mgl64.Vec3

	bodies    []*Body
	joints    []physics.Joint
	steps     int
	simulated float64
	pending   float64
	inFlight  bool
	closed    bool
}

func New() *Engine {
	return &Engine{Gravity: physics.Gravity}
}

// Steps returns the number of completed steps.
func (e *Engine) Steps() int { return e.steps }

// SimulatedTime returns the sum of every completed step's dt.
func (e *Engine) SimulatedTime() float64 { return e.simulated }

func (e *Engine) Bodies() []*Body { return e.bodies }

func (e *Engine) Joints() []physics.Joint { return e.joints }

func (e *Engine) Closed() bool { return e.closed }

func (e *Engine) CreateStatic(halfExtents mgl64.Vec3, pose physics.Pose) (physics.Body, error) {
	if e.closed {
		return nil, physics.ErrEngineClosed
	}
	b := &Body{engine: e, static: true, pose: pose, HalfExtents: halfExtents}
	e.bodies = append(e.bodies, b)
	return b, nil
}

func (e *Engine) CreateDynamic(halfExtents mgl64.Vec3, pose physics.Pose) (physics.Body, error) {
	if e.closed {
		return nil, physics.ErrEngineClosed
	}
	b := &Body{engine: e, pose: pose, mass: 1, HalfExtents: halfExtents}
	e.bodies = append(e.bodies, b)
	return b, nil
}

func (e *Engine) CreateFixedJoint(a physics.Body, frameA physics.Pose, b physics.Body, frameB physics.Pose) (physics.Joint, error) {
	ba, bb, err := e.own(a, b)
	if err != nil {
		return nil, err
	}
	j := &Joint{kind: physics.JointFixed, a: ba, b: bb, FrameA: frameA, FrameB: frameB, collision: true}
	e.joints = append(e.joints, j)
	return j, nil
}

func (e *Engine) CreateRevoluteJoint(a physics.Body, frameA physics.Pose, b physics.Body, frameB physics.Pose, cfg physics.RevoluteConfig) (physics.RevoluteJoint, error) {
	ba, bb, err := e.own(a, b)
	if err != nil {
		return nil, err
	}
	j := &RevoluteJoint{
		Joint:    Joint{kind: physics.JointRevolute, a: ba, b: bb, FrameA: frameA, FrameB: frameB, collision: true},
		cfg:      cfg,
		velocity: cfg.DriveVelocity,
	}
	e.joints = append(e.joints, j)
	return j, nil
}

func (e *Engine) RemoveBody(b physics.Body) error {
	body, ok := b.(*Body)
	if !ok || body.engine != e {
		return physics.ErrForeignBody
	}
	for i, cur := range e.bodies {
		if cur == body {
			e.bodies = append(e.bodies[:i], e.bodies[i+1:]...)
			body.removed = true
			return nil
		}
	}
	return nil
}

func (e *Engine) Simulate(dt float64) error {
	if e.closed {
		return physics.ErrEngineClosed
	}
	if e.inFlight {
		return physics.ErrStepInFlight
	}
	e.inFlight = true
	e.pending = dt
	return nil
}

func (e *Engine) FetchResults(block bool) (bool, error) {
	if e.closed {
		return false, physics.ErrEngineClosed
	}
	if !e.inFlight {
		return true, nil
	}
	dt := e.pending
	for _, b := range e.bodies {
		b.integrate(e.Gravity, dt)
	}
	for _, j := range e.joints {
		if rj, ok := j.(*RevoluteJoint); ok {
			rj.drive(dt)
		}
	}
	e.steps++
	e.simulated += dt
	e.inFlight = false
	return true, nil
}

func (e *Engine) Close() error {
	e.closed = true
	return nil
}

func (e *Engine) own(a, b physics.Body) (*Body, *Body, error) {
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

type Body struct {
	HalfExtents mgl64.Vec3
	// Forces holds every force added since the last step.
	Forces []mgl64.Vec3
	// StepForces holds the forces consumed by the last completed step.
	StepForces []mgl64.Vec3

	engine  *Engine
	static  bool
	pose    physics.Pose
	lin     mgl64.Vec3
	ang     mgl64.Vec3
	mass    float64
	removed bool
}

func (b *Body) Static() bool                { return b.static }
func (b *Body) Pose() physics.Pose          { return b.pose }
func (b *Body) SetPose(p physics.Pose)      { b.pose = p }
func (b *Body) LinearVelocity() mgl64.Vec3  { return b.lin }
func (b *Body) AngularVelocity() mgl64.Vec3 { return b.ang }
func (b *Body) Mass() float64               { return b.mass }
func (b *Body) Removed() bool               { return b.removed }

func (b *Body) SetLinearVelocity(v mgl64.Vec3) {
	if !b.static {
		b.lin = v
	}
}

func (b *Body) SetAngularVelocity(v mgl64.Vec3) {
	if !b.static {
		b.ang = v
	}
}

func (b *Body) SetMass(m float64) {
	if !b.static && m > 0 {
		b.mass = m
	}
}

func (b *Body) AddForce(f mgl64.Vec3) {
	if b.static {
		return
	}
	b.Forces = append(b.Forces, f)
}

// NetForce sums the forces consumed by the last step.
func (b *Body) NetForce() mgl64.Vec3 {
	var sum mgl64.Vec3
	for _, f := range b.StepForces {
		sum = sum.Add(f)
	}
	return sum
}

func (b *Body) integrate(gravity mgl64.Vec3, dt float64) {
	b.StepForces = b.Forces
	b.Forces = nil
	if b.static {
		return
	}
	acc := gravity
	for _, f := range b.StepForces {
		acc = acc.Add(f.Mul(1 / b.mass))
	}
	b.lin = b.lin.Add(acc.Mul(dt))
	b.pose.Position = b.pose.Position.Add(b.lin.Mul(dt))
	if w := b.ang.Len(); w > 0 {
		dq := mgl64.QuatRotate(w*dt, b.ang.Mul(1/w))
		b.pose.Rotation = dq.Mul(b.pose.Rotation).Normalize()
	}
}

type Joint struct {
	FrameA physics.Pose
	FrameB physics.Pose

	kind      physics.JointKind
	a, b      *Body
	collision bool
}

func (j *Joint) Kind() physics.JointKind              { return j.kind }
func (j *Joint) Bodies() (physics.Body, physics.Body) { return j.a, j.b }
func (j *Joint) SetCollisionEnabled(enabled bool)     { j.collision = enabled }
func (j *Joint) CollisionEnabled() bool               { return j.collision }

type RevoluteJoint struct {
	Joint

	cfg      physics.RevoluteConfig
	velocity float64
}

func (j *RevoluteJoint) Config() physics.RevoluteConfig { return j.cfg }
func (j *RevoluteJoint) DriveVelocity() float64         { return j.velocity }
func (j *RevoluteJoint) SetDriveVelocity(v float64)     { j.velocity = v }

func (j *RevoluteJoint) Angle() float64 {
	wa := j.a.pose.Mul(j.FrameA)
	wb := j.b.pose.Mul(j.FrameB)
	rel := wa.Rotation.Inverse().Mul(wb.Rotation)
	if rel.W < 0 {
		rel = rel.Scale(-1)
	}
	return 2 * math.Atan2(rel.V[0], rel.W)
}

// drive rotates the second body about the hinge at the drive velocity and
// projects it back inside the limit pair.
func (j *RevoluteJoint) drive(dt float64) {
	if j.b.static {
		return
	}
	axis := physics.Right(j.a.pose.Mul(j.FrameA).Rotation)
	if j.cfg.DriveEnabled && j.velocity != 0 {
		j.rotateB(axis, j.velocity*dt)
	}
	if !j.cfg.LimitEnabled {
		return
	}
	angle := j.Angle()
	switch {
	case angle > j.cfg.LimitUpper:
		j.rotateB(axis, j.cfg.LimitUpper-angle)
	case angle < j.cfg.LimitLower:
		j.rotateB(axis, j.cfg.LimitLower-angle)
	}
}

// rotateB turns body B about the world hinge axis through the joint anchor.
func (j *RevoluteJoint) rotateB(axis mgl64.Vec3, angle float64) {
	pivot := j.a.pose.Apply(j.FrameA.Position)
	dq := mgl64.QuatRotate(angle, axis)
	offset := j.b.pose.Position.Sub(pivot)
	j.b.pose.Position = pivot.Add(dq.Rotate(offset))
	j.b.pose.Rotation = dq.Mul(j.b.pose.Rotation).Normalize()
}

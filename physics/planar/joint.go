package planar

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/flightrig/physics"
)

// Joint is a pivot plus an angular constraint. Fixed joints lock the angle
// with a gear joint; revolute joints bound it with a rotary limit.
type Joint struct {
	kind      physics.JointKind
	engine    *Engine
	a, b      *Body
	pivot     *cp.Constraint
	lock      *cp.Constraint
	collision bool
}

func (j *Joint) Kind() physics.JointKind              { return j.kind }
func (j *Joint) Bodies() (physics.Body, physics.Body) { return j.a, j.b }
func (j *Joint) CollisionEnabled() bool               { return j.collision }

func (j *Joint) SetCollisionEnabled(enabled bool) {
	j.collision = enabled
	for _, c := range []*cp.Constraint{j.pivot, j.lock} {
		if c != nil {
			c.SetCollideBodies(enabled)
		}
	}
}

func (j *Joint) add(cs ...*cp.Constraint) {
	for _, c := range cs {
		c.SetCollideBodies(j.collision)
		j.engine.addConstraint(c)
		j.a.constraints = append(j.a.constraints, c)
		j.b.constraints = append(j.b.constraints, c)
	}
}

type RevoluteJoint struct {
	Joint

	cfg      physics.RevoluteConfig
	velocity float64
	rest     float64
	motor    *cp.Constraint
}

func (j *RevoluteJoint) Config() physics.RevoluteConfig { return j.cfg }
func (j *RevoluteJoint) DriveVelocity() float64         { return j.velocity }

func (j *RevoluteJoint) Angle() float64 {
	return j.b.angle() - j.a.angle() - j.rest
}

func (j *RevoluteJoint) SetDriveVelocity(v float64) {
	if v == j.velocity {
		return
	}
	j.velocity = v
	j.rebuildMotor()
}

// rebuildMotor replaces the simple motor; Chipmunk fixes a motor's rate at
// construction. Chipmunk motors drive a.w - b.w toward the rate, so the sign
// is flipped to keep Angle moving at the drive velocity.
func (j *RevoluteJoint) rebuildMotor() {
	if j.motor != nil {
		j.engine.removeConstraint(j.motor)
	}
	j.motor = nil
	if !j.cfg.DriveEnabled {
		return
	}
	j.motor = cp.NewSimpleMotor(j.a.cpBody(j.engine), j.b.cpBody(j.engine), -j.velocity)
	if j.cfg.DriveForceLimit > 0 {
		j.motor.SetMaxForce(j.cfg.DriveForceLimit)
	}
	j.add(j.motor)
}

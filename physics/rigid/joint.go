package rigid

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/flightrig/physics"
)

type solver interface {
	pair() (*Body, *Body)
	prepare(dt float64)
	solve(dt, beta float64)
}

type jointBase struct {
	kind      physics.JointKind
	a, b      *Body
	frameA    physics.Pose
	frameB    physics.Pose
	collision bool
}

func (j *jointBase) Kind() physics.JointKind              { return j.kind }
func (j *jointBase) Bodies() (physics.Body, physics.Body) { return j.a, j.b }
func (j *jointBase) SetCollisionEnabled(enabled bool)     { j.collision = enabled }
func (j *jointBase) CollisionEnabled() bool               { return j.collision }
func (j *jointBase) pair() (*Body, *Body)                 { return j.a, j.b }

// frames returns both joint frames in world space.
func (j *jointBase) frames() (physics.Pose, physics.Pose) {
	return j.a.pose.Mul(j.frameA), j.b.pose.Mul(j.frameB)
}

// solvePoint drives the two anchor points together.
func (j *jointBase) solvePoint(dt, beta float64) {
	a, b := j.a, j.b
	rA := a.pose.Rotation.Rotate(j.frameA.Position)
	rB := b.pose.Rotation.Rotate(j.frameB.Position)
	ia, ib := a.inverseInertia(), b.inverseInertia()

	sa, sb := skew(rA), skew(rB)
	k := mgl64.Ident3().Mul(a.inverseMass() + b.inverseMass()).
		Sub(sa.Mul3(ia).Mul3(sa)).
		Sub(sb.Mul3(ib).Mul3(sb))
	if math.Abs(k.Det()) < 1e-12 {
		return
	}

	errPos := b.pose.Position.Add(rB).Sub(a.pose.Position.Add(rA))
	vrel := b.lin.Add(b.ang.Cross(rB)).Sub(a.lin.Add(a.ang.Cross(rA)))
	rhs := vrel.Add(errPos.Mul(beta / dt)).Mul(-1)
	impulse := k.Inv().Mul3x1(rhs)

	a.applyImpulse(impulse.Mul(-1), rA)
	b.applyImpulse(impulse, rB)
}

// solveAngular locks relative rotation. With a non-zero hinge axis the
// component about that axis is left free.
func (j *jointBase) solveAngular(dt, beta float64, hinge mgl64.Vec3) {
	a, b := j.a, j.b
	k := a.inverseInertia().Add(b.inverseInertia())
	if math.Abs(k.Det()) < 1e-12 {
		return
	}
	wa, wb := j.frames()
	d := wb.Rotation.Mul(wa.Rotation.Inverse())
	if d.W < 0 {
		d = d.Scale(-1)
	}
	errRot := d.V.Mul(2)
	wrel := b.ang.Sub(a.ang)
	if hinge != (mgl64.Vec3{}) {
		errRot = errRot.Sub(hinge.Mul(errRot.Dot(hinge)))
		wrel = wrel.Sub(hinge.Mul(wrel.Dot(hinge)))
	}
	impulse := k.Inv().Mul3x1(wrel.Add(errRot.Mul(beta / dt)).Mul(-1))
	if hinge != (mgl64.Vec3{}) {
		impulse = impulse.Sub(hinge.Mul(impulse.Dot(hinge)))
	}
	a.applyAngular(impulse.Mul(-1))
	b.applyAngular(impulse)
}

func (b *Body) applyAngular(j mgl64.Vec3) {
	if b.static {
		return
	}
	b.ang = b.ang.Add(b.invInertiaWorld.Mul3x1(j))
}

// FixedJoint removes all relative motion.
type FixedJoint struct {
	jointBase
}

func (j *FixedJoint) prepare(float64) {}

func (j *FixedJoint) solve(dt, beta float64) {
	j.solvePoint(dt, beta)
	j.solveAngular(dt, beta, mgl64.Vec3{})
}

// RevoluteJoint hinges about the X axis of the first body's joint frame.
type RevoluteJoint struct {
	jointBase

	cfg      physics.RevoluteConfig
	velocity float64

	axis     mgl64.Vec3
	angle    float64
	axisMass float64
	motorJ   float64
}

func (j *RevoluteJoint) Config() physics.RevoluteConfig { return j.cfg }
func (j *RevoluteJoint) DriveVelocity() float64         { return j.velocity }
func (j *RevoluteJoint) SetDriveVelocity(v float64)     { j.velocity = v }

func (j *RevoluteJoint) Angle() float64 {
	wa, wb := j.frames()
	return hingeAngle(wa.Rotation, wb.Rotation)
}

func hingeAngle(qa, qb mgl64.Quat) float64 {
	rel := qa.Inverse().Mul(qb)
	if rel.W < 0 {
		rel = rel.Scale(-1)
	}
	return 2 * math.Atan2(rel.V[0], rel.W)
}

func (j *RevoluteJoint) prepare(float64) {
	wa, wb := j.frames()
	j.axis = physics.Right(wa.Rotation)
	j.angle = hingeAngle(wa.Rotation, wb.Rotation)
	k := j.a.inverseInertia().Add(j.b.inverseInertia())
	j.axisMass = j.axis.Dot(k.Mul3x1(j.axis))
	j.motorJ = 0
}

func (j *RevoluteJoint) solve(dt, beta float64) {
	j.solvePoint(dt, beta)
	j.solveAngular(dt, beta, j.axis)
	if j.axisMass <= 0 {
		return
	}
	if j.cfg.DriveEnabled {
		j.solveMotor(dt)
	}
	if j.cfg.LimitEnabled {
		j.solveLimit(dt, beta)
	}
}

func (j *RevoluteJoint) relativeSpin() float64 {
	return j.b.ang.Sub(j.a.ang).Dot(j.axis)
}

func (j *RevoluteJoint) applySpin(impulse float64) {
	j.a.applyAngular(j.axis.Mul(-impulse))
	j.b.applyAngular(j.axis.Mul(impulse))
}

func (j *RevoluteJoint) solveMotor(dt float64) {
	impulse := (j.velocity - j.relativeSpin()) / j.axisMass
	if j.cfg.DriveFreeSpin && impulse*j.velocity < 0 {
		return
	}
	maxJ := j.cfg.DriveForceLimit
	if j.cfg.DriveLimitsAreForces {
		maxJ *= dt
	}
	old := j.motorJ
	j.motorJ = clamp(old+impulse, -maxJ, maxJ)
	j.applySpin(j.motorJ - old)
}

// solveLimit caps the relative spin so the next position update cannot carry
// the hinge past either limit, and pushes back when it already has.
func (j *RevoluteJoint) solveLimit(dt, beta float64) {
	lower, upper := j.cfg.LimitLower, j.cfg.LimitUpper
	maxSpin := (upper - j.angle) / dt
	if j.angle > upper {
		maxSpin = -beta * (j.angle - upper) / dt
	}
	minSpin := (lower - j.angle) / dt
	if j.angle < lower {
		minSpin = beta * (lower - j.angle) / dt
	}
	spin := j.relativeSpin()
	switch {
	case spin > maxSpin:
		j.applySpin((maxSpin - spin) / j.axisMass)
	case spin < minSpin:
		j.applySpin((minSpin - spin) / j.axisMass)
	}
}

func skew(v mgl64.Vec3) mgl64.Mat3 {
	return mgl64.Mat3FromRows(
		mgl64.Vec3{0, -v[2], v[1]},
		mgl64.Vec3{v[2], 0, -v[0]},
		mgl64.Vec3{-v[1], v[0], 0},
	)
}

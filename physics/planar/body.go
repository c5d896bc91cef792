package planar

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/flightrig/physics"
)

var xAxis = mgl64.Vec3{1, 0, 0}

type Body struct {
	engine      *Engine
	body        *cp.Body
	shape       *cp.Shape
	static      bool
	removed     bool
	halfExtents mgl64.Vec3
	staticPose  physics.Pose
	lateral     float64
	force       cp.Vector
	constraints []*cp.Constraint
}

var _ physics.Body = (*Body)(nil)

func (b *Body) Static() bool { return b.static }

func (b *Body) Pose() physics.Pose {
	if b.static {
		return b.staticPose
	}
	p := b.body.Position()
	return physics.Pose{
		Position: mgl64.Vec3{b.lateral, p.Y, -p.X},
		Rotation: mgl64.QuatRotate(b.body.Angle(), xAxis),
	}
}

func (b *Body) SetPose(p physics.Pose) {
	if b.static {
		return
	}
	b.lateral = p.Position[0]
	b.body.SetPosition(toPlane(p.Position))
	b.body.SetAngle(twistX(p.Rotation))
}

func (b *Body) LinearVelocity() mgl64.Vec3 {
	if b.static {
		return mgl64.Vec3{}
	}
	v := b.body.Velocity()
	return mgl64.Vec3{0, v.Y, -v.X}
}

func (b *Body) SetLinearVelocity(v mgl64.Vec3) {
	if !b.static {
		b.body.SetVelocityVector(toPlane(v))
	}
}

func (b *Body) AngularVelocity() mgl64.Vec3 {
	if b.static {
		return mgl64.Vec3{}
	}
	return mgl64.Vec3{b.body.AngularVelocity(), 0, 0}
}

func (b *Body) SetAngularVelocity(v mgl64.Vec3) {
	if !b.static {
		b.body.SetAngularVelocity(v[0])
	}
}

func (b *Body) Mass() float64 {
	if b.static {
		return 0
	}
	return b.body.Mass()
}

func (b *Body) SetMass(m float64) {
	if b.static || m <= 0 {
		return
	}
	old := b.body.Mass()
	if old > 0 {
		b.body.SetMoment(b.body.Moment() * m / old)
	}
	b.body.SetMass(m)
}

func (b *Body) AddForce(f mgl64.Vec3) {
	if b.static || !physics.Finite(f) {
		return
	}
	b.force = b.force.Add(toPlane(f))
}

func (b *Body) cpBody(e *Engine) *cp.Body {
	if b.static {
		return e.space.StaticBody
	}
	return b.body
}

func (b *Body) angle() float64 {
	if b.static {
		return 0
	}
	return b.body.Angle()
}

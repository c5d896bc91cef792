package rigid

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/flightrig/physics"
)

// Body is a box actor. Accessors must not be called while a step is in flight.
type Body struct {
	engine      *Engine
	static      bool
	removed     bool
	halfExtents mgl64.Vec3
	pose        physics.Pose
	lin         mgl64.Vec3
	ang         mgl64.Vec3
	force       mgl64.Vec3

	mass       float64
	invMass    float64
	inertia    mgl64.Vec3
	invInertia mgl64.Vec3

	// step scratch
	invInertiaWorld mgl64.Mat3
	contacts        []contact
}

var _ physics.Body = (*Body)(nil)

func (b *Body) Static() bool                { return b.static }
func (b *Body) Pose() physics.Pose          { return b.pose }
func (b *Body) LinearVelocity() mgl64.Vec3  { return b.lin }
func (b *Body) AngularVelocity() mgl64.Vec3 { return b.ang }
func (b *Body) Mass() float64               { return b.mass }
func (b *Body) HalfExtents() mgl64.Vec3     { return b.halfExtents }

func (b *Body) SetPose(p physics.Pose) {
	p.Rotation = p.Rotation.Normalize()
	b.pose = p
}

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
	if b.static || m <= 0 || b.mass <= 0 {
		return
	}
	b.setMassProperties(m, b.inertia.Mul(m/b.mass))
}

func (b *Body) AddForce(f mgl64.Vec3) {
	if b.static || !physics.Finite(f) {
		return
	}
	b.force = b.force.Add(f)
}

func (b *Body) setMassProperties(mass float64, inertia mgl64.Vec3) {
	b.mass = mass
	b.invMass = 1 / mass
	b.inertia = inertia
	for i := range inertia {
		if inertia[i] > 0 {
			b.invInertia[i] = 1 / inertia[i]
		} else {
			b.invInertia[i] = 0
		}
	}
}

func (b *Body) inverseMass() float64 {
	if b.static {
		return 0
	}
	return b.invMass
}

// inverseInertia is the world-space inverse inertia cached for this step.
func (b *Body) inverseInertia() mgl64.Mat3 {
	if b.static {
		return mgl64.Mat3{}
	}
	return b.invInertiaWorld
}

func (b *Body) rotationMatrix() mgl64.Mat3 {
	return b.pose.Rotation.Mat4().Mat3()
}

func (b *Body) integrateVelocity(gravity mgl64.Vec3, dt, linDamp, angDamp float64) {
	r := b.rotationMatrix()
	rt := r.Transpose()
	b.invInertiaWorld = r.Mul3(mgl64.Diag3(b.invInertia)).Mul3(rt)
	inertiaWorld := r.Mul3(mgl64.Diag3(b.inertia)).Mul3(rt)

	acc := gravity.Add(b.force.Mul(b.invMass))
	b.lin = b.lin.Add(acc.Mul(dt))

	gyro := b.ang.Cross(inertiaWorld.Mul3x1(b.ang)).Mul(-1)
	b.ang = b.ang.Add(b.invInertiaWorld.Mul3x1(gyro).Mul(dt))

	b.lin = b.lin.Mul(1 / (1 + dt*linDamp))
	b.ang = b.ang.Mul(1 / (1 + dt*angDamp))
	b.force = mgl64.Vec3{}
}

func (b *Body) integratePosition(dt float64) {
	b.pose.Position = b.pose.Position.Add(b.lin.Mul(dt))
	if w := b.ang.Len(); w > 1e-12 {
		dq := mgl64.QuatRotate(w*dt, b.ang.Mul(1/w))
		b.pose.Rotation = dq.Mul(b.pose.Rotation).Normalize()
	}
	b.contacts = b.contacts[:0]
}

type contact struct {
	r        mgl64.Vec3
	normal   mgl64.Vec3
	depth    float64
	bounce   float64
	normalJ  float64
	tangentJ float64
}

var cornerSigns = [8]mgl64.Vec3{
	{-1, -1, -1}, {-1, -1, 1}, {-1, 1, -1}, {-1, 1, 1},
	{1, -1, -1}, {1, -1, 1}, {1, 1, -1}, {1, 1, 1},
}

// findContacts collects box corners that sit inside a static box.
func (b *Body) findContacts(statics []*Body, restitution float64) {
	b.contacts = b.contacts[:0]
	for _, s := range statics {
		toLocal := s.pose.Inverse()
		for _, sign := range cornerSigns {
			offset := b.pose.Rotation.Rotate(mgl64.Vec3{
				sign[0] * b.halfExtents[0],
				sign[1] * b.halfExtents[1],
				sign[2] * b.halfExtents[2],
			})
			world := b.pose.Position.Add(offset)
			local := toLocal.Apply(world)

			axis, depth := -1, math.Inf(1)
			for i := 0; i < 3; i++ {
				pen := s.halfExtents[i] - math.Abs(local[i])
				if pen <= 0 {
					axis = -1
					break
				}
				if pen < depth {
					axis, depth = i, pen
				}
			}
			if axis < 0 {
				continue
			}
			var n mgl64.Vec3
			n[axis] = math.Copysign(1, local[axis])
			n = s.pose.Rotation.Rotate(n)

			c := contact{r: offset, normal: n, depth: depth}
			vn := b.lin.Add(b.ang.Cross(offset)).Dot(n)
			if vn < -1 {
				c.bounce = -restitution * vn
			}
			b.contacts = append(b.contacts, c)
		}
	}
}

func (b *Body) solveContacts(dt, beta, slop, friction float64) {
	if len(b.contacts) == 0 {
		return
	}
	invI := b.invInertiaWorld
	for i := range b.contacts {
		c := &b.contacts[i]
		rn := c.r.Cross(c.normal)
		kN := b.invMass + c.normal.Dot(invI.Mul3x1(rn).Cross(c.r))
		if kN <= 0 {
			continue
		}
		vrel := b.lin.Add(b.ang.Cross(c.r))
		vn := vrel.Dot(c.normal)
		target := math.Max(beta/dt*math.Max(c.depth-slop, 0), c.bounce)
		j := (target - vn) / kN
		old := c.normalJ
		c.normalJ = math.Max(old+j, 0)
		j = c.normalJ - old
		b.applyImpulse(c.normal.Mul(j), c.r)

		vrel = b.lin.Add(b.ang.Cross(c.r))
		vt := vrel.Sub(c.normal.Mul(vrel.Dot(c.normal)))
		speed := vt.Len()
		if speed < 1e-9 {
			continue
		}
		t := vt.Mul(1 / speed)
		rt := c.r.Cross(t)
		kT := b.invMass + t.Dot(invI.Mul3x1(rt).Cross(c.r))
		if kT <= 0 {
			continue
		}
		jt := -speed / kT
		maxF := friction * c.normalJ
		oldT := c.tangentJ
		c.tangentJ = clamp(oldT+jt, -maxF, maxF)
		jt = c.tangentJ - oldT
		b.applyImpulse(t.Mul(jt), c.r)
	}
}

func (b *Body) applyImpulse(j, r mgl64.Vec3) {
	if b.static {
		return
	}
	b.lin = b.lin.Add(j.Mul(b.invMass))
	b.ang = b.ang.Add(b.invInertiaWorld.Mul3x1(r.Cross(j)))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Pose is a rigid transform: rotate, then translate.
type Pose struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

func Identity() Pose {
	return Pose{Rotation: mgl64.QuatIdent()}
}

func At(p mgl64.Vec3) Pose {
	return Pose{Position: p, Rotation: mgl64.QuatIdent()}
}

// Mul composes p and o so that p.Mul(o).Apply(v) == p.Apply(o.Apply(v)).
func (p Pose) Mul(o Pose) Pose {
	return Pose{
		Position: p.Position.Add(p.Rotation.Rotate(o.Position)),
		Rotation: p.Rotation.Mul(o.Rotation).Normalize(),
	}
}

func (p Pose) Inverse() Pose {
	inv := p.Rotation.Inverse()
	return Pose{
		Position: inv.Rotate(p.Position.Mul(-1)),
		Rotation: inv,
	}
}

// Apply maps a point from the pose's local frame to its parent frame.
func (p Pose) Apply(v mgl64.Vec3) mgl64.Vec3 {
	return p.Position.Add(p.Rotation.Rotate(v))
}

func (p Pose) Valid() bool {
	for _, c := range []float64{p.Position[0], p.Position[1], p.Position[2], p.Rotation.W, p.Rotation.V[0], p.Rotation.V[1], p.Rotation.V[2]} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return p.Rotation.Len() > 0
}

// Forward, Up and Right are the local -Z, +Y and +X axes expressed in world space.
func Forward(q mgl64.Quat) mgl64.Vec3 { return q.Rotate(mgl64.Vec3{0, 0, -1}).Normalize() }
func Up(q mgl64.Quat) mgl64.Vec3      { return q.Rotate(mgl64.Vec3{0, 1, 0}).Normalize() }
func Right(q mgl64.Quat) mgl64.Vec3   { return q.Rotate(mgl64.Vec3{1, 0, 0}).Normalize() }

// Finite reports whether every component of v is a finite number.
func Finite(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// BoxInertia returns the diagonal inertia tensor of a solid box.
func BoxInertia(mass float64, halfExtents mgl64.Vec3) mgl64.Vec3 {
	x2 := halfExtents[0] * halfExtents[0]
	y2 := halfExtents[1] * halfExtents[1]
	z2 := halfExtents[2] * halfExtents[2]
	return mgl64.Vec3{
		mass / 3 * (y2 + z2),
		mass / 3 * (x2 + z2),
		mass / 3 * (x2 + y2),
	}
}

package component

import "github.com/go-gl/mathgl/mgl64"

// Transform is the render-facing pose cache of an entity. Scale is the full
// box extent and only affects drawing.
type Transform struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
	Scale    mgl64.Vec3
}

// ModelMatrix returns translate(Position) * rotate(Rotation) * scale(Scale).
func (t Transform) ModelMatrix() mgl64.Mat4 {
	return mgl64.Translate3D(t.Position[0], t.Position[1], t.Position[2]).
		Mul4(t.Rotation.Normalize().Mat4()).
		Mul4(mgl64.Scale3D(t.Scale[0], t.Scale[1], t.Scale[2]))
}

var TransformComponent = NewComponent[Transform]()

package render

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Camera is a perspective camera looking from Eye at Target.
type Camera struct {
	Eye    mgl64.Vec3
	Target mgl64.Vec3
	Up     mgl64.Vec3
	FovY   float64
	Near   float64
	Far    float64
}

// DefaultCamera frames the rig from above and behind its right wing.
func DefaultCamera() Camera {
	return Camera{
		Eye:    mgl64.Vec3{15, 18, 15},
		Target: mgl64.Vec3{0, 0, -30},
		Up:     mgl64.Vec3{0, 1, 0},
		FovY:   math.Pi / 3,
		Near:   0.1,
		Far:    1000,
	}
}

func (c Camera) View() mgl64.Mat4 {
	return mgl64.LookAtV(c.Eye, c.Target, c.Up)
}

func (c Camera) Projection(aspect float64) mgl64.Mat4 {
	return mgl64.Perspective(c.FovY, aspect, c.Near, c.Far)
}

func (c Camera) ViewProjection(aspect float64) mgl64.Mat4 {
	return c.Projection(aspect).Mul4(c.View())
}

// Project maps a world point to pixel coordinates on a width x height
// viewport. ok is false for points behind the near plane.
func (c Camera) Project(viewProj mgl64.Mat4, p mgl64.Vec3, width, height float64) (x, y float64, ok bool) {
	clip := viewProj.Mul4x1(p.Vec4(1))
	if clip[3] <= c.Near {
		return 0, 0, false
	}
	ndc := clip.Vec3().Mul(1 / clip[3])
	return (ndc[0] + 1) / 2 * width, (1 - ndc[1]) / 2 * height, true
}

package render

import (
	"image/color"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCameraProjectsTargetToCentre(t *testing.T) {
	cam := DefaultCamera()
	vp := cam.ViewProjection(1280.0 / 720.0)

	x, y, ok := cam.Project(vp, cam.Target, 1280, 720)
	require.True(t, ok)
	assert.InDelta(t, 640, x, 1e-6)
	assert.InDelta(t, 360, y, 1e-6)

	behind := cam.Eye.Add(cam.Eye.Sub(cam.Target))
	_, _, ok = cam.Project(vp, behind, 1280, 720)
	assert.False(t, ok)
}

func TestBoxCorners(t *testing.T) {
	model := mgl64.Translate3D(1, 2, 3).Mul4(mgl64.Scale3D(2, 4, 6))
	corners := BoxCorners(model)
	assert.True(t, corners[0].ApproxEqual(mgl64.Vec3{0, 0, 0}))
	assert.True(t, corners[6].ApproxEqual(mgl64.Vec3{2, 4, 6}))
}

func TestColor(t *testing.T) {
	assert.Equal(t, color.RGBA{R: 51, G: 51, B: 255, A: 255}, GroundColor.RGBA())
	assert.Equal(t, color.RGBA{R: 0, G: 255, B: 0, A: 255}, Color{R: -1, G: 2}.RGBA())
}

func TestRecorderKeepsLastFrames(t *testing.T) {
	r := NewRecorder(2)
	for i := 0; i < 3; i++ {
		r.Clear()
		for j := 0; j <= i; j++ {
			r.DrawBox(mgl64.Ident4(), DynamicColor)
		}
		r.Present()
	}

	assert.Equal(t, 3, r.Presents())
	require.Len(t, r.Frames(), 2)
	last, ok := r.Last()
	require.True(t, ok)
	assert.Len(t, last, 3)
	assert.Len(t, r.Frames()[0], 2)
}

func TestRecorderWithoutLimitOnlyCounts(t *testing.T) {
	r := NewRecorder(0)
	r.Clear()
	r.DrawBox(mgl64.Ident4(), GroundColor)
	r.Present()

	assert.Equal(t, 1, r.Presents())
	_, ok := r.Last()
	assert.False(t, ok)
}

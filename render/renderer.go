// Package render holds the draw contract the simulation loop feeds every
// frame and its two sinks: an ebiten wireframe view and a headless recorder.
package render

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl64"
)

// Renderer receives one frame at a time: Clear, any number of DrawBox calls,
// then Present. It never reports errors back.
type Renderer interface {
	Clear()
	// DrawBox draws the unit cube centred at the origin transformed by model.
	DrawBox(model mgl64.Mat4, c Color)
	Present()
}

// Color is a linear RGB color in [0, 1].
type Color struct {
	R, G, B float64
}

var (
	GroundColor  = Color{R: 0.2, G: 0.2, B: 1}
	DynamicColor = Color{R: 1, G: 0.2, B: 0.2}
)

// RGBA converts c to an 8-bit opaque color.
func (c Color) RGBA() color.RGBA {
	return color.RGBA{R: channel(c.R), G: channel(c.G), B: channel(c.B), A: 0xff}
}

func channel(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 0xff
	}
	return uint8(v*255 + 0.5)
}

package render

import "github.com/go-gl/mathgl/mgl64"

var unitCorners = [8]mgl64.Vec3{
	{-0.5, -0.5, -0.5}, {0.5, -0.5, -0.5}, {0.5, 0.5, -0.5}, {-0.5, 0.5, -0.5},
	{-0.5, -0.5, 0.5}, {0.5, -0.5, 0.5}, {0.5, 0.5, 0.5}, {-0.5, 0.5, 0.5},
}

var boxEdges = [12][2]int{
	{0, 1}, {1, 2}, {2, 3}, {3, 0},
	{4, 5}, {5, 6}, {6, 7}, {7, 4},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// BoxCorners returns the eight world-space corners of the unit cube under model.
func BoxCorners(model mgl64.Mat4) [8]mgl64.Vec3 {
	var out [8]mgl64.Vec3
	for i, c := range unitCorners {
		out[i] = mgl64.TransformCoordinate(c, model)
	}
	return out
}

package render

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/colornames"
)

const wireWidth = 1.5

// Wireframe draws boxes as projected edges onto an ebiten image. Set the
// target image with Begin before each frame.
type Wireframe struct {
	Camera Camera

	screen   *ebiten.Image
	viewProj mgl64.Mat4
	width    float64
	height   float64
	boxes    int
}

var _ Renderer = (*Wireframe)(nil)

func NewWireframe(camera Camera) *Wireframe {
	return &Wireframe{Camera: camera}
}

// Begin targets screen for the next frame.
func (r *Wireframe) Begin(screen *ebiten.Image) {
	r.screen = screen
	if screen == nil {
		return
	}
	b := screen.Bounds()
	r.width, r.height = float64(b.Dx()), float64(b.Dy())
	aspect := 1.0
	if r.height > 0 {
		aspect = r.width / r.height
	}
	r.viewProj = r.Camera.ViewProjection(aspect)
}

func (r *Wireframe) Clear() {
	r.boxes = 0
	if r.screen != nil {
		r.screen.Fill(colornames.Black)
	}
}

func (r *Wireframe) DrawBox(model mgl64.Mat4, c Color) {
	if r.screen == nil {
		return
	}
	r.boxes++
	corners := BoxCorners(model)
	var xs, ys [8]float32
	var visible [8]bool
	for i, p := range corners {
		x, y, ok := r.Camera.Project(r.viewProj, p, r.width, r.height)
		xs[i], ys[i], visible[i] = float32(x), float32(y), ok
	}
	clr := c.RGBA()
	for _, e := range boxEdges {
		a, b := e[0], e[1]
		if !visible[a] || !visible[b] {
			continue
		}
		vector.StrokeLine(r.screen, xs[a], ys[a], xs[b], ys[b], wireWidth, clr, true)
	}
}

// Present is a no-op; ebiten presents the screen after Draw returns.
func (r *Wireframe) Present() {}

// Boxes returns the number of boxes drawn since the last Clear.
func (r *Wireframe) Boxes() int { return r.boxes }

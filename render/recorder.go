package render

import "github.com/go-gl/mathgl/mgl64"

// DrawnBox is one DrawBox call.
type DrawnBox struct {
	Model mgl64.Mat4
	Color Color
}

// Frame is everything drawn between Clear and Present.
type Frame []DrawnBox

// Recorder is a headless Renderer that keeps the last Limit presented frames.
type Recorder struct {
	Limit int

	current  Frame
	frames   []Frame
	presents int
}

var _ Renderer = (*Recorder)(nil)

func NewRecorder(limit int) *Recorder {
	return &Recorder{Limit: limit}
}

func (r *Recorder) Clear() {
	r.current = r.current[:0:0]
}

func (r *Recorder) DrawBox(model mgl64.Mat4, c Color) {
	r.current = append(r.current, DrawnBox{Model: model, Color: c})
}

func (r *Recorder) Present() {
	r.presents++
	if r.Limit <= 0 {
		return
	}
	r.frames = append(r.frames, r.current)
	if len(r.frames) > r.Limit {
		r.frames = r.frames[len(r.frames)-r.Limit:]
	}
	r.current = nil
}

// Presents counts every Present call.
func (r *Recorder) Presents() int { return r.presents }

// Last returns the most recently presented frame.
func (r *Recorder) Last() (Frame, bool) {
	if len(r.frames) == 0 {
		return nil, false
	}
	return r.frames[len(r.frames)-1], true
}

func (r *Recorder) Frames() []Frame { return r.frames }

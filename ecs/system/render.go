package system

import (
	"github.com/milk9111/flightrig/ecs"
	"github.com/milk9111/flightrig/ecs/component"
	"github.com/milk9111/flightrig/render"
)

// RenderSystem hands every live body entity to a renderer once per frame.
type RenderSystem struct {
	renderer render.Renderer
}

func NewRenderSystem(renderer render.Renderer) *RenderSystem {
	return &RenderSystem{renderer: renderer}
}

func (r *RenderSystem) Renderer() render.Renderer {
	if r == nil {
		return nil
	}
	return r.renderer
}

func (r *RenderSystem) Draw(w *ecs.World) {
	if r == nil || r.renderer == nil || w == nil {
		return
	}
	r.renderer.Clear()
	ecs.ForEach2(w, component.TransformComponent.Kind(), component.BodyComponent.Kind(), func(_ ecs.Entity, t *component.Transform, b *component.Body) {
		c := render.GroundColor
		if b.Kind == component.BodyDynamic {
			c = render.DynamicColor
		}
		r.renderer.DrawBox(t.ModelMatrix(), c)
	})
	r.renderer.Present()
}

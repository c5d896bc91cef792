package ecs

import "github.com/milk9111/flightrig/ecs/component"

// ForEach calls fn for every live entity holding a component of kind. The
// table must not be mutated from fn.
func ForEach[T any](w *World, kind component.ComponentKind[T], fn func(Entity, *T)) {
	if w == nil {
		return
	}
	s := storeFor(w, kind, false)
	if s == nil {
		return
	}
	for i, id := range s.dense {
		e, ok := w.entities.resolve(id)
		if !ok {
			continue
		}
		fn(e, s.values[i])
	}
}

// ForEach2 iterates entities holding both components, walking the smaller table.
func ForEach2[A, B any](w *World, ka component.ComponentKind[A], kb component.ComponentKind[B], fn func(Entity, *A, *B)) {
	if w == nil {
		return
	}
	sa := storeFor(w, ka, false)
	sb := storeFor(w, kb, false)
	if sa == nil || sb == nil {
		return
	}
	ids := sa.ids()
	if sb.len() < sa.len() {
		ids = sb.ids()
	}
	for _, id := range append([]entityID(nil), ids...) {
		e, ok := w.entities.resolve(id)
		if !ok {
			continue
		}
		a, okA := sa.get(id)
		b, okB := sb.get(id)
		if okA && okB {
			fn(e, a, b)
		}
	}
}

// First returns the first live entity holding a component of kind.
func First[T any](w *World, kind component.ComponentKind[T]) (Entity, bool) {
	var found Entity
	ok := false
	ForEach(w, kind, func(e Entity, _ *T) {
		if !ok {
			found, ok = e, true
		}
	})
	return found, ok
}

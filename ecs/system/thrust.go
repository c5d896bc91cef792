package system

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/flightrig/ecs"
	"github.com/milk9111/flightrig/ecs/component"
)

// ThrustForce is the propulsion force of an engine pushing along its local -Z.
func ThrustForce(rotation mgl64.Quat, power float64) mgl64.Vec3 {
	return rotation.Rotate(mgl64.Vec3{0, 0, -power})
}

// ApplyThrust pushes e along its cached forward axis for one step.
func ApplyThrust(w *ecs.World, pw *ecs.PhysicsWorld, e ecs.Entity, power float64) (mgl64.Vec3, error) {
	t, ok := ecs.Get(w, e, component.TransformComponent.Kind())
	if !ok {
		return mgl64.Vec3{}, ecs.ErrEntityNotAlive
	}
	f := ThrustForce(t.Rotation, power)
	if !usable(f) {
		return f, nil
	}
	return f, pw.AddForce(e, f)
}

type ThrustSystem struct{}

func NewThrustSystem() *ThrustSystem {
	return &ThrustSystem{}
}

func (s *ThrustSystem) Update(w *ecs.World, pw *ecs.PhysicsWorld, _ ecs.Tick) error {
	var firstErr error
	ecs.ForEach(w, component.ThrusterComponent.Kind(), func(e ecs.Entity, th *component.Thruster) {
		if firstErr != nil || !pw.HasBody(e) {
			return
		}
		if _, err := ApplyThrust(w, pw, e, th.Power); err != nil {
			firstErr = err
		}
	})
	return firstErr
}

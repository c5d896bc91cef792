package system

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/flightrig/ecs"
	"github.com/milk9111/flightrig/ecs/component"
	"github.com/milk9111/flightrig/physics"
)

const (
	// AirDensity is sea-level air density at 15°C, in kg/m^3.
	AirDensity = 1.225
	// StaticPressure is the sea-level static air pressure scale used by the
	// lift model.
	StaticPressure = 101.325
)

// WingForces holds one step's aerodynamic forces on a wing.
type WingForces struct {
	Lift mgl64.Vec3
	Drag mgl64.Vec3
}

// ComputeWingForces evaluates the toy lift/drag model for a body with the
// given orientation and linear velocity.
//
// cosAoA compares the flight direction with the wing's forward axis and
// cosStupidAoA with its up axis. Drag opposes the flight direction and grows
// with |cosStupidAoA|; lift is perpendicular to both the velocity and the
// wing's right axis and vanishes when the wing moves edge-on or face-on.
func ComputeWingForces(rotation mgl64.Quat, velocity mgl64.Vec3, lift, drag float64) WingForces {
	speed := velocity.Len()
	if speed == 0 || !physics.Finite(velocity) {
		return WingForces{}
	}
	forward := physics.Forward(rotation)
	up := physics.Up(rotation)
	right := physics.Right(rotation)
	dir := velocity.Mul(1 / speed)

	cosAoA := dir.Dot(forward)
	cosStupidAoA := dir.Dot(up)

	dragCoeff := math.Abs(cosStupidAoA) * drag
	dragForce := 0.5 * AirDensity * speed * speed * dragCoeff

	liftScale := cosStupidAoA * (1 - math.Abs(cosStupidAoA)) * cosAoA * lift * StaticPressure
	return WingForces{
		Lift: velocity.Cross(right).Mul(liftScale),
		Drag: dir.Mul(-dragForce),
	}
}

// ApplyWingForces computes e's wing forces from its cached rotation and its
// body's velocity and applies every non-degenerate contribution for one step.
func ApplyWingForces(w *ecs.World, pw *ecs.PhysicsWorld, e ecs.Entity, lift, drag float64) (WingForces, error) {
	t, ok := ecs.Get(w, e, component.TransformComponent.Kind())
	if !ok {
		return WingForces{}, ecs.ErrEntityNotAlive
	}
	v, err := pw.LinearVelocity(e)
	if err != nil {
		return WingForces{}, err
	}
	f := ComputeWingForces(t.Rotation, v, lift, drag)
	if usable(f.Drag) {
		if err := pw.AddForce(e, f.Drag); err != nil {
			return f, err
		}
	}
	if usable(f.Lift) {
		if err := pw.AddForce(e, f.Lift); err != nil {
			return f, err
		}
	}
	return f, nil
}

func usable(f mgl64.Vec3) bool {
	return f.LenSqr() > 0 && physics.Finite(f)
}

// WingSystem applies aerodynamic forces to every entity with a Wing.
type WingSystem struct{}

func NewWingSystem() *WingSystem {
	return &WingSystem{}
}

func (s *WingSystem) Update(w *ecs.World, pw *ecs.PhysicsWorld, _ ecs.Tick) error {
	var firstErr error
	ecs.ForEach(w, component.WingComponent.Kind(), func(e ecs.Entity, wing *component.Wing) {
		if firstErr != nil || !pw.HasBody(e) {
			return
		}
		if _, err := ApplyWingForces(w, pw, e, wing.Lift, wing.Drag); err != nil {
			firstErr = err
		}
	})
	return firstErr
}

package system

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/flightrig/ecs"
	"github.com/milk9111/flightrig/ecs/component"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeWingForces(t *testing.T) {
	ident := mgl64.QuatIdent()
	cases := []struct {
		name     string
		rotation mgl64.Quat
		velocity mgl64.Vec3
		lift     float64
		drag     float64
		wantLift mgl64.Vec3
		wantDrag mgl64.Vec3
	}{
		{
			name:     "at_rest",
			rotation: ident,
			velocity: mgl64.Vec3{},
			lift:     10, drag: 10,
		},
		{
			name:     "edge_on_has_no_drag_or_lift",
			rotation: ident,
			velocity: mgl64.Vec3{0, 0, -12},
			lift:     10, drag: 10,
		},
		{
			name:     "face_on_has_no_lift",
			rotation: ident,
			velocity: mgl64.Vec3{0, -10, 0},
			lift:     10, drag: 2,
			wantDrag: mgl64.Vec3{0, 0.5 * AirDensity * 100 * 2, 0},
		},
		{
			name:     "descending_glide",
			rotation: ident,
			velocity: mgl64.Vec3{0, -3, -4},
			lift:     1, drag: 1,
			wantLift: mgl64.Vec3{0, -4, 3}.Mul(-0.6 * 0.4 * 0.8 * StaticPressure),
			wantDrag: mgl64.Vec3{0, 0.6, 0.8}.Mul(0.5 * AirDensity * 25 * 0.6),
		},
		{
			name:     "non_finite_velocity",
			rotation: ident,
			velocity: mgl64.Vec3{math.NaN(), 0, 0},
			lift:     1, drag: 1,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := ComputeWingForces(c.rotation, c.velocity, c.lift, c.drag)
			assert.InDeltaSlice(t, c.wantLift[:], got.Lift[:], 1e-9, "lift")
			assert.InDeltaSlice(t, c.wantDrag[:], got.Drag[:], 1e-9, "drag")
		})
	}
}

func TestComputeWingForcesRotated(t *testing.T) {
	// Rolling the wing and the flight path together leaves the forces rolled.
	roll := mgl64.QuatRotate(0.7, mgl64.Vec3{0, 0, 1})
	v := mgl64.Vec3{0, -3, -4}
	base := ComputeWingForces(mgl64.QuatIdent(), v, 1, 1)
	rolled := ComputeWingForces(roll, roll.Rotate(v), 1, 1)

	assert.True(t, roll.Rotate(base.Lift).ApproxEqualThreshold(rolled.Lift, 1e-9))
	assert.True(t, roll.Rotate(base.Drag).ApproxEqualThreshold(rolled.Drag, 1e-9))
}

func TestApplyWingForces(t *testing.T) {
	w, pw, engine := newTestWorld(t)
	e := newBox(t, w, pw, mgl64.Vec3{})
	body := engine.Bodies()[0]

	f, err := ApplyWingForces(w, pw, e, 10, 10)
	require.NoError(t, err)
	assert.Equal(t, WingForces{}, f)
	assert.Empty(t, body.Forces)

	body.SetLinearVelocity(mgl64.Vec3{0, -3, -4})
	f, err = ApplyWingForces(w, pw, e, 1, 1)
	require.NoError(t, err)
	require.Len(t, body.Forces, 2)
	assert.Equal(t, f.Drag, body.Forces[0])
	assert.Equal(t, f.Lift, body.Forces[1])

	orphan := ecs.CreateEntity(w)
	_, err = ApplyWingForces(w, pw, orphan, 1, 1)
	assert.Error(t, err)
}

func TestWingSystemOnlyTouchesWings(t *testing.T) {
	w, pw, engine := newTestWorld(t)
	wing := newBox(t, w, pw, mgl64.Vec3{})
	newBox(t, w, pw, mgl64.Vec3{5, 0, 0})
	require.NoError(t, ecs.Add(w, wing, component.WingComponent.Kind(), &component.Wing{Lift: 10, Drag: 10}))

	for _, b := range engine.Bodies() {
		b.SetLinearVelocity(mgl64.Vec3{0, -1, -1})
	}
	require.NoError(t, NewWingSystem().Update(w, pw, ecs.Tick{}))

	assert.NotEmpty(t, engine.Bodies()[0].Forces)
	assert.Empty(t, engine.Bodies()[1].Forces)
}

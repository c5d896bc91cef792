package planar

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/flightrig/physics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dt = 1.0 / 60

func step(t *testing.T, e *Engine, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, e.Simulate(dt))
		_, err := e.FetchResults(true)
		require.NoError(t, err)
	}
}

func TestPlaneMapping(t *testing.T) {
	e := New(DefaultOptions())
	defer e.Close()

	b, err := e.CreateDynamic(mgl64.Vec3{1, 0.5, 2}, physics.Identity())
	require.NoError(t, err)

	want := physics.Pose{
		Position: mgl64.Vec3{3, 4, -5},
		Rotation: mgl64.QuatRotate(0.4, mgl64.Vec3{1, 0, 0}),
	}
	b.SetPose(want)
	got := b.Pose()
	assert.True(t, got.Position.ApproxEqualThreshold(want.Position, 1e-9), "position %v", got.Position)
	assert.InDelta(t, 0.4, twistX(got.Rotation), 1e-9)

	b.SetLinearVelocity(mgl64.Vec3{7, 1, -2})
	assert.True(t, b.LinearVelocity().ApproxEqualThreshold(mgl64.Vec3{0, 1, -2}, 1e-12))
	b.SetAngularVelocity(mgl64.Vec3{0.5, 9, 9})
	assert.Equal(t, mgl64.Vec3{0.5, 0, 0}, b.AngularVelocity())
}

func TestFreeFallFirstStep(t *testing.T) {
	e := New(DefaultOptions())
	defer e.Close()

	_, err := e.CreateStatic(mgl64.Vec3{90, 0.5, 90}, physics.Identity())
	require.NoError(t, err)
	wing, err := e.CreateDynamic(mgl64.Vec3{8, 0.25, 1.5}, physics.At(mgl64.Vec3{0, 3, 0}))
	require.NoError(t, err)
	wing.SetMass(10)

	step(t, e, 1)
	assert.InDelta(t, -0.1635, wing.LinearVelocity()[1], 1e-4)
	assert.Equal(t, 10.0, wing.Mass())
}

func TestForceAlongPlane(t *testing.T) {
	opts := DefaultOptions()
	opts.Gravity = mgl64.Vec3{}
	e := New(opts)
	defer e.Close()

	b, err := e.CreateDynamic(mgl64.Vec3{1, 1, 1}, physics.Identity())
	require.NoError(t, err)
	b.SetMass(2)
	b.AddForce(mgl64.Vec3{0, 0, -720})
	step(t, e, 1)
	assert.InDelta(t, -720.0/2*dt, b.LinearVelocity()[2], 1e-9)

	step(t, e, 1)
	assert.InDelta(t, -720.0/2*dt, b.LinearVelocity()[2], 1e-9, "forces last one step")
}

func TestRevoluteLimitHolds(t *testing.T) {
	opts := DefaultOptions()
	opts.Gravity = mgl64.Vec3{}
	e := New(opts)
	defer e.Close()

	wing, err := e.CreateDynamic(mgl64.Vec3{8, 0.25, 1.5}, physics.At(mgl64.Vec3{0, 3, 0}))
	require.NoError(t, err)
	wing.SetMass(10)
	arm, err := e.CreateDynamic(mgl64.Vec3{2.5, 0.25, 0.25}, physics.At(mgl64.Vec3{4.5, 3, 1.5}))
	require.NoError(t, err)
	arm.SetMass(2)

	j, err := e.CreateRevoluteJoint(wing, physics.At(mgl64.Vec3{4.5, 0, 1.5}), arm, physics.Identity(), physics.ControlSurface(0.6, 1000, -100))
	require.NoError(t, err)
	j.SetCollisionEnabled(false)
	assert.False(t, j.CollisionEnabled())

	for i := 0; i < 120; i++ {
		step(t, e, 1)
		require.LessOrEqual(t, math.Abs(j.Angle()), 0.7, "step %d", i)
	}

	j.SetDriveVelocity(0)
	assert.Equal(t, 0.0, j.DriveVelocity())
	step(t, e, 10)
}

func TestRemoveBody(t *testing.T) {
	e := New(DefaultOptions())
	defer e.Close()
	a, _ := e.CreateDynamic(mgl64.Vec3{1, 1, 1}, physics.Identity())
	b, _ := e.CreateDynamic(mgl64.Vec3{1, 1, 1}, physics.At(mgl64.Vec3{0, 0, -2}))
	_, err := e.CreateFixedJoint(a, physics.At(mgl64.Vec3{0, 0, -1}), b, physics.At(mgl64.Vec3{0, 0, 1}))
	require.NoError(t, err)

	require.NoError(t, e.RemoveBody(b))
	assert.Len(t, e.bodies, 1)
	step(t, e, 1)
	require.NoError(t, e.Close())
	assert.ErrorIs(t, e.Simulate(dt), physics.ErrEngineClosed)
}

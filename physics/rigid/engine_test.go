package rigid

import (
	"math"
	"testing"
	"time"

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
		done, err := e.FetchResults(true)
		require.NoError(t, err)
		require.True(t, done)
	}
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

	v := wing.LinearVelocity()
	assert.InDelta(t, -0.1635, v[1], 1e-4)
	assert.InDelta(t, 0, v[0], 1e-12)
	assert.InDelta(t, 0, v[2], 1e-12)
	assert.Less(t, wing.Pose().Position[1], 3.0)
}

func TestSetMassRescalesInertia(t *testing.T) {
	e := New(DefaultOptions())
	b, err := e.CreateDynamic(mgl64.Vec3{1, 2, 3}, physics.Identity())
	require.NoError(t, err)
	b.SetMass(3)

	body := b.(*Body)
	assert.Equal(t, 3.0, body.Mass())
	assert.InDeltaSlice(t, []float64{13, 10, 5}, body.inertia[:], 1e-12)
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

	const limit = 0.6
	j, err := e.CreateRevoluteJoint(wing, physics.At(mgl64.Vec3{4.5, 0, 1.5}), arm, physics.Identity(), physics.ControlSurface(limit, 1000, -100))
	require.NoError(t, err)

	for i := 0; i < 120; i++ {
		step(t, e, 1)
		angle := j.Angle()
		require.LessOrEqual(t, math.Abs(angle), limit+0.1, "step %d angle %v", i, angle)
	}
	assert.Less(t, j.Angle(), -limit/2, "drive should push the hinge toward its lower limit")
}

func TestFixedJointHoldsUnderGravity(t *testing.T) {
	e := New(DefaultOptions())
	defer e.Close()

	anchor, err := e.CreateStatic(mgl64.Vec3{1, 1, 1}, physics.At(mgl64.Vec3{0, 10, 0}))
	require.NoError(t, err)
	box, err := e.CreateDynamic(mgl64.Vec3{1, 1, 1}, physics.At(mgl64.Vec3{0, 8, 0}))
	require.NoError(t, err)
	box.SetMass(5)

	frameA := physics.At(mgl64.Vec3{0, -1, 0})
	frameB := physics.At(mgl64.Vec3{0, 1, 0})
	_, err = e.CreateFixedJoint(anchor, frameA, box, frameB)
	require.NoError(t, err)

	step(t, e, 120)

	drift := anchor.Pose().Apply(frameA.Position).Sub(box.Pose().Apply(frameB.Position)).Len()
	assert.Less(t, drift, 0.05)
	assert.InDelta(t, 8, box.Pose().Position[1], 0.05)
}

func TestBoxSettlesOnGround(t *testing.T) {
	e := New(DefaultOptions())
	defer e.Close()

	_, err := e.CreateStatic(mgl64.Vec3{90, 0.5, 90}, physics.Identity())
	require.NoError(t, err)
	box, err := e.CreateDynamic(mgl64.Vec3{1, 1, 1}, physics.At(mgl64.Vec3{0, 3, 0}))
	require.NoError(t, err)
	box.SetMass(4)

	step(t, e, 300)

	assert.InDelta(t, 1.5, box.Pose().Position[1], 0.1)
	assert.Less(t, math.Abs(box.LinearVelocity()[1]), 0.5)
}

func TestWorkersAgree(t *testing.T) {
	run := func(workers int) []float64 {
		opts := DefaultOptions()
		opts.Workers = workers
		e := New(opts)
		defer e.Close()
		var bodies []physics.Body
		for i := 0; i < 16; i++ {
			b, err := e.CreateDynamic(mgl64.Vec3{0.5, 0.5, 0.5}, physics.At(mgl64.Vec3{float64(i) * 2, 5, 0}))
			require.NoError(t, err)
			b.AddForce(mgl64.Vec3{float64(i), 0, 0})
			bodies = append(bodies, b)
		}
		step(t, e, 10)
		out := make([]float64, 0, len(bodies))
		for _, b := range bodies {
			out = append(out, b.Pose().Position[0], b.Pose().Position[1])
		}
		return out
	}
	assert.Equal(t, run(1), run(4))
}

func TestStepLifecycleErrors(t *testing.T) {
	e := New(DefaultOptions())
	b, err := e.CreateDynamic(mgl64.Vec3{1, 1, 1}, physics.Identity())
	require.NoError(t, err)

	require.NoError(t, e.Simulate(dt))
	assert.ErrorIs(t, e.Simulate(dt), physics.ErrStepInFlight)
	_, err = e.CreateDynamic(mgl64.Vec3{1, 1, 1}, physics.Identity())
	assert.ErrorIs(t, err, physics.ErrStepInFlight)

	assert.Eventually(t, func() bool {
		done, err := e.FetchResults(false)
		return err == nil && done
	}, time.Second, time.Millisecond)

	other := New(DefaultOptions())
	foreign, err := other.CreateDynamic(mgl64.Vec3{1, 1, 1}, physics.Identity())
	require.NoError(t, err)
	_, err = e.CreateFixedJoint(b, physics.Identity(), foreign, physics.Identity())
	assert.ErrorIs(t, err, physics.ErrForeignBody)
	_, err = e.CreateFixedJoint(b, physics.Identity(), nil, physics.Identity())
	assert.ErrorIs(t, err, physics.ErrNilBody)

	require.NoError(t, e.Close())
	require.NoError(t, e.Close())
	assert.ErrorIs(t, e.Simulate(dt), physics.ErrEngineClosed)
}

func TestRemoveBodyDropsJoints(t *testing.T) {
	e := New(DefaultOptions())
	defer e.Close()
	a, _ := e.CreateDynamic(mgl64.Vec3{1, 1, 1}, physics.Identity())
	b, _ := e.CreateDynamic(mgl64.Vec3{1, 1, 1}, physics.At(mgl64.Vec3{2, 0, 0}))
	_, err := e.CreateFixedJoint(a, physics.Identity(), b, physics.Identity())
	require.NoError(t, err)

	require.NoError(t, e.RemoveBody(b))
	assert.Len(t, e.bodies, 1)
	assert.Empty(t, e.joints)
	step(t, e, 1)
}

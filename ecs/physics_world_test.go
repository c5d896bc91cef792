package ecs

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/flightrig/ecs/component"
	"github.com/milk9111/flightrig/physics"
	"github.com/milk9111/flightrig/physics/stub"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStubWorld(t *testing.T) (*World, *PhysicsWorld, *stub.Engine) {
	t.Helper()
	engine := stub.New()
	pw := NewPhysicsWorld(engine, zerolog.Nop())
	t.Cleanup(func() { _ = pw.Close() })
	return NewWorld(), pw, engine
}

func TestCreateBoxes(t *testing.T) {
	w, pw, engine := newStubWorld(t)

	ground, err := pw.CreateStaticBox(w, mgl64.Vec3{90, 0.5, 90}, mgl64.Vec3{})
	require.NoError(t, err)
	wing, err := pw.CreateDynamicBox(w, 10, mgl64.Vec3{8, 0.25, 1.5}, mgl64.Vec3{0, 3, 0})
	require.NoError(t, err)

	body, ok := Get(w, ground, component.BodyComponent.Kind())
	require.True(t, ok)
	assert.Equal(t, component.BodyStatic, body.Kind)

	body, ok = Get(w, wing, component.BodyComponent.Kind())
	require.True(t, ok)
	assert.Equal(t, component.BodyDynamic, body.Kind)

	tr, ok := Get(w, wing, component.TransformComponent.Kind())
	require.True(t, ok)
	assert.Equal(t, mgl64.Vec3{0, 3, 0}, tr.Position)
	assert.Equal(t, mgl64.Vec3{16, 0.5, 3}, tr.Scale)

	require.Len(t, engine.Bodies(), 2)
	assert.Equal(t, 10.0, engine.Bodies()[1].Mass())
	assert.Equal(t, 2, pw.BodyCount())

	_, err = pw.CreateDynamicBox(w, 0, mgl64.Vec3{1, 1, 1}, mgl64.Vec3{})
	assert.Error(t, err)
}

func TestStepAccumulatesSimulatedTime(t *testing.T) {
	cases := []struct {
		name  string
		steps int
		dt    float64
	}{
		{"none", 0, 1.0 / 60},
		{"one", 1, 1.0 / 60},
		{"many", 120, 1.0 / 60},
		{"coarse", 7, 0.1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, pw, engine := newStubWorld(t)
			for i := 0; i < c.steps; i++ {
				require.NoError(t, pw.Step(c.dt))
			}
			assert.Equal(t, c.steps, pw.Steps())
			assert.Equal(t, c.steps, engine.Steps())
			assert.InDelta(t, float64(c.steps)*c.dt, pw.SimulatedTime(), 1e-9)
		})
	}
}

func TestSyncEntitiesCopiesEnginePose(t *testing.T) {
	w, pw, _ := newStubWorld(t)

	ground, err := pw.CreateStaticBox(w, mgl64.Vec3{90, 0.5, 90}, mgl64.Vec3{})
	require.NoError(t, err)
	box, err := pw.CreateDynamicBox(w, 10, mgl64.Vec3{1, 1, 1}, mgl64.Vec3{0, 3, 0})
	require.NoError(t, err)

	require.NoError(t, pw.Step(1.0/60))
	pw.SyncEntities(w)

	pose, err := pw.Pose(box)
	require.NoError(t, err)
	tr, _ := Get(w, box, component.TransformComponent.Kind())
	assert.Equal(t, pose.Position, tr.Position)
	assert.Equal(t, pose.Rotation, tr.Rotation)
	assert.Less(t, tr.Position[1], 3.0)

	gt, _ := Get(w, ground, component.TransformComponent.Kind())
	assert.Equal(t, mgl64.Vec3{}, gt.Position)
}

func TestSyncSkipsDeadEntities(t *testing.T) {
	w, pw, _ := newStubWorld(t)

	box, err := pw.CreateDynamicBox(w, 1, mgl64.Vec3{1, 1, 1}, mgl64.Vec3{0, 3, 0})
	require.NoError(t, err)
	DestroyEntity(w, box)

	require.NoError(t, pw.Step(1.0/60))
	assert.NotPanics(t, func() { pw.SyncEntities(w) })
}

func TestAddForceDropsDegenerateVectors(t *testing.T) {
	w, pw, engine := newStubWorld(t)
	box, err := pw.CreateDynamicBox(w, 1, mgl64.Vec3{1, 1, 1}, mgl64.Vec3{})
	require.NoError(t, err)

	require.NoError(t, pw.AddForce(box, mgl64.Vec3{}))
	require.NoError(t, pw.AddForce(box, mgl64.Vec3{math.NaN(), 0, 0}))
	require.NoError(t, pw.AddForce(box, mgl64.Vec3{0, 0, -720}))

	assert.Equal(t, []mgl64.Vec3{{0, 0, -720}}, engine.Bodies()[0].Forces)
}

func TestVelocityAndPose(t *testing.T) {
	w, pw, _ := newStubWorld(t)
	box, err := pw.CreateDynamicBox(w, 1, mgl64.Vec3{1, 1, 1}, mgl64.Vec3{})
	require.NoError(t, err)

	require.NoError(t, pw.Step(0.5))
	v, err := pw.LinearVelocity(box)
	require.NoError(t, err)
	assert.InDelta(t, -9.81*0.5, v[1], 1e-9)

	require.NoError(t, pw.ZeroVelocity(box))
	v, _ = pw.LinearVelocity(box)
	av, _ := pw.AngularVelocity(box)
	assert.Equal(t, mgl64.Vec3{}, v)
	assert.Equal(t, mgl64.Vec3{}, av)

	target := physics.Pose{Position: mgl64.Vec3{1, 2, 3}, Rotation: mgl64.QuatRotate(0.3, mgl64.Vec3{0, 1, 0})}
	require.NoError(t, pw.SetPose(w, box, target))
	tr, _ := Get(w, box, component.TransformComponent.Kind())
	assert.Equal(t, target.Position, tr.Position)

	orphan := CreateEntity(w)
	_, err = pw.Pose(orphan)
	assert.True(t, errors.Is(err, ErrNoBody))
}

func TestJointTable(t *testing.T) {
	w, pw, _ := newStubWorld(t)
	a, err := pw.CreateDynamicBox(w, 1, mgl64.Vec3{1, 1, 1}, mgl64.Vec3{})
	require.NoError(t, err)
	b, err := pw.CreateDynamicBox(w, 1, mgl64.Vec3{1, 1, 1}, mgl64.Vec3{2, 0, 0})
	require.NoError(t, err)

	fixed, err := pw.CreateJoint(a, physics.Identity(), b, physics.Identity(), physics.JointFixed, physics.RevoluteConfig{})
	require.NoError(t, err)
	hinge, err := pw.CreateJoint(a, physics.Identity(), b, physics.Identity(), physics.JointRevolute, physics.ControlSurface(0.6, 1000, -100))
	require.NoError(t, err)

	v, err := pw.DriveVelocity(hinge)
	require.NoError(t, err)
	assert.Equal(t, -100.0, v)

	require.NoError(t, pw.SetDriveVelocity(hinge, 0))
	v, _ = pw.DriveVelocity(hinge)
	assert.Equal(t, 0.0, v)

	assert.ErrorIs(t, pw.SetDriveVelocity(fixed, 0), ErrNotRevolute)
	assert.ErrorIs(t, pw.SetDriveVelocity(JointID(99), 0), ErrUnknownJoint)

	require.NoError(t, pw.RemoveBody(w, b))
	assert.False(t, IsAlive(w, b))
	_, err = pw.Joint(hinge)
	assert.ErrorIs(t, err, ErrUnknownJoint)
	assert.Equal(t, 1, pw.BodyCount())
}

func TestCloseIsIdempotent(t *testing.T) {
	_, pw, engine := newStubWorld(t)
	require.NoError(t, pw.Close())
	require.NoError(t, pw.Close())
	assert.True(t, engine.Closed())
	assert.ErrorIs(t, pw.Step(1.0/60), physics.ErrEngineClosed)
}

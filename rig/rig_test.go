package rig

import (
	"errors"
	"testing"

	"github.com/milk9111/flightrig/ecs"
	"github.com/milk9111/flightrig/ecs/component"
	"github.com/milk9111/flightrig/physics"
	"github.com/milk9111/flightrig/physics/rigid"
	"github.com/milk9111/flightrig/prefabs"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadDefaultRig(t *testing.T) prefabs.RigSpec {
	t.Helper()
	old := prefabs.Dir
	prefabs.Dir = t.TempDir()
	t.Cleanup(func() { prefabs.Dir = old })

	spec, err := prefabs.LoadRigSpec("rig.yaml")
	require.NoError(t, err)
	return spec
}

func TestAssembleDefaultRig(t *testing.T) {
	spec := loadDefaultRig(t)
	bd, w, pw, engine := newTestBuilder(t)

	r, err := bd.Assemble(spec)
	require.NoError(t, err)

	assert.Equal(t, "glider", r.Name)
	assert.Len(t, r.Parts, 8)
	assert.Len(t, r.Joints, 7)
	assert.Len(t, r.Actuators, 2)
	assert.Len(t, engine.Bodies(), 9)
	assert.Len(t, engine.Joints(), 7)
	assert.Equal(t, []string{
		"cockpit_mount", "engine_mount", "left_flap_mount", "left_hinge",
		"right_flap_mount", "right_hinge", "skid_mount",
	}, r.JointNames())

	for name, weld := range r.Welds {
		dist, err := AnchorError(pw, weld)
		require.NoError(t, err)
		assert.Less(t, dist, 1e-4, name)
	}

	cockpit, err := r.Part("cockpit")
	require.NoError(t, err)
	pose, err := pw.Pose(cockpit)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, pose.Position[1], 1e-9)
	assert.InDelta(t, -2.0, pose.Position[2], 1e-9)

	wings := 0
	ecs.ForEach(w, component.WingComponent.Kind(), func(e ecs.Entity, wing *component.Wing) {
		wings++
	})
	assert.Equal(t, 3, wings)

	engineEntity, err := r.Part("engine")
	require.NoError(t, err)
	th, ok := ecs.Get(w, engineEntity, component.ThrusterComponent.Kind())
	require.True(t, ok)
	assert.Equal(t, 720.0, th.Power)

	hinge, err := r.Joint("left_hinge")
	require.NoError(t, err)
	act, ok := ecs.Get(w, r.Actuators["left_aileron"], component.ActuatorComponent.Kind())
	require.True(t, ok)
	assert.Equal(t, hinge, act.Joint)
	assert.Equal(t, 1.0, act.CutAfter)

	v, err := pw.DriveVelocity(hinge)
	require.NoError(t, err)
	assert.Equal(t, -100.0, v)

	name, ok := ecs.Get(w, r.Ground, component.NameComponent.Kind())
	require.True(t, ok)
	assert.Equal(t, "ground", name.Value)

	_, err = r.Part("tail")
	assert.True(t, errors.Is(err, ErrUnknownPart))
	_, err = r.Joint("tail_mount")
	assert.True(t, errors.Is(err, ecs.ErrUnknownJoint))
}

func TestAssembleRevoluteOverrides(t *testing.T) {
	limit, velocity := 0.25, -3.0
	spec := prefabs.RigSpec{
		Name:   "hinge",
		Ground: prefabs.GroundSpec{HalfExtents: prefabs.Vec3{10, 0.5, 10}},
		Parts: []prefabs.PartSpec{
			{Name: "base", Mass: 5, HalfExtents: prefabs.Vec3{1, 1, 1}, Position: prefabs.Vec3{0, 3, 0}},
			{Name: "flap", Mass: 1, HalfExtents: prefabs.Vec3{1, 0.1, 0.5}, Position: prefabs.Vec3{0, 6, 0}},
		},
		Joints: []prefabs.JointSpec{{
			Name: "hinge", Kind: prefabs.JointRevolute,
			A: "flap", AnchorA: prefabs.Vec3{0, 0, -0.5},
			B: "base", AnchorB: prefabs.Vec3{0, 0, 1},
			Revolute: prefabs.RevoluteSpec{Limit: &limit, Velocity: &velocity},
		}},
	}
	bd, _, pw, _ := newTestBuilder(t)

	r, err := bd.Assemble(spec)
	require.NoError(t, err)

	joint, err := pw.Joint(r.Joints["hinge"])
	require.NoError(t, err)
	cfg := joint.(physics.RevoluteJoint).Config()
	assert.Equal(t, -0.25, cfg.LimitLower)
	assert.Equal(t, 0.25, cfg.LimitUpper)
	assert.Equal(t, DefaultForceLimit, cfg.DriveForceLimit)
	assert.Equal(t, -3.0, cfg.DriveVelocity)
}

func TestAssembleRejectsInvalidSpec(t *testing.T) {
	bd, _, _, engine := newTestBuilder(t)
	_, err := bd.Assemble(prefabs.RigSpec{Name: "empty"})
	assert.True(t, errors.Is(err, prefabs.ErrInvalidSpec))
	assert.Empty(t, engine.Bodies())
}

func TestAssembleOnRigidEngine(t *testing.T) {
	spec := loadDefaultRig(t)
	engine := rigid.New(rigid.DefaultOptions())
	pw := ecs.NewPhysicsWorld(engine, zerolog.Nop())
	defer pw.Close()
	w := ecs.NewWorld()

	r, err := NewBuilder(w, pw, zerolog.Nop()).Assemble(spec)
	require.NoError(t, err)
	for name, weld := range r.Welds {
		dist, err := AnchorError(pw, weld)
		require.NoError(t, err)
		assert.Less(t, dist, 1e-4, name)
	}

	for range 10 {
		require.NoError(t, pw.Step(1.0/60))
	}
	pw.SyncEntities(w)

	wing, err := r.Part("main_wing")
	require.NoError(t, err)
	pose, err := pw.Pose(wing)
	require.NoError(t, err)
	assert.True(t, physics.Finite(pose.Position))
	assert.InDelta(t, 3.0, pose.Position[1], 0.5)
}

func TestDefaultRigSkidHangsBelowCockpit(t *testing.T) {
	spec := loadDefaultRig(t)
	bd, _, pw, _ := newTestBuilder(t)

	r, err := bd.Assemble(spec)
	require.NoError(t, err)

	cockpit, err := r.Part("cockpit")
	require.NoError(t, err)
	skid, err := r.Part("skid")
	require.NoError(t, err)
	cp, err := pw.Pose(cockpit)
	require.NoError(t, err)
	sp, err := pw.Pose(skid)
	require.NoError(t, err)

	assert.InDelta(t, cp.Position[1]-2, sp.Position[1], 1e-9)
	assert.InDelta(t, cp.Position[2], sp.Position[2], 1e-9)
}

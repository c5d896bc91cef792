package system

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/flightrig/ecs"
	"github.com/milk9111/flightrig/physics/stub"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestWorld(t *testing.T) (*ecs.World, *ecs.PhysicsWorld, *stub.Engine) {
	t.Helper()
	engine := stub.New()
	pw := ecs.NewPhysicsWorld(engine, zerolog.Nop())
	t.Cleanup(func() { _ = pw.Close() })
	return ecs.NewWorld(), pw, engine
}

func newBox(t *testing.T, w *ecs.World, pw *ecs.PhysicsWorld, pos mgl64.Vec3) ecs.Entity {
	t.Helper()
	e, err := pw.CreateDynamicBox(w, 1, mgl64.Vec3{1, 1, 1}, pos)
	require.NoError(t, err)
	return e
}

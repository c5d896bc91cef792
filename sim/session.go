package sim

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/flightrig/config"
	"github.com/milk9111/flightrig/ecs"
	"github.com/milk9111/flightrig/ecs/system"
	"github.com/milk9111/flightrig/physics"
	"github.com/milk9111/flightrig/physics/planar"
	"github.com/milk9111/flightrig/physics/rigid"
	"github.com/milk9111/flightrig/prefabs"
	"github.com/milk9111/flightrig/render"
	"github.com/milk9111/flightrig/rig"
	"github.com/rs/zerolog"
)

// NewEngine constructs the configured physics backend.
func NewEngine(s config.Settings) (physics.Engine, error) {
	gravity := mgl64.Vec3{0, s.PhysicsGravity, 0}
	switch s.PhysicsBackend {
	case config.BackendRigid:
		opts := rigid.DefaultOptions()
		opts.Gravity = gravity
		opts.Workers = s.PhysicsWorkers
		opts.Iterations = s.PhysicsIterations
		return rigid.New(opts), nil
	case config.BackendPlanar:
		opts := planar.DefaultOptions()
		opts.Gravity = gravity
		opts.Iterations = s.PhysicsIterations
		return planar.New(opts), nil
	default:
		return nil, fmt.Errorf("%w: unknown physics backend %q", config.ErrInvalid, s.PhysicsBackend)
	}
}

// Session is one assembled rig and the loop that flies it.
type Session struct {
	Loop      *Loop
	Rig       *rig.Rig
	Engine    physics.Engine
	Actuators *system.ActuatorSystem
	Script    *system.ControlScript
}

// LoadControlScript compiles the rig's control script, or returns nil when
// the rig has none.
func LoadControlScript(spec prefabs.RigSpec) (*system.ControlScript, error) {
	if spec.ControlScript == "" {
		return nil, nil
	}
	src, err := prefabs.LoadScript(spec.ControlScript)
	if err != nil {
		return nil, fmt.Errorf("load control script %s: %w", spec.ControlScript, err)
	}
	return system.CompileControlScript(spec.ControlScript, src)
}

// Build creates a fresh engine and world, assembles spec into it and returns
// a running loop drawing to renderer. Headless sessions measure actuator
// thresholds in simulated time.
func Build(s config.Settings, spec prefabs.RigSpec, renderer render.Renderer, log zerolog.Logger, opts ...Option) (*Session, error) {
	script, err := LoadControlScript(spec)
	if err != nil {
		return nil, err
	}

	engine, err := NewEngine(s)
	if err != nil {
		return nil, err
	}
	w := ecs.NewWorld()
	pw := ecs.NewPhysicsWorld(engine, log)

	r, err := rig.NewBuilder(w, pw, log).Assemble(spec)
	if err != nil {
		return nil, errors.Join(err, pw.Close())
	}

	scheduler, actuators := ForceSystems(log, script)
	clock := WallClock
	if s.SimHeadless {
		clock = SimClock
	}
	base := []Option{WithDt(s.Dt()), WithFrameLimit(s.SimFrames), WithClock(clock)}

	var renderSystem *system.RenderSystem
	if renderer != nil {
		renderSystem = system.NewRenderSystem(renderer)
	}
	loop, err := New(w, pw, scheduler, renderSystem, log, append(base, opts...)...)
	if err != nil {
		return nil, errors.Join(err, pw.Close())
	}

	log.Info().
		Str("rig", r.Name).
		Str("backend", s.PhysicsBackend).
		Bool("script", script != nil).
		Msg("session ready")
	return &Session{Loop: loop, Rig: r, Engine: engine, Actuators: actuators, Script: script}, nil
}

// Planar returns the Chipmunk engine when the session runs on it.
func (s *Session) Planar() (*planar.Engine, bool) {
	e, ok := s.Engine.(*planar.Engine)
	return e, ok
}

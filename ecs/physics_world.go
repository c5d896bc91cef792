package ecs

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/flightrig/ecs/component"
	"github.com/milk9111/flightrig/physics"
	"github.com/rs/zerolog"
)

// JointID addresses a joint created through the physics world.
type JointID = component.JointID

// PhysicsWorld owns the physics engine and the typed lookup between entities
// and engine bodies. Body handles never leave this type.
type PhysicsWorld struct {
	engine physics.Engine
	log    zerolog.Logger

	bodyOf   map[Entity]physics.Body
	entityOf map[physics.Body]Entity
	dynamic  []Entity
	joints   []physics.Joint

	steps     int
	simulated float64
	closed    bool
}

// NewPhysicsWorld wraps an engine. The physics world owns it from now on.
func NewPhysicsWorld(engine physics.Engine, log zerolog.Logger) *PhysicsWorld {
	return &PhysicsWorld{
		engine:   engine,
		log:      log.With().Str("component", "physics").Logger(),
		bodyOf:   make(map[Entity]physics.Body),
		entityOf: make(map[physics.Body]Entity),
	}
}

// Engine returns the wrapped engine.
func (pw *PhysicsWorld) Engine() physics.Engine {
	if pw == nil {
		return nil
	}
	return pw.engine
}

// CreateStaticBox adds an immovable box at identity orientation.
func (pw *PhysicsWorld) CreateStaticBox(w *World, halfExtents, position mgl64.Vec3) (Entity, error) {
	body, err := pw.engine.CreateStatic(halfExtents, physics.At(position))
	if err != nil {
		return 0, fmt.Errorf("create static box: %w", err)
	}
	e, err := pw.register(w, body, component.BodyStatic, halfExtents)
	if err != nil {
		return 0, err
	}
	pw.log.Debug().Stringer("entity", e).Interface("half_extents", halfExtents).Interface("position", position).Msg("static box created")
	return e, nil
}

// CreateDynamicBox adds a movable box. Inertia is computed for unit mass and
// then rescaled together with the mass.
func (pw *PhysicsWorld) CreateDynamicBox(w *World, mass float64, halfExtents, position mgl64.Vec3) (Entity, error) {
	if mass <= 0 {
		return 0, fmt.Errorf("create dynamic box: mass %v must be positive", mass)
	}
	body, err := pw.engine.CreateDynamic(halfExtents, physics.At(position))
	if err != nil {
		return 0, fmt.Errorf("create dynamic box: %w", err)
	}
	body.SetMass(mass)
	e, err := pw.register(w, body, component.BodyDynamic, halfExtents)
	if err != nil {
		return 0, err
	}
	pw.dynamic = append(pw.dynamic, e)
	pw.log.Debug().Stringer("entity", e).Float64("mass", mass).Interface("position", position).Msg("dynamic box created")
	return e, nil
}

func (pw *PhysicsWorld) register(w *World, body physics.Body, kind component.BodyKind, halfExtents mgl64.Vec3) (Entity, error) {
	e := CreateEntity(w)
	pose := body.Pose()
	if err := Add(w, e, component.TransformComponent.Kind(), &component.Transform{
		Position: pose.Position,
		Rotation: pose.Rotation,
		Scale:    halfExtents.Mul(2),
	}); err != nil {
		return 0, err
	}
	if err := Add(w, e, component.BodyComponent.Kind(), &component.Body{Kind: kind}); err != nil {
		return 0, err
	}
	pw.bodyOf[e] = body
	pw.entityOf[body] = e
	return e, nil
}

// Step advances the engine by exactly dt and waits for the results.
func (pw *PhysicsWorld) Step(dt float64) error {
	if pw.closed {
		return physics.ErrEngineClosed
	}
	if err := pw.engine.Simulate(dt); err != nil {
		return fmt.Errorf("simulate: %w", err)
	}
	if _, err := pw.engine.FetchResults(true); err != nil {
		return fmt.Errorf("fetch results: %w", err)
	}
	pw.steps++
	pw.simulated += dt
	return nil
}

// SyncEntities copies every dynamic body's pose into its Transform. Bodies
// whose entity is gone are skipped.
func (pw *PhysicsWorld) SyncEntities(w *World) {
	for _, e := range pw.dynamic {
		body, ok := pw.bodyOf[e]
		if !ok || !IsAlive(w, e) {
			continue
		}
		t, ok := Get(w, e, component.TransformComponent.Kind())
		if !ok {
			continue
		}
		pose := body.Pose()
		t.Position = pose.Position
		t.Rotation = pose.Rotation
	}
}

func (pw *PhysicsWorld) body(e Entity) (physics.Body, error) {
	body, ok := pw.bodyOf[e]
	if !ok {
		return nil, fmt.Errorf("entity %s: %w", e, ErrNoBody)
	}
	return body, nil
}

// HasBody reports whether e is backed by a body.
func (pw *PhysicsWorld) HasBody(e Entity) bool {
	_, ok := pw.bodyOf[e]
	return ok
}

// EntityOf returns the entity registered for a body.
func (pw *PhysicsWorld) EntityOf(body physics.Body) (Entity, bool) {
	e, ok := pw.entityOf[body]
	return e, ok
}

func (pw *PhysicsWorld) Pose(e Entity) (physics.Pose, error) {
	body, err := pw.body(e)
	if err != nil {
		return physics.Pose{}, err
	}
	return body.Pose(), nil
}

// SetPose teleports e's body and refreshes its Transform.
func (pw *PhysicsWorld) SetPose(w *World, e Entity, pose physics.Pose) error {
	body, err := pw.body(e)
	if err != nil {
		return err
	}
	if !pose.Valid() {
		return fmt.Errorf("entity %s: invalid pose %v", e, pose)
	}
	body.SetPose(pose)
	if t, ok := Get(w, e, component.TransformComponent.Kind()); ok {
		current := body.Pose()
		t.Position = current.Position
		t.Rotation = current.Rotation
	}
	return nil
}

func (pw *PhysicsWorld) LinearVelocity(e Entity) (mgl64.Vec3, error) {
	body, err := pw.body(e)
	if err != nil {
		return mgl64.Vec3{}, err
	}
	return body.LinearVelocity(), nil
}

func (pw *PhysicsWorld) AngularVelocity(e Entity) (mgl64.Vec3, error) {
	body, err := pw.body(e)
	if err != nil {
		return mgl64.Vec3{}, err
	}
	return body.AngularVelocity(), nil
}

func (pw *PhysicsWorld) ZeroVelocity(e Entity) error {
	body, err := pw.body(e)
	if err != nil {
		return err
	}
	body.SetLinearVelocity(mgl64.Vec3{})
	body.SetAngularVelocity(mgl64.Vec3{})
	return nil
}

// AddForce applies f at e's center of mass for the next step. Zero and
// non-finite forces are dropped.
func (pw *PhysicsWorld) AddForce(e Entity, f mgl64.Vec3) error {
	body, err := pw.body(e)
	if err != nil {
		return err
	}
	if f == (mgl64.Vec3{}) || !physics.Finite(f) {
		return nil
	}
	body.AddForce(f)
	return nil
}

// CreateJoint joins a at frameA to b at frameB. cfg is only read for
// revolute joints.
func (pw *PhysicsWorld) CreateJoint(a Entity, frameA physics.Pose, b Entity, frameB physics.Pose, kind physics.JointKind, cfg physics.RevoluteConfig) (JointID, error) {
	ba, err := pw.body(a)
	if err != nil {
		return 0, err
	}
	bb, err := pw.body(b)
	if err != nil {
		return 0, err
	}
	var j physics.Joint
	switch kind {
	case physics.JointFixed:
		j, err = pw.engine.CreateFixedJoint(ba, frameA, bb, frameB)
	case physics.JointRevolute:
		j, err = pw.engine.CreateRevoluteJoint(ba, frameA, bb, frameB, cfg)
	default:
		return 0, fmt.Errorf("create joint: unknown kind %d", kind)
	}
	if err != nil {
		return 0, fmt.Errorf("create %s joint: %w", kind, err)
	}
	pw.joints = append(pw.joints, j)
	id := JointID(len(pw.joints))
	pw.log.Debug().Int("joint", int(id)).Stringer("kind", kind).Stringer("a", a).Stringer("b", b).Msg("joint created")
	return id, nil
}

// Joint returns the joint behind id.
func (pw *PhysicsWorld) Joint(id JointID) (physics.Joint, error) {
	if id <= 0 || int(id) > len(pw.joints) || pw.joints[id-1] == nil {
		return nil, fmt.Errorf("joint %d: %w", id, ErrUnknownJoint)
	}
	return pw.joints[id-1], nil
}

func (pw *PhysicsWorld) revolute(id JointID) (physics.RevoluteJoint, error) {
	j, err := pw.Joint(id)
	if err != nil {
		return nil, err
	}
	rj, ok := j.(physics.RevoluteJoint)
	if !ok {
		return nil, fmt.Errorf("joint %d: %w", id, ErrNotRevolute)
	}
	return rj, nil
}

func (pw *PhysicsWorld) SetDriveVelocity(id JointID, v float64) error {
	rj, err := pw.revolute(id)
	if err != nil {
		return err
	}
	rj.SetDriveVelocity(v)
	return nil
}

func (pw *PhysicsWorld) DriveVelocity(id JointID) (float64, error) {
	rj, err := pw.revolute(id)
	if err != nil {
		return 0, err
	}
	return rj.DriveVelocity(), nil
}

func (pw *PhysicsWorld) JointAngle(id JointID) (float64, error) {
	rj, err := pw.revolute(id)
	if err != nil {
		return 0, err
	}
	return rj.Angle(), nil
}

// RemoveBody removes e's body, forgets its joints and destroys the entity.
func (pw *PhysicsWorld) RemoveBody(w *World, e Entity) error {
	body, err := pw.body(e)
	if err != nil {
		return err
	}
	if err := pw.engine.RemoveBody(body); err != nil {
		return fmt.Errorf("remove body %s: %w", e, err)
	}
	delete(pw.bodyOf, e)
	delete(pw.entityOf, body)
	for i, cur := range pw.dynamic {
		if cur == e {
			pw.dynamic = append(pw.dynamic[:i], pw.dynamic[i+1:]...)
			break
		}
	}
	for i, j := range pw.joints {
		if j == nil {
			continue
		}
		ja, jb := j.Bodies()
		if ja == body || jb == body {
			pw.joints[i] = nil
		}
	}
	DestroyEntity(w, e)
	return nil
}

// BodyCount returns the number of registered bodies.
func (pw *PhysicsWorld) BodyCount() int { return len(pw.bodyOf) }

// SimulatedTime is the sum of every completed step's dt.
func (pw *PhysicsWorld) SimulatedTime() float64 { return pw.simulated }

func (pw *PhysicsWorld) Steps() int { return pw.steps }

// Close releases the engine. Calling it again is a no-op.
func (pw *PhysicsWorld) Close() error {
	if pw == nil || pw.closed {
		return nil
	}
	pw.closed = true
	pw.bodyOf = map[Entity]physics.Body{}
	pw.entityOf = map[physics.Body]Entity{}
	pw.dynamic = nil
	pw.joints = nil
	pw.log.Info().Int("steps", pw.steps).Float64("simulated", pw.simulated).Msg("physics world closed")
	if err := pw.engine.Close(); err != nil {
		return fmt.Errorf("close engine: %w", err)
	}
	return nil
}

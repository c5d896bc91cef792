// Package physics describes the actor/joint/scene surface the rest of flightrig
// consumes from a rigid-body engine. Backends live in sub-packages.
package physics

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	ErrEngineClosed = errors.New("physics: engine closed")
	ErrStepInFlight = errors.New("physics: step in flight")
	ErrForeignBody  = errors.New("physics: body belongs to another engine")
	ErrNilBody      = errors.New("physics: body is nil")
)

// Gravity is the default scene gravity (earth, m/s^2).
var Gravity = mgl64.Vec3{0, -9.81, 0}

// Material is the single material shared by every shape in a scene.
type Material struct {
	StaticFriction  float64
	DynamicFriction float64
	Restitution     float64
}

// DefaultMaterial matches the toy's tuned friction/bounce values.
var DefaultMaterial = Material{StaticFriction: 0.5, DynamicFriction: 0.5, Restitution: 0.6}

// Body is a rigid actor owned by an Engine.
type Body interface {
	Static() bool
	Pose() Pose
	SetPose(p Pose)
	LinearVelocity() mgl64.Vec3
	SetLinearVelocity(v mgl64.Vec3)
	AngularVelocity() mgl64.Vec3
	SetAngularVelocity(v mgl64.Vec3)
	Mass() float64
	// SetMass rescales mass and inertia together.
	SetMass(m float64)
	// AddForce accumulates a continuous force applied at the center of mass
	// during the next Simulate call only.
	AddForce(f mgl64.Vec3)
}

type JointKind int

const (
	JointFixed JointKind = iota
	JointRevolute
)

func (k JointKind) String() string {
	switch k {
	case JointFixed:
		return "fixed"
	case JointRevolute:
		return "revolute"
	default:
		return "unknown"
	}
}

// Joint constrains two bodies at local frames. Joints live as long as the engine.
type Joint interface {
	Kind() JointKind
	Bodies() (Body, Body)
	SetCollisionEnabled(enabled bool)
	CollisionEnabled() bool
}

// RevoluteJoint leaves one rotational degree of freedom about the joint
// frame's local X axis.
type RevoluteJoint interface {
	Joint
	// Angle is the rotation of the second body's frame relative to the first,
	// about the hinge axis, in radians.
	Angle() float64
	Config() RevoluteConfig
	SetDriveVelocity(v float64)
	DriveVelocity() float64
}

// RevoluteConfig configures limit and drive of a revolute joint.
type RevoluteConfig struct {
	LimitLower           float64
	LimitUpper           float64
	LimitEnabled         bool
	DriveEnabled         bool
	DriveFreeSpin        bool
	DriveLimitsAreForces bool
	DriveForceLimit      float64
	DriveVelocity        float64
}

// ControlSurface is the actuator setup used for flaps and ailerons: a
// symmetric limit, and a force-capped velocity drive.
func ControlSurface(limit, forceLimit, velocity float64) RevoluteConfig {
	return RevoluteConfig{
		LimitLower:           -limit,
		LimitUpper:           limit,
		LimitEnabled:         true,
		DriveEnabled:         true,
		DriveFreeSpin:        false,
		DriveLimitsAreForces: true,
		DriveForceLimit:      forceLimit,
		DriveVelocity:        velocity,
	}
}

// Engine is a rigid-body scene. Simulate starts a step; FetchResults(true)
// blocks until that step's results are visible through the bodies.
type Engine interface {
	CreateStatic(halfExtents mgl64.Vec3, pose Pose) (Body, error)
	// CreateDynamic computes inertia for a unit mass box; callers rescale with SetMass.
	CreateDynamic(halfExtents mgl64.Vec3, pose Pose) (Body, error)
	CreateFixedJoint(a Body, frameA Pose, b Body, frameB Pose) (Joint, error)
	CreateRevoluteJoint(a Body, frameA Pose, b Body, frameB Pose, cfg RevoluteConfig) (RevoluteJoint, error)
	RemoveBody(b Body) error
	Simulate(dt float64) error
	FetchResults(block bool) (bool, error)
	Close() error
}

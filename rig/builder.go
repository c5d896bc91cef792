// Package rig assembles multi-body rigs: it welds independently created boxes
// together at local anchors and attaches wings, thrusters and actuators.
package rig

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/flightrig/ecs"
	"github.com/milk9111/flightrig/ecs/component"
	"github.com/milk9111/flightrig/physics"
	"github.com/rs/zerolog"
)

var (
	ErrUnknownPart = errors.New("rig: unknown part")
	// ErrWeldOrder is returned when a weld would move a body that already
	// anchors another part.
	ErrWeldOrder  = errors.New("rig: part already anchors another weld")
	ErrStaticPart = errors.New("rig: static bodies cannot be welded onto others")
)

// Default control surface settings for revolute welds.
const (
	DefaultLimit         = 0.6
	DefaultForceLimit    = 1000.0
	DefaultDriveVelocity = -100.0
)

func DefaultRevolute() physics.RevoluteConfig {
	return physics.ControlSurface(DefaultLimit, DefaultForceLimit, DefaultDriveVelocity)
}

// Weld records how a joint was placed, for later anchor checks.
type Weld struct {
	Joint   ecs.JointID
	Kind    physics.JointKind
	A       ecs.Entity
	AnchorA mgl64.Vec3
	B       ecs.Entity
	AnchorB mgl64.Vec3
}

type Builder struct {
	w   *ecs.World
	pw  *ecs.PhysicsWorld
	log zerolog.Logger

	references map[ecs.Entity]bool
	welds      []Weld
}

func NewBuilder(w *ecs.World, pw *ecs.PhysicsWorld, log zerolog.Logger) *Builder {
	return &Builder{
		w:          w,
		pw:         pw,
		log:        log.With().Str("component", "rig").Logger(),
		references: make(map[ecs.Entity]bool),
	}
}

// Weld moves a so that its local anchorA coincides with b's anchorB in world
// space, stops a, and joins the two. The joint's first actor is b. Collision
// between the pair is disabled.
func (bd *Builder) Weld(a ecs.Entity, anchorA mgl64.Vec3, b ecs.Entity, anchorB mgl64.Vec3, kind physics.JointKind, cfg physics.RevoluteConfig) (ecs.JointID, error) {
	if !bd.pw.HasBody(a) {
		return 0, fmt.Errorf("weld %s: %w", a, ErrUnknownPart)
	}
	if !bd.pw.HasBody(b) {
		return 0, fmt.Errorf("weld onto %s: %w", b, ErrUnknownPart)
	}
	if a == b {
		return 0, fmt.Errorf("weld %s onto itself: %w", a, ErrWeldOrder)
	}
	if body, ok := ecs.Get(bd.w, a, component.BodyComponent.Kind()); ok && body.Kind == component.BodyStatic {
		return 0, fmt.Errorf("weld %s: %w", a, ErrStaticPart)
	}
	if bd.references[a] {
		return 0, fmt.Errorf("weld %s: %w", a, ErrWeldOrder)
	}

	poseB, err := bd.pw.Pose(b)
	if err != nil {
		return 0, err
	}
	frameA, frameB := physics.At(anchorA), physics.At(anchorB)
	poseA := poseB.Mul(frameB).Mul(frameA.Inverse())
	if err := bd.pw.SetPose(bd.w, a, poseA); err != nil {
		return 0, err
	}
	if err := bd.pw.ZeroVelocity(a); err != nil {
		return 0, err
	}

	id, err := bd.pw.CreateJoint(b, frameB, a, frameA, kind, cfg)
	if err != nil {
		return 0, fmt.Errorf("weld %s onto %s: %w", a, b, err)
	}
	joint, err := bd.pw.Joint(id)
	if err != nil {
		return 0, err
	}
	joint.SetCollisionEnabled(false)

	bd.references[b] = true
	bd.welds = append(bd.welds, Weld{Joint: id, Kind: kind, A: a, AnchorA: anchorA, B: b, AnchorB: anchorB})
	bd.log.Debug().Stringer("a", a).Stringer("b", b).Stringer("kind", kind).Int("joint", int(id)).Msg("welded")
	return id, nil
}

// Welds returns every weld made so far, in order.
func (bd *Builder) Welds() []Weld {
	return append([]Weld(nil), bd.welds...)
}

// AnchorError is the world-space distance between a weld's two anchors.
func AnchorError(pw *ecs.PhysicsWorld, weld Weld) (float64, error) {
	poseA, err := pw.Pose(weld.A)
	if err != nil {
		return 0, err
	}
	poseB, err := pw.Pose(weld.B)
	if err != nil {
		return 0, err
	}
	return poseA.Apply(weld.AnchorA).Sub(poseB.Apply(weld.AnchorB)).Len(), nil
}

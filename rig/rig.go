package rig

import (
	"fmt"
	"sort"

	"github.com/milk9111/flightrig/ecs"
	"github.com/milk9111/flightrig/ecs/component"
	"github.com/milk9111/flightrig/physics"
	"github.com/milk9111/flightrig/prefabs"
)

// Rig is an assembled prefab.
type Rig struct {
	Name      string
	Ground    ecs.Entity
	Parts     map[string]ecs.Entity
	Joints    map[string]ecs.JointID
	Actuators map[string]ecs.Entity
	Welds     map[string]Weld
}

func (r *Rig) Part(name string) (ecs.Entity, error) {
	e, ok := r.Parts[name]
	if !ok {
		return 0, fmt.Errorf("part %q: %w", name, ErrUnknownPart)
	}
	return e, nil
}

func (r *Rig) Joint(name string) (ecs.JointID, error) {
	id, ok := r.Joints[name]
	if !ok {
		return 0, fmt.Errorf("joint %q: %w", name, ecs.ErrUnknownJoint)
	}
	return id, nil
}

// JointNames returns the joint names sorted.
func (r *Rig) JointNames() []string {
	names := make([]string, 0, len(r.Joints))
	for name := range r.Joints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Assemble builds the ground, then parts, joints, wings, thrusters and
// actuators in declared order.
func (bd *Builder) Assemble(spec prefabs.RigSpec) (*Rig, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	r := &Rig{
		Name:      spec.Name,
		Parts:     make(map[string]ecs.Entity, len(spec.Parts)),
		Joints:    make(map[string]ecs.JointID, len(spec.Joints)),
		Actuators: make(map[string]ecs.Entity, len(spec.Actuators)),
		Welds:     make(map[string]Weld, len(spec.Joints)),
	}

	ground, err := bd.pw.CreateStaticBox(bd.w, spec.Ground.HalfExtents.Vec(), spec.Ground.Position.Vec())
	if err != nil {
		return nil, fmt.Errorf("assemble %s: ground: %w", spec.Name, err)
	}
	if err := ecs.Add(bd.w, ground, component.NameComponent.Kind(), &component.Name{Value: "ground"}); err != nil {
		return nil, err
	}
	r.Ground = ground

	for _, p := range spec.Parts {
		e, err := bd.pw.CreateDynamicBox(bd.w, p.Mass, p.HalfExtents.Vec(), p.Position.Vec())
		if err != nil {
			return nil, fmt.Errorf("assemble %s: part %q: %w", spec.Name, p.Name, err)
		}
		if err := ecs.Add(bd.w, e, component.NameComponent.Kind(), &component.Name{Value: p.Name}); err != nil {
			return nil, err
		}
		r.Parts[p.Name] = e
	}

	for _, j := range spec.Joints {
		kind := physics.JointFixed
		cfg := physics.RevoluteConfig{}
		if j.Kind == prefabs.JointRevolute {
			kind = physics.JointRevolute
			cfg = revoluteConfig(j.Revolute)
		}
		a, b := r.Parts[j.A], r.Parts[j.B]
		id, err := bd.Weld(a, j.AnchorA.Vec(), b, j.AnchorB.Vec(), kind, cfg)
		if err != nil {
			return nil, fmt.Errorf("assemble %s: joint %q: %w", spec.Name, j.Name, err)
		}
		r.Joints[j.Name] = id
		r.Welds[j.Name] = bd.welds[len(bd.welds)-1]
	}

	for _, wing := range spec.Wings {
		e := r.Parts[wing.Part]
		if err := ecs.Add(bd.w, e, component.WingComponent.Kind(), &component.Wing{Lift: wing.Lift, Drag: wing.Drag}); err != nil {
			return nil, err
		}
	}

	for _, th := range spec.Thrusters {
		e := r.Parts[th.Part]
		if err := ecs.Add(bd.w, e, component.ThrusterComponent.Kind(), &component.Thruster{Power: th.Power}); err != nil {
			return nil, err
		}
	}

	for _, act := range spec.Actuators {
		e := ecs.CreateEntity(bd.w)
		if err := ecs.Add(bd.w, e, component.ActuatorComponent.Kind(), &component.Actuator{
			Name:     act.Name,
			Joint:    r.Joints[act.Joint],
			CutAfter: act.CutAfter,
		}); err != nil {
			return nil, err
		}
		r.Actuators[act.Name] = e
	}

	bd.log.Info().
		Str("rig", spec.Name).
		Int("parts", len(r.Parts)).
		Int("joints", len(r.Joints)).
		Int("actuators", len(r.Actuators)).
		Msg("rig assembled")
	return r, nil
}

func revoluteConfig(spec prefabs.RevoluteSpec) physics.RevoluteConfig {
	limit, force, velocity := DefaultLimit, DefaultForceLimit, DefaultDriveVelocity
	if spec.Limit != nil {
		limit = *spec.Limit
	}
	if spec.ForceLimit != nil {
		force = *spec.ForceLimit
	}
	if spec.Velocity != nil {
		velocity = *spec.Velocity
	}
	return physics.ControlSurface(limit, force, velocity)
}

package prefabs

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

var ErrInvalidSpec = errors.New("prefabs: invalid spec")

// Vec3 is written as a three element yaml sequence.
type Vec3 [3]float64

func (v Vec3) Vec() mgl64.Vec3 { return mgl64.Vec3(v) }

type GroundSpec struct {
	HalfExtents Vec3 `yaml:"half_extents"`
	Position    Vec3 `yaml:"position"`
}

type PartSpec struct {
	Name        string  `yaml:"name"`
	Mass        float64 `yaml:"mass"`
	HalfExtents Vec3    `yaml:"half_extents"`
	Position    Vec3    `yaml:"position"`
}

// RevoluteSpec overrides the control surface defaults of a revolute joint.
type RevoluteSpec struct {
	Limit      *float64 `yaml:"limit"`
	ForceLimit *float64 `yaml:"force_limit"`
	Velocity   *float64 `yaml:"velocity"`
}

const (
	JointFixed    = "fixed"
	JointRevolute = "revolute"
)

// JointSpec welds part A onto part B: A is moved so that its AnchorA meets
// B's AnchorB.
type JointSpec struct {
	Name     string       `yaml:"name"`
	Kind     string       `yaml:"kind"`
	A        string       `yaml:"a"`
	AnchorA  Vec3         `yaml:"anchor_a"`
	B        string       `yaml:"b"`
	AnchorB  Vec3         `yaml:"anchor_b"`
	Revolute RevoluteSpec `yaml:"revolute"`
}

type WingSpec struct {
	Part string  `yaml:"part"`
	Lift float64 `yaml:"lift"`
	Drag float64 `yaml:"drag"`
}

type ThrusterSpec struct {
	Part  string  `yaml:"part"`
	Power float64 `yaml:"power"`
}

// ActuatorSpec cuts a revolute joint's drive once. CutAfter is in seconds;
// zero leaves the decision to the control script.
type ActuatorSpec struct {
	Name     string  `yaml:"name"`
	Joint    string  `yaml:"joint"`
	CutAfter float64 `yaml:"cut_after"`
}

type RigSpec struct {
	Name          string         `yaml:"name"`
	Ground        GroundSpec     `yaml:"ground"`
	Parts         []PartSpec     `yaml:"parts"`
	Joints        []JointSpec    `yaml:"joints"`
	Wings         []WingSpec     `yaml:"wings"`
	Thrusters     []ThrusterSpec `yaml:"thrusters"`
	Actuators     []ActuatorSpec `yaml:"actuators"`
	ControlScript string         `yaml:"control_script"`
}

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

// LoadRigSpec loads and validates a rig prefab.
func LoadRigSpec(filename string) (RigSpec, error) {
	spec, err := LoadSpec[RigSpec](filename)
	if err != nil {
		return RigSpec{}, err
	}
	if err := spec.Validate(); err != nil {
		return RigSpec{}, fmt.Errorf("prefabs: %s: %w", filename, err)
	}
	return spec, nil
}

// ParseRigSpec decodes and validates a rig prefab from memory.
func ParseRigSpec(data []byte) (RigSpec, error) {
	var spec RigSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return RigSpec{}, fmt.Errorf("prefabs: unmarshal rig: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return RigSpec{}, err
	}
	return spec, nil
}

// Validate checks names, references and physical quantities.
func (s RigSpec) Validate() error {
	if !positive(s.Ground.HalfExtents) {
		return invalid("ground half extents %v must be positive", s.Ground.HalfExtents)
	}
	if !finite(s.Ground.Position) {
		return invalid("ground position %v must be finite", s.Ground.Position)
	}

	parts := make(map[string]bool, len(s.Parts))
	for _, p := range s.Parts {
		switch {
		case p.Name == "":
			return invalid("part without a name")
		case parts[p.Name]:
			return invalid("duplicate part %q", p.Name)
		case !finitePositive(p.Mass):
			return invalid("part %q: mass %v must be positive", p.Name, p.Mass)
		case !positive(p.HalfExtents):
			return invalid("part %q: half extents %v must be positive", p.Name, p.HalfExtents)
		case !finite(p.Position):
			return invalid("part %q: position %v must be finite", p.Name, p.Position)
		}
		parts[p.Name] = true
	}

	kinds := make(map[string]string, len(s.Joints))
	for _, j := range s.Joints {
		switch {
		case j.Name == "":
			return invalid("joint without a name")
		case kinds[j.Name] != "":
			return invalid("duplicate joint %q", j.Name)
		case j.Kind != JointFixed && j.Kind != JointRevolute:
			return invalid("joint %q: unknown kind %q", j.Name, j.Kind)
		case !parts[j.A]:
			return invalid("joint %q: unknown part %q", j.Name, j.A)
		case !parts[j.B]:
			return invalid("joint %q: unknown part %q", j.Name, j.B)
		case j.A == j.B:
			return invalid("joint %q joins %q to itself", j.Name, j.A)
		case !finite(j.AnchorA) || !finite(j.AnchorB):
			return invalid("joint %q: anchors must be finite", j.Name)
		}
		if l := j.Revolute.Limit; l != nil && !(*l >= 0 && !math.IsInf(*l, 1)) {
			return invalid("joint %q: limit %v must be finite and not negative", j.Name, *l)
		}
		for _, v := range []*float64{j.Revolute.ForceLimit, j.Revolute.Velocity} {
			if v != nil && !finiteValue(*v) {
				return invalid("joint %q: revolute settings must be finite", j.Name)
			}
		}
		kinds[j.Name] = j.Kind
	}

	for _, w := range s.Wings {
		if !parts[w.Part] {
			return invalid("wing: unknown part %q", w.Part)
		}
		if !finiteValue(w.Lift) || !finiteValue(w.Drag) {
			return invalid("wing %q: coefficients must be finite", w.Part)
		}
	}
	for _, th := range s.Thrusters {
		if !parts[th.Part] {
			return invalid("thruster: unknown part %q", th.Part)
		}
		if !finiteValue(th.Power) {
			return invalid("thruster %q: power must be finite", th.Part)
		}
	}
	actuators := make(map[string]bool, len(s.Actuators))
	for _, a := range s.Actuators {
		switch {
		case a.Name == "":
			return invalid("actuator without a name")
		case actuators[a.Name]:
			return invalid("duplicate actuator %q", a.Name)
		case kinds[a.Joint] != JointRevolute:
			return invalid("actuator %q: %q is not a revolute joint", a.Name, a.Joint)
		case !(a.CutAfter >= 0) || math.IsInf(a.CutAfter, 1):
			return invalid("actuator %q: cut_after %v must be finite and not negative", a.Name, a.CutAfter)
		}
		actuators[a.Name] = true
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidSpec}, args...)...)
}

// positive rejects NaN and infinite components as well as non-positive ones.
func positive(v Vec3) bool {
	return finitePositive(v[0]) && finitePositive(v[1]) && finitePositive(v[2])
}

func finite(v Vec3) bool {
	return finiteValue(v[0]) && finiteValue(v[1]) && finiteValue(v[2])
}

func finitePositive(f float64) bool {
	return f > 0 && !math.IsInf(f, 1)
}

func finiteValue(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

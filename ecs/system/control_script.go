package system

import (
	"fmt"
	"sort"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
)

// A control script defines update(engine, state). engine carries elapsed,
// frame and actuators, plus cut(name) to request an actuator cut. state is a
// map the script keeps between frames.
const controlDispatchScript = `
update(__engine, __state)
`

// ControlScript is a compiled tengo control script.
type ControlScript struct {
	name     string
	compiled *tengo.Compiled
	state    *tengo.Map
}

// CompileControlScript compiles src; name is only used in errors.
func CompileControlScript(name string, src []byte) (*ControlScript, error) {
	script := tengo.NewScript([]byte(string(src) + "\n" + controlDispatchScript))
	_ = script.Add("__engine", map[string]any{})
	_ = script.Add("__state", map[string]any{})
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("compile control script %s: %w", name, err)
	}
	return &ControlScript{
		name:     name,
		compiled: compiled,
		state:    &tengo.Map{Value: map[string]tengo.Object{}},
	}, nil
}

func (cs *ControlScript) Name() string { return cs.name }

// Decide runs one update and returns the actuator names the script asked
// to cut. Unknown names are ignored.
func (cs *ControlScript) Decide(elapsed float64, frame int, actuators []string) (map[string]bool, error) {
	known := make(map[string]bool, len(actuators))
	names := make([]tengo.Object, 0, len(actuators))
	sorted := append([]string(nil), actuators...)
	sort.Strings(sorted)
	for _, a := range sorted {
		known[a] = true
		names = append(names, &tengo.String{Value: a})
	}

	cuts := map[string]bool{}
	engine := &tengo.ImmutableMap{Value: map[string]tengo.Object{
		"elapsed":   &tengo.Float{Value: elapsed},
		"frame":     &tengo.Int{Value: int64(frame)},
		"actuators": &tengo.ImmutableArray{Value: names},
		"cut": &tengo.UserFunction{Name: "cut", Value: func(args ...tengo.Object) (tengo.Object, error) {
			if len(args) < 1 {
				return tengo.FalseValue, nil
			}
			name := strings.TrimSpace(objectAsString(args[0]))
			if !known[name] {
				return tengo.FalseValue, nil
			}
			cuts[name] = true
			return tengo.TrueValue, nil
		}},
	}}

	if err := cs.compiled.Set("__engine", engine); err != nil {
		return nil, err
	}
	if err := cs.compiled.Set("__state", cs.state); err != nil {
		return nil, err
	}
	if err := cs.compiled.Run(); err != nil {
		return nil, fmt.Errorf("run control script %s: %w", cs.name, err)
	}
	return cuts, nil
}

func objectAsString(obj tengo.Object) string {
	if obj == nil {
		return ""
	}
	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	default:
		return strings.Trim(v.String(), "\"")
	}
}

package system

import (
	"github.com/milk9111/flightrig/ecs"
	"github.com/milk9111/flightrig/ecs/component"
	"github.com/rs/zerolog"
)

// ActuatorSystem cuts revolute drives to zero. A cut happens once, either
// when elapsed time passes the actuator's CutAfter or when the control script
// asks for it, and is never undone.
type ActuatorSystem struct {
	log    zerolog.Logger
	script *ControlScript
}

func NewActuatorSystem(log zerolog.Logger, script *ControlScript) *ActuatorSystem {
	return &ActuatorSystem{
		log:    log.With().Str("component", "actuator").Logger(),
		script: script,
	}
}

// SetScript swaps the control script; nil falls back to CutAfter thresholds.
func (s *ActuatorSystem) SetScript(script *ControlScript) {
	s.script = script
}

func (s *ActuatorSystem) Update(w *ecs.World, pw *ecs.PhysicsWorld, tick ecs.Tick) error {
	requested, err := s.decide(w, tick)
	if err != nil {
		return err
	}

	var firstErr error
	ecs.ForEach(w, component.ActuatorComponent.Kind(), func(e ecs.Entity, a *component.Actuator) {
		if firstErr != nil || a.Cut {
			return
		}
		due := a.CutAfter > 0 && tick.Elapsed > a.CutAfter
		if !due && !requested[a.Name] {
			return
		}
		if err := pw.SetDriveVelocity(a.Joint, 0); err != nil {
			firstErr = err
			return
		}
		a.Cut = true
		w.Events().Push(ecs.Event{
			Type: ecs.EventActuatorCut,
			Data: ecs.ActuatorCutEvent{Entity: e, Name: a.Name, Elapsed: tick.Elapsed},
		})
		s.log.Info().Str("actuator", a.Name).Float64("elapsed", tick.Elapsed).Int("frame", tick.Frame).Msg("drive cut")
	})
	return firstErr
}

func (s *ActuatorSystem) decide(w *ecs.World, tick ecs.Tick) (map[string]bool, error) {
	if s.script == nil {
		return nil, nil
	}
	var names []string
	ecs.ForEach(w, component.ActuatorComponent.Kind(), func(_ ecs.Entity, a *component.Actuator) {
		if !a.Cut {
			names = append(names, a.Name)
		}
	})
	if len(names) == 0 {
		return nil, nil
	}
	return s.script.Decide(tick.Elapsed, tick.Frame, names)
}

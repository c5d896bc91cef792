package ecs

// Tick is the frame clock handed to every system.
type Tick struct {
	Frame   int
	Elapsed float64
	Dt      float64
}

// System updates the world for one frame. Systems receive the physics world
// explicitly rather than reaching for shared state.
type System interface {
	Update(w *World, pw *PhysicsWorld, tick Tick) error
}

// SystemFunc adapts a plain function to System.
type SystemFunc func(w *World, pw *PhysicsWorld, tick Tick) error

func (f SystemFunc) Update(w *World, pw *PhysicsWorld, tick Tick) error {
	return f(w, pw, tick)
}

type Scheduler struct {
	systems []System
}

func NewScheduler(systems ...System) *Scheduler {
	copied := append([]System(nil), systems...)
	return &Scheduler{systems: copied}
}

func (s *Scheduler) Add(system System) {
	if system == nil {
		return
	}
	s.systems = append(s.systems, system)
}

// Update runs every system in registration order and stops at the first error.
func (s *Scheduler) Update(w *World, pw *PhysicsWorld, tick Tick) error {
	for _, system := range s.systems {
		if err := system.Update(w, pw, tick); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) Systems() []System {
	systems := make([]System, 0, len(s.systems))
	return append(systems, s.systems...)
}

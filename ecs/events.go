package ecs

// EventType names what happened; Data's concrete type follows from it.
type EventType string

const (
	// EventActuatorCut carries an ActuatorCutEvent.
	EventActuatorCut EventType = "actuator.cut"
	// EventRigRebuilt carries the rebuild reason as a string.
	EventRigRebuilt EventType = "rig.rebuilt"
)

type Event struct {
	Type EventType
	Data any
}

// ActuatorCutEvent is emitted once when an actuator's drive is cut.
type ActuatorCutEvent struct {
	Entity  Entity
	Name    string
	Elapsed float64
}

// EventQueue is a simple FIFO queue.
type EventQueue struct {
	items []Event
}

// Push adds an event.
func (q *EventQueue) Push(evt Event) {
	if q == nil {
		return
	}
	q.items = append(q.items, evt)
}

// Drain returns all events and clears the queue.
func (q *EventQueue) Drain() []Event {
	if q == nil || len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

func (q *EventQueue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.items)
}

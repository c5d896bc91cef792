package component

// Thruster pushes along the entity's local -Z axis every step.
type Thruster struct {
	Power float64
}

var ThrusterComponent = NewComponent[Thruster]()

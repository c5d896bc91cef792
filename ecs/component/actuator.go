package component

// JointID addresses a row of the physics world's joint table. Zero is unset.
type JointID int

// Actuator owns a revolute drive that is cut to zero exactly once. A
// non-positive CutAfter leaves the decision to the control script.
type Actuator struct {
	Name     string
	Joint    JointID
	CutAfter float64
	Cut      bool
}

var ActuatorComponent = NewComponent[Actuator]()

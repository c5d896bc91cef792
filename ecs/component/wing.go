package component

// Wing makes an entity produce lift and drag from its own velocity.
type Wing struct {
	Lift float64
	Drag float64
}

var WingComponent = NewComponent[Wing]()

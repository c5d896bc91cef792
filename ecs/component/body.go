package component

type BodyKind int

const (
	BodyStatic BodyKind = iota
	BodyDynamic
)

func (k BodyKind) String() string {
	if k == BodyDynamic {
		return "dynamic"
	}
	return "static"
}

// Body tags an entity as backed by a physics actor. The actor handle itself
// lives in the physics world's lookup tables.
type Body struct {
	Kind BodyKind
}

var BodyComponent = NewComponent[Body]()

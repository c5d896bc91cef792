package ecs

import "errors"

var (
	ErrEntityNotAlive = errors.New("ecs: entity not alive")
	ErrNilComponent   = errors.New("ecs: component is nil")
	ErrInvalidKind    = errors.New("ecs: invalid component kind")
	ErrNoBody         = errors.New("ecs: entity has no physics body")
	ErrUnknownJoint   = errors.New("ecs: unknown joint")
	ErrNotRevolute    = errors.New("ecs: joint is not revolute")
)

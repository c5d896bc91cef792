package main

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Input holds the shell's per-frame key edges.
type Input struct {
	// PausePressed is true on the frame Escape or P was pressed.
	PausePressed bool
	// DebugPressed toggles the physics overlay (F3).
	DebugPressed bool
	// ReloadPressed rebuilds the rig from disk (R).
	ReloadPressed bool
	// StepPressed advances one frame while paused (N).
	StepPressed bool
	// Zoom is -1, 0 or +1 for the debug overlay.
	Zoom float64
}

func NewInput() *Input {
	return &Input{}
}

// Update polls the keyboard and the first gamepad.
func (i *Input) Update() {
	i.PausePressed = inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyP)
	i.DebugPressed = inpututil.IsKeyJustPressed(ebiten.KeyF3)
	i.ReloadPressed = inpututil.IsKeyJustPressed(ebiten.KeyR)
	i.StepPressed = inpututil.IsKeyJustPressed(ebiten.KeyN)

	i.Zoom = 0
	if ebiten.IsKeyPressed(ebiten.KeyEqual) || ebiten.IsKeyPressed(ebiten.KeyKPAdd) {
		i.Zoom += 1
	}
	if ebiten.IsKeyPressed(ebiten.KeyMinus) || ebiten.IsKeyPressed(ebiten.KeyKPSubtract) {
		i.Zoom -= 1
	}

	if ids := ebiten.AppendGamepadIDs(nil); len(ids) > 0 {
		if inpututil.IsStandardGamepadButtonJustPressed(ids[0], ebiten.StandardGamepadButtonCenterRight) {
			i.PausePressed = true
		}
	}
}

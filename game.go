package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/ebitenui/ebitenui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/milk9111/flightrig/config"
	"github.com/milk9111/flightrig/ecs"
	"github.com/milk9111/flightrig/ecs/system"
	"github.com/milk9111/flightrig/prefabs"
	"github.com/milk9111/flightrig/render"
	"github.com/milk9111/flightrig/sim"
	"github.com/rs/zerolog"
)

type Game struct {
	settings config.Settings
	log      zerolog.Logger

	input     *Input
	wireframe *render.Wireframe
	session   *sim.Session
	watcher   *prefabs.Watcher
	pauseUI   *ebitenui.UI
	view      system.PlanarView

	paused          bool
	debug           bool
	reloadRequested bool
	quitRequested   bool
}

// NewGame loads the configured rig and builds its first session. Failures
// here are fatal; later reload failures keep the running session.
func NewGame(settings config.Settings, log zerolog.Logger) (*Game, error) {
	g := &Game{
		settings:  settings,
		log:       log.With().Str("component", "game").Logger(),
		input:     NewInput(),
		wireframe: render.NewWireframe(render.DefaultCamera()),
		debug:     settings.Debug,
		view:      system.PlanarView{CenterX: 0, CenterY: 5, Zoom: 12},
	}
	g.pauseUI = NewPauseUI(g)

	session, err := g.buildSession()
	if err != nil {
		return nil, err
	}
	g.session = session

	if settings.RigWatch {
		w, err := prefabs.NewWatcher(prefabs.Dir, prefabs.Dir+"/scripts")
		if err != nil {
			g.log.Warn().Err(err).Str("dir", prefabs.Dir).Msg("prefab watcher disabled")
		} else {
			g.watcher = w
		}
	}
	return g, nil
}

func (g *Game) buildSession() (*sim.Session, error) {
	spec, err := prefabs.LoadRigSpec(g.settings.RigFile)
	if err != nil {
		return nil, err
	}
	return sim.Build(g.settings, spec, g.wireframe, g.log)
}

// rebuild swaps in a freshly assembled rig. The old session is stopped only
// once the new one is ready.
func (g *Game) rebuild(reason string) {
	session, err := g.buildSession()
	if err != nil {
		g.log.Error().Err(err).Str("reason", reason).Msg("rig rebuild failed; keeping current rig")
		return
	}
	if err := g.session.Loop.Stop(); err != nil {
		g.log.Warn().Err(err).Msg("stopping previous session")
	}
	g.session = session
	session.Loop.World().Events().Push(ecs.Event{Type: ecs.EventRigRebuilt, Data: reason})
	ev := g.log.Info().Str("reason", reason).Str("rig", session.Rig.Name)
	if src, err := prefabs.OpenPrefab(g.settings.RigFile); err == nil {
		ev = ev.Str("origin", src.Origin())
	}
	ev.Msg("rig rebuilt")
}

func (g *Game) pollWatcher() {
	if g.watcher == nil {
		return
	}
	select {
	case err, ok := <-g.watcher.Errors:
		if ok {
			g.log.Warn().Err(err).Msg("prefab watcher")
		}
	default:
	}
	if changed := g.watcher.Poll(); len(changed) > 0 {
		g.rebuild(fmt.Sprintf("changed %s", changed[0]))
	}
}

func (g *Game) Update() error {
	if g.quitRequested {
		return g.shutdown()
	}

	g.input.Update()
	if g.input.PausePressed {
		g.paused = !g.paused
	}
	if g.input.DebugPressed {
		g.debug = !g.debug
	}
	if g.input.Zoom != 0 {
		g.view.Zoom = max(1, g.view.Zoom+g.input.Zoom*0.25)
	}
	if g.input.ReloadPressed {
		g.reloadRequested = true
	}
	if g.reloadRequested {
		g.reloadRequested = false
		g.rebuild("manual")
	}
	g.pollWatcher()

	if g.paused {
		g.pauseUI.Update()
		if !g.input.StepPressed {
			return nil
		}
	}

	if err := g.session.Loop.Advance(context.Background()); err != nil {
		if errors.Is(err, sim.ErrStopped) {
			return ebiten.Termination
		}
		return err
	}
	if limit := g.settings.SimFrames; limit > 0 && g.session.Loop.FrameCount() >= limit {
		return g.shutdown()
	}
	return nil
}

func (g *Game) shutdown() error {
	var errs []error
	if g.watcher != nil {
		errs = append(errs, g.watcher.Close())
	}
	errs = append(errs, g.session.Loop.Stop())
	if err := errors.Join(errs...); err != nil {
		return err
	}
	return ebiten.Termination
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.wireframe.Begin(screen)
	g.session.Loop.Render()

	if g.debug {
		if engine, ok := g.session.Planar(); ok {
			system.DrawPhysicsDebug(engine.Space(), g.view, screen)
		}
		system.DrawSimStats(g.session.Loop.PhysicsWorld(), g.settings.PhysicsBackend, g.paused, screen)
	} else {
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("Frames: %d    FPS: %.2f", g.session.Loop.FrameCount(), ebiten.ActualFPS()), 10, 10)
	}

	if g.paused {
		g.pauseUI.Draw(screen)
	}
}

func (g *Game) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	return float64(g.settings.WindowWidth), float64(g.settings.WindowHeight)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	panic("shouldn't use Layout")
}

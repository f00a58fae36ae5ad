// Package game assembles the scene: world, systems, camera and the
// draw-order resolver, driven by a fixed-step loop.
package game

import (
	"fmt"
	"log/slog"

	"github.com/1siamBot/lullaby/engine/config"
	"github.com/1siamBot/lullaby/engine/core"
	"github.com/1siamBot/lullaby/engine/input"
	"github.com/1siamBot/lullaby/engine/render3d"
	"github.com/1siamBot/lullaby/engine/scene"
	"github.com/1siamBot/lullaby/engine/snapshot"
	"github.com/1siamBot/lullaby/engine/sorting"
	"github.com/1siamBot/lullaby/engine/systems"
)

// Option customizes New.
type Option func(*Game)

// WithLogger sets the logger used by the game and its resolver.
func WithLogger(l *slog.Logger) Option {
	return func(g *Game) { g.log = l }
}

// WithObserver reports every resolver pass to o.
func WithObserver(o sorting.Observer) Option {
	return func(g *Game) { g.observer = o }
}

// WithAtlas uses a preloaded sprite atlas instead of reading cfg.Assets.
func WithAtlas(a *render3d.SpriteAtlas) Option {
	return func(g *Game) { g.Atlas = a }
}

// Game is a loaded scene.
type Game struct {
	Config   config.Config
	Scene    *scene.Scene
	World    *core.World
	Loop     *core.GameLoop
	Camera   *render3d.Camera3D
	Input    *input.InputState
	Registry *sorting.Registry
	Resolver *sorting.Resolver
	Sorting  *systems.SortingSystem
	Snow     *render3d.ParticleSystem
	Wind     *systems.WindSystem
	Interact *systems.InteractionSystem
	Atlas    *render3d.SpriteAtlas
	Built    *scene.Built
	Player   core.EntityID

	inputSys    *systems.InputSystem
	meta        *input.InputState // frame-rate keys: pause, overlay
	log         *slog.Logger
	observer    sorting.Observer
	showOverlay bool
}

// New spawns sc into a fresh world and runs the first draw-order pass so
// the opening frame is already sorted.
func New(cfg config.Config, sc *scene.Scene, opts ...Option) (*Game, error) {
	g := &Game{Config: cfg, Scene: sc, showOverlay: true}
	for _, opt := range opts {
		opt(g)
	}
	if g.log == nil {
		g.log = slog.Default()
	}

	g.World = core.NewWorld(cfg.Window.TickRate)
	g.Camera = render3d.NewCamera3D(cfg.Camera, cfg.Window.Width, cfg.Window.Height)
	g.Registry = sorting.NewRegistry()
	resOpts := []sorting.Option{sorting.WithLogger(g.log)}
	if g.observer != nil {
		resOpts = append(resOpts, sorting.WithObserver(g.observer))
	}
	g.Resolver = sorting.NewResolver(g.Registry, g.Camera, resOpts...)
	g.Sorting = systems.NewSortingSystem(g.World, g.Resolver, g.log)

	built, err := sc.Build(g.World, cfg.Sorting, func(id core.EntityID, s sorting.Settings) {
		g.Sorting.Track(g.World, id, s)
	})
	if err != nil {
		return nil, fmt.Errorf("game: build scene: %w", err)
	}
	g.Built = built
	g.Player = built.Player
	g.World.Attach(g.Player, &core.Body{Gravity: cfg.Player.Gravity})
	g.World.Attach(g.Player, systems.NewPlayerController(cfg.Player))

	if g.Atlas == nil {
		g.Atlas = render3d.NewSpriteAtlas()
		n, err := g.Atlas.LoadFromDirectory(cfg.Assets)
		if err != nil {
			return nil, fmt.Errorf("game: %w", err)
		}
		g.log.Info("sprite sheets loaded", "count", n, "dir", cfg.Assets)
	}

	g.Input = input.NewInputState()
	g.meta = input.NewInputState()
	g.inputSys = &systems.InputSystem{State: g.Input}
	g.Snow = render3d.NewParticleSystem(cfg.Snow, sc.GroundY)

	player := &systems.PlayerSystem{Keys: g.Input, Camera: g.Camera}
	g.World.AddSystem(g.inputSys)
	g.World.AddSystem(player)
	g.World.AddSystem(&systems.PhysicsSystem{GroundY: sc.GroundY, Tolerance: 0.01, Listener: player})
	g.Interact = &systems.InteractionSystem{
		Settings: cfg.Interaction,
		Keys:     g.Input,
		Player:   g.Player,
		Camera:   g.Camera,
		Log:      g.log,
	}
	g.Wind = systems.NewWindSystem(g.Snow)
	g.World.AddSystem(&systems.CameraSystem{Camera: g.Camera, Target: g.Player})
	g.World.AddSystem(g.Interact)
	g.World.AddSystem(&systems.BillboardSystem{Camera: g.Camera})
	g.World.AddSystem(&systems.AnimationSystem{})
	g.World.AddSystem(g.Wind)
	g.World.AddSystem(&systems.SnowSystem{Snow: g.Snow, Target: g.Player})
	g.World.AddSystem(g.Sorting)

	g.World.Bus.Dispatch()
	g.Camera.Follow(g.World.WorldPosition(g.Player), false, 0)
	pass := g.Resolver.ResolveNow()
	g.log.Info("scene loaded",
		"scene", sc.Name, "entities", g.World.EntityCount(),
		"sortables", g.Registry.Len(), "writes", pass.Writes)

	g.Loop = core.NewGameLoop(g.World)
	g.Loop.Play()
	return g, nil
}

// Update runs the ticks due since the previous frame with key state from
// poll and returns how many ran.
func (g *Game) Update(poll input.PollFunc) int {
	g.handleMeta(poll)
	g.inputSys.Poll = poll
	return g.Loop.Update()
}

// Step runs exactly one tick, unless paused.
func (g *Game) Step(poll input.PollFunc) int {
	g.handleMeta(poll)
	g.inputSys.Poll = poll
	return g.Loop.Advance(1 / g.World.TickRate)
}

func (g *Game) handleMeta(poll input.PollFunc) {
	g.meta.Update(poll)
	if g.meta.JustPressed(input.KeyP) {
		g.TogglePause()
	}
	if g.meta.JustPressed(input.KeyF1) {
		g.showOverlay = !g.showOverlay
	}
	if g.meta.JustPressed(input.KeyF2) {
		g.toggleSortDebug()
	}
	if g.meta.JustPressed(input.KeyZ) {
		g.Wind.Turn(-windStep)
	}
	if g.meta.JustPressed(input.KeyX) {
		g.Wind.Turn(windStep)
	}
}

// windStep is how far Z and X turn the wind, in degrees.
const windStep = 15

// TogglePause pauses or resumes the simulation.
func (g *Game) TogglePause() {
	if g.Paused() {
		g.Loop.Play()
		g.log.Info("resumed", "tick", g.Loop.CurrentTick())
		return
	}
	g.Loop.Pause()
	g.log.Info("paused", "tick", g.Loop.CurrentTick())
}

// Paused reports whether the simulation is stopped.
func (g *Game) Paused() bool { return g.Loop.State == core.StatePaused }

// OverlayVisible reports whether the status overlay is shown.
func (g *Game) OverlayVisible() bool { return g.showOverlay }

func (g *Game) toggleSortDebug() {
	on := false
	for _, id := range g.Built.Tracked {
		if obj, ok := g.Sorting.Object(id); ok {
			obj.Settings.Debug = !obj.Settings.Debug
			on = obj.Settings.Debug
		}
	}
	g.log.Info("sort debug", "enabled", on)
}

// DrawList returns the visible sprites in paint order.
func (g *Game) DrawList() []render3d.DrawItem {
	return render3d.BuildDrawList(g.World, g.Camera)
}

// Flakes returns the projected snowfall.
func (g *Game) Flakes() []render3d.Flake {
	return g.Snow.Project(g.Camera)
}

// Frame collects everything a renderer needs for the current state.
func (g *Game) Frame() snapshot.Frame {
	top, horizon := g.Scene.SkyColors()
	f := snapshot.Frame{
		Width:      g.Config.Window.Width,
		Height:     g.Config.Window.Height,
		SkyTop:     top,
		SkyHorizon: horizon,
		Items:      g.DrawList(),
		Flakes:     g.Flakes(),
	}
	if g.showOverlay {
		f.Lines = g.Overlay()
	}
	for _, t := range g.Interact.Texts() {
		f.Texts = append(f.Texts, t.Text)
	}
	return f
}

// Overlay returns the status lines shown over the scene.
func (g *Game) Overlay() []string {
	lines := []string{
		fmt.Sprintf("tick %d  passes %d  sortables %d", g.Loop.CurrentTick(), g.Resolver.Passes(), g.Registry.Len()),
	}
	if p, ok := g.World.Get(g.Player, core.CompPlayer).(*systems.PlayerController); ok {
		body := g.World.Get(g.Player, core.CompBody).(*core.Body)
		st := p.Status(body, g.World.Now())
		lines = append(lines, fmt.Sprintf("grounded %t  buffered %t/%t  buffer %.2fs  hold %.2fs",
			st.Grounded, st.ShortBuffered, st.LongBuffered, st.BufferRemaining, st.HoldTime))
	}
	if quad, ok := g.Built.ByName["RenderSquare"]; ok {
		if spr, ok := g.World.Get(quad, core.CompSprite).(*core.Sprite); ok {
			lines = append(lines, fmt.Sprintf("player order %d  order changes %d", spr.Order, g.Sorting.Changes()))
		}
	}
	switch g.Interact.Tip() {
	case systems.TipInRange:
		lines = append(lines, "press F: "+g.World.Name(g.Interact.Current()))
	case systems.TipInView:
		lines = append(lines, "something to look at nearby")
	}
	lines = append(lines, fmt.Sprintf("wind %.0f°  %.1f  (Z/X to turn)", g.Wind.Yaw, g.Wind.Strength))
	if g.Paused() {
		lines = append(lines, "paused")
	}
	return lines
}

// Ranking runs a pass now and returns it.
func (g *Game) Ranking() sorting.Pass {
	return g.Resolver.ResolveNow()
}

// Shutdown clears the sorting registry and stops the camera.
func (g *Game) Shutdown() {
	g.Loop.Pause()
	g.Resolver.Shutdown()
	g.Camera.SetActive(false)
}

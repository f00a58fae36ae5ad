package core

import "time"

// GameState represents the overall scene state
type GameState uint8

const (
	StateLoading GameState = iota
	StatePlaying
	StatePaused
)

// GameLoop drives the world at a fixed timestep. The world's logical clock
// only advances by whole ticks, so anything gated on World.Now is
// independent of frame rate.
type GameLoop struct {
	World       *World
	State       GameState
	TickRate    float64 // fixed ticks per second
	accumulator float64
	lastTime    time.Time
	now         func() time.Time
}

// NewGameLoop creates a game loop with fixed tick rate
func NewGameLoop(w *World) *GameLoop {
	return &GameLoop{
		World:    w,
		TickRate: w.TickRate,
		lastTime: time.Now(),
		now:      time.Now,
	}
}

// Update should be called every render frame. It runs the simulation
// at fixed timestep and returns the number of ticks it ran.
func (gl *GameLoop) Update() int {
	now := gl.now()
	frameTime := now.Sub(gl.lastTime).Seconds()
	gl.lastTime = now

	// Cap frame time to avoid spiral of death
	if frameTime > 0.25 {
		frameTime = 0.25
	}
	return gl.Advance(frameTime)
}

// Advance feeds frameTime seconds into the accumulator and runs the ticks due.
// Time passed while not playing is dropped.
func (gl *GameLoop) Advance(frameTime float64) int {
	if gl.State != StatePlaying {
		gl.accumulator = 0
		return 0
	}
	dt := 1.0 / gl.TickRate
	gl.accumulator += frameTime

	ticks := 0
	for gl.accumulator >= dt {
		gl.World.Tick(dt)
		ticks++
		gl.accumulator -= dt
	}
	return ticks
}

// Play starts or resumes the simulation
func (gl *GameLoop) Play() {
	gl.State = StatePlaying
	gl.lastTime = gl.now()
}

// Pause pauses the simulation
func (gl *GameLoop) Pause() {
	gl.State = StatePaused
}

// CurrentTick returns the current simulation tick
func (gl *GameLoop) CurrentTick() uint64 {
	return gl.World.TickCount
}

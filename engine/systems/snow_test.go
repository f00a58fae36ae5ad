package systems

import (
	"testing"

	"github.com/1siamBot/lullaby/engine/core"
	"github.com/1siamBot/lullaby/engine/geom"
	"github.com/1siamBot/lullaby/engine/render3d"
	"github.com/stretchr/testify/assert"
)

func TestSnowSystemFollowsTarget(t *testing.T) {
	w := core.NewWorld(50)
	id := w.Spawn("player")
	w.Attach(id, core.NewTransform(geom.V3(100, 0, 100)))
	s := render3d.DefaultSnowSettings()
	s.Rate = 50
	s.WindStrength = 0
	snow := render3d.NewParticleSystem(s, 0)
	w.AddSystem(&SnowSystem{Snow: snow, Target: id})

	w.Tick(0.1)
	assert.NotEmpty(t, snow.Particles)
	for _, p := range snow.Particles {
		assert.InDelta(t, 100, p.Pos.X, s.AreaX/2)
		assert.InDelta(t, 100, p.Pos.Z, s.AreaZ/2)
	}
}

func TestWindSystemAppliesChanges(t *testing.T) {
	w := core.NewWorld(50)
	s := render3d.DefaultSnowSettings()
	s.Rate = 0
	snow := render3d.NewParticleSystem(s, 0)
	wind := NewWindSystem(snow)
	w.AddSystem(wind)

	w.Tick(0.02)
	assert.InDelta(t, 90, snow.Settings.WindYaw, 1e-9)
	assert.InDelta(t, 0.6, snow.Wind().X, 1e-9)

	wind.Turn(-90)
	wind.Strength = 2
	assert.InDelta(t, 0.6, snow.Wind().X, 1e-9, "applied on the next tick")
	w.Tick(0.02)
	assert.InDelta(t, 0, snow.Settings.WindYaw, 1e-9)
	assert.InDelta(t, 2, snow.Wind().Z, 1e-9)
	assert.InDelta(t, 0, snow.Wind().X, 1e-9)

	// a direct change on the snowfall sticks until the wind itself changes
	snow.SetWind(180, 1)
	w.Tick(0.02)
	assert.InDelta(t, 180, snow.Settings.WindYaw, 1e-9)
	wind.Turn(15)
	w.Tick(0.02)
	assert.InDelta(t, 15, snow.Settings.WindYaw, 1e-9)
}

func TestWindTurnWraps(t *testing.T) {
	wind := &WindSystem{Yaw: 350}
	wind.Turn(15)
	assert.InDelta(t, 5, wind.Yaw, 1e-9)
	wind.Turn(-20)
	assert.InDelta(t, 345, wind.Yaw, 1e-9)
	wind.Turn(-725)
	assert.InDelta(t, 340, wind.Yaw, 1e-9)
}

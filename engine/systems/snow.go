package systems

import (
	"math"

	"github.com/1siamBot/lullaby/engine/core"
	"github.com/1siamBot/lullaby/engine/render3d"
)

// SnowSystem keeps the snowfall centered on the target entity.
type SnowSystem struct {
	Snow   *render3d.ParticleSystem
	Target core.EntityID
}

func (s *SnowSystem) Priority() int { return 60 }

func (s *SnowSystem) Update(w *core.World, dt float64) {
	s.Snow.Update(w.WorldPosition(s.Target), dt)
}

// WindSystem owns the scene's wind and hands it to the snowfall whenever
// it changes.
type WindSystem struct {
	Snow     *render3d.ParticleSystem
	Yaw      float64 // degrees, 0 = +Z
	Strength float64

	applied               bool
	lastYaw, lastStrength float64
}

// NewWindSystem starts from the wind the snowfall was configured with.
func NewWindSystem(snow *render3d.ParticleSystem) *WindSystem {
	return &WindSystem{
		Snow:     snow,
		Yaw:      snow.Settings.WindYaw,
		Strength: snow.Settings.WindStrength,
	}
}

func (s *WindSystem) Priority() int { return 55 }

func (s *WindSystem) Update(_ *core.World, _ float64) {
	if s.applied && s.Yaw == s.lastYaw && s.Strength == s.lastStrength {
		return
	}
	s.Snow.SetWind(s.Yaw, s.Strength)
	s.lastYaw, s.lastStrength = s.Yaw, s.Strength
	s.applied = true
}

// Turn rotates the wind by deg, keeping the yaw in [0, 360).
func (s *WindSystem) Turn(deg float64) {
	s.Yaw = math.Mod(math.Mod(s.Yaw+deg, 360)+360, 360)
}

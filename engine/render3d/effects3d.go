package render3d

import (
	"math"
	"math/rand"

	"github.com/1siamBot/lullaby/engine/geom"
)

// SnowSettings configure the snowfall around the camera target.
type SnowSettings struct {
	Enabled      bool    `mapstructure:"enabled" yaml:"enabled"`
	Rate         float64 `mapstructure:"rate" yaml:"rate"` // flakes per second
	AreaX        float64 `mapstructure:"area_x" yaml:"area_x"`
	AreaZ        float64 `mapstructure:"area_z" yaml:"area_z"`
	Height       float64 `mapstructure:"height" yaml:"height"`
	FallSpeed    float64 `mapstructure:"fall_speed" yaml:"fall_speed"`
	MinSize      float64 `mapstructure:"min_size" yaml:"min_size"`
	MaxSize      float64 `mapstructure:"max_size" yaml:"max_size"`
	WindYaw      float64 `mapstructure:"wind_yaw" yaml:"wind_yaw"` // degrees, 0 = +Z
	WindStrength float64 `mapstructure:"wind_strength" yaml:"wind_strength"`
	FadeTime     float64 `mapstructure:"fade_time" yaml:"fade_time"` // seconds a landed flake lingers
	MaxFlakes    int     `mapstructure:"max_flakes" yaml:"max_flakes"`
	Seed         int64   `mapstructure:"seed" yaml:"seed"`
}

// DefaultSnowSettings returns a light blizzard.
func DefaultSnowSettings() SnowSettings {
	return SnowSettings{
		Enabled:      true,
		Rate:         120,
		AreaX:        30,
		AreaZ:        30,
		Height:       12,
		FallSpeed:    1.5,
		MinSize:      0.03,
		MaxSize:      0.12,
		WindYaw:      90,
		WindStrength: 0.6,
		FadeTime:     1.5,
		MaxFlakes:    2000,
		Seed:         1,
	}
}

// Particle is a single snow flake.
type Particle struct {
	Pos    geom.Vec3
	Vel    geom.Vec3
	Size   float64
	Alpha  float64
	landed float64 // seconds since touching the ground, 0 while airborne
}

// Landed reports whether the flake has hit the ground and is fading.
func (p *Particle) Landed() bool { return p.landed > 0 }

// ParticleSystem spawns flakes in a box above a center point, drifts them
// with the wind and fades them out after they land.
type ParticleSystem struct {
	Settings  SnowSettings
	Particles []Particle
	GroundY   float64

	rng     *rand.Rand
	pending float64 // fractional flakes carried to the next update
}

func NewParticleSystem(s SnowSettings, groundY float64) *ParticleSystem {
	return &ParticleSystem{
		Settings: s,
		GroundY:  groundY,
		rng:      rand.New(rand.NewSource(s.Seed)),
	}
}

// Wind returns the wind velocity.
func (ps *ParticleSystem) Wind() geom.Vec3 {
	yaw := geom.Deg(ps.Settings.WindYaw)
	return geom.V3(math.Sin(yaw), 0, math.Cos(yaw)).Scale(ps.Settings.WindStrength)
}

// SetWind changes the wind for airborne flakes.
func (ps *ParticleSystem) SetWind(yawDeg, strength float64) {
	ps.Settings.WindYaw = yawDeg
	ps.Settings.WindStrength = strength
}

// Update spawns new flakes around center and advances the rest.
func (ps *ParticleSystem) Update(center geom.Vec3, dt float64) {
	s := ps.Settings
	if !s.Enabled {
		ps.Particles = ps.Particles[:0]
		return
	}
	ps.pending += s.Rate * dt
	for ps.pending >= 1 && len(ps.Particles) < s.MaxFlakes {
		ps.pending--
		ps.Particles = append(ps.Particles, Particle{
			Pos: geom.V3(
				center.X+(ps.rng.Float64()-0.5)*s.AreaX,
				ps.GroundY+s.Height*(0.5+0.5*ps.rng.Float64()),
				center.Z+(ps.rng.Float64()-0.5)*s.AreaZ,
			),
			Vel:   geom.V3(0, -s.FallSpeed*(0.7+0.6*ps.rng.Float64()), 0),
			Size:  s.MinSize + (s.MaxSize-s.MinSize)*ps.rng.Float64(),
			Alpha: 1,
		})
	}
	if ps.pending > 1 {
		ps.pending = 1
	}

	wind := ps.Wind()
	alive := ps.Particles[:0]
	for i := range ps.Particles {
		p := ps.Particles[i]
		if p.Landed() {
			p.landed += dt
			if p.landed >= s.FadeTime {
				continue
			}
			p.Alpha = 1 - p.landed/s.FadeTime
			alive = append(alive, p)
			continue
		}
		p.Pos = p.Pos.Add(p.Vel.Add(wind).Scale(dt))
		if p.Pos.Y <= ps.GroundY {
			p.Pos.Y = ps.GroundY
			if s.FadeTime <= 0 {
				continue
			}
			p.landed = 1e-9
		}
		alive = append(alive, p)
	}
	ps.Particles = alive
}

// Flake is a projected particle.
type Flake struct {
	X, Y, R float64
	Alpha   float64
}

// Project returns the flakes visible through cam.
func (ps *ParticleSystem) Project(cam *Camera3D) []Flake {
	if !cam.Active() {
		return nil
	}
	out := make([]Flake, 0, len(ps.Particles))
	for i := range ps.Particles {
		p := &ps.Particles[i]
		sx, sy, depth, ok := cam.Project(p.Pos)
		if !ok {
			continue
		}
		r := p.Size * cam.PixelsPerUnit(depth) / 2
		if r < 0.5 {
			r = 0.5
		}
		out = append(out, Flake{X: sx, Y: sy, R: r, Alpha: p.Alpha})
	}
	return out
}

package render3d

import (
	"math"

	"github.com/1siamBot/lullaby/engine/geom"
)

// CameraSettings configure the third-person follow camera.
type CameraSettings struct {
	Distance      float64 `mapstructure:"distance" yaml:"distance"`
	CrouchFactor  float64 `mapstructure:"crouch_factor" yaml:"crouch_factor"` // distance multiplier while crouching
	LerpSpeed     float64 `mapstructure:"lerp_speed" yaml:"lerp_speed"`
	Pitch         float64 `mapstructure:"pitch" yaml:"pitch"` // degrees
	Yaw           float64 `mapstructure:"yaw" yaml:"yaw"`     // degrees
	FOV           float64 `mapstructure:"fov" yaml:"fov"`     // vertical, degrees
	SwayAmplitude float64 `mapstructure:"sway_amplitude" yaml:"sway_amplitude"`
	SwaySpeed     float64 `mapstructure:"sway_speed" yaml:"sway_speed"` // cycles per second
	SwayPhase     float64 `mapstructure:"sway_phase" yaml:"sway_phase"` // radians
}

// DefaultCameraSettings returns the settings of the player camera.
func DefaultCameraSettings() CameraSettings {
	return CameraSettings{
		Distance:      10,
		CrouchFactor:  0.5,
		LerpSpeed:     5,
		Pitch:         30,
		Yaw:           -30,
		FOV:           60,
		SwayAmplitude: 0.1,
		SwaySpeed:     0.5,
	}
}

const nearPlane = 0.1

// Camera3D is a perspective camera that trails a target at a fixed angle.
// It is the scene's active camera once it has a target.
type Camera3D struct {
	Settings CameraSettings
	Position geom.Vec3
	Rotation geom.Quat

	// Screen dimensions
	ScreenW, ScreenH int

	distance float64
	swayTime float64
	active   bool
}

// NewCamera3D creates an inactive camera; it activates on the first Follow.
func NewCamera3D(s CameraSettings, screenW, screenH int) *Camera3D {
	return &Camera3D{
		Settings: s,
		Rotation: geom.Euler(geom.Deg(s.Pitch), geom.Deg(s.Yaw), 0),
		ScreenW:  screenW,
		ScreenH:  screenH,
		distance: s.Distance,
		swayTime: s.SwayPhase,
	}
}

// ActivePosition implements the sorting camera service.
func (c *Camera3D) ActivePosition() (geom.Vec3, bool) {
	return c.Position, c.active
}

// Active reports whether the camera is rendering.
func (c *Camera3D) Active() bool { return c.active }

// SetActive enables or disables the camera.
func (c *Camera3D) SetActive(v bool) { c.active = v }

// Distance returns the current follow distance.
func (c *Camera3D) Distance() float64 { return c.distance }

// Follow moves the camera behind target. The follow distance eases toward
// Distance, or Distance*CrouchFactor while crouching, and a sinusoidal sway
// is added along the camera's right axis.
func (c *Camera3D) Follow(target geom.Vec3, crouching bool, dt float64) {
	want := c.Settings.Distance
	if crouching {
		want *= c.Settings.CrouchFactor
	}
	c.distance = geom.Lerp(c.distance, want, dt*c.Settings.LerpSpeed)

	c.Rotation = geom.Euler(geom.Deg(c.Settings.Pitch), geom.Deg(c.Settings.Yaw), 0)
	base := target.Add(c.Rotation.Rotate(geom.V3(0, 0, -c.distance)))

	c.swayTime += dt * c.Settings.SwaySpeed * 2 * math.Pi
	sway := math.Sin(c.swayTime) * c.Settings.SwayAmplitude
	c.Position = base.Add(c.Rotation.Right().Scale(sway))
	c.active = true
}

// Forward and Right are the camera axes in world space.
func (c *Camera3D) Forward() geom.Vec3 { return c.Rotation.Forward() }
func (c *Camera3D) Right() geom.Vec3   { return c.Rotation.Right() }

// focal returns the projection scale in pixels per unit at depth 1.
func (c *Camera3D) focal() float64 {
	return float64(c.ScreenH) / 2 / math.Tan(geom.Deg(c.Settings.FOV)/2)
}

// Project converts a world point to screen pixels. depth is the distance
// along the view axis; ok is false for points behind the near plane.
func (c *Camera3D) Project(p geom.Vec3) (sx, sy, depth float64, ok bool) {
	v := c.Rotation.Inverse().Rotate(p.Sub(c.Position))
	if v.Z <= nearPlane {
		return 0, 0, v.Z, false
	}
	f := c.focal() / v.Z
	sx = float64(c.ScreenW)/2 + v.X*f
	sy = float64(c.ScreenH)/2 - v.Y*f
	return sx, sy, v.Z, true
}

// PixelsPerUnit is the on-screen size of one world unit at depth.
func (c *Camera3D) PixelsPerUnit(depth float64) float64 {
	if depth <= nearPlane {
		return 0
	}
	return c.focal() / depth
}

package core

import (
	"image/color"

	"github.com/1siamBot/lullaby/engine/geom"
)

// ---- Transform ----

// Transform is an entity's pose relative to its parent.
type Transform struct {
	Position geom.Vec3
	Rotation geom.Quat
}

func (t *Transform) Type() ComponentType { return CompTransform }

// NewTransform returns an unrotated transform at p.
func NewTransform(p geom.Vec3) *Transform {
	return &Transform{Position: p, Rotation: geom.Identity}
}

// ---- Sprite & Animation ----

// Sprite renders a flat image as a quad in world space.
type Sprite struct {
	SheetID string     // sprite sheet identifier
	Frame   int        // current frame column
	Frames  int        // frames in the sheet row
	Width   float64    // world units
	Height  float64    // world units
	Tint    color.RGBA // used when no sheet is loaded
	FlipX   bool
	Visible bool
	Order   int // draw order; higher draws on top
}

func (s *Sprite) Type() ComponentType { return CompSprite }

// SortOrder and SetSortOrder make a sprite a draw-order sink.
func (s *Sprite) SortOrder() int     { return s.Order }
func (s *Sprite) SetSortOrder(o int) { s.Order = o }

// AnimState represents animation state
type AnimState struct {
	CurrentAnim string  // animation name
	Frame       int     // current frame index
	Timer       float64 // time accumulator
	Speed       float64 // frames per second
	Loop        bool
	Finished    bool
}

func (a *AnimState) Type() ComponentType { return CompAnim }

// Play switches to a named animation, restarting it if it changed.
func (a *AnimState) Play(name string) {
	if a.CurrentAnim == name {
		return
	}
	a.CurrentAnim = name
	a.Frame = 0
	a.Timer = 0
	a.Finished = false
}

// ---- Volumes & Bodies ----

// BoxCollider is an axis-aligned box in the owner's local space.
type BoxCollider struct {
	Center    geom.Vec3
	Size      geom.Vec3
	IsTrigger bool
}

func (b *BoxCollider) Type() ComponentType { return CompBox }

// Body is a minimal rigid body: velocity integration, gravity and a ground
// contact counter fed by trigger enter/exit.
type Body struct {
	Velocity       geom.Vec3
	Gravity        float64 // downward acceleration, units/s²
	GroundContacts int
}

func (b *Body) Type() ComponentType { return CompBody }

// AddImpulse applies an instantaneous velocity change (unit mass).
func (b *Body) AddImpulse(v geom.Vec3) {
	b.Velocity = b.Velocity.Add(v)
}

// ---- Billboard ----

// BillboardMode selects how a billboard turns toward the camera.
type BillboardMode uint8

const (
	BillboardYOnly BillboardMode = iota // upright, yaw only
	BillboardFaceCamera
)

// Billboard makes an entity face the active camera each frame. Flip rules
// apply while the animation named FacingAnim plays.
type Billboard struct {
	Mode          BillboardMode
	FacingAnim    string
	FlipThreshold float64
	InvertFlip    bool
	DefaultFlip   bool
	// Source is the entity whose body velocity drives flipping; 0 means the parent.
	Source EntityID
}

func (b *Billboard) Type() ComponentType { return CompBillboard }

// ---- Interaction ----

// PopSettings shape the squash and stretch played when an object is used.
type PopSettings struct {
	MaxStretchX  float64 `yaml:"max_stretch_x"` // width factor at the end of the squash
	MaxStretchY  float64 `yaml:"max_stretch_y"` // height factor at the end of the stretch
	SmallShrinkX float64 `yaml:"small_shrink_x"`
	SmallShrinkY float64 `yaml:"small_shrink_y"`
	Squash       float64 `yaml:"squash"`  // seconds
	Stretch      float64 `yaml:"stretch"` // seconds
	Restore      float64 `yaml:"restore"` // seconds
}

// DefaultPopSettings returns the stock pop.
func DefaultPopSettings() PopSettings {
	return PopSettings{
		MaxStretchX:  1.2,
		MaxStretchY:  1.15,
		SmallShrinkX: 0.96,
		SmallShrinkY: 0.98,
		Squash:       0.08,
		Stretch:      0.12,
		Restore:      0.12,
	}
}

// PopPhase is the running step of a pop.
type PopPhase uint8

const (
	PopIdle PopPhase = iota
	PopSquash
	PopStretch
	PopRestore
)

// PopAnim is the pop's per-tick state. Sizes are the visual sprite's world
// width and height; the sprite is drawn from its bottom edge, so scaling
// keeps it planted.
type PopAnim struct {
	Settings PopSettings
	Phase    PopPhase
	Elapsed  float64

	baseW, baseH float64
	fromW, fromH float64
	curW, curH   float64
	hasBase      bool
}

// Start (re)starts the pop. The size given on the first call is the rest
// size every later pop returns to.
func (p *PopAnim) Start(w, h float64) {
	if !p.hasBase {
		p.baseW, p.baseH = w, h
		p.hasBase = true
	}
	p.Phase = PopSquash
	p.Elapsed = 0
	p.fromW, p.fromH = p.baseW, p.baseH
	p.curW, p.curH = p.baseW, p.baseH
}

// Running reports whether a pop is in progress.
func (p *PopAnim) Running() bool { return p.Phase != PopIdle }

func (p *PopAnim) target() (w, h float64, d float64) {
	s := p.Settings
	switch p.Phase {
	case PopSquash:
		return p.baseW * s.MaxStretchX, p.baseH * s.SmallShrinkY, s.Squash
	case PopStretch:
		return p.baseW * s.SmallShrinkX, p.baseH * s.MaxStretchY, s.Stretch
	}
	return p.baseW, p.baseH, s.Restore
}

// Step advances the pop by dt and returns the size to draw. A phase hands
// over to the next on the tick it completes.
func (p *PopAnim) Step(dt float64) (w, h float64) {
	if p.Phase == PopIdle {
		return p.curW, p.curH
	}
	tw, th, d := p.target()
	p.Elapsed += dt
	f := 1.0
	if d > 0 && p.Elapsed < d {
		f = p.Elapsed / d
	}
	p.curW = p.fromW + (tw-p.fromW)*f
	p.curH = p.fromH + (th-p.fromH)*f
	if f >= 1 {
		p.fromW, p.fromH = p.curW, p.curH
		p.Elapsed = 0
		p.Phase++
		if p.Phase > PopRestore {
			p.Phase = PopIdle
			p.curW, p.curH = p.baseW, p.baseH
		}
	}
	return p.curW, p.curH
}

// Interactable is an object the player can use with the interact key.
// Objects naming the same TextBox share one on-screen text.
type Interactable struct {
	Enabled bool
	Text    string
	TextBox string   // empty: interaction is only logged
	Visual  EntityID // entity whose sprite pops; 0 means none
	Pop     PopAnim
}

func (i *Interactable) Type() ComponentType { return CompInteractable }

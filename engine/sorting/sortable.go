// Package sorting assigns draw orders to billboard sprites so that the ones
// nearer the camera on the ground plane are painted on top.
//
// A Registry tracks the sortable objects that are currently active. A
// Resolver ranks all of them by squared X-Z distance from the camera to
// each object's occlusion anchor and writes a clamped order back to each
// object's Target. Any object may request a pass; the pass always covers
// the whole registry and is gated by a logical clock shared per Resolver.
package sorting

import (
	"errors"
	"fmt"

	"github.com/1siamBot/lullaby/engine/geom"
)

// Limits of the render backend's sort order.
const (
	OrderFloor = -32768
	OrderCeil  = 32767
)

var (
	ErrInvalidBounds   = errors.New("sorting: min order greater than max order")
	ErrOrderOutOfRange = errors.New("sorting: order bound outside backend range")
	ErrNegativeSetting = errors.New("sorting: negative interval or tie-break")
)

// Settings are the per-object sorting parameters.
type Settings struct {
	BaseOrder  int     `mapstructure:"base_order" yaml:"base_order"`
	MinOrder   int     `mapstructure:"min_order" yaml:"min_order"`
	MaxOrder   int     `mapstructure:"max_order" yaml:"max_order"`
	TieBreak   float64 `mapstructure:"tie_break" yaml:"tie_break"`
	EveryFrame bool    `mapstructure:"every_frame" yaml:"every_frame"`
	Interval   float64 `mapstructure:"interval" yaml:"interval"` // seconds
	Debug      bool    `mapstructure:"debug" yaml:"debug"`
}

// DefaultSettings mirrors the values used for characters and props.
func DefaultSettings() Settings {
	return Settings{
		BaseOrder:  100,
		MinOrder:   -30000,
		MaxOrder:   32767,
		TieBreak:   0.0001,
		EveryFrame: true,
		Interval:   0.12,
	}
}

// Validate checks the bounds and cadence values.
func (s Settings) Validate() error {
	if s.MinOrder > s.MaxOrder {
		return fmt.Errorf("%w: %d > %d", ErrInvalidBounds, s.MinOrder, s.MaxOrder)
	}
	if s.MinOrder < OrderFloor || s.MaxOrder > OrderCeil {
		return fmt.Errorf("%w: [%d, %d]", ErrOrderOutOfRange, s.MinOrder, s.MaxOrder)
	}
	if s.Interval < 0 || s.TieBreak < 0 {
		return fmt.Errorf("%w: interval=%g tie_break=%g", ErrNegativeSetting, s.Interval, s.TieBreak)
	}
	return nil
}

// Clamp limits order to the object's own bounds.
func (s Settings) Clamp(order int) int {
	if order < s.MinOrder {
		return s.MinOrder
	}
	if order > s.MaxOrder {
		return s.MaxOrder
	}
	return order
}

// Target is the render-order sink of a sortable object.
type Target interface {
	SortOrder() int
	SetSortOrder(order int)
}

// Locator reports an object's world position.
type Locator interface {
	Position() geom.Vec3
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func() geom.Vec3

func (f LocatorFunc) Position() geom.Vec3 { return f() }

// Sortable is one object taking part in draw-order resolution. The scene
// owns it; registries only hold references.
type Sortable struct {
	Name     string
	Settings Settings

	target  Target
	loc     Locator
	anchor  Volume
	enabled bool
	inited  bool
}

// New creates an enabled sortable. A nil target is allowed; such an object
// is never ranked.
func New(name string, s Settings, target Target, loc Locator) *Sortable {
	return &Sortable{
		Name:     name,
		Settings: s,
		target:   target,
		loc:      loc,
		enabled:  true,
	}
}

// Init binds the occlusion anchor by searching root's volumes. It runs once;
// later calls are ignored even if the volume tree changed.
func (o *Sortable) Init(root Node) {
	if o.inited {
		return
	}
	o.inited = true
	if root != nil {
		o.anchor = ResolveAnchor(root)
	}
}

// Anchor returns the bound occlusion anchor, or nil.
func (o *Sortable) Anchor() Volume { return o.anchor }

// Target returns the render-order sink, or nil.
func (o *Sortable) Target() Target { return o.target }

func (o *Sortable) Enabled() bool     { return o.enabled }
func (o *Sortable) SetEnabled(v bool) { o.enabled = v }

// Valid reports whether the object participates in ranking.
func (o *Sortable) Valid() bool {
	return o != nil && o.enabled && o.target != nil
}

// Point is the world point used for distance: the anchor center if bound,
// else the object's own position.
func (o *Sortable) Point() geom.Vec3 {
	if o.anchor != nil {
		return o.anchor.WorldCenter()
	}
	if o.loc != nil {
		return o.loc.Position()
	}
	return geom.Zero
}

// Key is the ranking key against a camera position: the squared X-Z
// distance plus |dx| scaled by the tie-break factor.
func (o *Sortable) Key(cam geom.Vec3) float64 {
	p := o.Point()
	dx := cam.X - p.X
	dz := cam.Z - p.Z
	d2 := dx*dx + dz*dz
	if dx < 0 {
		dx = -dx
	}
	return d2 + dx*o.Settings.TieBreak
}

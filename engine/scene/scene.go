// Package scene loads YAML scene descriptions and spawns them into a world.
package scene

import (
	_ "embed"
	"errors"
	"fmt"
	"image/color"
	"os"

	"github.com/1siamBot/lullaby/engine/core"
	"github.com/1siamBot/lullaby/engine/geom"
	"github.com/1siamBot/lullaby/engine/sorting"
	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultScene []byte

var (
	ErrNoPlayer      = errors.New("scene: player node is required")
	ErrInvalidSprite = errors.New("scene: sprite width and height must be positive")
	ErrUnknownMode   = errors.New("scene: unknown billboard mode")
	ErrInvalidPop    = errors.New("scene: pop factors must be positive and durations non-negative")
)

// Vec is a YAML [x, y, z] triple.
type Vec [3]float64

func (v Vec) Vec3() geom.Vec3 { return geom.V3(v[0], v[1], v[2]) }

// SpriteDef describes a billboard quad's image.
type SpriteDef struct {
	Sheet   string  `yaml:"sheet"`
	Frames  int     `yaml:"frames"`
	Width   float64 `yaml:"width"`
	Height  float64 `yaml:"height"`
	Tint    string  `yaml:"tint"` // #rrggbb, used when the sheet is missing
	FlipX   bool    `yaml:"flip_x"`
	Visible *bool   `yaml:"visible"`
}

// AnimDef starts an animation on the sprite.
type AnimDef struct {
	Name string  `yaml:"name"`
	FPS  float64 `yaml:"fps"`
	Loop bool    `yaml:"loop"`
}

// BillboardDef turns the node toward the camera.
type BillboardDef struct {
	Mode          string  `yaml:"mode"` // face_camera (default) or y_only
	FacingAnim    string  `yaml:"facing_anim"`
	FlipThreshold float64 `yaml:"flip_threshold"`
	InvertFlip    bool    `yaml:"invert_flip"`
	DefaultFlip   bool    `yaml:"default_flip"`
}

// BoxDef is a box volume in the node's local space.
type BoxDef struct {
	Center  Vec  `yaml:"center"`
	Size    Vec  `yaml:"size"`
	Trigger bool `yaml:"trigger"`
}

// SortingDef overrides the configured sorting settings for one node. Its
// presence, even empty, makes the node's sprite take part in sorting.
type SortingDef struct {
	BaseOrder  *int     `yaml:"base_order"`
	MinOrder   *int     `yaml:"min_order"`
	MaxOrder   *int     `yaml:"max_order"`
	TieBreak   *float64 `yaml:"tie_break"`
	EveryFrame *bool    `yaml:"every_frame"`
	Interval   *float64 `yaml:"interval"`
	Debug      *bool    `yaml:"debug"`
}

// Apply returns base with the overrides set in d.
func (d *SortingDef) Apply(base sorting.Settings) sorting.Settings {
	s := base
	if d == nil {
		return s
	}
	if d.BaseOrder != nil {
		s.BaseOrder = *d.BaseOrder
	}
	if d.MinOrder != nil {
		s.MinOrder = *d.MinOrder
	}
	if d.MaxOrder != nil {
		s.MaxOrder = *d.MaxOrder
	}
	if d.TieBreak != nil {
		s.TieBreak = *d.TieBreak
	}
	if d.EveryFrame != nil {
		s.EveryFrame = *d.EveryFrame
	}
	if d.Interval != nil {
		s.Interval = *d.Interval
	}
	if d.Debug != nil {
		s.Debug = *d.Debug
	}
	return s
}

// InteractDef makes a node usable with the interact key. A pop given here
// replaces the stock one as a whole.
type InteractDef struct {
	Text    string            `yaml:"text"`
	TextBox string            `yaml:"text_box"` // shared by nodes that talk through the same box
	Enabled *bool             `yaml:"enabled"`
	Pop     *core.PopSettings `yaml:"pop"`
}

func (d *InteractDef) pop() core.PopSettings {
	if d.Pop == nil {
		return core.DefaultPopSettings()
	}
	return *d.Pop
}

func validPop(p core.PopSettings) bool {
	for _, f := range []float64{p.MaxStretchX, p.MaxStretchY, p.SmallShrinkX, p.SmallShrinkY} {
		if f <= 0 {
			return false
		}
	}
	return p.Squash >= 0 && p.Stretch >= 0 && p.Restore >= 0
}

// Node is one entity with its children.
type Node struct {
	Name      string        `yaml:"name"`
	Position  Vec           `yaml:"position"`
	Yaw       float64       `yaml:"yaw"` // degrees
	Active    *bool         `yaml:"active"`
	Sprite    *SpriteDef    `yaml:"sprite"`
	Anim      *AnimDef      `yaml:"anim"`
	Billboard *BillboardDef `yaml:"billboard"`
	Box       *BoxDef       `yaml:"box"`
	Sorting   *SortingDef   `yaml:"sorting"`
	Interact  *InteractDef  `yaml:"interact"`
	Children  []Node        `yaml:"children"`
}

// Scene is a parsed scene file.
type Scene struct {
	Name    string    `yaml:"name"`
	GroundY float64   `yaml:"ground_y"`
	Sky     [2]string `yaml:"sky"` // top and horizon colors
	Player  *Node     `yaml:"player"`
	Props   []Node    `yaml:"props"`
}

// Default returns the built-in scene.
func Default() (*Scene, error) {
	return Parse(defaultScene)
}

// Load reads a scene file; an empty path loads the built-in scene.
func Load(path string) (*Scene, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and checks a scene document.
func Parse(data []byte) (*Scene, error) {
	var s Scene
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("scene: decode: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks every node in the scene.
func (s *Scene) Validate() error {
	if s.Player == nil || s.Player.Name == "" {
		return ErrNoPlayer
	}
	if err := s.Player.validate(); err != nil {
		return err
	}
	for i := range s.Props {
		if err := s.Props[i].validate(); err != nil {
			return err
		}
	}
	return nil
}

func (n *Node) validate() error {
	if n.Sprite != nil {
		if n.Sprite.Width <= 0 || n.Sprite.Height <= 0 {
			return fmt.Errorf("%w: %s", ErrInvalidSprite, n.Name)
		}
		if _, err := parseTint(n.Sprite.Tint); err != nil {
			return fmt.Errorf("scene: %s: %w", n.Name, err)
		}
	}
	if n.Billboard != nil {
		if _, err := parseMode(n.Billboard.Mode); err != nil {
			return fmt.Errorf("%w: %s", err, n.Name)
		}
	}
	if n.Sorting != nil {
		if err := n.Sorting.Apply(sorting.DefaultSettings()).Validate(); err != nil {
			return fmt.Errorf("scene: %s: %w", n.Name, err)
		}
	}
	if n.Interact != nil && !validPop(n.Interact.pop()) {
		return fmt.Errorf("%w: %s", ErrInvalidPop, n.Name)
	}
	for i := range n.Children {
		if err := n.Children[i].validate(); err != nil {
			return err
		}
	}
	return nil
}

// SkyColors returns the background gradient, falling back to a night sky.
func (s *Scene) SkyColors() (top, horizon color.RGBA) {
	top, horizon = color.RGBA{14, 16, 38, 255}, color.RGBA{58, 52, 96, 255}
	if c, err := parseTint(s.Sky[0]); err == nil && s.Sky[0] != "" {
		top = c
	}
	if c, err := parseTint(s.Sky[1]); err == nil && s.Sky[1] != "" {
		horizon = c
	}
	return top, horizon
}

func parseTint(hex string) (color.RGBA, error) {
	if hex == "" {
		return color.RGBA{200, 200, 200, 255}, nil
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, err
	}
	r, g, b := c.RGB255()
	return color.RGBA{r, g, b, 255}, nil
}

func parseMode(m string) (core.BillboardMode, error) {
	switch m {
	case "", "face_camera":
		return core.BillboardFaceCamera, nil
	case "y_only":
		return core.BillboardYOnly, nil
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownMode, m)
}

// TrackFunc is called for every node that takes part in sorting.
type TrackFunc func(id core.EntityID, s sorting.Settings)

// Built lists the entities spawned for a scene.
type Built struct {
	Player  core.EntityID
	Tracked []core.EntityID
	ByName  map[string]core.EntityID
}

// Build spawns the scene into w. Sorting nodes are passed to track with
// their overrides applied to base, after the whole tree exists so anchor
// volumes on children are found.
func (s *Scene) Build(w *core.World, base sorting.Settings, track TrackFunc) (*Built, error) {
	b := &Built{ByName: make(map[string]core.EntityID)}
	type pending struct {
		id core.EntityID
		s  sorting.Settings
	}
	var sorts []pending
	var inactive []core.EntityID

	var spawn func(parent core.EntityID, n *Node) core.EntityID
	spawn = func(parent core.EntityID, n *Node) core.EntityID {
		id := w.SpawnChild(parent, n.Name)
		if _, dup := b.ByName[n.Name]; !dup {
			b.ByName[n.Name] = id
		}
		w.Attach(id, &core.Transform{
			Position: n.Position.Vec3(),
			Rotation: geom.Euler(0, geom.Deg(n.Yaw), 0),
		})
		if n.Sprite != nil {
			tint, _ := parseTint(n.Sprite.Tint)
			visible := n.Sprite.Visible == nil || *n.Sprite.Visible
			w.Attach(id, &core.Sprite{
				SheetID: n.Sprite.Sheet,
				Frames:  n.Sprite.Frames,
				Width:   n.Sprite.Width,
				Height:  n.Sprite.Height,
				Tint:    tint,
				FlipX:   n.Sprite.FlipX,
				Visible: visible,
			})
		}
		if n.Anim != nil {
			w.Attach(id, &core.AnimState{CurrentAnim: n.Anim.Name, Speed: n.Anim.FPS, Loop: n.Anim.Loop})
		}
		if n.Billboard != nil {
			mode, _ := parseMode(n.Billboard.Mode)
			w.Attach(id, &core.Billboard{
				Mode:          mode,
				FacingAnim:    n.Billboard.FacingAnim,
				FlipThreshold: n.Billboard.FlipThreshold,
				InvertFlip:    n.Billboard.InvertFlip,
				DefaultFlip:   n.Billboard.DefaultFlip,
			})
		}
		if n.Box != nil {
			w.Attach(id, &core.BoxCollider{Center: n.Box.Center.Vec3(), Size: n.Box.Size.Vec3(), IsTrigger: n.Box.Trigger})
		}
		for i := range n.Children {
			spawn(id, &n.Children[i])
		}
		if n.Interact != nil {
			enabled := n.Interact.Enabled == nil || *n.Interact.Enabled
			w.Attach(id, &core.Interactable{
				Enabled: enabled,
				Text:    n.Interact.Text,
				TextBox: n.Interact.TextBox,
				Visual:  visualOf(w, id),
				Pop:     core.PopAnim{Settings: n.Interact.pop()},
			})
		}
		if n.Sorting != nil {
			sorts = append(sorts, pending{id: id, s: n.Sorting.Apply(base)})
		}
		if n.Active != nil && !*n.Active {
			inactive = append(inactive, id)
		}
		return id
	}

	b.Player = spawn(0, s.Player)
	for i := range s.Props {
		spawn(0, &s.Props[i])
	}
	for _, p := range sorts {
		if err := p.s.Validate(); err != nil {
			return nil, fmt.Errorf("scene: %s: %w", w.Name(p.id), err)
		}
		if track != nil {
			track(p.id, p.s)
		}
		b.Tracked = append(b.Tracked, p.id)
	}
	for _, id := range inactive {
		w.SetActive(id, false)
	}
	return b, nil
}

// visualOf is the entity whose sprite shows id: its first direct child with
// a sprite, else id itself.
func visualOf(w *core.World, id core.EntityID) core.EntityID {
	for _, c := range w.Children(id) {
		if w.Has(c, core.CompSprite) {
			return c
		}
	}
	return id
}

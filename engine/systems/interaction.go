package systems

import (
	"log/slog"
	"math"

	"github.com/1siamBot/lullaby/engine/core"
	"github.com/1siamBot/lullaby/engine/geom"
	"github.com/1siamBot/lullaby/engine/input"
	"github.com/1siamBot/lullaby/engine/render3d"
)

// DefaultInteractRange is used while InteractionSettings.Range is unset.
const DefaultInteractRange = 2.0

// InteractionSettings are shared by the interact key handling and the
// on-screen tip, so both always agree on the range.
type InteractionSettings struct {
	Range     float64 `mapstructure:"range" yaml:"range"`           // 0 means DefaultInteractRange
	AutoHide  float64 `mapstructure:"auto_hide" yaml:"auto_hide"`   // seconds a shown text stays up
	LeaveHide float64 `mapstructure:"leave_hide" yaml:"leave_hide"` // seconds after leaving range
}

// DefaultInteractionSettings returns the stock timings.
func DefaultInteractionSettings() InteractionSettings {
	return InteractionSettings{AutoHide: 5, LeaveHide: 1.8}
}

// EffectiveRange is the range actually used.
func (s InteractionSettings) EffectiveRange() float64 {
	if s.Range > 0 {
		return s.Range
	}
	return DefaultInteractRange
}

// Tip is the hint shown to the player.
type Tip uint8

const (
	TipNone    Tip = iota
	TipInView      // an interactable is on screen
	TipInRange     // an interactable can be used now
)

// ShownText is a visible text box.
type ShownText struct {
	Box  string
	Text string
}

type shownEntry struct {
	id      core.EntityID
	box     string
	shownAt float64
	leftAt  float64
	left    bool
}

// InteractionSystem lets the player use nearby interactables, keeps their
// texts up for a while and plays their pop.
type InteractionSystem struct {
	Settings InteractionSettings
	Keys     input.Keys
	Player   core.EntityID
	Camera   *render3d.Camera3D // nil disables the in-view tip
	Log      *slog.Logger

	current core.EntityID
	tip     Tip
	shown   []*shownEntry
	texts   map[string]string
	boxes   []string // boxes in first-shown order
}

func (s *InteractionSystem) Priority() int { return 35 }

func (s *InteractionSystem) Update(w *core.World, dt float64) {
	if s.Log == nil {
		s.Log = slog.Default()
	}
	if s.texts == nil {
		s.texts = make(map[string]string)
	}
	if w.Alive(s.Player) && w.IsActive(s.Player) {
		now := w.Now()
		origin := w.WorldPosition(s.Player)
		near := s.inRange(w, origin)
		s.current = s.nearest(w, origin, near)
		s.cleanup(w, now, near)
		if s.Keys != nil && s.Keys.JustPressed(input.KeyF) {
			s.interact(w, now, near)
		}
		s.tip = s.resolveTip(w, near)
	} else {
		s.current, s.tip = 0, TipNone
	}
	s.stepPops(w, dt)
}

// Current returns the nearest usable interactable in range, or 0.
func (s *InteractionSystem) Current() core.EntityID { return s.current }

// Tip returns the hint for the current tick.
func (s *InteractionSystem) Tip() Tip { return s.tip }

// Texts returns the visible texts in the order their boxes first appeared.
func (s *InteractionSystem) Texts() []ShownText {
	var out []ShownText
	for _, b := range s.boxes {
		if t, ok := s.texts[b]; ok {
			out = append(out, ShownText{Box: b, Text: t})
		}
	}
	return out
}

// inRange lists active interactables whose box, or position when they have
// none, lies within range of origin, in spawn order.
func (s *InteractionSystem) inRange(w *core.World, origin geom.Vec3) []core.EntityID {
	r := s.Settings.EffectiveRange()
	var out []core.EntityID
	for _, id := range w.Query(core.CompInteractable) {
		if !w.IsActive(id) {
			continue
		}
		if closestPoint(w, id, origin).Sub(origin).LenSqr() <= r*r {
			out = append(out, id)
		}
	}
	return out
}

// closestPoint is the point of id's box nearest p. The box is taken
// axis-aligned in world space.
func closestPoint(w *core.World, id core.EntityID, p geom.Vec3) geom.Vec3 {
	box, ok := w.Get(id, core.CompBox).(*core.BoxCollider)
	if !ok {
		return w.WorldPosition(id)
	}
	c := w.TransformPoint(id, box.Center)
	h := box.Size.Scale(0.5)
	return geom.V3(
		math.Max(c.X-h.X, math.Min(p.X, c.X+h.X)),
		math.Max(c.Y-h.Y, math.Min(p.Y, c.Y+h.Y)),
		math.Max(c.Z-h.Z, math.Min(p.Z, c.Z+h.Z)),
	)
}

func usable(w *core.World, id core.EntityID) (*core.Interactable, bool) {
	it, ok := w.Get(id, core.CompInteractable).(*core.Interactable)
	return it, ok && it.Enabled
}

func (s *InteractionSystem) nearest(w *core.World, origin geom.Vec3, near []core.EntityID) core.EntityID {
	var best core.EntityID
	bestDist := math.Inf(1)
	for _, id := range near {
		if _, ok := usable(w, id); !ok {
			continue
		}
		if d := w.WorldPosition(id).Sub(origin).LenSqr(); d < bestDist {
			best, bestDist = id, d
		}
	}
	return best
}

// interact uses every usable interactable in range once.
func (s *InteractionSystem) interact(w *core.World, now float64, near []core.EntityID) {
	called := make(map[core.EntityID]bool, len(near))
	for _, id := range near {
		it, ok := usable(w, id)
		if !ok || called[id] {
			continue
		}
		called[id] = true
		if it.TextBox != "" {
			s.show(it.TextBox, it.Text)
		} else {
			s.Log.Info("interacted without a text box", "object", w.Name(id), "by", w.Name(s.Player))
		}
		if spr, ok := w.Get(it.Visual, core.CompSprite).(*core.Sprite); ok {
			it.Pop.Start(spr.Width, spr.Height)
		}
		s.record(id, it.TextBox, now)
		w.Bus.Emit(core.Event{Type: core.EvtInteracted, Tick: w.TickCount, Entity: id, Payload: s.Player})
	}
}

func (s *InteractionSystem) show(box, text string) {
	if !s.known(box) {
		s.boxes = append(s.boxes, box)
	}
	s.texts[box] = text
}

func (s *InteractionSystem) known(box string) bool {
	for _, b := range s.boxes {
		if b == box {
			return true
		}
	}
	return false
}

func (s *InteractionSystem) record(id core.EntityID, box string, now float64) {
	for _, e := range s.shown {
		if e.id == id {
			e.box, e.shownAt, e.left = box, now, false
			return
		}
	}
	s.shown = append(s.shown, &shownEntry{id: id, box: box, shownAt: now})
}

func (s *InteractionSystem) expired(e *shownEntry, now float64) bool {
	if now-e.shownAt >= s.Settings.AutoHide {
		return true
	}
	return e.left && now-e.leftAt >= s.Settings.LeaveHide
}

// cleanup drops shown entries that timed out or whose player walked away.
// A text box stays up while another live entry still uses it.
func (s *InteractionSystem) cleanup(w *core.World, now float64, near []core.EntityID) {
	if len(s.shown) == 0 {
		return
	}
	inRange := make(map[core.EntityID]bool, len(near))
	for _, id := range near {
		inRange[id] = true
	}
	for _, e := range s.shown {
		switch {
		case inRange[e.id]:
			e.left = false
		case !e.left:
			e.left, e.leftAt = true, now
		}
	}

	var kept []*shownEntry
	for _, e := range s.shown {
		if w.Alive(e.id) && !s.expired(e, now) {
			kept = append(kept, e)
			continue
		}
		if e.box == "" || s.boxStillUsed(w, e, now) {
			continue
		}
		if _, visible := s.texts[e.box]; visible {
			delete(s.texts, e.box)
			w.Bus.Emit(core.Event{Type: core.EvtTextHidden, Tick: w.TickCount, Entity: e.id, Payload: e.box})
		}
	}
	s.shown = kept
}

func (s *InteractionSystem) boxStillUsed(w *core.World, e *shownEntry, now float64) bool {
	for _, o := range s.shown {
		if o != e && o.box == e.box && w.Alive(o.id) && !s.expired(o, now) {
			return true
		}
	}
	return false
}

// resolveTip prefers the in-range hint over the in-view one.
func (s *InteractionSystem) resolveTip(w *core.World, near []core.EntityID) Tip {
	for _, id := range near {
		if _, ok := usable(w, id); ok {
			return TipInRange
		}
	}
	if s.Camera == nil || !s.Camera.Active() {
		return TipNone
	}
	for _, id := range w.Query(core.CompInteractable) {
		if _, ok := usable(w, id); !ok || !w.IsActive(id) {
			continue
		}
		x, y, _, ok := s.Camera.Project(w.WorldPosition(id))
		if ok && x >= 0 && y >= 0 && x <= float64(s.Camera.ScreenW) && y <= float64(s.Camera.ScreenH) {
			return TipInView
		}
	}
	return TipNone
}

func (s *InteractionSystem) stepPops(w *core.World, dt float64) {
	for _, id := range w.Query(core.CompInteractable) {
		it := w.Get(id, core.CompInteractable).(*core.Interactable)
		if !it.Pop.Running() {
			continue
		}
		width, height := it.Pop.Step(dt)
		if spr, ok := w.Get(it.Visual, core.CompSprite).(*core.Sprite); ok {
			spr.Width, spr.Height = width, height
		}
	}
}

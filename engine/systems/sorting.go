package systems

import (
	"log/slog"
	"time"

	"github.com/1siamBot/lullaby/engine/core"
	"github.com/1siamBot/lullaby/engine/geom"
	"github.com/1siamBot/lullaby/engine/sorting"
)

// SortingSystem connects scene entities to the draw-order resolver: it
// creates a sortable per tracked sprite, keeps registry membership in step
// with entity lifecycle, and lets each sortable request passes on its own
// cadence. Every order a pass rewrites is reported as EvtOrderChanged.
type SortingSystem struct {
	Resolver *sorting.Resolver
	Log      *slog.Logger

	w       *core.World
	objects map[core.EntityID]*sorting.Sortable
	owners  map[*sorting.Sortable]core.EntityID
	changes uint64
}

// NewSortingSystem creates the system and subscribes it to w's lifecycle events.
func NewSortingSystem(w *core.World, res *sorting.Resolver, log *slog.Logger) *SortingSystem {
	if log == nil {
		log = slog.Default()
	}
	s := &SortingSystem{
		Resolver: res,
		Log:      log,
		w:        w,
		objects:  make(map[core.EntityID]*sorting.Sortable),
		owners:   make(map[*sorting.Sortable]core.EntityID),
	}
	res.Observe(s)
	w.Bus.On(core.EvtActivated, s.onActivated)
	w.Bus.On(core.EvtDeactivated, s.onDeactivated)
	w.Bus.On(core.EvtDestroyed, s.onDestroyed)
	return s
}

func (s *SortingSystem) Priority() int { return 70 }

// Track makes id's sprite take part in draw-order sorting. The entity's
// occlusion anchor is bound here, once. An entity without a sprite is left
// out and reported.
func (s *SortingSystem) Track(w *core.World, id core.EntityID, settings sorting.Settings) *sorting.Sortable {
	if obj, ok := s.objects[id]; ok {
		return obj
	}
	spr, ok := w.Get(id, core.CompSprite).(*core.Sprite)
	if !ok {
		s.Log.Warn("sortable has no sprite, ignoring", "entity", w.Name(id))
		return nil
	}
	obj := sorting.New(w.Name(id), settings, spr, sorting.LocatorFunc(func() geom.Vec3 {
		return w.WorldPosition(id)
	}))
	obj.Init(EntityNode(w, id))
	s.objects[id] = obj
	s.owners[obj] = id
	if w.IsActive(id) {
		s.Resolver.Registry().Register(obj)
	} else {
		obj.SetEnabled(false)
	}
	return obj
}

// Object returns the sortable tracked for id.
func (s *SortingSystem) Object(id core.EntityID) (*sorting.Sortable, bool) {
	obj, ok := s.objects[id]
	return obj, ok
}

// Update lets every enabled sortable ask for a pass. Passes are global, so
// at most one runs per tick.
func (s *SortingSystem) Update(w *core.World, _ float64) {
	// apply lifecycle changes made by earlier systems this tick
	w.Bus.Dispatch()
	now := w.Now()
	for _, obj := range s.Resolver.Registry().Active() {
		if obj.Enabled() {
			s.Resolver.Request(obj, now)
		}
	}
}

func (s *SortingSystem) onActivated(e core.Event) {
	if obj, ok := s.objects[e.Entity]; ok {
		obj.SetEnabled(true)
		s.Resolver.Registry().Register(obj)
	}
}

func (s *SortingSystem) onDeactivated(e core.Event) {
	if obj, ok := s.objects[e.Entity]; ok {
		obj.SetEnabled(false)
		s.Resolver.Registry().Unregister(obj)
	}
}

func (s *SortingSystem) onDestroyed(e core.Event) {
	if obj, ok := s.objects[e.Entity]; ok {
		obj.SetEnabled(false)
		s.Resolver.Registry().Unregister(obj)
		delete(s.objects, e.Entity)
		delete(s.owners, obj)
	}
}

// ObservePass emits EvtOrderChanged, with the new order as payload, for
// every tracked entity whose order the pass rewrote.
func (s *SortingSystem) ObservePass(p sorting.Pass, _ time.Duration) {
	for _, e := range p.Ranking {
		if !e.Changed {
			continue
		}
		id, ok := s.owners[e.Obj]
		if !ok {
			continue
		}
		s.changes++
		s.w.Bus.Emit(core.Event{Type: core.EvtOrderChanged, Tick: s.w.TickCount, Entity: id, Payload: e.Order})
	}
}

// Changes returns how many order rewrites have been reported.
func (s *SortingSystem) Changes() uint64 { return s.changes }

// entityNode exposes an entity subtree's box colliders as sorting volumes.
type entityNode struct {
	w  *core.World
	id core.EntityID
}

// EntityNode adapts an entity to the sorting volume tree.
func EntityNode(w *core.World, id core.EntityID) sorting.Node {
	return entityNode{w: w, id: id}
}

func (n entityNode) Volumes() []sorting.Volume {
	box, ok := n.w.Get(n.id, core.CompBox).(*core.BoxCollider)
	if !ok {
		return nil
	}
	return []sorting.Volume{boxVolume{w: n.w, id: n.id, box: box}}
}

func (n entityNode) Children() []sorting.Node {
	ids := n.w.Children(n.id)
	out := make([]sorting.Node, len(ids))
	for i, c := range ids {
		out[i] = entityNode{w: n.w, id: c}
	}
	return out
}

// boxVolume is a trigger box acting as an occlusion anchor.
type boxVolume struct {
	w   *core.World
	id  core.EntityID
	box *core.BoxCollider
}

func (b boxVolume) IsAnchor() bool { return b.box.IsTrigger }

func (b boxVolume) WorldCenter() geom.Vec3 {
	return b.w.TransformPoint(b.id, b.box.Center)
}

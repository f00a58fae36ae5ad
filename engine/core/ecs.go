package core

import "github.com/1siamBot/lullaby/engine/geom"

// EntityID is a unique identifier for scene entities. Zero means "none".
type EntityID uint64

// Component is a marker interface for all components
type Component interface {
	Type() ComponentType
}

// ComponentType identifies the type of component
type ComponentType uint32

const (
	CompTransform ComponentType = iota
	CompSprite
	CompBox
	CompBody
	CompBillboard
	CompAnim
	CompPlayer
	CompInteractable
	CompMax
)

type entity struct {
	name     string
	comps    map[ComponentType]Component
	parent   EntityID
	children []EntityID
	active   bool // own flag; effective activity also needs every ancestor active
}

// World holds all entities, their hierarchy and components.
type World struct {
	entities  map[EntityID]*entity
	order     []EntityID // spawn order, keeps queries deterministic
	systems   []System
	toRemove  []EntityID
	nextID    EntityID
	Bus       *EventBus
	TickCount uint64
	TickRate  float64 // ticks per second
	Time      float64 // logical seconds, advanced by Tick
}

// System processes entities each tick
type System interface {
	Update(w *World, dt float64)
	Priority() int
}

// NewWorld creates a new ECS world
func NewWorld(tickRate float64) *World {
	return &World{
		entities: make(map[EntityID]*entity),
		Bus:      NewEventBus(),
		TickRate: tickRate,
	}
}

// Spawn creates a new active root entity and returns its ID
func (w *World) Spawn(name string) EntityID {
	return w.SpawnChild(0, name)
}

// SpawnChild creates a new active entity under parent (0 for a root).
func (w *World) SpawnChild(parent EntityID, name string) EntityID {
	w.nextID++
	id := w.nextID
	w.entities[id] = &entity{
		name:   name,
		comps:  make(map[ComponentType]Component),
		parent: parent,
		active: true,
	}
	if p, ok := w.entities[parent]; ok {
		p.children = append(p.children, id)
	} else {
		w.entities[id].parent = 0
	}
	w.order = append(w.order, id)
	if w.IsActive(id) {
		w.Bus.Emit(Event{Type: EvtActivated, Tick: w.TickCount, Entity: id})
	}
	return id
}

// Alive reports whether id exists and has not been removed.
func (w *World) Alive(id EntityID) bool {
	_, ok := w.entities[id]
	return ok
}

// Name returns the entity's name
func (w *World) Name(id EntityID) string {
	if e, ok := w.entities[id]; ok {
		return e.name
	}
	return ""
}

// Find returns the first entity with the given name in spawn order.
func (w *World) Find(name string) (EntityID, bool) {
	for _, id := range w.order {
		if e, ok := w.entities[id]; ok && e.name == name {
			return id, true
		}
	}
	return 0, false
}

// Parent returns the parent of id, or 0 for roots.
func (w *World) Parent(id EntityID) EntityID {
	if e, ok := w.entities[id]; ok {
		return e.parent
	}
	return 0
}

// Children returns the direct children of id in spawn order.
func (w *World) Children(id EntityID) []EntityID {
	if e, ok := w.entities[id]; ok {
		out := make([]EntityID, len(e.children))
		copy(out, e.children)
		return out
	}
	return nil
}

// Attach adds a component to an entity
func (w *World) Attach(id EntityID, c Component) {
	if e, ok := w.entities[id]; ok {
		e.comps[c.Type()] = c
	}
}

// Detach removes a component from an entity
func (w *World) Detach(id EntityID, ct ComponentType) {
	if e, ok := w.entities[id]; ok {
		delete(e.comps, ct)
	}
}

// Get returns a component for an entity, or nil
func (w *World) Get(id EntityID, ct ComponentType) Component {
	if e, ok := w.entities[id]; ok {
		return e.comps[ct]
	}
	return nil
}

// Has checks if an entity has a component
func (w *World) Has(id EntityID, ct ComponentType) bool {
	if e, ok := w.entities[id]; ok {
		_, exists := e.comps[ct]
		return exists
	}
	return false
}

// IsActive reports whether the entity and all its ancestors are active.
func (w *World) IsActive(id EntityID) bool {
	for id != 0 {
		e, ok := w.entities[id]
		if !ok || !e.active {
			return false
		}
		id = e.parent
	}
	return true
}

// SetActive toggles an entity's own active flag. Activation events are
// emitted for every entity in the subtree whose effective state changes.
func (w *World) SetActive(id EntityID, active bool) {
	e, ok := w.entities[id]
	if !ok || e.active == active {
		return
	}
	if !active {
		for _, cid := range w.activeSubtree(id) {
			w.Bus.Emit(Event{Type: EvtDeactivated, Tick: w.TickCount, Entity: cid})
		}
		e.active = false
		return
	}
	e.active = true
	for _, cid := range w.activeSubtree(id) {
		w.Bus.Emit(Event{Type: EvtActivated, Tick: w.TickCount, Entity: cid})
	}
}

// activeSubtree lists id and its descendants that are currently effectively active.
func (w *World) activeSubtree(id EntityID) []EntityID {
	var out []EntityID
	var walk func(EntityID)
	walk = func(cur EntityID) {
		if !w.IsActive(cur) {
			return
		}
		out = append(out, cur)
		for _, c := range w.entities[cur].children {
			walk(c)
		}
	}
	walk(id)
	return out
}

// Destroy deactivates the entity with its subtree and marks them for removal
// at the end of the tick.
func (w *World) Destroy(id EntityID) {
	if _, ok := w.entities[id]; !ok {
		return
	}
	w.SetActive(id, false)
	var walk func(EntityID)
	walk = func(cur EntityID) {
		w.toRemove = append(w.toRemove, cur)
		for _, c := range w.entities[cur].children {
			walk(c)
		}
	}
	walk(id)
}

// Query returns all entity IDs that have ALL specified component types, in spawn order.
func (w *World) Query(types ...ComponentType) []EntityID {
	var result []EntityID
	for _, id := range w.order {
		e, ok := w.entities[id]
		if !ok {
			continue
		}
		match := true
		for _, t := range types {
			if _, ok := e.comps[t]; !ok {
				match = false
				break
			}
		}
		if match {
			result = append(result, id)
		}
	}
	return result
}

// WorldPosition composes the transform chain of id into a world position.
func (w *World) WorldPosition(id EntityID) geom.Vec3 {
	return w.TransformPoint(id, geom.Zero)
}

// WorldRotation composes the rotation chain of id.
func (w *World) WorldRotation(id EntityID) geom.Quat {
	rot := geom.Identity
	for id != 0 {
		if t, ok := w.Get(id, CompTransform).(*Transform); ok {
			rot = t.Rotation.Mul(rot)
		}
		id = w.Parent(id)
	}
	return rot
}

// TransformPoint maps a point in id's local space to world space.
func (w *World) TransformPoint(id EntityID, local geom.Vec3) geom.Vec3 {
	p := local
	for id != 0 {
		if t, ok := w.Get(id, CompTransform).(*Transform); ok {
			p = t.Rotation.Rotate(p).Add(t.Position)
		}
		id = w.Parent(id)
	}
	return p
}

// AddSystem registers a system
func (w *World) AddSystem(s System) {
	w.systems = append(w.systems, s)
	// Sort by priority (simple insertion)
	for i := len(w.systems) - 1; i > 0; i-- {
		if w.systems[i].Priority() < w.systems[i-1].Priority() {
			w.systems[i], w.systems[i-1] = w.systems[i-1], w.systems[i]
		}
	}
}

// Tick runs all systems once. Lifecycle events queued since the previous
// tick are dispatched before any system runs, and removals are dispatched
// before Tick returns, so no system sees a stale membership.
func (w *World) Tick(dt float64) {
	w.Bus.Dispatch()
	for _, s := range w.systems {
		s.Update(w, dt)
	}
	w.Flush()
	w.TickCount++
	w.Time += dt
}

// Flush removes destroyed entities and dispatches pending events.
func (w *World) Flush() {
	w.Bus.Dispatch()
	if len(w.toRemove) == 0 {
		return
	}
	for _, id := range w.toRemove {
		e, ok := w.entities[id]
		if !ok {
			continue
		}
		if p, ok := w.entities[e.parent]; ok {
			for i, c := range p.children {
				if c == id {
					p.children = append(p.children[:i], p.children[i+1:]...)
					break
				}
			}
		}
		delete(w.entities, id)
		w.Bus.Emit(Event{Type: EvtDestroyed, Tick: w.TickCount, Entity: id})
	}
	w.toRemove = w.toRemove[:0]
	kept := w.order[:0]
	for _, id := range w.order {
		if _, ok := w.entities[id]; ok {
			kept = append(kept, id)
		}
	}
	w.order = kept
	w.Bus.Dispatch()
}

// Now returns the logical time in seconds.
func (w *World) Now() float64 { return w.Time }

// EntityCount returns the number of alive entities
func (w *World) EntityCount() int {
	return len(w.entities)
}

package sorting

// Registry is the set of active sortable objects. Iteration follows
// registration order, which makes equal-key ties resolve the same way on
// every pass.
type Registry struct {
	items []*Sortable
	index map[*Sortable]int
}

func NewRegistry() *Registry {
	return &Registry{index: make(map[*Sortable]int)}
}

// Register adds obj; registering twice is a no-op.
func (r *Registry) Register(obj *Sortable) {
	if obj == nil {
		return
	}
	if _, ok := r.index[obj]; ok {
		return
	}
	r.index[obj] = len(r.items)
	r.items = append(r.items, obj)
}

// Unregister removes obj; removing an absent object is a no-op.
func (r *Registry) Unregister(obj *Sortable) {
	i, ok := r.index[obj]
	if !ok {
		return
	}
	copy(r.items[i:], r.items[i+1:])
	r.items[len(r.items)-1] = nil
	r.items = r.items[:len(r.items)-1]
	delete(r.index, obj)
	for j := i; j < len(r.items); j++ {
		r.index[r.items[j]] = j
	}
}

// Contains reports membership.
func (r *Registry) Contains(obj *Sortable) bool {
	_, ok := r.index[obj]
	return ok
}

// Active returns a copy of the members in registration order. Callers may
// keep it across registration changes.
func (r *Registry) Active() []*Sortable {
	out := make([]*Sortable, len(r.items))
	copy(out, r.items)
	return out
}

func (r *Registry) Len() int { return len(r.items) }

// Reset drops every member.
func (r *Registry) Reset() {
	for i := range r.items {
		r.items[i] = nil
	}
	r.items = r.items[:0]
	clear(r.index)
}

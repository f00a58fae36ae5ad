package core

import (
	"testing"

	"github.com/1siamBot/lullaby/engine/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	events []Event
}

func (r *recorder) listen(bus *EventBus, types ...EventType) {
	for _, t := range types {
		bus.On(t, func(e Event) { r.events = append(r.events, e) })
	}
}

func (r *recorder) of(t EventType) []EntityID {
	var ids []EntityID
	for _, e := range r.events {
		if e.Type == t {
			ids = append(ids, e.Entity)
		}
	}
	return ids
}

func TestHierarchy(t *testing.T) {
	w := NewWorld(50)
	root := w.Spawn("root")
	a := w.SpawnChild(root, "a")
	b := w.SpawnChild(root, "b")
	orphan := w.SpawnChild(999, "orphan")

	assert.Equal(t, []EntityID{a, b}, w.Children(root))
	assert.Equal(t, root, w.Parent(a))
	assert.Zero(t, w.Parent(orphan))
	id, ok := w.Find("b")
	require.True(t, ok)
	assert.Equal(t, b, id)
	_, ok = w.Find("nope")
	assert.False(t, ok)
}

func TestSetActiveCascades(t *testing.T) {
	w := NewWorld(50)
	rec := &recorder{}
	rec.listen(w.Bus, EvtActivated, EvtDeactivated)
	root := w.Spawn("root")
	child := w.SpawnChild(root, "child")
	off := w.SpawnChild(root, "off")
	w.Bus.Dispatch()
	assert.Equal(t, []EntityID{root, child, off}, rec.of(EvtActivated))

	w.SetActive(off, false)
	w.SetActive(root, false)
	w.Bus.Dispatch()
	assert.Equal(t, []EntityID{off, root, child}, rec.of(EvtDeactivated))
	assert.False(t, w.IsActive(child))

	rec.events = nil
	w.SetActive(root, true)
	w.SetActive(root, true)
	w.Bus.Dispatch()
	// off keeps its own flag
	assert.Equal(t, []EntityID{root, child}, rec.of(EvtActivated))
	assert.False(t, w.IsActive(off))
}

func TestDestroyRemovesSubtreeAtFlush(t *testing.T) {
	w := NewWorld(50)
	rec := &recorder{}
	rec.listen(w.Bus, EvtDeactivated, EvtDestroyed)
	keep := w.Spawn("keep")
	root := w.Spawn("root")
	child := w.SpawnChild(root, "child")

	w.Destroy(root)
	assert.True(t, w.Alive(child), "removal waits for the end of the tick")
	w.Tick(0.02)

	assert.False(t, w.Alive(root))
	assert.False(t, w.Alive(child))
	assert.True(t, w.Alive(keep))
	assert.Equal(t, 1, w.EntityCount())
	assert.Equal(t, []EntityID{root, child}, rec.of(EvtDeactivated))
	assert.Equal(t, []EntityID{root, child}, rec.of(EvtDestroyed))
	assert.Zero(t, w.Bus.Pending())
	assert.Equal(t, []EntityID{keep}, w.Query())
}

func TestTransformChain(t *testing.T) {
	w := NewWorld(50)
	root := w.Spawn("root")
	w.Attach(root, &Transform{Position: geom.V3(1, 0, 1), Rotation: geom.Euler(0, geom.Deg(90), 0)})
	child := w.SpawnChild(root, "child")
	w.Attach(child, NewTransform(geom.V3(0, 2, 1)))

	p := w.WorldPosition(child)
	assert.InDelta(t, 2, p.X, 1e-9)
	assert.InDelta(t, 2, p.Y, 1e-9)
	assert.InDelta(t, 1, p.Z, 1e-9)

	q := w.TransformPoint(child, geom.V3(0, 0, 1))
	assert.InDelta(t, 3, q.X, 1e-9)

	fwd := w.WorldRotation(child).Forward()
	assert.InDelta(t, 1, fwd.X, 1e-9)
}

func TestQueryInSpawnOrder(t *testing.T) {
	w := NewWorld(50)
	var ids []EntityID
	for i := 0; i < 5; i++ {
		id := w.Spawn("e")
		w.Attach(id, NewTransform(geom.Zero))
		if i%2 == 0 {
			w.Attach(id, &Body{})
		}
		ids = append(ids, id)
	}
	assert.Equal(t, []EntityID{ids[0], ids[2], ids[4]}, w.Query(CompTransform, CompBody))
	w.Detach(ids[2], CompBody)
	assert.False(t, w.Has(ids[2], CompBody))
	assert.Len(t, w.Query(CompBody), 2)
}

type tickCounter struct {
	prio  int
	seen  *[]int
	times []float64
}

func (c *tickCounter) Priority() int { return c.prio }
func (c *tickCounter) Update(w *World, _ float64) {
	*c.seen = append(*c.seen, c.prio)
	c.times = append(c.times, w.Now())
}

func TestSystemsRunByPriority(t *testing.T) {
	w := NewWorld(50)
	var seen []int
	w.AddSystem(&tickCounter{prio: 30, seen: &seen})
	w.AddSystem(&tickCounter{prio: 10, seen: &seen})
	w.AddSystem(&tickCounter{prio: 20, seen: &seen})
	w.Tick(0.02)
	assert.Equal(t, []int{10, 20, 30}, seen)
	assert.Equal(t, uint64(1), w.TickCount)
	assert.InDelta(t, 0.02, w.Now(), 1e-12)
}

func TestGameLoopAdvancesWholeTicks(t *testing.T) {
	w := NewWorld(50)
	var seen []int
	sys := &tickCounter{prio: 1, seen: &seen}
	w.AddSystem(sys)
	gl := NewGameLoop(w)

	assert.Zero(t, gl.Advance(0.1), "paused until Play")
	gl.Play()
	assert.Equal(t, 2, gl.Advance(0.05))
	assert.Equal(t, 0, gl.Advance(0.005))
	assert.Equal(t, 1, gl.Advance(0.016))
	assert.Equal(t, uint64(3), gl.CurrentTick())
	assert.InDelta(t, 0.04, sys.times[2], 1e-9)

	gl.Pause()
	assert.Zero(t, gl.Advance(1))
}

func TestGameLoopDropsTimeWhilePaused(t *testing.T) {
	w := NewWorld(50)
	gl := NewGameLoop(w)

	gl.Play()
	assert.Zero(t, gl.Advance(0.019))
	gl.Pause()
	for i := 0; i < 10; i++ {
		assert.Zero(t, gl.Advance(0.033))
	}
	gl.Play()
	assert.Zero(t, gl.Advance(0.019), "time from before the pause is gone")
	assert.Equal(t, 1, gl.Advance(0.002))
	assert.Equal(t, uint64(1), gl.CurrentTick())
}

func TestAnimPlayRestarts(t *testing.T) {
	a := &AnimState{CurrentAnim: "idle", Frame: 3, Timer: 0.4, Finished: true}
	a.Play("idle")
	assert.Equal(t, 3, a.Frame)
	a.Play("walk")
	assert.Equal(t, "walk", a.CurrentAnim)
	assert.Zero(t, a.Frame)
	assert.False(t, a.Finished)
}

func TestPopPhases(t *testing.T) {
	p := &PopAnim{Settings: PopSettings{
		MaxStretchX: 2, MaxStretchY: 1.5, SmallShrinkX: 0.5, SmallShrinkY: 0.5,
		Squash: 0, Stretch: 0.1, Restore: 0.1,
	}}
	assert.False(t, p.Running())
	p.Start(1, 2)

	// a zero-length squash lands on its target at once
	w, h := p.Step(0.05)
	assert.InDelta(t, 2, w, 1e-9)
	assert.InDelta(t, 1, h, 1e-9)
	assert.Equal(t, PopStretch, p.Phase)

	w, h = p.Step(0.05)
	assert.InDelta(t, 1.25, w, 1e-9)
	assert.InDelta(t, 2, h, 1e-9)

	// restarting mid-pop keeps the first rest size
	p.Start(w, h)
	assert.Equal(t, PopSquash, p.Phase)
	for p.Running() {
		w, h = p.Step(0.05)
	}
	assert.Equal(t, 1.0, w)
	assert.Equal(t, 2.0, h)
	assert.Equal(t, PopIdle, p.Phase)
}

func TestDefaultPopSettings(t *testing.T) {
	s := DefaultPopSettings()
	assert.Greater(t, s.MaxStretchX, 1.0)
	assert.Greater(t, s.MaxStretchY, 1.0)
	assert.Less(t, s.SmallShrinkX, 1.0)
	assert.Less(t, s.SmallShrinkY, 1.0)
	assert.InDelta(t, 0.32, s.Squash+s.Stretch+s.Restore, 1e-9)
}

package sorting

import "github.com/1siamBot/lullaby/engine/geom"

type fakeTarget struct {
	order  int
	writes int
	onSet  func(int)
}

func (t *fakeTarget) SortOrder() int { return t.order }
func (t *fakeTarget) SetSortOrder(o int) {
	t.order = o
	t.writes++
	if t.onSet != nil {
		t.onSet(o)
	}
}

type fakeCamera struct {
	pos geom.Vec3
	ok  bool
}

func (c *fakeCamera) ActivePosition() (geom.Vec3, bool) { return c.pos, c.ok }

func at(x, y, z float64) Locator {
	return LocatorFunc(func() geom.Vec3 { return geom.V3(x, y, z) })
}

type box struct {
	center  geom.Vec3
	trigger bool
}

func (b *box) IsAnchor() bool         { return b.trigger }
func (b *box) WorldCenter() geom.Vec3 { return b.center }

type node struct {
	vols     []Volume
	children []Node
}

func (n *node) Volumes() []Volume { return n.vols }
func (n *node) Children() []Node  { return n.children }

func settings(base, lo, hi int, tie float64) Settings {
	s := DefaultSettings()
	s.BaseOrder, s.MinOrder, s.MaxOrder, s.TieBreak = base, lo, hi, tie
	return s
}

package render3d

import (
	"github.com/1siamBot/lullaby/engine/core"
	"github.com/1siamBot/lullaby/engine/geom"
)

// BillboardRotation returns the local rotation that turns a quad at pos to
// face camPos, with the parent's world rotation factored out. ok is false
// when the camera sits on top of the quad and the rotation should be left
// as it is.
func BillboardRotation(mode core.BillboardMode, pos, camPos geom.Vec3, parentRot geom.Quat) (geom.Quat, bool) {
	dir := camPos.Sub(pos)
	if mode == core.BillboardYOnly {
		dir = dir.Flat()
	}
	if dir.LenSqr() < 1e-8 {
		return geom.Quat{}, false
	}
	world := geom.LookRotation(dir.Normalize(), geom.Up)
	return parentRot.Inverse().Mul(world), true
}

// ResolveFlip decides the horizontal flip of a billboard sprite. While the
// facing animation plays, motion along the camera's right axis beyond the
// threshold picks the side; otherwise the current flip is kept. Outside
// the facing animation the default flip applies.
func ResolveFlip(b *core.Billboard, current, facing bool, velocity, camRight geom.Vec3) bool {
	if !facing {
		return b.DefaultFlip
	}
	right := camRight.Flat().Normalize()
	along := velocity.Flat().Dot(right)
	switch {
	case along > b.FlipThreshold:
		return b.InvertFlip
	case along < -b.FlipThreshold:
		return !b.InvertFlip
	}
	return current
}

package systems

import (
	"github.com/1siamBot/lullaby/engine/core"
	"github.com/1siamBot/lullaby/engine/geom"
	"github.com/1siamBot/lullaby/engine/render3d"
)

// BillboardSystem turns billboard quads toward the camera and updates the
// sprite flip from the owner's motion. Parent transforms are never touched.
type BillboardSystem struct {
	Camera *render3d.Camera3D
}

func (s *BillboardSystem) Priority() int { return 40 }

func (s *BillboardSystem) Update(w *core.World, _ float64) {
	camPos, ok := s.Camera.ActivePosition()
	if !ok {
		return
	}
	for _, id := range w.Query(core.CompBillboard, core.CompTransform) {
		if !w.IsActive(id) {
			continue
		}
		bb := w.Get(id, core.CompBillboard).(*core.Billboard)
		tr := w.Get(id, core.CompTransform).(*core.Transform)

		parentRot := geom.Identity
		if parent := w.Parent(id); parent != 0 {
			parentRot = w.WorldRotation(parent)
		}
		if rot, ok := render3d.BillboardRotation(bb.Mode, w.WorldPosition(id), camPos, parentRot); ok {
			tr.Rotation = rot
		}

		spr, ok := w.Get(id, core.CompSprite).(*core.Sprite)
		if !ok {
			continue
		}
		facing := false
		if anim, ok := w.Get(id, core.CompAnim).(*core.AnimState); ok && bb.FacingAnim != "" {
			facing = anim.CurrentAnim == bb.FacingAnim
		}
		spr.FlipX = render3d.ResolveFlip(bb, spr.FlipX, facing, s.velocity(w, id, bb), s.Camera.Right())
	}
}

func (s *BillboardSystem) velocity(w *core.World, id core.EntityID, bb *core.Billboard) geom.Vec3 {
	src := bb.Source
	if src == 0 {
		src = w.Parent(id)
	}
	if body, ok := w.Get(src, core.CompBody).(*core.Body); ok {
		return body.Velocity
	}
	if body, ok := w.Get(id, core.CompBody).(*core.Body); ok {
		return body.Velocity
	}
	return geom.Zero
}

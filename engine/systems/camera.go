package systems

import (
	"github.com/1siamBot/lullaby/engine/core"
	"github.com/1siamBot/lullaby/engine/render3d"
)

// CameraSystem keeps the camera trailing the target entity.
type CameraSystem struct {
	Camera *render3d.Camera3D
	Target core.EntityID
}

func (s *CameraSystem) Priority() int { return 30 }

func (s *CameraSystem) Update(w *core.World, dt float64) {
	if !w.Alive(s.Target) || !w.IsActive(s.Target) {
		return
	}
	crouching := false
	if p, ok := w.Get(s.Target, core.CompPlayer).(*PlayerController); ok {
		crouching = p.Crouching
	}
	s.Camera.Follow(w.WorldPosition(s.Target), crouching, dt)
}

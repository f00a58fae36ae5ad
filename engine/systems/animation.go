package systems

import (
	"github.com/1siamBot/lullaby/engine/core"
)

// AnimationSystem updates sprite animation frames
type AnimationSystem struct{}

func (s *AnimationSystem) Priority() int { return 50 }

func (s *AnimationSystem) Update(w *core.World, dt float64) {
	ids := w.Query(core.CompAnim, core.CompSprite)
	for _, id := range ids {
		anim := w.Get(id, core.CompAnim).(*core.AnimState)
		sprite := w.Get(id, core.CompSprite).(*core.Sprite)

		if anim.Finished || anim.Speed <= 0 || !w.IsActive(id) {
			continue
		}

		anim.Timer += dt
		frameDur := 1.0 / anim.Speed
		for anim.Timer >= frameDur {
			anim.Timer -= frameDur
			anim.Frame++

			maxFrames := sprite.Frames
			if maxFrames <= 0 {
				maxFrames = 1
			}
			if anim.Frame >= maxFrames {
				if anim.Loop {
					anim.Frame = 0
				} else {
					anim.Finished = true
					anim.Frame = maxFrames - 1
				}
			}
			if anim.Finished {
				break
			}
		}
		sprite.Frame = anim.Frame
	}
}

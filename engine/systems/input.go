package systems

import (
	"github.com/1siamBot/lullaby/engine/core"
	"github.com/1siamBot/lullaby/engine/input"
)

// InputSystem samples the keyboard once per tick, before gameplay runs, so
// edge detection sees every tick exactly once.
type InputSystem struct {
	State *input.InputState
	Poll  input.PollFunc
}

func (s *InputSystem) Priority() int { return 0 }

func (s *InputSystem) Update(_ *core.World, _ float64) {
	s.State.Update(s.Poll)
}

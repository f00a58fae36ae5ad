package systems

import (
	"testing"

	"github.com/1siamBot/lullaby/engine/core"
	"github.com/1siamBot/lullaby/engine/input"
	"github.com/stretchr/testify/assert"
)

func TestInputSystemPollsEachTick(t *testing.T) {
	w := core.NewWorld(50)
	st := input.NewInputState()
	down := true
	w.AddSystem(&InputSystem{State: st, Poll: func(k input.Key) bool { return down && k == input.KeySpace }})

	w.Tick(0.02)
	assert.True(t, st.JustPressed(input.KeySpace))
	w.Tick(0.02)
	assert.False(t, st.JustPressed(input.KeySpace))
	assert.True(t, st.Held(input.KeySpace))
	down = false
	w.Tick(0.02)
	assert.True(t, st.JustReleased(input.KeySpace))
}

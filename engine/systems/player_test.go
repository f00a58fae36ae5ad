package systems

import (
	"testing"

	"github.com/1siamBot/lullaby/engine/core"
	"github.com/1siamBot/lullaby/engine/geom"
	"github.com/1siamBot/lullaby/engine/input"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tick = 1.0 / 50

type rig struct {
	w      *core.World
	keys   *input.InputState
	player core.EntityID
	ctrl   *PlayerController
	body   *core.Body
	tr     *core.Transform
	jumps  int
}

func newRig(t *testing.T) *rig {
	t.Helper()
	r := &rig{w: core.NewWorld(50), keys: input.NewInputState()}
	r.player = r.w.Spawn("player")
	r.tr = core.NewTransform(geom.Zero)
	r.body = &core.Body{Gravity: 9.81}
	r.ctrl = NewPlayerController(DefaultPlayerSettings())
	r.w.Attach(r.player, r.tr)
	r.w.Attach(r.player, r.body)
	r.w.Attach(r.player, r.ctrl)

	ps := &PlayerSystem{Keys: r.keys}
	r.w.AddSystem(ps)
	r.w.AddSystem(&PhysicsSystem{Tolerance: 0.01, Listener: ps})
	r.w.Bus.On(core.EvtJumped, func(core.Event) { r.jumps++ })
	return r
}

// step presses exactly the given keys for one tick.
func (r *rig) step(keys ...input.Key) {
	down := map[input.Key]bool{}
	for _, k := range keys {
		down[k] = true
	}
	r.keys.Update(func(k input.Key) bool { return down[k] })
	r.w.Tick(tick)
}

func (r *rig) settle() {
	for i := 0; i < 200 && (r.body.GroundContacts == 0 || r.tr.Position.Y > 0); i++ {
		r.step()
	}
}

func TestDiagonalCombosMoveAlongWorldAxes(t *testing.T) {
	cases := []struct {
		keys []input.Key
		want geom.Vec3
	}{
		{[]input.Key{input.KeyW, input.KeyA}, geom.V3(-5, 0, 0)},
		{[]input.Key{input.KeyS, input.KeyD}, geom.V3(5, 0, 0)},
		{[]input.Key{input.KeyW, input.KeyD}, geom.V3(0, 0, 5)},
		{[]input.Key{input.KeyA, input.KeyS}, geom.V3(0, 0, -5)},
	}
	for _, tc := range cases {
		r := newRig(t)
		r.settle()
		r.step(tc.keys...)
		assert.InDelta(t, tc.want.X, r.body.Velocity.X, 1e-9)
		assert.InDelta(t, tc.want.Z, r.body.Velocity.Z, 1e-9)
	}
}

func TestSpeedFactors(t *testing.T) {
	r := newRig(t)
	r.settle()
	r.step(input.KeyW, input.KeyA, input.KeyQ)
	assert.InDelta(t, -7.5, r.body.Velocity.X, 1e-9)
	assert.True(t, r.ctrl.Running)

	r.step(input.KeyW, input.KeyA, input.KeyQ, input.KeyShift)
	assert.InDelta(t, -3, r.body.Velocity.X, 1e-9)
	assert.True(t, r.ctrl.Crouching)
}

func TestThreeKeysFallBackToAxes(t *testing.T) {
	r := newRig(t)
	r.settle()
	// no camera: forward is +Z, right is +X
	r.step(input.KeyW, input.KeyA, input.KeyD)
	assert.InDelta(t, 0, r.body.Velocity.X, 1e-9)
	assert.InDelta(t, 5, r.body.Velocity.Z, 1e-9)

	r.step(input.KeyW)
	assert.InDelta(t, 5, r.body.Velocity.Z, 1e-9)
	r.step()
	assert.InDelta(t, 0, r.body.Velocity.Len(), 1e-9)
}

func TestGroundedPressJumpsImmediately(t *testing.T) {
	r := newRig(t)
	r.settle()
	require.Equal(t, 1, r.body.GroundContacts)

	r.step(input.KeySpace)
	assert.Equal(t, 1, r.jumps)
	assert.Greater(t, r.tr.Position.Y, 0.0)
	assert.Equal(t, 0, r.body.GroundContacts)
}

func TestAirPressIsBufferedAndFiresOnLanding(t *testing.T) {
	r := newRig(t)
	r.settle()
	r.step(input.KeySpace)
	require.Equal(t, 1, r.jumps)

	// ride up and come down until just before landing
	for r.body.Velocity.Y > -4.0 {
		r.step()
	}
	r.step(input.KeySpace)
	st := r.ctrl.Status(r.body, r.w.Now())
	assert.True(t, st.ShortBuffered)
	assert.Equal(t, 1, st.Waitlist)

	for i := 0; i < 7 && r.jumps == 1; i++ {
		r.step()
	}
	assert.Equal(t, 2, r.jumps, "buffered press should fire on landing")
	assert.Zero(t, r.ctrl.Status(r.body, r.w.Now()).Waitlist)
}

func TestExpiredBufferedPressIsDropped(t *testing.T) {
	r := newRig(t)
	r.settle()
	r.step(input.KeySpace)
	r.step()
	// press right at the top of the arc: far more than 0.15s before landing
	r.step(input.KeySpace)
	assert.True(t, r.ctrl.Status(r.body, r.w.Now()).ShortBuffered)
	r.settle()
	assert.Equal(t, 1, r.jumps)
	assert.Zero(t, r.ctrl.Status(r.body, r.w.Now()).Waitlist)
}

func TestOnlyOneShortRequest(t *testing.T) {
	r := newRig(t)
	r.settle()
	r.step(input.KeySpace)
	r.step()
	r.step(input.KeySpace)
	r.step()
	r.step(input.KeySpace)
	assert.Equal(t, 1, r.ctrl.Status(r.body, r.w.Now()).Waitlist)
}

func TestLongPressRepeatsUntilRelease(t *testing.T) {
	r := newRig(t)
	r.settle()
	for i := 0; i < 150; i++ {
		r.step(input.KeySpace)
	}
	assert.GreaterOrEqual(t, r.jumps, 2, "holding keeps bouncing")
	assert.True(t, r.ctrl.Status(r.body, r.w.Now()).LongBuffered)

	r.step()
	st := r.ctrl.Status(r.body, r.w.Now())
	assert.False(t, st.LongBuffered)
	assert.Zero(t, st.HoldTime)
	before := r.jumps
	r.settle()
	r.step()
	r.step()
	assert.Equal(t, before, r.jumps)
}

func TestMinJumpSpacing(t *testing.T) {
	r := newRig(t)
	r.settle()
	p := r.ctrl
	ps := &PlayerSystem{Keys: r.keys}
	ps.doJump(r.w, r.player, p, r.body, 1.0)
	ps.doJump(r.w, r.player, p, r.body, 1.05)
	r.w.Bus.Dispatch()
	assert.Equal(t, 1, r.jumps)
	ps.doJump(r.w, r.player, p, r.body, 1.09)
	r.w.Bus.Dispatch()
	assert.Equal(t, 2, r.jumps)
}

func TestHorizontalBlend(t *testing.T) {
	b := &horizontalBlend{start: geom.V3(0, 0, 0), end: geom.V3(4, 0, 0), duration: 0.2}
	v, done := b.step(0.1)
	assert.False(t, done)
	assert.InDelta(t, 2, v.X, 1e-9)
	v, done = b.step(0.1)
	assert.True(t, done)
	assert.Equal(t, 4.0, v.X)
}

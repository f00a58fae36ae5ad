package systems

import (
	"testing"

	"github.com/1siamBot/lullaby/engine/core"
	"github.com/1siamBot/lullaby/engine/geom"
	"github.com/1siamBot/lullaby/engine/render3d"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBillboardSystemFacesCameraAndFlips(t *testing.T) {
	w := core.NewWorld(50)
	s := render3d.DefaultCameraSettings()
	s.SwayAmplitude = 0
	cam := render3d.NewCamera3D(s, 640, 480)

	player := w.Spawn("player")
	parentTr := &core.Transform{Position: geom.V3(2, 0, 2), Rotation: geom.Euler(0, geom.Deg(90), 0)}
	body := &core.Body{}
	w.Attach(player, parentTr)
	w.Attach(player, body)
	quad := w.SpawnChild(player, "quad")
	quadTr := core.NewTransform(geom.V3(0, 0.8, 0))
	spr := &core.Sprite{Visible: true}
	w.Attach(quad, quadTr)
	w.Attach(quad, spr)
	w.Attach(quad, &core.AnimState{CurrentAnim: "idle"})
	w.Attach(quad, &core.Billboard{Mode: core.BillboardFaceCamera, FacingAnim: "idle", FlipThreshold: 0.05, InvertFlip: true})

	w.AddSystem(&CameraSystem{Camera: cam, Target: player})
	w.AddSystem(&BillboardSystem{Camera: cam})

	body.Velocity = cam.Right().Scale(-1) // before the first follow Right is still valid
	w.Tick(0.02)

	pos := w.WorldPosition(quad)
	camPos, ok := cam.ActivePosition()
	require.True(t, ok)
	fwd := parentTr.Rotation.Mul(quadTr.Rotation).Forward()
	want := camPos.Sub(pos).Normalize()
	assert.InDelta(t, want.X, fwd.X, 1e-6)
	assert.InDelta(t, want.Y, fwd.Y, 1e-6)
	assert.InDelta(t, want.Z, fwd.Z, 1e-6)
	// parent untouched
	assert.Equal(t, geom.V3(2, 0, 2), parentTr.Position)
	assert.False(t, spr.FlipX)

	body.Velocity = cam.Right().Scale(2)
	w.Tick(0.02)
	assert.True(t, spr.FlipX)

	w.Get(quad, core.CompAnim).(*core.AnimState).Play("walk")
	w.Tick(0.02)
	assert.False(t, spr.FlipX)
}

func TestAnimationSystemLoops(t *testing.T) {
	w := core.NewWorld(50)
	id := w.Spawn("s")
	spr := &core.Sprite{Frames: 3}
	anim := &core.AnimState{CurrentAnim: "idle", Speed: 10, Loop: true}
	w.Attach(id, spr)
	w.Attach(id, anim)
	w.AddSystem(&AnimationSystem{})

	for i := 0; i < 5; i++ {
		w.Tick(0.05)
	}
	// 0.25s at 10fps = 2 frames (floating accumulation may land just short)
	assert.Contains(t, []int{1, 2}, spr.Frame)

	anim.Loop = false
	for i := 0; i < 20; i++ {
		w.Tick(0.05)
	}
	assert.True(t, anim.Finished)
	assert.Equal(t, 2, spr.Frame)
}

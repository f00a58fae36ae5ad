package scene

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/1siamBot/lullaby/engine/core"
	"github.com/1siamBot/lullaby/engine/geom"
	"github.com/1siamBot/lullaby/engine/sorting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSceneBuilds(t *testing.T) {
	s, err := Default()
	require.NoError(t, err)
	assert.Equal(t, "Player_Lullaby", s.Player.Name)

	w := core.NewWorld(60)
	tracked := map[string]sorting.Settings{}
	b, err := s.Build(w, sorting.DefaultSettings(), func(id core.EntityID, st sorting.Settings) {
		tracked[w.Name(id)] = st
	})
	require.NoError(t, err)
	assert.Equal(t, b.ByName["Player_Lullaby"], b.Player)
	assert.Len(t, b.Tracked, 6)
	assert.Contains(t, tracked, "RenderSquare")
	assert.False(t, tracked["Lamp"].EveryFrame)
	assert.Equal(t, 0, tracked["Snowman"].MinOrder)
	assert.Equal(t, 500, tracked["Snowman"].MaxOrder)

	quad := b.ByName["RenderSquare"]
	assert.Equal(t, b.Player, w.Parent(quad))
	spr, ok := w.Get(quad, core.CompSprite).(*core.Sprite)
	require.True(t, ok)
	assert.Equal(t, 4, spr.Frames)
	assert.True(t, spr.Visible)

	feet := b.ByName["Feet"]
	box := w.Get(feet, core.CompBox).(*core.BoxCollider)
	assert.True(t, box.IsTrigger)
	assert.InDelta(t, 0.1, w.TransformPoint(feet, box.Center).Y, 1e-9)

	bb := w.Get(quad, core.CompBillboard).(*core.Billboard)
	assert.Equal(t, core.BillboardYOnly, bb.Mode)

	assert.Len(t, w.Query(core.CompInteractable), 3)
	bench := w.Get(b.ByName["Bench"], core.CompInteractable).(*core.Interactable)
	sign := w.Get(b.ByName["Sign"], core.CompInteractable).(*core.Interactable)
	assert.Equal(t, "dialog", bench.TextBox)
	assert.Equal(t, bench.TextBox, sign.TextBox)
}

func TestSortingOverrides(t *testing.T) {
	base := sorting.DefaultSettings()
	seven, off := 7, false
	d := &SortingDef{BaseOrder: &seven, EveryFrame: &off}
	got := d.Apply(base)
	assert.Equal(t, 7, got.BaseOrder)
	assert.False(t, got.EveryFrame)
	assert.Equal(t, base.MaxOrder, got.MaxOrder)
	assert.Equal(t, base, (*SortingDef)(nil).Apply(base))
}

func TestParseTintAndRotation(t *testing.T) {
	s, err := Parse([]byte(`
player:
  name: p
props:
  - name: crate
    position: [1, 2, 3]
    yaw: 90
    sprite: {width: 1, height: 1, tint: "#ff8000"}
    active: false
    sorting: {}
`))
	require.NoError(t, err)
	w := core.NewWorld(60)
	var got []core.EntityID
	b, err := s.Build(w, sorting.DefaultSettings(), func(id core.EntityID, _ sorting.Settings) {
		got = append(got, id)
	})
	require.NoError(t, err)
	crate := b.ByName["crate"]
	assert.Equal(t, []core.EntityID{crate}, got)
	assert.False(t, w.IsActive(crate))

	spr := w.Get(crate, core.CompSprite).(*core.Sprite)
	assert.Equal(t, uint8(255), spr.Tint.R)
	assert.Equal(t, uint8(128), spr.Tint.G)
	assert.Equal(t, uint8(0), spr.Tint.B)

	tr := w.Get(crate, core.CompTransform).(*core.Transform)
	assert.Equal(t, geom.V3(1, 2, 3), tr.Position)
	assert.InDelta(t, 1, tr.Rotation.Forward().X, 1e-9)
}

func TestParseErrors(t *testing.T) {
	cases := map[string]struct {
		doc  string
		want error
	}{
		"no player": {doc: "props: []", want: ErrNoPlayer},
		"bad sprite": {
			doc:  "player: {name: p, sprite: {width: 0, height: 1}}",
			want: ErrInvalidSprite,
		},
		"bad mode": {
			doc:  "player: {name: p, billboard: {mode: sideways}}",
			want: ErrUnknownMode,
		},
		"partial pop": {
			doc:  "player: {name: p, interact: {text: hi, pop: {squash: 0.1}}}",
			want: ErrInvalidPop,
		},
		"bad bounds": {
			doc:  "player: {name: p, sorting: {min_order: 9, max_order: 1}}",
			want: sorting.ErrInvalidBounds,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc))
			assert.ErrorIs(t, err, tc.want)
		})
	}

	_, err := Parse([]byte("player: {name: p, sprite: {width: 1, height: 1, tint: nope}}"))
	assert.Error(t, err)
	_, err = Parse([]byte("player: [1, 2"))
	assert.Error(t, err)
}

func TestInteractables(t *testing.T) {
	s, err := Parse([]byte(`
player:
  name: p
props:
  - name: well
    position: [1, 0, 0]
    interact: {text: "Deep.", text_box: dialog, enabled: false}
    children:
      - name: bucket
        position: [0, 1, 0]
        sprite: {width: 1, height: 2}
  - name: stone
    sprite: {width: 1, height: 1}
    interact:
      text: "Cold."
      pop: {max_stretch_x: 2, max_stretch_y: 2, small_shrink_x: 0.5, small_shrink_y: 0.5, squash: 0, stretch: 0.1, restore: 0.1}
`))
	require.NoError(t, err)
	w := core.NewWorld(60)
	b, err := s.Build(w, sorting.DefaultSettings(), nil)
	require.NoError(t, err)

	well := w.Get(b.ByName["well"], core.CompInteractable).(*core.Interactable)
	assert.False(t, well.Enabled)
	assert.Equal(t, "dialog", well.TextBox)
	assert.Equal(t, b.ByName["bucket"], well.Visual, "first child with a sprite shows the well")
	assert.Equal(t, core.DefaultPopSettings(), well.Pop.Settings)

	stone := w.Get(b.ByName["stone"], core.CompInteractable).(*core.Interactable)
	assert.True(t, stone.Enabled)
	assert.Empty(t, stone.TextBox)
	assert.Equal(t, b.ByName["stone"], stone.Visual)
	assert.InDelta(t, 2, stone.Pop.Settings.MaxStretchX, 1e-12)
	assert.Zero(t, stone.Pop.Settings.Squash)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: tiny\nplayer: {name: p}\n"), 0o644))
	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "tiny", s.Name)

	s, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "snowfield", s.Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSkyColors(t *testing.T) {
	s := &Scene{Sky: [2]string{"#000000", ""}}
	top, horizon := s.SkyColors()
	assert.Equal(t, uint8(0), top.R)
	assert.Equal(t, uint8(58), horizon.R)
}

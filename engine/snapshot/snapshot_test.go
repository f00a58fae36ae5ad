package snapshot

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/1siamBot/lullaby/engine/render3d"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	red  = color.RGBA{255, 0, 0, 255}
	blue = color.RGBA{0, 0, 255, 255}
)

// near allows for filtering and blending rounding.
func near(t *testing.T, want, got color.RGBA) {
	t.Helper()
	for _, d := range [][2]uint8{{want.R, got.R}, {want.G, got.G}, {want.B, got.B}} {
		assert.InDelta(t, float64(d[0]), float64(d[1]), 3, "want %v got %v", want, got)
	}
}

func frame(items ...render3d.DrawItem) Frame {
	return Frame{
		Width: 80, Height: 60,
		SkyTop: color.RGBA{0, 0, 0, 255}, SkyHorizon: color.RGBA{0, 0, 0, 255},
		Items: items,
	}
}

func TestLaterItemsPaintOver(t *testing.T) {
	img := Render(frame(
		render3d.DrawItem{X: 40, Y: 50, W: 40, H: 40, Tint: red, Order: 100},
		render3d.DrawItem{X: 40, Y: 50, W: 10, H: 10, Tint: blue, Order: 101},
	), nil)
	near(t, color.RGBA{0, 0, 0, 255}, img.RGBAAt(2, 2))
	near(t, red, img.RGBAAt(25, 20))
	near(t, blue, img.RGBAAt(40, 45))
}

func TestSheetFrameFlip(t *testing.T) {
	sheet := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for y := 0; y < 2; y++ {
		// frame 1 is the right half: red then blue
		sheet.SetRGBA(2, y, red)
		sheet.SetRGBA(3, y, blue)
	}
	atlas := render3d.NewSpriteAtlas()
	atlas.Add("s", sheet)

	it := render3d.DrawItem{X: 40, Y: 50, W: 40, H: 40, SheetID: "s", Frame: 1, Frames: 2}
	img := Render(frame(it), atlas)
	near(t, red, img.RGBAAt(22, 30))
	near(t, blue, img.RGBAAt(58, 30))

	it.FlipX = true
	img = Render(frame(it), atlas)
	near(t, blue, img.RGBAAt(22, 30))
	near(t, red, img.RGBAAt(58, 30))
}

func TestSaveWritesPNG(t *testing.T) {
	f := frame(render3d.DrawItem{X: 40, Y: 50, W: 10, H: 10, Tint: red})
	f.Flakes = []render3d.Flake{{X: 5, Y: 5, R: 2, Alpha: 1}}
	f.Lines = []string{"order 100"}
	path := filepath.Join(t.TempDir(), "out.png")
	require.NoError(t, Save(path, Render(f, nil)))

	fh, err := os.Open(path)
	require.NoError(t, err)
	defer fh.Close()
	img, err := png.Decode(fh)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 80, 60), img.Bounds())

	assert.Error(t, Save(filepath.Join(t.TempDir(), "missing", "out.png"), img))
}

func TestTextBoxDarkensBottom(t *testing.T) {
	f := frame(render3d.DrawItem{X: 40, Y: 60, W: 80, H: 60, Tint: red})
	f.Texts = []string{"hi"}
	img := Render(f, nil)
	near(t, red, img.RGBAAt(50, 10))
	near(t, red, img.RGBAAt(50, 57))
	assert.Less(t, img.RGBAAt(50, 45).R, uint8(128))
}

// Package snapshot renders a frame of the scene without a window.
package snapshot

import (
	"fmt"
	"image"
	"image/color"

	"github.com/1siamBot/lullaby/engine/render3d"
	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/f64"
)

// Frame is everything drawn in one picture, already in paint order.
type Frame struct {
	Width, Height int
	SkyTop        color.RGBA
	SkyHorizon    color.RGBA
	Items         []render3d.DrawItem
	Flakes        []render3d.Flake
	Lines         []string // overlay text, top left
	Texts         []string // interaction text boxes, bottom left
}

// Render paints f. Sprites whose sheet is in atlas are drawn from it,
// others as tinted quads.
func Render(f Frame, atlas *render3d.SpriteAtlas) *image.RGBA {
	dc := gg.NewContext(f.Width, f.Height)

	sky := gg.NewLinearGradient(0, 0, 0, float64(f.Height))
	sky.AddColorStop(0, f.SkyTop)
	sky.AddColorStop(1, f.SkyHorizon)
	dc.SetFillStyle(sky)
	dc.DrawRectangle(0, 0, float64(f.Width), float64(f.Height))
	dc.Fill()

	canvas := dc.Image().(*image.RGBA)
	for _, it := range f.Items {
		if it.W <= 0 || it.H <= 0 {
			continue
		}
		x0, y0 := it.X-it.W/2, it.Y-it.H
		var src image.Image
		if atlas != nil && it.SheetID != "" {
			src = atlas.Frame(it.SheetID, it.Frame, it.Frames)
		}
		if src == nil {
			drawQuad(dc, it, x0, y0)
			continue
		}
		drawFrame(canvas, src, x0, y0, it.W, it.H, it.FlipX)
	}

	for _, fl := range f.Flakes {
		dc.SetColor(color.NRGBA{255, 255, 255, uint8(fl.Alpha * 230)})
		dc.DrawCircle(fl.X, fl.Y, fl.R)
		dc.Fill()
	}

	if len(f.Lines) > 0 {
		dc.SetFontFace(basicfont.Face7x13)
		dc.SetColor(color.White)
		for i, line := range f.Lines {
			dc.DrawString(line, 8, float64(16+i*15))
		}
	}
	if len(f.Texts) > 0 {
		top := float64(f.Height - 12 - len(f.Texts)*15)
		dc.SetColor(color.NRGBA{0, 0, 0, 160})
		dc.DrawRectangle(4, top-4, float64(f.Width-8), float64(len(f.Texts)*15+8))
		dc.Fill()
		dc.SetFontFace(basicfont.Face7x13)
		dc.SetColor(color.White)
		for i, line := range f.Texts {
			dc.DrawString(line, 12, top+float64(11+i*15))
		}
	}
	return canvas
}

func drawQuad(dc *gg.Context, it render3d.DrawItem, x0, y0 float64) {
	dc.SetColor(it.Tint)
	dc.DrawRectangle(x0, y0, it.W, it.H)
	dc.Fill()
	// darker edge on the side the sprite faces
	edge := color.RGBA{it.Tint.R / 2, it.Tint.G / 2, it.Tint.B / 2, it.Tint.A}
	dc.SetColor(edge)
	w := it.W / 8
	if it.FlipX {
		dc.DrawRectangle(x0, y0, w, it.H)
	} else {
		dc.DrawRectangle(x0+it.W-w, y0, w, it.H)
	}
	dc.Fill()
}

// drawFrame scales src into the rectangle at x0, y0, mirrored when flip is set.
func drawFrame(dst draw.Image, src image.Image, x0, y0, w, h float64, flip bool) {
	sr := src.Bounds()
	sx := w / float64(sr.Dx())
	sy := h / float64(sr.Dy())
	m := f64.Aff3{
		sx, 0, x0 - sx*float64(sr.Min.X),
		0, sy, y0 - sy*float64(sr.Min.Y),
	}
	if flip {
		m[0] = -sx
		m[2] = x0 + w + sx*float64(sr.Min.X)
	}
	draw.ApproxBiLinear.Transform(dst, m, src, sr, draw.Over, nil)
}

// Save writes img as a PNG file.
func Save(path string, img image.Image) error {
	if err := gg.SavePNG(path, img); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	return nil
}

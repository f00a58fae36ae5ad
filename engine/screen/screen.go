// Package screen shows a game in an ebiten window.
package screen

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/1siamBot/lullaby/engine/game"
	"github.com/1siamBot/lullaby/engine/input"
	"github.com/1siamBot/lullaby/engine/render3d"
	"github.com/1siamBot/lullaby/engine/snapshot"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"
)

var keyMap = map[input.Key]ebiten.Key{
	input.KeyW:      ebiten.KeyW,
	input.KeyA:      ebiten.KeyA,
	input.KeyS:      ebiten.KeyS,
	input.KeyD:      ebiten.KeyD,
	input.KeyQ:      ebiten.KeyQ,
	input.KeyUp:     ebiten.KeyArrowUp,
	input.KeyDown:   ebiten.KeyArrowDown,
	input.KeyLeft:   ebiten.KeyArrowLeft,
	input.KeyRight:  ebiten.KeyArrowRight,
	input.KeySpace:  ebiten.KeySpace,
	input.KeyShift:  ebiten.KeyShift,
	input.KeyEscape: ebiten.KeyEscape,
	input.KeyP:      ebiten.KeyP,
	input.KeyF1:     ebiten.KeyF1,
	input.KeyF2:     ebiten.KeyF2,
	input.KeyF:      ebiten.KeyF,
	input.KeyZ:      ebiten.KeyZ,
	input.KeyX:      ebiten.KeyX,
}

// Poll reads the live keyboard.
func Poll(k input.Key) bool {
	ek, ok := keyMap[k]
	return ok && ebiten.IsKeyPressed(ek)
}

// Renderer draws frames with ebiten.
type Renderer struct {
	atlas  *render3d.SpriteAtlas
	frames map[string]*ebiten.Image // sheet#frame -> GPU image
	face   *text.GoXFace
}

// NewRenderer creates a renderer reading sprite sheets from atlas.
func NewRenderer(atlas *render3d.SpriteAtlas) *Renderer {
	return &Renderer{
		atlas:  atlas,
		frames: make(map[string]*ebiten.Image),
		face:   text.NewGoXFace(basicfont.Face7x13),
	}
}

// Draw paints f onto dst.
func (r *Renderer) Draw(dst *ebiten.Image, f snapshot.Frame) {
	r.drawSky(dst, f)
	for _, it := range f.Items {
		r.drawItem(dst, it)
	}
	for _, fl := range f.Flakes {
		vector.DrawFilledCircle(dst, float32(fl.X), float32(fl.Y), float32(fl.R),
			color.NRGBA{255, 255, 255, uint8(fl.Alpha * 230)}, true)
	}
	for i, line := range f.Lines {
		op := &text.DrawOptions{}
		op.GeoM.Translate(8, float64(4+i*15))
		op.ColorScale.ScaleWithColor(color.White)
		text.Draw(dst, line, r.face, op)
	}
	if len(f.Texts) > 0 {
		top := f.Height - 12 - len(f.Texts)*15
		vector.DrawFilledRect(dst, 4, float32(top-4), float32(f.Width-8), float32(len(f.Texts)*15+8),
			color.NRGBA{0, 0, 0, 160}, false)
		for i, line := range f.Texts {
			op := &text.DrawOptions{}
			op.GeoM.Translate(12, float64(top+i*15))
			op.ColorScale.ScaleWithColor(color.White)
			text.Draw(dst, line, r.face, op)
		}
	}
}

// drawSky fills the screen with a vertical gradient, in bands
func (r *Renderer) drawSky(dst *ebiten.Image, f snapshot.Frame) {
	const bands = 32
	bandH := f.Height / bands
	if bandH < 1 {
		bandH = 1
	}
	for i := 0; i < bands; i++ {
		t := float64(i) / bands
		c := color.RGBA{
			lerp8(f.SkyTop.R, f.SkyHorizon.R, t),
			lerp8(f.SkyTop.G, f.SkyHorizon.G, t),
			lerp8(f.SkyTop.B, f.SkyHorizon.B, t),
			255,
		}
		by := i * bandH
		bh := bandH
		if i == bands-1 {
			bh = f.Height - by
		}
		vector.DrawFilledRect(dst, 0, float32(by), float32(f.Width), float32(bh), c, false)
	}
}

func lerp8(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t)
}

func (r *Renderer) drawItem(dst *ebiten.Image, it render3d.DrawItem) {
	if it.W <= 0 || it.H <= 0 {
		return
	}
	x0, y0 := it.X-it.W/2, it.Y-it.H
	img := r.frame(it)
	if img == nil {
		vector.DrawFilledRect(dst, float32(x0), float32(y0), float32(it.W), float32(it.H), it.Tint, false)
		return
	}
	b := img.Bounds()
	op := &ebiten.DrawImageOptions{}
	op.Filter = ebiten.FilterLinear
	if it.FlipX {
		op.GeoM.Scale(-1, 1)
		op.GeoM.Translate(float64(b.Dx()), 0)
	}
	op.GeoM.Scale(it.W/float64(b.Dx()), it.H/float64(b.Dy()))
	op.GeoM.Translate(x0, y0)
	dst.DrawImage(img, op)
}

func (r *Renderer) frame(it render3d.DrawItem) *ebiten.Image {
	if r.atlas == nil || it.SheetID == "" {
		return nil
	}
	key := fmt.Sprintf("%s#%d", it.SheetID, it.Frame)
	if img, ok := r.frames[key]; ok {
		return img
	}
	src := r.atlas.Frame(it.SheetID, it.Frame, it.Frames)
	if src == nil {
		r.frames[key] = nil
		return nil
	}
	img := ebiten.NewImageFromImage(src)
	r.frames[key] = img
	return img
}

// App adapts a game to ebiten.Game.
type App struct {
	Game     *game.Game
	Renderer *Renderer
}

// NewApp wraps g.
func NewApp(g *game.Game) *App {
	return &App{Game: g, Renderer: NewRenderer(g.Atlas)}
}

func (a *App) Update() error {
	if Poll(input.KeyEscape) {
		return ebiten.Termination
	}
	a.Game.Update(Poll)
	return nil
}

func (a *App) Draw(screen *ebiten.Image) {
	a.Renderer.Draw(screen, a.Game.Frame())
}

func (a *App) Layout(_, _ int) (int, int) {
	return a.Game.Config.Window.Width, a.Game.Config.Window.Height
}

// Run opens the window and blocks until it is closed.
func Run(g *game.Game) error {
	cfg := g.Config.Window
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetTPS(int(cfg.TickRate))
	err := ebiten.RunGame(NewApp(g))
	g.Shutdown()
	if err != nil && !errors.Is(err, ebiten.Termination) {
		return fmt.Errorf("screen: %w", err)
	}
	return nil
}

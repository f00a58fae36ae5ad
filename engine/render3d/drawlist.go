package render3d

import (
	"image/color"
	"sort"

	"github.com/1siamBot/lullaby/engine/core"
)

// DrawItem is one sprite projected to the screen. X, Y is the bottom
// center of the quad in pixels.
type DrawItem struct {
	ID      core.EntityID
	Name    string
	X, Y    float64
	W, H    float64
	Depth   float64
	Order   int
	FlipX   bool
	SheetID string
	Frame   int
	Frames  int
	Tint    color.RGBA
}

// BuildDrawList projects every visible, active sprite and returns them in
// paint order: ascending draw order, ties in spawn order.
func BuildDrawList(w *core.World, cam *Camera3D) []DrawItem {
	if !cam.Active() {
		return nil
	}
	var items []DrawItem
	for _, id := range w.Query(core.CompSprite) {
		spr := w.Get(id, core.CompSprite).(*core.Sprite)
		if !spr.Visible || !w.IsActive(id) {
			continue
		}
		sx, sy, depth, ok := cam.Project(w.WorldPosition(id))
		if !ok {
			continue
		}
		ppu := cam.PixelsPerUnit(depth)
		items = append(items, DrawItem{
			ID:      id,
			Name:    w.Name(id),
			X:       sx,
			Y:       sy,
			W:       spr.Width * ppu,
			H:       spr.Height * ppu,
			Depth:   depth,
			Order:   spr.Order,
			FlipX:   spr.FlipX,
			SheetID: spr.SheetID,
			Frame:   spr.Frame,
			Frames:  spr.Frames,
			Tint:    spr.Tint,
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Order < items[j].Order
	})
	return items
}

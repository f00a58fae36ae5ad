package render3d

import (
	"fmt"
	"image"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
)

// SpriteAtlas holds the decoded sprite sheets. A sheet is one row of
// equally wide frames.
type SpriteAtlas struct {
	sheets map[string]image.Image
}

// NewSpriteAtlas creates an empty atlas
func NewSpriteAtlas() *SpriteAtlas {
	return &SpriteAtlas{sheets: make(map[string]image.Image)}
}

// LoadFromDirectory decodes every PNG in dir, keyed by file name without
// extension. A missing directory leaves the atlas empty.
func (sa *SpriteAtlas) LoadFromDirectory(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("atlas: %w", err)
	}
	total := 0
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".png") {
			continue
		}
		img, err := decodeImage(filepath.Join(dir, e.Name()))
		if err != nil {
			return total, err
		}
		sa.sheets[strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))] = img
		total++
	}
	return total, nil
}

// Add registers an in-memory sheet.
func (sa *SpriteAtlas) Add(key string, img image.Image) {
	sa.sheets[key] = img
}

// Get returns a sheet by key, or nil
func (sa *SpriteAtlas) Get(key string) image.Image {
	return sa.sheets[key]
}

// Len returns the number of loaded sheets.
func (sa *SpriteAtlas) Len() int { return len(sa.sheets) }

// Frame cuts frame i out of a sheet with frames columns. It returns nil if
// the sheet is missing.
func (sa *SpriteAtlas) Frame(key string, i, frames int) image.Image {
	img := sa.sheets[key]
	if img == nil {
		return nil
	}
	return FrameOf(img, i, frames)
}

// FrameOf cuts frame i out of a single-row sheet.
func FrameOf(img image.Image, i, frames int) image.Image {
	b := img.Bounds()
	if frames <= 1 {
		return img
	}
	fw := b.Dx() / frames
	i = ((i % frames) + frames) % frames
	r := image.Rect(b.Min.X+i*fw, b.Min.Y, b.Min.X+(i+1)*fw, b.Max.Y)
	if sub, ok := img.(interface {
		SubImage(image.Rectangle) image.Image
	}); ok {
		return sub.SubImage(r)
	}
	return img
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("atlas: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("atlas: decode %s: %w", path, err)
	}
	return img, nil
}

package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"time"
)

// placeholderGray is the fill value for tiles synthesized when a page's
// bytes or pixels cannot be produced.
const placeholderGray = 0x80

// Tile is a rendered pixel buffer plus metadata. Full-page tiles are
// persistent (eligible for long-term caching); excerpt tiles and
// placeholders are transient and owned by the caller.
type Tile struct {
	// Image holds the pixels: *image.RGBA in color mode, *image.Gray
	// in grayscale mode.
	Image draw.Image

	// Rect is the region of the transformed page this tile covers, at
	// render zoom. For full-page tiles it spans the whole page.
	Rect image.Rectangle

	// Page is the owning 1-indexed page number.
	Page int

	// Created is the render timestamp, compared against the cache
	// validity threshold on full-page hits.
	Created time.Time

	// Persistent marks full-page tiles eligible for long-term caching.
	Persistent bool

	// Placeholder marks synthesized gray tiles. Placeholders are never
	// inserted into any cache so a later successful render replaces
	// them.
	Placeholder bool
}

// Width returns the tile's pixel width.
func (t *Tile) Width() int {
	if t.Image == nil {
		return 0
	}
	return t.Image.Bounds().Dx()
}

// Height returns the tile's pixel height.
func (t *Tile) Height() int {
	if t.Image == nil {
		return 0
	}
	return t.Image.Bounds().Dy()
}

// SizeBytes estimates the tile's memory footprint from its pixel buffer.
func (t *Tile) SizeBytes() int64 {
	switch img := t.Image.(type) {
	case *image.RGBA:
		return int64(len(img.Pix))
	case *image.Gray:
		return int64(len(img.Pix))
	default:
		if t.Image == nil {
			return 0
		}
		b := t.Image.Bounds()
		return int64(b.Dx()) * int64(b.Dy()) * 4
	}
}

// ToPNG encodes the tile's pixels as PNG. Useful for persisting tiles or
// feeding them to the OCR layer.
func (t *Tile) ToPNG() ([]byte, error) {
	if t.Image == nil {
		return nil, fmt.Errorf("tile has no pixels")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, t.Image); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// newPixels allocates a tile pixel buffer in the requested mode.
func newPixels(w, h int, gray bool) draw.Image {
	if gray {
		return image.NewGray(image.Rect(0, 0, w, h))
	}
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

// fillGray floods an image with the neutral placeholder color.
func fillGray(img draw.Image) {
	c := color.Gray{Y: placeholderGray}
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
}

// newPlaceholder synthesizes a non-persistent neutral-gray tile.
func newPlaceholder(page, w, h int, gray bool, rect image.Rectangle) *Tile {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	img := newPixels(w, h, gray)
	fillGray(img)
	return &Tile{
		Image:       img,
		Rect:        rect,
		Page:        page,
		Created:     time.Now(),
		Placeholder: true,
	}
}

package model

import "math"

// BBox represents a bounding box (rectangle) in page coordinates.
// The origin is the top-left corner; Y grows downward, matching raster
// image conventions.
type BBox struct {
	X      float64 // Left
	Y      float64 // Top
	Width  float64
	Height float64
}

// NewBBox creates a bounding box from coordinates.
func NewBBox(x, y, width, height float64) BBox {
	return BBox{X: x, Y: y, Width: width, Height: height}
}

// Left returns the left edge X coordinate.
func (b BBox) Left() float64 {
	return b.X
}

// Right returns the right edge X coordinate.
func (b BBox) Right() float64 {
	return b.X + b.Width
}

// Top returns the top edge Y coordinate.
func (b BBox) Top() float64 {
	return b.Y
}

// Bottom returns the bottom edge Y coordinate.
func (b BBox) Bottom() float64 {
	return b.Y + b.Height
}

// Intersects checks if two bounding boxes intersect.
func (b BBox) Intersects(other BBox) bool {
	return !(b.Right() < other.Left() ||
		b.Left() > other.Right() ||
		b.Bottom() < other.Top() ||
		b.Top() > other.Bottom())
}

// Intersection returns the intersection of two bounding boxes, or the
// zero box if they do not intersect.
func (b BBox) Intersection(other BBox) BBox {
	if !b.Intersects(other) {
		return BBox{}
	}

	x := math.Max(b.Left(), other.Left())
	y := math.Max(b.Top(), other.Top())
	right := math.Min(b.Right(), other.Right())
	bottom := math.Min(b.Bottom(), other.Bottom())

	return BBox{
		X:      x,
		Y:      y,
		Width:  right - x,
		Height: bottom - y,
	}
}

// IsEmpty returns true if the bounding box has zero area.
func (b BBox) IsEmpty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// NormalizeRotation reduces an arbitrary rotation in degrees to one of
// 0, 90, 180, or 270. Values that are not multiples of 90 are rounded to
// the nearest quarter turn.
func NormalizeRotation(rotation int) int {
	r := ((rotation % 360) + 360) % 360
	return ((r + 45) / 90 % 4) * 90
}

// Transform applies the shared rotation+zoom contract to native page
// dimensions: a 90 or 270 degree rotation swaps width and height, and the
// result is scaled by zoom. Every consumer of transformed page geometry
// (tile rendering, layout, cache backfill) goes through this function so
// their results stay bit-compatible.
func (d Dimensions) Transform(rotation int, zoom float64) Dimensions {
	out := d
	if r := NormalizeRotation(rotation); r == 90 || r == 270 {
		out.Width, out.Height = out.Height, out.Width
	}
	out.Width = scaleDim(out.Width, zoom)
	out.Height = scaleDim(out.Height, zoom)
	return out
}

// TransformBBox maps a rectangle given in native page coordinates into the
// transformed (rotated, zoomed) page space.
func TransformBBox(b BBox, page Dimensions, rotation int, zoom float64) BBox {
	w, h := float64(page.Width), float64(page.Height)
	var out BBox
	switch NormalizeRotation(rotation) {
	case 90:
		out = BBox{X: h - b.Bottom(), Y: b.X, Width: b.Height, Height: b.Width}
	case 180:
		out = BBox{X: w - b.Right(), Y: h - b.Bottom(), Width: b.Width, Height: b.Height}
	case 270:
		out = BBox{X: b.Y, Y: w - b.Right(), Width: b.Height, Height: b.Width}
	default:
		out = b
	}
	out.X *= zoom
	out.Y *= zoom
	out.Width *= zoom
	out.Height *= zoom
	return out
}

// scaleDim scales a pixel dimension by zoom, rounding to nearest and
// never collapsing a positive dimension to zero.
func scaleDim(v int, zoom float64) int {
	if v <= 0 {
		return 0
	}
	s := int(math.Round(float64(v) * zoom))
	if s < 1 {
		s = 1
	}
	return s
}

// Package layout computes the continuous-scroll arrangement of a virtual
// image document.
//
// Pages are stacked vertically with a fixed gap between consecutive pages.
// The layout has an explicit lifecycle: it is built once after page
// dimensions are known and rebuilt on demand (for example after a batch
// preload). It is deliberately not kept in sync with later dimension-cache
// updates; callers decide when a rebuild is worth it.
package layout

import (
	"github.com/tsawler/folio/internal/flog"
	"github.com/tsawler/folio/model"
)

// Gap is the vertical space between consecutive pages, in pixels at
// zoom 1.0.
const Gap = 20

// Entry is one page's slot in the vertical stack, at zoom 1.0.
type Entry struct {
	Page    int // 1-indexed page number
	OffsetY int // Top edge in virtual document coordinates
	Width   int
	Height  int
}

// DimensionSource supplies native dimensions for a page, resolving them
// if necessary. Implemented by the document's dimension cache.
type DimensionSource func(page int) model.Dimensions

// Layout is an immutable snapshot of the vertical page arrangement.
type Layout struct {
	entries     []Entry
	totalHeight int
}

// Build stacks pages 1..pageCount vertically with Gap pixels between
// consecutive pages. Pages reporting zero or negative dimensions fall
// back to model.FallbackDimensions with a warning.
func Build(pageCount int, dims DimensionSource) *Layout {
	l := &Layout{}
	if pageCount <= 0 {
		return l
	}

	l.entries = make([]Entry, 0, pageCount)
	y := 0
	for page := 1; page <= pageCount; page++ {
		d := dims(page)
		if !d.Valid() {
			flog.Logger().Warn("zero-dimension page in layout, using fallback",
				"page", page, "width", d.Width, "height", d.Height)
			d = model.FallbackDimensions
		}
		l.entries = append(l.entries, Entry{
			Page:    page,
			OffsetY: y,
			Width:   d.Width,
			Height:  d.Height,
		})
		y += d.Height + Gap
	}

	// The gap after the last page does not count toward the total.
	l.totalHeight = y - Gap
	if l.totalHeight < 0 {
		l.totalHeight = 0
	}
	return l
}

// TotalHeight returns the height of the whole virtual document at
// zoom 1.0: the sum of page heights plus the gaps between them.
func (l *Layout) TotalHeight() int {
	return l.totalHeight
}

// Len returns the number of pages in the layout.
func (l *Layout) Len() int {
	return len(l.entries)
}

// Entry returns the layout slot for a page, if present.
func (l *Layout) Entry(page int) (Entry, bool) {
	if page < 1 || page > len(l.entries) {
		return Entry{}, false
	}
	return l.entries[page-1], true
}

// Entries returns all layout slots in page order. The returned slice is
// shared; callers must not modify it.
func (l *Layout) Entries() []Entry {
	return l.entries
}

// Visible is a page whose scaled extent intersects a viewport, along with
// the intersection bounds in scaled virtual coordinates.
type Visible struct {
	Entry

	// Top and Bottom bound the visible part of the page, in the same
	// zoomed coordinate space as the viewport query.
	Top    float64
	Bottom float64
}

// VisiblePages returns the pages whose vertical extent, scaled by zoom,
// intersects the viewport [offsetY, offsetY+viewportHeight].
func (l *Layout) VisiblePages(offsetY, viewportHeight, zoom float64) []Visible {
	if viewportHeight <= 0 || zoom <= 0 {
		return nil
	}
	viewBottom := offsetY + viewportHeight

	var visible []Visible
	for _, e := range l.entries {
		top := float64(e.OffsetY) * zoom
		bottom := float64(e.OffsetY+e.Height) * zoom
		if bottom < offsetY || top > viewBottom {
			continue
		}
		visible = append(visible, Visible{
			Entry:  e,
			Top:    max64(top, offsetY),
			Bottom: min64(bottom, viewBottom),
		})
	}
	return visible
}

func max64(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

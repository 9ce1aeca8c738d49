package model

// Dimensions holds per-page pixel dimensions.
type Dimensions struct {
	Width  int
	Height int
}

// FallbackDimensions is used whenever a page's real dimensions cannot be
// determined from its header or by a decode probe.
var FallbackDimensions = Dimensions{Width: 800, Height: 1200}

// Valid reports whether both dimensions are strictly positive.
func (d Dimensions) Valid() bool {
	return d.Width > 0 && d.Height > 0
}

// BBox returns the page bounding box at native size, anchored at the
// origin.
func (d Dimensions) BBox() BBox {
	return BBox{Width: float64(d.Width), Height: float64(d.Height)}
}

// TOCEntry represents an entry in a document outline.
type TOCEntry struct {
	Level int    // Nesting depth (1 = top level)
	Title string // Entry text
	Page  int    // Target page number (1-indexed)
}

// Link represents a clickable region on a page pointing either to
// another page or to an external URI.
type Link struct {
	Page int    // Target page for internal links (0 if external)
	URI  string // Target URI for external links ("" if internal)
	Box  BBox   // Active region in native page coordinates
}

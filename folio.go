// Package folio presents an ordered collection of raster images as a
// paginated document, so a generic page-rendering pipeline can display
// them exactly like pages of a native-format document, including a
// continuous vertical scroll mode.
//
// Basic usage:
//
//	doc, err := folio.OpenImages(buffers)
//	if err != nil {
//	    // handle error
//	}
//	defer doc.Close()
//
//	tile := doc.RenderPage(1, nil, 1.5, 0, 1.0)
//
// Pages can also be supplied lazily, for sets fetched on demand:
//
//	doc, err := folio.OpenSources([]source.Source{
//	    source.FromSupplier(fetchCover),
//	    source.FromSupplier(fetchPage2),
//	}, folio.WithGray())
//
// Rendering never fails: a page whose bytes or pixels cannot be produced
// degrades to a neutral-gray placeholder tile, and the failure is
// reported only through the package logger (see SetLogger).
package folio

import (
	"image"
	"image/draw"
	"log/slog"

	"github.com/tsawler/folio/internal/flog"
	"github.com/tsawler/folio/model"
	"github.com/tsawler/folio/render"
)

// Document is the capability contract a generic viewer renders against.
// VirtualDocument satisfies it for image-backed page sets; native-format
// documents satisfy the same surface, so a host cannot tell them apart.
type Document interface {
	// PageCount returns the fixed number of pages.
	PageCount() int

	// Dimensions returns a page's native pixel dimensions, resolving
	// them on first use. Never fails; unresolvable pages report the
	// fallback size.
	Dimensions(page int) model.Dimensions

	// BoundingBox returns the page box at native size.
	BoundingBox(page int) model.BBox

	// TransformedBBox returns the page box after rotation and zoom,
	// using the shared geometry contract.
	TransformedBBox(page int, rotation int, zoom float64) model.BBox

	// TOC returns the document outline.
	TOC() []model.TOCEntry

	// Links returns the clickable regions on a page.
	Links(page int) []model.Link

	// RenderPage renders a page (or an excerpt of it when rect is
	// non-nil) at the given zoom, rotation, and gamma. Always returns
	// a usable tile.
	RenderPage(page int, rect *image.Rectangle, zoom float64, rotation int, gamma float64) *render.Tile

	// DrawPage renders a page and blits it into dst at the given
	// position.
	DrawPage(dst draw.Image, at image.Point, page int, zoom float64, rotation int, gamma float64)

	// Close releases the document's caches. The page sources remain
	// the caller's responsibility.
	Close() error
}

// SetLogger configures the logger for folio and all its sub-packages.
// By default folio produces no log output. Pass nil to restore the
// silent default. Safe for concurrent use.
//
// Log levels used by folio:
//   - [slog.LevelDebug]: diagnostics (dimension precedence divergence,
//     cache capacity)
//   - [slog.LevelWarn]: degradations (supplier failures, decode
//     failures, fallback dimensions)
func SetLogger(l *slog.Logger) {
	flog.Set(l)
}

// Logger returns the current folio logger.
func Logger() *slog.Logger {
	return flog.Logger()
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
//
// Example:
//
//	doc := folio.Must(folio.OpenImages(buffers))
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

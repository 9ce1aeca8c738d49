package folio

import (
	"errors"
	"image"
	"image/draw"

	"github.com/tsawler/folio/cache"
	"github.com/tsawler/folio/internal/flog"
	"github.com/tsawler/folio/layout"
	"github.com/tsawler/folio/model"
	"github.com/tsawler/folio/ocr"
	"github.com/tsawler/folio/render"
	"github.com/tsawler/folio/render/stdimg"
	"github.com/tsawler/folio/source"
)

var (
	// ErrNoPages indicates an attempt to open a document with zero
	// pages.
	ErrNoPages = errors.New("document has no pages")

	// ErrClosed indicates an operation on a closed document.
	ErrClosed = errors.New("document is closed")
)

var _ Document = (*VirtualDocument)(nil)

// VirtualDocument is a paginated document backed by raster images.
// It implements the Document contract by composing the page source
// resolver, the tile renderer, and the continuous-scroll layout engine.
//
// A VirtualDocument is not safe for concurrent use; every operation runs
// synchronously on the caller's goroutine.
type VirtualDocument struct {
	renderer *render.Renderer
	layout   *layout.Layout
	closed   bool
}

// OpenImages opens a document over ready byte buffers, one per page.
func OpenImages(buffers [][]byte, opts ...Option) (*VirtualDocument, error) {
	srcs := make([]source.Source, len(buffers))
	for i, b := range buffers {
		srcs[i] = source.FromBytes(b)
	}
	return OpenSources(srcs, opts...)
}

// OpenSources opens a document over a mixed list of buffer and supplier
// sources. The page count is fixed at open time: the list length, or the
// WithPageCount override for lazily-enumerated sets.
func OpenSources(srcs []source.Source, opts ...Option) (*VirtualDocument, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	var resolverOpts []source.Option
	if o.pageCount > 0 {
		resolverOpts = append(resolverOpts, source.WithCount(o.pageCount))
	}
	return open(source.NewResolver(srcs, resolverOpts...), o)
}

// OpenIndexed opens a document over a lazily-enumerated collection:
// fetch is called with a 1-based page index as pages are needed.
func OpenIndexed(count int, fetch func(page int) ([]byte, error), opts ...Option) (*VirtualDocument, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return open(source.NewIndexedResolver(count, fetch), o)
}

func open(resolver *source.Resolver, o options) (*VirtualDocument, error) {
	if resolver.Len() < 1 {
		return nil, ErrNoPages
	}

	engine := o.engine
	if engine == nil {
		engine = stdimg.New()
	}
	tiles := o.tiles
	if !o.tilesSet {
		tiles = render.NewMemoryTileCache(cache.Capacity())
	}

	return &VirtualDocument{
		renderer: render.New(render.Config{
			Sources:       resolver,
			Engine:        engine,
			Tiles:         tiles,
			Gray:          o.gray,
			Fallback:      o.fallback,
			CacheValidity: o.cacheValidity,
		}),
	}, nil
}

// PageCount returns the fixed page count.
func (d *VirtualDocument) PageCount() int {
	if d.closed {
		return 0
	}
	return d.renderer.PageCount()
}

// Dimensions returns a page's native dimensions, resolving them on first
// use (header sniff, then decode probe, then fallback).
func (d *VirtualDocument) Dimensions(page int) model.Dimensions {
	if d.closed {
		return model.Dimensions{}
	}
	return d.renderer.Dimensions(page)
}

// BoundingBox returns the page box at native size. Out-of-range pages
// yield an empty box.
func (d *VirtualDocument) BoundingBox(page int) model.BBox {
	if d.closed || page < 1 || page > d.PageCount() {
		return model.BBox{}
	}
	return d.Dimensions(page).BBox()
}

// TransformedBBox returns the page box after rotation and zoom.
func (d *VirtualDocument) TransformedBBox(page int, rotation int, zoom float64) model.BBox {
	if d.closed || page < 1 || page > d.PageCount() {
		return model.BBox{}
	}
	dims := d.Dimensions(page)
	return model.TransformBBox(dims.BBox(), dims, rotation, zoom)
}

// TOC returns the document outline. Image collections carry none, so it
// is always empty; the method exists to satisfy the Document contract.
func (d *VirtualDocument) TOC() []model.TOCEntry {
	return nil
}

// Links returns the clickable regions on a page. Image pages have none.
func (d *VirtualDocument) Links(page int) []model.Link {
	return nil
}

// RenderPage renders a page at the given zoom, rotation (degrees), and
// gamma. A nil rect requests the full page; otherwise rect selects an
// excerpt in rotated page coordinates at zoom 1.0. Always returns a
// usable tile; failures degrade to a neutral-gray placeholder.
func (d *VirtualDocument) RenderPage(page int, rect *image.Rectangle, zoom float64, rotation int, gamma float64) *render.Tile {
	if d.closed {
		flog.Logger().Warn("render on closed document", "page", page)
		return &render.Tile{Page: page, Placeholder: true}
	}
	return d.renderer.RenderPage(page, rect, zoom, rotation, gamma)
}

// PrefetchPage warms the render cache with a full-page render, ahead of
// display.
func (d *VirtualDocument) PrefetchPage(page int, zoom float64, rotation int, gamma float64) {
	if d.closed {
		return
	}
	d.renderer.PrefetchPage(page, zoom, rotation, gamma)
}

// DrawPage renders a page and blits it into dst with its top-left corner
// at the given position.
func (d *VirtualDocument) DrawPage(dst draw.Image, at image.Point, page int, zoom float64, rotation int, gamma float64) {
	tile := d.RenderPage(page, nil, zoom, rotation, gamma)
	if tile.Image == nil {
		return
	}
	b := tile.Image.Bounds()
	draw.Draw(dst, image.Rectangle{Min: at, Max: at.Add(b.Size())}, tile.Image, b.Min, draw.Src)
}

// PreloadEntry seeds the dimension cache for one page.
type PreloadEntry struct {
	Page   int
	Width  int
	Height int
}

// Preload seeds the dimension cache from out-of-band knowledge (for
// example a remote manifest), avoiding any per-page decode. Entries with
// invalid pages or dimensions are ignored. Call RebuildLayout afterwards
// if a layout was already built.
func (d *VirtualDocument) Preload(entries []PreloadEntry) {
	if d.closed {
		return
	}
	for _, e := range entries {
		d.renderer.SetDimensions(e.Page, model.Dimensions{Width: e.Width, Height: e.Height})
	}
}

// RebuildLayout recomputes the continuous-scroll layout from current
// page dimensions, resolving any that are still unknown. The layout is
// an explicit snapshot: it is not invalidated by later dimension updates
// until RebuildLayout is called again.
func (d *VirtualDocument) RebuildLayout() {
	if d.closed {
		return
	}
	d.layout = layout.Build(d.PageCount(), d.renderer.Dimensions)
}

// TotalHeight returns the virtual document height at zoom 1.0: page
// heights plus the fixed inter-page gaps. Builds the layout on first use.
func (d *VirtualDocument) TotalHeight() int {
	if d.closed {
		return 0
	}
	if d.layout == nil {
		d.RebuildLayout()
	}
	return d.layout.TotalHeight()
}

// VisiblePages returns the pages intersecting the viewport
// [offsetY, offsetY+viewportHeight] with page extents scaled by zoom.
// Builds the layout on first use.
func (d *VirtualDocument) VisiblePages(offsetY, viewportHeight, zoom float64) []layout.Visible {
	if d.closed {
		return nil
	}
	if d.layout == nil {
		d.RebuildLayout()
	}
	return d.layout.VisiblePages(offsetY, viewportHeight, zoom)
}

// LayoutEntry returns a page's slot in the continuous-scroll layout.
// Builds the layout on first use.
func (d *VirtualDocument) LayoutEntry(page int) (layout.Entry, bool) {
	if d.closed {
		return layout.Entry{}, false
	}
	if d.layout == nil {
		d.RebuildLayout()
	}
	return d.layout.Entry(page)
}

// PageText renders a page and runs OCR over it, returning the
// recognized text. Requires the "ocr" build tag; otherwise it returns
// ocr.ErrOCRNotEnabled.
func (d *VirtualDocument) PageText(page int) (string, error) {
	if d.closed {
		return "", ErrClosed
	}
	client, err := ocr.New()
	if err != nil {
		return "", err
	}
	defer client.Close()

	tile := d.RenderPage(page, nil, 1.0, 0, 1.0)
	return client.RecognizeTile(tile)
}

// Close drops the document's dimension cache and layout. It does not own
// the page sources, which remain the caller's responsibility. Close is
// idempotent.
func (d *VirtualDocument) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.renderer.DropDimensionCache()
	d.layout = nil
	return nil
}

package render

import (
	"image"
	"math"
	"time"

	"github.com/tsawler/folio/format"
	"github.com/tsawler/folio/internal/flog"
	"github.com/tsawler/folio/model"
	"github.com/tsawler/folio/source"
)

// Config wires a Renderer to its collaborators.
type Config struct {
	// Sources fetches raw page bytes.
	Sources *source.Resolver

	// Engine decodes page bytes into pixels.
	Engine Engine

	// Tiles is the persistent render cache. Optional; nil disables
	// caching entirely.
	Tiles TileCache

	// Gray selects grayscale output instead of RGBA.
	Gray bool

	// Fallback is used when a page's dimensions cannot be resolved.
	// Zero value means model.FallbackDimensions.
	Fallback model.Dimensions

	// CacheValidity is the staleness threshold for cached full-page
	// tiles: a hit created before it is not used for dimension
	// backfill. Zero means always valid.
	CacheValidity time.Time
}

// Renderer produces rendered tiles for pages of a virtual image document
// and owns the per-document dimension cache.
//
// A Renderer is single-threaded by design: every operation runs to
// completion on the caller's goroutine, and every engine handle opened
// during a render is closed before the render returns.
type Renderer struct {
	cfg  Config
	dims map[int]model.Dimensions
}

// New creates a Renderer with an empty dimension cache.
func New(cfg Config) *Renderer {
	if !cfg.Fallback.Valid() {
		cfg.Fallback = model.FallbackDimensions
	}
	return &Renderer{
		cfg:  cfg,
		dims: make(map[int]model.Dimensions),
	}
}

// PageCount returns the fixed page count of the underlying source list.
func (r *Renderer) PageCount() int {
	return r.cfg.Sources.Len()
}

// SetDimensions seeds the dimension cache for a page without any decode,
// for callers that know dimensions out-of-band. Invalid dimensions are
// ignored.
func (r *Renderer) SetDimensions(page int, d model.Dimensions) {
	if page < 1 || page > r.PageCount() || !d.Valid() {
		return
	}
	r.dims[page] = d
}

// CachedDimensions returns the cached dimensions for a page without
// resolving them.
func (r *Renderer) CachedDimensions(page int) (model.Dimensions, bool) {
	d, ok := r.dims[page]
	return d, ok
}

// Dimensions returns authoritative native dimensions for a page,
// resolving them on first use: header sniff first, then a decode probe,
// then the fixed fallback. It never fails; all failure paths degrade to
// the fallback.
func (r *Renderer) Dimensions(page int) model.Dimensions {
	if d, ok := r.dims[page]; ok {
		return d
	}
	if page < 1 || page > r.PageCount() {
		return r.cfg.Fallback
	}

	data, err := r.cfg.Sources.Resolve(page)
	if err != nil {
		flog.Logger().Warn("page source unavailable for sizing",
			"page", page, "error", err)
		return r.cfg.Fallback
	}

	d, handle := r.resolveDimensions(data, false)
	if handle != nil {
		handle.Close()
	}
	if !d.Valid() {
		d = r.cfg.Fallback
	}
	r.dims[page] = d
	return d
}

// DropDimensionCache empties the dimension cache. Called on document
// close.
func (r *Renderer) DropDimensionCache() {
	r.dims = make(map[int]model.Dimensions)
}

// resolveDimensions determines native page dimensions from raw bytes.
// Precedence: decode-engine result over header-parsed result over the
// zero value. When keep is set and a decode probe was performed, the open
// engine handle is returned for immediate reuse and ownership passes to
// the caller, who must close it.
//
// The header result is only distrusted when it is absent: a successful
// sniff skips the decode probe entirely. If a probe does run and
// disagrees with a successful sniff, the decode result wins and the
// divergence is logged.
func (r *Renderer) resolveDimensions(data []byte, keep bool) (model.Dimensions, Handle) {
	f := format.Detect(data)
	var header model.Dimensions
	if w, h, ok := format.SniffDimensions(data); ok {
		header = model.Dimensions{Width: w, Height: h}
		if !keep {
			return header, nil
		}
	}

	handle, err := r.cfg.Engine.Open(data, f)
	if err != nil {
		flog.Logger().Warn("decode probe failed to open page",
			"format", f.String(), "error", err)
		return header, nil
	}

	probed, err := handle.Size()
	if err != nil || !probed.Valid() {
		flog.Logger().Warn("decode probe failed to size page",
			"format", f.String(), "error", err)
		if keep {
			return header, handle
		}
		handle.Close()
		return header, nil
	}

	if header.Valid() && probed != header {
		flog.Logger().Debug("decoded dimensions differ from header",
			"header_w", header.Width, "header_h", header.Height,
			"decoded_w", probed.Width, "decoded_h", probed.Height)
	}

	if keep {
		return probed, handle
	}
	handle.Close()
	return probed, nil
}

// RenderPage renders one page at the given zoom, rotation (degrees), and
// gamma. A nil rect requests the full page; otherwise rect selects an
// excerpt in rotated page coordinates at zoom 1.0, and the returned tile
// exactly covers the scaled excerpt.
//
// RenderPage never fails: an out-of-range page yields a zero-size tile,
// and any source or decode failure yields a neutral-gray placeholder that
// is never cached.
func (r *Renderer) RenderPage(page int, rect *image.Rectangle, zoom float64, rotation int, gamma float64) *Tile {
	if page < 1 || page > r.PageCount() {
		flog.Logger().Warn("render request out of range",
			"page", page, "pages", r.PageCount())
		return &Tile{Image: newPixels(0, 0, r.cfg.Gray), Page: page, Placeholder: true, Created: time.Now()}
	}

	var fp Fingerprint
	if rect != nil {
		fp = Excerpt(page, *rect, zoom, rotation, gamma)
	} else {
		fp = FullPage(page, zoom, rotation, gamma)
	}

	if r.cfg.Tiles != nil {
		if hit := r.cfg.Tiles.Check(fp); hit != nil {
			// Dimension backfill applies only to full-page hits
			// that are still valid per the caller's threshold.
			if rect == nil && r.tileValid(hit) {
				r.backfillDimensions(page, hit, zoom, rotation)
			}
			return hit
		}
	}

	data, err := r.cfg.Sources.Resolve(page)
	if err != nil {
		flog.Logger().Warn("page source failed, rendering placeholder",
			"page", page, "error", err)
		return r.placeholder(page, rect, zoom, rotation)
	}

	// Resolve native dimensions; keep the probe handle open so the
	// render below can reuse it instead of opening a second one.
	dims, handle := r.resolveDimensions(data, true)
	if handle != nil {
		defer handle.Close()
	}
	if dims.Valid() {
		r.dims[page] = dims
	} else if cached, ok := r.dims[page]; ok {
		// A failed resolve never invalidates dimensions that are
		// already known; the fallback is only for pages that were
		// never sized.
		dims = cached
	} else {
		dims = r.cfg.Fallback
	}

	dstW, dstH, originX, originY := tileGeometry(dims, rect, zoom, rotation)

	rgba := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	rendered := r.drawPage(rgba, data, handle, dims, originX, originY, zoom, rotation)

	if rendered && gamma > 0 && gamma != 1.0 {
		applyGamma(rgba, gamma)
	}

	tile := &Tile{
		Image:      outputPixels(rgba, r.cfg.Gray),
		Rect:       tileRect(rect, zoom, dstW, dstH),
		Page:       page,
		Created:    time.Now(),
		Persistent: rect == nil,
	}

	if !rendered {
		// Placeholders are excluded from caching regardless of rect,
		// so a later successful fetch can replace them.
		fillGray(tile.Image)
		tile.Placeholder = true
		tile.Persistent = false
		return tile
	}

	if r.cfg.Tiles != nil {
		r.cfg.Tiles.Insert(fp, tile)
	}
	return tile
}

// PrefetchPage warms the render cache with a full-page render. The
// persistence rule (full-page tiles are cached) does the rest.
func (r *Renderer) PrefetchPage(page int, zoom float64, rotation int, gamma float64) {
	r.RenderPage(page, nil, zoom, rotation, gamma)
}

// tileValid compares a cached tile against the validity threshold.
func (r *Renderer) tileValid(t *Tile) bool {
	if r.cfg.CacheValidity.IsZero() {
		return true
	}
	return !t.Created.Before(r.cfg.CacheValidity)
}

// backfillDimensions recovers native page dimensions from a cached
// full-page tile's pixel size, undoing zoom and the 90/270 axis swap.
func (r *Renderer) backfillDimensions(page int, t *Tile, zoom float64, rotation int) {
	if _, ok := r.dims[page]; ok {
		return
	}
	if zoom <= 0 {
		return
	}
	w := int(math.Round(float64(t.Width()) / zoom))
	h := int(math.Round(float64(t.Height()) / zoom))
	if rot := model.NormalizeRotation(rotation); rot == 90 || rot == 270 {
		w, h = h, w
	}
	d := model.Dimensions{Width: w, Height: h}
	if d.Valid() {
		r.dims[page] = d
	}
}

// placeholder synthesizes a gray tile for a page whose bytes are
// unavailable, sized from the dimension cache or the fallback so its
// geometry matches what the real render would have produced.
func (r *Renderer) placeholder(page int, rect *image.Rectangle, zoom float64, rotation int) *Tile {
	dims, ok := r.dims[page]
	if !ok {
		dims = r.cfg.Fallback
	}
	w, h, _, _ := tileGeometry(dims, rect, zoom, rotation)
	return newPlaceholder(page, w, h, r.cfg.Gray, tileRect(rect, zoom, w, h))
}

// tileGeometry computes the destination tile size and the origin shift
// that maps the requested excerpt to tile-local (0,0). For a full-page
// render the tile covers the whole transformed page with no shift.
func tileGeometry(dims model.Dimensions, rect *image.Rectangle, zoom float64, rotation int) (w, h, originX, originY int) {
	if rect == nil {
		t := dims.Transform(rotation, zoom)
		return t.Width, t.Height, 0, 0
	}
	scaled := model.Dimensions{Width: rect.Dx(), Height: rect.Dy()}.Transform(0, zoom)
	originX = -int(math.Round(float64(rect.Min.X) * zoom))
	originY = -int(math.Round(float64(rect.Min.Y) * zoom))
	return scaled.Width, scaled.Height, originX, originY
}

// tileRect reports the transformed-page region a tile covers.
func tileRect(rect *image.Rectangle, zoom float64, w, h int) image.Rectangle {
	if rect == nil {
		return image.Rect(0, 0, w, h)
	}
	x := int(math.Round(float64(rect.Min.X) * zoom))
	y := int(math.Round(float64(rect.Min.Y) * zoom))
	return image.Rect(x, y, x+w, y+h)
}

// drawPage decodes the page and draws it, rotated and scaled, into dst at
// the given origin shift. It reports whether real content was drawn; on
// any engine failure it returns false and the caller substitutes the
// placeholder fill.
func (r *Renderer) drawPage(dst *image.RGBA, data []byte, handle Handle, dims model.Dimensions, originX, originY int, zoom float64, rotation int) bool {
	if dst.Bounds().Empty() {
		return false
	}

	if handle == nil {
		h, err := r.cfg.Engine.Open(data, format.Detect(data))
		if err != nil {
			flog.Logger().Warn("engine failed to open page bytes", "error", err)
			return false
		}
		defer h.Close()
		handle = h
	}

	img, err := handle.Image()
	if err != nil {
		flog.Logger().Warn("engine failed to decode page", "error", err)
		return false
	}

	rotated := rotateImage(toRGBA(img), rotation)

	full := dims.Transform(rotation, zoom)
	scaleInto(dst, rotated, image.Rect(originX, originY, originX+full.Width, originY+full.Height))
	return true
}

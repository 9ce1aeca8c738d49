package render

import (
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/tsawler/folio/format"
	"github.com/tsawler/folio/model"
	"github.com/tsawler/folio/source"
)

// fakeEngine decodes any byte buffer into a uniformly filled image of a
// fixed size, and records open/close activity so tests can assert the
// handle lifecycle.
type fakeEngine struct {
	size      model.Dimensions
	fill      color.RGBA
	opens     int
	closes    int
	failOpen  bool
	failImage bool
}

func newFakeEngine(w, h int) *fakeEngine {
	return &fakeEngine{
		size: model.Dimensions{Width: w, Height: h},
		fill: color.RGBA{R: 10, G: 20, B: 30, A: 255},
	}
}

func (e *fakeEngine) Open(data []byte, _ format.Format) (Handle, error) {
	if e.failOpen {
		return nil, errors.New("engine refused to open")
	}
	e.opens++
	return &fakeHandle{eng: e}, nil
}

type fakeHandle struct {
	eng    *fakeEngine
	closed bool
}

func (h *fakeHandle) Size() (model.Dimensions, error) {
	return h.eng.size, nil
}

func (h *fakeHandle) Image() (image.Image, error) {
	if h.eng.failImage {
		return nil, errors.New("decode exploded")
	}
	img := image.NewRGBA(image.Rect(0, 0, h.eng.size.Width, h.eng.size.Height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = h.eng.fill.R
		img.Pix[i+1] = h.eng.fill.G
		img.Pix[i+2] = h.eng.fill.B
		img.Pix[i+3] = h.eng.fill.A
	}
	return img, nil
}

func (h *fakeHandle) Close() error {
	if !h.closed {
		h.closed = true
		h.eng.closes++
	}
	return nil
}

// storeAllCache is a TileCache that accepts every tile, including
// excerpts, for exercising the sub-rectangle hit path.
type storeAllCache struct {
	tiles map[Fingerprint]*Tile
}

func newStoreAllCache() *storeAllCache {
	return &storeAllCache{tiles: make(map[Fingerprint]*Tile)}
}

func (c *storeAllCache) Check(fp Fingerprint) *Tile {
	return c.tiles[fp]
}

func (c *storeAllCache) Insert(fp Fingerprint, t *Tile) {
	c.tiles[fp] = t
}

func bufferResolver(pages ...[]byte) *source.Resolver {
	srcs := make([]source.Source, len(pages))
	for i, p := range pages {
		srcs[i] = source.FromBytes(p)
	}
	return source.NewResolver(srcs)
}

func TestRenderPage_FullPage(t *testing.T) {
	eng := newFakeEngine(400, 600)
	r := New(Config{
		Sources: bufferResolver([]byte("page bytes")),
		Engine:  eng,
		Tiles:   NewMemoryTileCache(64 << 20),
	})

	tile := r.RenderPage(1, nil, 1.0, 0, 1.0)

	if tile.Placeholder {
		t.Fatal("expected real content, got placeholder")
	}
	if !tile.Persistent {
		t.Error("full-page tile must be persistent")
	}
	if tile.Width() != 400 || tile.Height() != 600 {
		t.Errorf("tile size = %dx%d, want 400x600", tile.Width(), tile.Height())
	}
	if tile.Page != 1 {
		t.Errorf("tile page = %d, want 1", tile.Page)
	}

	// Dimensions were learned from the decode probe.
	if d, ok := r.CachedDimensions(1); !ok || d != (model.Dimensions{Width: 400, Height: 600}) {
		t.Errorf("cached dimensions = %+v, %v", d, ok)
	}

	// The probe handle was reused for drawing and closed on return.
	if eng.opens != 1 {
		t.Errorf("engine opened %d times, want 1", eng.opens)
	}
	if eng.closes != eng.opens {
		t.Errorf("opened %d handles but closed %d", eng.opens, eng.closes)
	}
}

func TestRenderPage_SecondCallServedFromCache(t *testing.T) {
	eng := newFakeEngine(100, 100)
	r := New(Config{
		Sources: bufferResolver([]byte("bytes")),
		Engine:  eng,
		Tiles:   NewMemoryTileCache(64 << 20),
	})

	first := r.RenderPage(1, nil, 1.5, 90, 1.2)
	second := r.RenderPage(1, nil, 1.5, 90, 1.2)

	if eng.opens != 1 {
		t.Errorf("engine opened %d times, want 1 (second call must hit cache)", eng.opens)
	}
	if first != second {
		t.Error("cache hit should return the stored tile")
	}
}

func TestRenderPage_DifferentFingerprintsRenderSeparately(t *testing.T) {
	eng := newFakeEngine(100, 100)
	r := New(Config{
		Sources: bufferResolver([]byte("bytes")),
		Engine:  eng,
		Tiles:   NewMemoryTileCache(64 << 20),
	})

	r.RenderPage(1, nil, 1.0, 0, 1.0)
	r.RenderPage(1, nil, 2.0, 0, 1.0)
	r.RenderPage(1, nil, 2.0, 90, 1.0)

	if eng.opens != 3 {
		t.Errorf("engine opened %d times, want 3", eng.opens)
	}
}

func TestRenderPage_PlaceholderOnSourceFailureNeverCached(t *testing.T) {
	failing := true
	srcs := []source.Source{source.FromSupplier(func() ([]byte, error) {
		if failing {
			return nil, errors.New("network down")
		}
		return []byte("now available"), nil
	})}

	eng := newFakeEngine(200, 300)
	tiles := NewMemoryTileCache(64 << 20)
	r := New(Config{Sources: source.NewResolver(srcs), Engine: eng, Tiles: tiles})

	tile := r.RenderPage(1, nil, 1.0, 0, 1.0)
	if !tile.Placeholder {
		t.Fatal("expected placeholder while supplier fails")
	}
	if tile.Persistent {
		t.Error("placeholder must not be persistent")
	}
	if tiles.Len() != 0 {
		t.Fatalf("placeholder was cached: cache holds %d tiles", tiles.Len())
	}
	// Placeholder is sized from the fallback dimensions.
	if tile.Width() != model.FallbackDimensions.Width || tile.Height() != model.FallbackDimensions.Height {
		t.Errorf("placeholder size = %dx%d, want fallback %dx%d",
			tile.Width(), tile.Height(),
			model.FallbackDimensions.Width, model.FallbackDimensions.Height)
	}

	// Once the supplier recovers, the same fingerprint renders fresh
	// content instead of returning a stale placeholder.
	failing = false
	tile = r.RenderPage(1, nil, 1.0, 0, 1.0)
	if tile.Placeholder {
		t.Fatal("expected real content after supplier recovered")
	}
	if tile.Width() != 200 || tile.Height() != 300 {
		t.Errorf("tile size = %dx%d, want 200x300", tile.Width(), tile.Height())
	}
	if tiles.Len() != 1 {
		t.Errorf("real tile not cached: cache holds %d tiles", tiles.Len())
	}
}

func TestRenderPage_EngineFailureFillsPlaceholder(t *testing.T) {
	eng := newFakeEngine(100, 150)
	eng.failImage = true
	tiles := NewMemoryTileCache(64 << 20)
	r := New(Config{Sources: bufferResolver([]byte("bytes")), Engine: eng, Tiles: tiles})

	tile := r.RenderPage(1, nil, 1.0, 0, 1.0)
	if !tile.Placeholder {
		t.Fatal("expected placeholder on decode failure")
	}
	if tiles.Len() != 0 {
		t.Error("decode-failure placeholder was cached")
	}
	// Geometry still matches the request: size query succeeded even
	// though pixel decode did not.
	if tile.Width() != 100 || tile.Height() != 150 {
		t.Errorf("tile size = %dx%d, want 100x150", tile.Width(), tile.Height())
	}
	// Pixels carry the neutral gray.
	rgba := tile.Image.(*image.RGBA)
	if rgba.Pix[0] != 0x80 || rgba.Pix[1] != 0x80 || rgba.Pix[2] != 0x80 {
		t.Errorf("placeholder pixel = %v, want neutral gray", rgba.Pix[:4])
	}
}

func TestRenderPage_FailedResolveKeepsKnownDimensions(t *testing.T) {
	eng := newFakeEngine(0, 0)
	eng.failOpen = true
	r := New(Config{Sources: bufferResolver([]byte("opaque blob")), Engine: eng})

	r.SetDimensions(1, model.Dimensions{Width: 640, Height: 480})
	tile := r.RenderPage(1, nil, 1.0, 0, 1.0)

	if !tile.Placeholder {
		t.Fatal("expected placeholder while the engine refuses to open")
	}
	// The placeholder is sized from the known dimensions, not the
	// fallback.
	if tile.Width() != 640 || tile.Height() != 480 {
		t.Errorf("placeholder size = %dx%d, want 640x480", tile.Width(), tile.Height())
	}
	// The failed resolve must not overwrite the preloaded entry.
	if d, ok := r.CachedDimensions(1); !ok || d != (model.Dimensions{Width: 640, Height: 480}) {
		t.Errorf("cached dimensions after failed render = %+v, %v; want 640x480", d, ok)
	}
}

func TestRenderPage_RotationSwapsTileSize(t *testing.T) {
	eng := newFakeEngine(400, 600)
	r := New(Config{Sources: bufferResolver([]byte("b")), Engine: eng})

	for _, rot := range []int{90, 270} {
		tile := r.RenderPage(1, nil, 1.0, rot, 1.0)
		if tile.Width() != 600 || tile.Height() != 400 {
			t.Errorf("rotation %d: tile size = %dx%d, want 600x400", rot, tile.Width(), tile.Height())
		}
	}
	for _, rot := range []int{0, 180} {
		tile := r.RenderPage(1, nil, 1.0, rot, 1.0)
		if tile.Width() != 400 || tile.Height() != 600 {
			t.Errorf("rotation %d: tile size = %dx%d, want 400x600", rot, tile.Width(), tile.Height())
		}
	}
}

func TestRenderPage_Excerpt(t *testing.T) {
	eng := newFakeEngine(400, 600)
	tiles := NewMemoryTileCache(64 << 20)
	r := New(Config{Sources: bufferResolver([]byte("b")), Engine: eng, Tiles: tiles})

	rect := image.Rect(10, 20, 110, 170)
	tile := r.RenderPage(1, &rect, 2.0, 0, 1.0)

	if tile.Placeholder {
		t.Fatal("expected real content")
	}
	if tile.Persistent {
		t.Error("excerpt tile must not be persistent")
	}
	// The tile exactly covers the scaled excerpt: 100x150 at zoom 2.
	if tile.Width() != 200 || tile.Height() != 300 {
		t.Errorf("tile size = %dx%d, want 200x300", tile.Width(), tile.Height())
	}
	want := image.Rect(20, 40, 220, 340)
	if tile.Rect != want {
		t.Errorf("tile rect = %v, want %v", tile.Rect, want)
	}
	// The memory cache declines transient excerpts.
	if tiles.Len() != 0 {
		t.Errorf("excerpt tile was cached by MemoryTileCache: %d tiles", tiles.Len())
	}
}

func TestRenderPage_OutOfRange(t *testing.T) {
	eng := newFakeEngine(100, 100)
	r := New(Config{Sources: bufferResolver([]byte("b")), Engine: eng})

	for _, page := range []int{0, -5, 2} {
		tile := r.RenderPage(page, nil, 1.0, 0, 1.0)
		if tile == nil {
			t.Fatalf("RenderPage(%d) returned nil", page)
		}
		if tile.Width() != 0 || tile.Height() != 0 {
			t.Errorf("RenderPage(%d) = %dx%d tile, want zero-size", page, tile.Width(), tile.Height())
		}
	}
	if eng.opens != 0 {
		t.Errorf("engine opened %d times for invalid pages, want 0", eng.opens)
	}
}

func TestRenderPage_DimensionBackfillFromCacheHit(t *testing.T) {
	eng := newFakeEngine(300, 500)
	tiles := NewMemoryTileCache(64 << 20)

	// First renderer populates the cache.
	r1 := New(Config{Sources: bufferResolver([]byte("b")), Engine: eng, Tiles: tiles})
	r1.RenderPage(1, nil, 2.0, 90, 1.0)

	// A fresh renderer sharing the cache knows nothing about page 1;
	// the full-page hit backfills its dimension cache, undoing zoom
	// and the 90-degree axis swap.
	r2 := New(Config{Sources: bufferResolver([]byte("b")), Engine: eng, Tiles: tiles})
	tile := r2.RenderPage(1, nil, 2.0, 90, 1.0)
	if tile.Placeholder {
		t.Fatal("expected cache hit")
	}
	d, ok := r2.CachedDimensions(1)
	if !ok || d != (model.Dimensions{Width: 300, Height: 500}) {
		t.Errorf("backfilled dimensions = %+v, %v; want 300x500", d, ok)
	}
}

func TestRenderPage_StaleHitSkipsBackfill(t *testing.T) {
	eng := newFakeEngine(300, 500)
	tiles := NewMemoryTileCache(64 << 20)

	r1 := New(Config{Sources: bufferResolver([]byte("b")), Engine: eng, Tiles: tiles})
	r1.RenderPage(1, nil, 1.0, 0, 1.0)

	// Validity threshold in the future marks the cached tile stale.
	r2 := New(Config{
		Sources:       bufferResolver([]byte("b")),
		Engine:        eng,
		Tiles:         tiles,
		CacheValidity: time.Now().Add(time.Hour),
	})
	r2.RenderPage(1, nil, 1.0, 0, 1.0)
	if _, ok := r2.CachedDimensions(1); ok {
		t.Error("stale hit must not backfill dimensions")
	}
}

func TestRenderPage_ExcerptHitSkipsBackfill(t *testing.T) {
	eng := newFakeEngine(300, 500)
	tiles := newStoreAllCache()

	r1 := New(Config{Sources: bufferResolver([]byte("b")), Engine: eng, Tiles: tiles})
	rect := image.Rect(0, 0, 100, 100)
	r1.RenderPage(1, &rect, 1.0, 0, 1.0)

	r2 := New(Config{Sources: bufferResolver([]byte("b")), Engine: eng, Tiles: tiles})
	tile := r2.RenderPage(1, &rect, 1.0, 0, 1.0)
	if tile == nil || tile.Placeholder {
		t.Fatal("expected excerpt cache hit")
	}
	// The validity/backfill logic applies only to full-page hits.
	if _, ok := r2.CachedDimensions(1); ok {
		t.Error("excerpt hit must not backfill dimensions")
	}
}

func TestRenderPage_GrayMode(t *testing.T) {
	eng := newFakeEngine(50, 50)
	r := New(Config{Sources: bufferResolver([]byte("b")), Engine: eng, Gray: true})

	tile := r.RenderPage(1, nil, 1.0, 0, 1.0)
	if _, ok := tile.Image.(*image.Gray); !ok {
		t.Errorf("gray mode tile pixels are %T, want *image.Gray", tile.Image)
	}
}

func TestRenderPage_GammaBrightens(t *testing.T) {
	eng := newFakeEngine(10, 10)
	eng.fill = color.RGBA{R: 100, G: 100, B: 100, A: 255}
	r := New(Config{Sources: bufferResolver([]byte("b")), Engine: eng})

	plain := r.RenderPage(1, nil, 1.0, 0, 1.0).Image.(*image.RGBA)
	corrected := r.RenderPage(1, nil, 1.0, 0, 2.2).Image.(*image.RGBA)

	if corrected.Pix[0] <= plain.Pix[0] {
		t.Errorf("gamma 2.2 pixel = %d, want brighter than %d", corrected.Pix[0], plain.Pix[0])
	}
	if corrected.Pix[3] != 255 {
		t.Errorf("gamma must not touch alpha: got %d", corrected.Pix[3])
	}
}

func TestRenderer_DimensionsSniffsWithoutDecoding(t *testing.T) {
	// A real PNG header: dimensions must come from the sniffer with no
	// engine involvement at all.
	png := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A,
		0, 0, 0, 13, 'I', 'H', 'D', 'R',
		0, 0, 0x03, 0x20, // width 800
		0, 0, 0x04, 0xB0, // height 1200
	}
	eng := newFakeEngine(1, 1)
	r := New(Config{Sources: bufferResolver(png), Engine: eng})

	d := r.Dimensions(1)
	if d != (model.Dimensions{Width: 800, Height: 1200}) {
		t.Errorf("Dimensions(1) = %+v, want 800x1200", d)
	}
	if eng.opens != 0 {
		t.Errorf("engine opened %d times for a sniffable header, want 0", eng.opens)
	}
}

func TestRenderer_DimensionsFallsBackToProbe(t *testing.T) {
	eng := newFakeEngine(640, 480)
	r := New(Config{Sources: bufferResolver([]byte("opaque blob")), Engine: eng})

	d := r.Dimensions(1)
	if d != (model.Dimensions{Width: 640, Height: 480}) {
		t.Errorf("Dimensions(1) = %+v, want probed 640x480", d)
	}
	if eng.opens != 1 || eng.closes != 1 {
		t.Errorf("probe handle lifecycle: opens=%d closes=%d, want 1/1", eng.opens, eng.closes)
	}
}

func TestRenderer_DimensionsFallbackWhenAllElseFails(t *testing.T) {
	eng := newFakeEngine(0, 0)
	eng.failOpen = true
	r := New(Config{Sources: bufferResolver([]byte("junk")), Engine: eng})

	if d := r.Dimensions(1); d != model.FallbackDimensions {
		t.Errorf("Dimensions(1) = %+v, want fallback", d)
	}
}

func TestRenderer_SetDimensions(t *testing.T) {
	eng := newFakeEngine(1, 1)
	r := New(Config{Sources: bufferResolver([]byte("b"), []byte("b")), Engine: eng})

	r.SetDimensions(2, model.Dimensions{Width: 123, Height: 456})
	r.SetDimensions(99, model.Dimensions{Width: 1, Height: 1}) // out of range, ignored
	r.SetDimensions(1, model.Dimensions{})                     // invalid, ignored

	if d := r.Dimensions(2); d != (model.Dimensions{Width: 123, Height: 456}) {
		t.Errorf("preloaded dimensions = %+v", d)
	}
	if _, ok := r.CachedDimensions(99); ok {
		t.Error("out-of-range preload was accepted")
	}
	if _, ok := r.CachedDimensions(1); ok {
		t.Error("invalid preload was accepted")
	}
	if eng.opens != 0 {
		t.Errorf("preloaded dimensions triggered %d engine opens", eng.opens)
	}
}

func TestPrefetchPageWarmsCache(t *testing.T) {
	eng := newFakeEngine(100, 100)
	tiles := NewMemoryTileCache(64 << 20)
	r := New(Config{Sources: bufferResolver([]byte("b")), Engine: eng, Tiles: tiles})

	r.PrefetchPage(1, 1.0, 0, 1.0)
	if tiles.Len() != 1 {
		t.Fatalf("prefetch cached %d tiles, want 1", tiles.Len())
	}

	r.RenderPage(1, nil, 1.0, 0, 1.0)
	if eng.opens != 1 {
		t.Errorf("display render decoded again after prefetch: %d opens", eng.opens)
	}
}

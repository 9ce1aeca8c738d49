package folio

import (
	"time"

	"github.com/tsawler/folio/model"
	"github.com/tsawler/folio/render"
)

// options holds document configuration assembled by Option values.
type options struct {
	pageCount     int
	fallback      model.Dimensions
	gray          bool
	engine        render.Engine
	tiles         render.TileCache
	tilesSet      bool
	cacheValidity time.Time
}

func defaultOptions() options {
	return options{
		fallback: model.FallbackDimensions,
	}
}

// Option configures a document at open time.
type Option func(*options)

// WithPageCount overrides the page count for lazily-enumerated source
// lists whose true extent is known out-of-band. Ignored unless positive.
func WithPageCount(n int) Option {
	return func(o *options) {
		o.pageCount = n
	}
}

// WithFallbackSize replaces the default 800x1200 fallback dimensions
// used when a page cannot be sized.
func WithFallbackSize(width, height int) Option {
	return func(o *options) {
		d := model.Dimensions{Width: width, Height: height}
		if d.Valid() {
			o.fallback = d
		}
	}
}

// WithGray selects grayscale tiles instead of RGBA.
func WithGray() Option {
	return func(o *options) {
		o.gray = true
	}
}

// WithEngine replaces the default pure-Go rendering engine, for example
// with the MuPDF engine from render/fitzengine.
func WithEngine(e render.Engine) Option {
	return func(o *options) {
		o.engine = e
	}
}

// WithTileCache replaces the default in-memory render cache. Pass nil to
// disable render caching entirely.
func WithTileCache(tc render.TileCache) Option {
	return func(o *options) {
		o.tiles = tc
		o.tilesSet = true
	}
}

// WithCacheValidity sets the staleness threshold for cached tiles:
// full-page cache hits created before ts are not trusted for dimension
// backfill. Use it after the underlying images may have changed.
func WithCacheValidity(ts time.Time) Option {
	return func(o *options) {
		o.cacheValidity = ts
	}
}

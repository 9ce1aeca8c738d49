package render

import (
	"fmt"
	"image"
	"math"

	"github.com/tsawler/folio/model"
)

// Fingerprint is the deterministic cache key for a rendered tile. It
// combines page identity with every parameter that affects the output
// pixels: zoom, rotation, gamma, and (for excerpt renders) the requested
// sub-rectangle. Two requests with equal fingerprints are
// cache-equivalent.
//
// Zoom and gamma are stored in micro-units so the struct stays comparable
// and two floats that would render identically map to the same key.
type Fingerprint struct {
	Page       int
	ZoomMicro  int64
	Rotation   int
	GammaMicro int64

	// Excerpt is set for sub-rectangle renders. Full-page and excerpt
	// requests never collide, even for a rect covering the whole page.
	Excerpt bool
	RectX   int
	RectY   int
	RectW   int
	RectH   int
}

// FullPage builds the fingerprint for a full-page render. The rotation is
// normalized to a quarter turn so equivalent requests (0 and 360, say)
// share one cache entry.
func FullPage(page int, zoom float64, rotation int, gamma float64) Fingerprint {
	return Fingerprint{
		Page:       page,
		ZoomMicro:  toMicro(zoom),
		Rotation:   model.NormalizeRotation(rotation),
		GammaMicro: toMicro(gamma),
	}
}

// Excerpt builds the fingerprint for a sub-rectangle render.
func Excerpt(page int, rect image.Rectangle, zoom float64, rotation int, gamma float64) Fingerprint {
	fp := FullPage(page, zoom, rotation, gamma)
	fp.Excerpt = true
	fp.RectX = rect.Min.X
	fp.RectY = rect.Min.Y
	fp.RectW = rect.Dx()
	fp.RectH = rect.Dy()
	return fp
}

// String renders the fingerprint as a stable, human-readable key, usable
// by persistent cache implementations that key by string.
func (fp Fingerprint) String() string {
	if fp.Excerpt {
		return fmt.Sprintf("p%d|z%d|r%d|g%d|x%d,%d+%dx%d",
			fp.Page, fp.ZoomMicro, fp.Rotation, fp.GammaMicro,
			fp.RectX, fp.RectY, fp.RectW, fp.RectH)
	}
	return fmt.Sprintf("p%d|z%d|r%d|g%d|full",
		fp.Page, fp.ZoomMicro, fp.Rotation, fp.GammaMicro)
}

func toMicro(v float64) int64 {
	return int64(math.Round(v * 1e6))
}

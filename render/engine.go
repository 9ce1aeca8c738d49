package render

import (
	"image"

	"github.com/tsawler/folio/format"
	"github.com/tsawler/folio/model"
)

// Engine is the external rendering engine: it opens a single-page
// mini-document from raw encoded bytes and decodes it on demand.
//
// Two implementations ship with folio: render/stdimg (pure Go, stdlib
// decoders plus x/image) and render/fitzengine (MuPDF via go-fitz, cgo).
type Engine interface {
	// Open creates a mini-document handle from encoded bytes. The
	// detected format is passed as a hint; engines are free to re-sniff.
	Open(data []byte, f format.Format) (Handle, error)
}

// Handle is an open mini-document. Handles hold native resources and must
// be closed by whoever opened them; the renderer bounds every handle's
// lifetime to a single render operation.
type Handle interface {
	// Size reports the page's native pixel dimensions without
	// necessarily decoding the pixel data.
	Size() (model.Dimensions, error)

	// Image decodes the page at native size.
	Image() (image.Image, error)

	// Close releases the handle's native resources.
	Close() error
}

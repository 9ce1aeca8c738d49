// Package fitzengine provides a MuPDF-backed rendering engine for folio
// via github.com/gen2brain/go-fitz.
//
// MuPDF decodes every format folio serves plus a long tail of others, and
// is considerably faster than the pure-Go decoders on large pages. It
// requires cgo; hosts that cannot carry it can stay on the default
// render/stdimg engine.
package fitzengine

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"

	"github.com/tsawler/folio/format"
	"github.com/tsawler/folio/model"
	"github.com/tsawler/folio/render"
)

// Engine opens single-page mini-documents through MuPDF.
type Engine struct{}

// New creates a fitz-backed engine.
func New() *Engine {
	return &Engine{}
}

// Open creates an in-memory mini-document from raw image bytes.
func (e *Engine) Open(data []byte, _ format.Format) (render.Handle, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("mupdf rejected page bytes: %w", err)
	}
	if doc.NumPage() < 1 {
		doc.Close()
		return nil, fmt.Errorf("mupdf produced an empty document")
	}
	return &handle{doc: doc}, nil
}

type handle struct {
	doc *fitz.Document
}

// Size queries the page bounds without rasterizing.
func (h *handle) Size() (model.Dimensions, error) {
	bound, err := h.doc.Bound(0)
	if err != nil {
		return model.Dimensions{}, fmt.Errorf("mupdf bound query failed: %w", err)
	}
	return model.Dimensions{Width: bound.Dx(), Height: bound.Dy()}, nil
}

// Image rasterizes the page at native size.
func (h *handle) Image() (image.Image, error) {
	img, err := h.doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("mupdf render failed: %w", err)
	}
	return img, nil
}

// Close frees the underlying MuPDF document.
func (h *handle) Close() error {
	return h.doc.Close()
}

// Package stdimg provides a pure-Go rendering engine for folio, built on
// the standard library image decoders plus the x/image WebP and BMP
// decoders. It needs no cgo and is the default engine.
package stdimg

import (
	"bytes"
	"fmt"
	"image"

	// Registered decoders for the formats folio serves.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/tsawler/folio/format"
	"github.com/tsawler/folio/model"
	"github.com/tsawler/folio/render"
)

// Engine decodes page bytes through the image package's decoder registry.
type Engine struct{}

// New creates a stdimg engine.
func New() *Engine {
	return &Engine{}
}

// Open parses the image header eagerly (so Size is cheap and never
// decodes pixel data) and defers the full decode to Image.
func (e *Engine) Open(data []byte, _ format.Format) (render.Handle, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unrecognized image data: %w", err)
	}
	return &handle{data: data, cfg: cfg}, nil
}

type handle struct {
	data []byte
	cfg  image.Config
}

func (h *handle) Size() (model.Dimensions, error) {
	return model.Dimensions{Width: h.cfg.Width, Height: h.cfg.Height}, nil
}

func (h *handle) Image() (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(h.data))
	if err != nil {
		return nil, fmt.Errorf("decode failed: %w", err)
	}
	return img, nil
}

// Close releases the handle's reference to the page bytes.
func (h *handle) Close() error {
	h.data = nil
	return nil
}

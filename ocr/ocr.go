//go:build ocr

// Package ocr provides optional text recognition for rendered pages of a
// virtual image document, giving image-backed documents a searchable text
// layer.
//
// This package wraps the Tesseract OCR engine via gosseract. It requires
// Tesseract to be installed on the system and the "ocr" build tag:
//
//	go build -tags ocr
//
// On macOS, install Tesseract via:
//
//	brew install tesseract
//
// On Ubuntu/Debian:
//
//	apt-get install tesseract-ocr
package ocr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/tsawler/folio/render"
)

// ErrOCRNotEnabled is never returned by this implementation; it exists so
// callers can test for it without caring which build they are on.
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// Client wraps Tesseract for OCR operations.
type Client struct {
	client *gosseract.Client
}

// New creates a new OCR client.
// The client should be closed when no longer needed to release resources.
func New() (*Client, error) {
	return &Client{client: gosseract.NewClient()}, nil
}

// Close releases OCR resources.
func (c *Client) Close() error {
	if c != nil && c.client != nil {
		return c.client.Close()
	}
	return nil
}

// RecognizeImage performs OCR on encoded image data (PNG, TIFF, JPEG).
// Returns the recognized text with leading/trailing whitespace trimmed.
func (c *Client) RecognizeImage(imageData []byte) (string, error) {
	if err := c.client.SetImageFromBytes(imageData); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := c.client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}

	return strings.TrimSpace(text), nil
}

// RecognizeTile performs OCR on a rendered tile. Placeholder tiles carry
// no content and are rejected.
func (c *Client) RecognizeTile(t *render.Tile) (string, error) {
	if t == nil || t.Placeholder {
		return "", fmt.Errorf("tile has no recognizable content")
	}
	data, err := t.ToPNG()
	if err != nil {
		return "", err
	}
	return c.RecognizeImage(data)
}

// SetLanguage sets the language(s) for OCR recognition.
// Multiple languages can be specified as a "+" separated string
// (e.g., "eng+fra"). Default is "eng" (English).
func (c *Client) SetLanguage(lang string) error {
	return c.client.SetLanguage(lang)
}

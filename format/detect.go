// Package format provides raster image format detection and header-only
// dimension extraction for the folio library.
//
// Detection and sizing work directly on the encoded bytes: no decoder is
// ever invoked, and every multi-byte read is bounds-checked so that
// truncated or corrupted buffers yield "unknown" rather than a panic.
package format

import (
	"bytes"
	"encoding/binary"
)

// Format represents a supported raster image format.
type Format int

const (
	// Unknown indicates an unrecognized format.
	Unknown Format = iota
	// PNG indicates a Portable Network Graphics image.
	PNG
	// JPEG indicates a JPEG/JFIF image.
	JPEG
	// GIF indicates a GIF87a or GIF89a image.
	GIF
	// WEBP indicates a WebP image (lossy, lossless, or extended).
	WEBP
)

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case PNG:
		return "PNG"
	case JPEG:
		return "JPEG"
	case GIF:
		return "GIF"
	case WEBP:
		return "WEBP"
	default:
		return "Unknown"
	}
}

// Extension returns the typical file extension for the format.
func (f Format) Extension() string {
	switch f {
	case PNG:
		return ".png"
	case JPEG:
		return ".jpg"
	case GIF:
		return ".gif"
	case WEBP:
		return ".webp"
	default:
		return ""
	}
}

// minSniffLen is the minimum buffer length needed to attempt detection.
// The longest signature check (RIFF....WEBP) spans the first 12 bytes.
const minSniffLen = 12

var (
	pngSignature = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
	gif87Header  = []byte("GIF87a")
	gif89Header  = []byte("GIF89a")
)

// Detect determines the image format from magic bytes.
// Buffers shorter than 12 bytes are always Unknown.
func Detect(data []byte) Format {
	if len(data) < minSniffLen {
		return Unknown
	}

	if bytes.HasPrefix(data, pngSignature) {
		return PNG
	}

	// JPEG SOI marker followed by another marker prefix: FF D8 FF
	if data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return JPEG
	}

	if bytes.HasPrefix(data, gif87Header) || bytes.HasPrefix(data, gif89Header) {
		return GIF
	}

	// RIFF container with a WEBP form type
	if bytes.HasPrefix(data, []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")) {
		return WEBP
	}

	return Unknown
}

// SniffDimensions extracts pixel dimensions from the image header without
// decoding. It returns ok=false for unrecognized, truncated, or malformed
// buffers, and never reads out of bounds.
func SniffDimensions(data []byte) (width, height int, ok bool) {
	switch Detect(data) {
	case PNG:
		return pngDimensions(data)
	case JPEG:
		return jpegDimensions(data)
	case GIF:
		return gifDimensions(data)
	case WEBP:
		return webpDimensions(data)
	default:
		return 0, 0, false
	}
}

// pngDimensions reads the width and height fields of the IHDR chunk.
// IHDR is required to be the first chunk, so the fields sit at fixed
// offsets: width at bytes 16-19, height at bytes 20-23, both big-endian.
func pngDimensions(data []byte) (int, int, bool) {
	if len(data) < 24 {
		return 0, 0, false
	}
	if !bytes.Equal(data[12:16], []byte("IHDR")) {
		return 0, 0, false
	}
	w := int(binary.BigEndian.Uint32(data[16:20]))
	h := int(binary.BigEndian.Uint32(data[20:24]))
	if w <= 0 || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}

// jpegDimensions walks the marker segments after the SOI marker until it
// finds a Start-Of-Frame marker, then reads the frame height and width.
// Standalone markers (TEM, restart markers) carry no length field and are
// skipped; every other segment declares its own length.
func jpegDimensions(data []byte) (int, int, bool) {
	i := 2 // past SOI
	for i+1 < len(data) {
		if data[i] != 0xFF {
			return 0, 0, false
		}
		marker := data[i+1]

		// Fill bytes: consecutive FFs pad to the real marker.
		if marker == 0xFF {
			i++
			continue
		}

		// Standalone markers: TEM (01) and RST0-RST7 (D0-D7).
		if marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7) {
			i += 2
			continue
		}

		// EOI, or entropy-coded data reached without a frame header.
		if marker == 0xD9 || marker == 0xDA {
			return 0, 0, false
		}

		if i+3 >= len(data) {
			return 0, 0, false
		}
		segLen := int(binary.BigEndian.Uint16(data[i+2 : i+4]))
		if segLen < 2 {
			return 0, 0, false
		}

		// SOF0-SOF15 excluding DHT (C4), JPG (C8), and DAC (CC).
		if marker >= 0xC0 && marker <= 0xCF && marker != 0xC4 && marker != 0xC8 && marker != 0xCC {
			// Frame header: length(2) precision(1) height(2) width(2)
			if i+9 > len(data) {
				return 0, 0, false
			}
			h := int(binary.BigEndian.Uint16(data[i+5 : i+7]))
			w := int(binary.BigEndian.Uint16(data[i+7 : i+9]))
			if w <= 0 || h <= 0 {
				return 0, 0, false
			}
			return w, h, true
		}

		i += 2 + segLen
	}
	return 0, 0, false
}

// gifDimensions reads the logical screen descriptor that immediately
// follows the 6-byte signature: width and height as little-endian uint16.
func gifDimensions(data []byte) (int, int, bool) {
	if len(data) < 10 {
		return 0, 0, false
	}
	w := int(binary.LittleEndian.Uint16(data[6:8]))
	h := int(binary.LittleEndian.Uint16(data[8:10]))
	if w <= 0 || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}

// webpDimensions walks RIFF chunks looking for a VP8X, VP8 (lossy), or
// VP8L (lossless) chunk and extracts dimensions from whichever appears
// first. Chunks are padded to even length.
func webpDimensions(data []byte) (int, int, bool) {
	i := 12 // past RIFF header and WEBP form type
	for i+8 <= len(data) {
		fourCC := string(data[i : i+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[i+4 : i+8]))
		if chunkSize < 0 {
			return 0, 0, false
		}
		payload := i + 8

		switch fourCC {
		case "VP8X":
			// flags(1) reserved(3) then canvas width-1 and height-1
			// as packed 24-bit little-endian fields.
			if payload+10 > len(data) {
				return 0, 0, false
			}
			w := 1 + readUint24(data[payload+4:payload+7])
			h := 1 + readUint24(data[payload+7:payload+10])
			return w, h, true

		case "VP8 ":
			// Lossy bitstream: frame tag(3), key-frame sync code
			// 9D 01 2A, then 14-bit width and height in two
			// little-endian uint16 fields.
			if payload+10 > len(data) {
				return 0, 0, false
			}
			if data[payload+3] != 0x9D || data[payload+4] != 0x01 || data[payload+5] != 0x2A {
				return 0, 0, false
			}
			w := int(binary.LittleEndian.Uint16(data[payload+6:payload+8])) & 0x3FFF
			h := int(binary.LittleEndian.Uint16(data[payload+8:payload+10])) & 0x3FFF
			if w <= 0 || h <= 0 {
				return 0, 0, false
			}
			return w, h, true

		case "VP8L":
			// Lossless bitstream: signature byte 2F, then a 32-bit
			// little-endian field packing width-1 (bits 0-13) and
			// height-1 (bits 14-27).
			if payload+5 > len(data) {
				return 0, 0, false
			}
			if data[payload] != 0x2F {
				return 0, 0, false
			}
			bits := binary.LittleEndian.Uint32(data[payload+1 : payload+5])
			w := 1 + int(bits&0x3FFF)
			h := 1 + int((bits>>14)&0x3FFF)
			return w, h, true
		}

		// Advance past the payload, honoring even-length padding.
		advance := chunkSize
		if advance%2 == 1 {
			advance++
		}
		next := payload + advance
		if next <= i {
			return 0, 0, false
		}
		i = next
	}
	return 0, 0, false
}

// readUint24 reads a 24-bit little-endian value from exactly three bytes.
func readUint24(b []byte) int {
	return int(b[0]) | int(b[1])<<8 | int(b[2])<<16
}

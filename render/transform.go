package render

import (
	"image"
	stddraw "image/draw"
	"math"

	"golang.org/x/image/draw"

	"github.com/tsawler/folio/model"
)

// toRGBA returns img as *image.RGBA, converting if necessary.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	stddraw.Draw(rgba, rgba.Bounds(), img, b.Min, stddraw.Src)
	return rgba
}

// rotateImage rotates src by a quarter-turn multiple, clockwise.
func rotateImage(src *image.RGBA, rotation int) *image.RGBA {
	switch model.NormalizeRotation(rotation) {
	case 90:
		return rotate90(src)
	case 180:
		return rotate180(src)
	case 270:
		return rotate270(src)
	default:
		return src
	}
}

func rotate90(src *image.RGBA) *image.RGBA {
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	dst := image.NewRGBA(image.Rect(0, 0, h, w))
	for dy := 0; dy < w; dy++ {
		for dx := 0; dx < h; dx++ {
			// dst(dx,dy) <- src(dy, h-1-dx)
			si := src.PixOffset(src.Bounds().Min.X+dy, src.Bounds().Min.Y+h-1-dx)
			di := dst.PixOffset(dx, dy)
			copy(dst.Pix[di:di+4], src.Pix[si:si+4])
		}
	}
	return dst
}

func rotate180(src *image.RGBA) *image.RGBA {
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			si := src.PixOffset(src.Bounds().Min.X+w-1-dx, src.Bounds().Min.Y+h-1-dy)
			di := dst.PixOffset(dx, dy)
			copy(dst.Pix[di:di+4], src.Pix[si:si+4])
		}
	}
	return dst
}

func rotate270(src *image.RGBA) *image.RGBA {
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	dst := image.NewRGBA(image.Rect(0, 0, h, w))
	for dy := 0; dy < w; dy++ {
		for dx := 0; dx < h; dx++ {
			// dst(dx,dy) <- src(w-1-dy, dx)
			si := src.PixOffset(src.Bounds().Min.X+w-1-dy, src.Bounds().Min.Y+dx)
			di := dst.PixOffset(dx, dy)
			copy(dst.Pix[di:di+4], src.Pix[si:si+4])
		}
	}
	return dst
}

// scaleInto scales src to fill dstRect inside dst, clipping to dst's
// bounds. BiLinear keeps quality acceptable for both up and downscaling
// without the cost of CatmullRom at large zooms.
func scaleInto(dst *image.RGBA, src image.Image, dstRect image.Rectangle) {
	if dstRect.Dx() == src.Bounds().Dx() && dstRect.Dy() == src.Bounds().Dy() {
		stddraw.Draw(dst, dstRect, src, src.Bounds().Min, stddraw.Src)
		return
	}
	draw.BiLinear.Scale(dst, dstRect, src, src.Bounds(), draw.Src, nil)
}

// applyGamma applies gamma correction in place to the RGB channels using
// a 256-entry lookup table. Alpha is left untouched.
func applyGamma(img *image.RGBA, gamma float64) {
	inv := 1.0 / gamma
	var lut [256]uint8
	for i := range lut {
		lut[i] = uint8(math.Round(255 * math.Pow(float64(i)/255, inv)))
	}
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = lut[img.Pix[i]]
		img.Pix[i+1] = lut[img.Pix[i+1]]
		img.Pix[i+2] = lut[img.Pix[i+2]]
	}
}

// outputPixels converts the working RGBA buffer to the configured output
// mode.
func outputPixels(rgba *image.RGBA, gray bool) stddraw.Image {
	if !gray {
		return rgba
	}
	g := image.NewGray(rgba.Bounds())
	stddraw.Draw(g, g.Bounds(), rgba, rgba.Bounds().Min, stddraw.Src)
	return g
}

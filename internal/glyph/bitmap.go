// Package glyph compares handwritten answers with the expected script.
//
// Both sides are reduced to a square grayscale Bitmap and compared with a
// mean absolute pixel difference. This is a crude heuristic, not OCR.
package glyph

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

const (
	// DefaultResolution is the side length of compared bitmaps
	DefaultResolution = 64

	// SimilarityThreshold is the score at which a drawing is accepted
	SimilarityThreshold = 0.48
)

// Bitmap holds row-major luminance values of a square image.
// The background is close to 255 and strokes close to 0.
type Bitmap []uint8

// Score returns 1 - sum|u-t| / (255 * N) in [0, 1].
// A missing user bitmap or a size mismatch scores 0.
func Score(user, target Bitmap) float64 {
	if len(user) == 0 || len(user) != len(target) {
		return 0
	}

	var diff uint64
	for i := range user {
		if user[i] > target[i] {
			diff += uint64(user[i] - target[i])
		} else {
			diff += uint64(target[i] - user[i])
		}
	}
	return 1 - float64(diff)/(255*float64(len(user)))
}

// FromImage flattens img over a white background, scales it to a
// resolution x resolution square and converts it to luminance.
func FromImage(img image.Image, resolution int) Bitmap {
	if img == nil || resolution <= 0 || img.Bounds().Empty() {
		return nil
	}

	bounds := img.Bounds()
	background := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	flattened := imaging.Overlay(background, img, image.Pt(0, 0), 1.0)
	scaled := imaging.Resize(flattened, resolution, resolution, imaging.Linear)

	bitmap := make(Bitmap, resolution*resolution)
	for y := 0; y < resolution; y++ {
		for x := 0; x < resolution; x++ {
			i := scaled.PixOffset(x, y)
			r, g, b := scaled.Pix[i], scaled.Pix[i+1], scaled.Pix[i+2]
			bitmap[y*resolution+x] = luminance(r, g, b)
		}
	}
	return bitmap
}

func luminance(r, g, b uint8) uint8 {
	l := 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
	return uint8(math.Min(255, math.Round(l)))
}

// Image returns the bitmap as a grayscale image, or nil when it is not square
func (b Bitmap) Image() *image.Gray {
	size := int(math.Sqrt(float64(len(b))))
	if size == 0 || size*size != len(b) {
		return nil
	}
	img := image.NewGray(image.Rect(0, 0, size, size))
	copy(img.Pix, b)
	return img
}

func fromGray(img *image.Gray) Bitmap {
	bounds := img.Bounds()
	bitmap := make(Bitmap, 0, bounds.Dx()*bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row := img.Pix[img.PixOffset(bounds.Min.X, y):img.PixOffset(bounds.Max.X, y)]
		bitmap = append(bitmap, row...)
	}
	return bitmap
}

package glyph

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

var ErrNoFont = errors.New("no font configured")

const (
	fontScale      = 0.8
	baselineOffset = 0.05
)

// Renderer draws text as solid black glyphs centered on a white square
type Renderer struct {
	font *opentype.Font
}

// NewRenderer loads an OpenType or TrueType font file. An empty path returns
// a renderer that fails every render with ErrNoFont.
func NewRenderer(fontPath string) (*Renderer, error) {
	if fontPath == "" {
		return &Renderer{}, nil
	}
	data, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("os.ReadFile(%s) > %w", fontPath, err)
	}
	return NewRendererFromBytes(data)
}

func NewRendererFromBytes(data []byte) (*Renderer, error) {
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("opentype.Parse() > %w", err)
	}
	return &Renderer{font: f}, nil
}

func (r *Renderer) Render(text string, resolution int) (Bitmap, error) {
	if r == nil || r.font == nil {
		return nil, ErrNoFont
	}
	if resolution <= 0 {
		return nil, fmt.Errorf("invalid resolution %d", resolution)
	}

	face, err := opentype.NewFace(r.font, &opentype.FaceOptions{
		Size:    fontScale * float64(resolution),
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("opentype.NewFace() > %w", err)
	}
	defer func() {
		_ = face.Close()
	}()

	dst := image.NewGray(image.Rect(0, 0, resolution, resolution))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)

	drawer := font.Drawer{
		Dst:  dst,
		Src:  image.Black,
		Face: face,
	}
	metrics := face.Metrics()
	width := drawer.MeasureString(text)
	drawer.Dot = fixed.Point26_6{
		X: (fixed.I(resolution) - width) / 2,
		Y: fixed.I(resolution)/2 + (metrics.Ascent-metrics.Descent)/2 + fixed.Int26_6(baselineOffset*float64(resolution)*64),
	}
	drawer.DrawString(text)

	return fromGray(dst), nil
}

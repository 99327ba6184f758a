package glyph

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"

	"golang.org/x/image/vector"
)

const (
	DefaultCanvasSize = 600
	DefaultBrushWidth = 14
)

// Surface is the drawing area a handwritten answer is captured from
type Surface interface {
	Clear()
	Undo()
	// Bitmap returns the drawing at the given resolution, or false when nothing is drawn
	Bitmap(resolution int) (Bitmap, bool)
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Stroke struct {
	Points []Point `json:"points"`
	Width  float64 `json:"width,omitempty"`
}

// StrokeSurface keeps strokes in canvas coordinates and rasterizes them on demand
type StrokeSurface struct {
	mu         sync.Mutex
	canvasSize int
	brushWidth float64
	strokes    []Stroke
}

func NewStrokeSurface(canvasSize int, brushWidth float64) *StrokeSurface {
	if canvasSize <= 0 {
		canvasSize = DefaultCanvasSize
	}
	if brushWidth <= 0 {
		brushWidth = DefaultBrushWidth
	}
	return &StrokeSurface{
		canvasSize: canvasSize,
		brushWidth: brushWidth,
	}
}

// AddStroke appends a stroke. Strokes without points are ignored.
func (s *StrokeSurface) AddStroke(stroke Stroke) {
	if len(stroke.Points) == 0 {
		return
	}
	if stroke.Width <= 0 {
		stroke.Width = s.brushWidth
	}
	limit := float64(s.canvasSize)
	points := make([]Point, len(stroke.Points))
	for i, p := range stroke.Points {
		points[i] = Point{X: clamp(p.X, 0, limit), Y: clamp(p.Y, 0, limit)}
	}
	stroke.Points = points

	s.mu.Lock()
	defer s.mu.Unlock()
	s.strokes = append(s.strokes, stroke)
}

// SetStrokes replaces the whole drawing
func (s *StrokeSurface) SetStrokes(strokes []Stroke) {
	s.Clear()
	for _, stroke := range strokes {
		s.AddStroke(stroke)
	}
}

func (s *StrokeSurface) Strokes() []Stroke {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Stroke(nil), s.strokes...)
}

func (s *StrokeSurface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strokes = nil
}

func (s *StrokeSurface) Undo() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.strokes) > 0 {
		s.strokes = s.strokes[:len(s.strokes)-1]
	}
}

func (s *StrokeSurface) Bitmap(resolution int) (Bitmap, bool) {
	s.mu.Lock()
	strokes := append([]Stroke(nil), s.strokes...)
	s.mu.Unlock()

	if len(strokes) == 0 {
		return nil, false
	}
	return FromImage(rasterize(strokes, s.canvasSize), resolution), true
}

// rasterize draws round-capped black strokes on a white canvas
func rasterize(strokes []Stroke, size int) image.Image {
	z := vector.NewRasterizer(size, size)
	for _, stroke := range strokes {
		radius := float32(stroke.Width / 2)
		for i, p := range stroke.Points {
			addCircle(z, float32(p.X), float32(p.Y), radius)
			if i > 0 {
				addSegment(z, stroke.Points[i-1], p, radius)
			}
		}
	}

	mask := image.NewAlpha(image.Rect(0, 0, size, size))
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})

	canvas := image.NewGray(image.Rect(0, 0, size, size))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)
	draw.DrawMask(canvas, canvas.Bounds(), image.NewUniform(color.Black), image.Point{}, mask, image.Point{}, draw.Over)
	return canvas
}

// circleKappa places cubic control points so four curves approximate a circle
const circleKappa = 0.5522848

// addCircle adds a circle traced clockwise on screen, the same orientation as addSegment
func addCircle(z *vector.Rasterizer, cx, cy, r float32) {
	k := r * circleKappa
	z.MoveTo(cx+r, cy)
	z.CubeTo(cx+r, cy-k, cx+k, cy-r, cx, cy-r)
	z.CubeTo(cx-k, cy-r, cx-r, cy-k, cx-r, cy)
	z.CubeTo(cx-r, cy+k, cx-k, cy+r, cx, cy+r)
	z.CubeTo(cx+k, cy+r, cx+r, cy+k, cx+r, cy)
	z.ClosePath()
}

func addSegment(z *vector.Rasterizer, from, to Point, r float32) {
	dx, dy := to.X-from.X, to.Y-from.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	nx := float32(-dy/length) * r
	ny := float32(dx/length) * r
	x0, y0 := float32(from.X), float32(from.Y)
	x1, y1 := float32(to.X), float32(to.Y)

	z.MoveTo(x0+nx, y0+ny)
	z.LineTo(x1+nx, y1+ny)
	z.LineTo(x1-nx, y1-ny)
	z.LineTo(x0-nx, y0-ny)
	z.ClosePath()
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

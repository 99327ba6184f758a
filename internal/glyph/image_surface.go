package glyph

import (
	"image"
	"sync"
)

// ImageSurface holds drawings uploaded as whole images, such as a PNG
// exported by a browser canvas. Undo drops the latest upload.
type ImageSurface struct {
	mu     sync.Mutex
	images []image.Image
}

func NewImageSurface() *ImageSurface {
	return &ImageSurface{}
}

func (s *ImageSurface) Put(img image.Image) {
	if img == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images = append(s.images, img)
}

func (s *ImageSurface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images = nil
}

func (s *ImageSurface) Undo() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.images) > 0 {
		s.images = s.images[:len(s.images)-1]
	}
}

func (s *ImageSurface) Bitmap(resolution int) (Bitmap, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.images) == 0 {
		return nil, false
	}
	bitmap := FromImage(s.images[len(s.images)-1], resolution)
	return bitmap, len(bitmap) > 0
}

// MultiSurface combines surfaces. Bitmap returns the first drawing found;
// Clear and Undo apply to every surface.
type MultiSurface []Surface

func (m MultiSurface) Clear() {
	for _, s := range m {
		s.Clear()
	}
}

func (m MultiSurface) Undo() {
	for _, s := range m {
		s.Undo()
	}
}

func (m MultiSurface) Bitmap(resolution int) (Bitmap, bool) {
	for _, s := range m {
		if bitmap, ok := s.Bitmap(resolution); ok {
			return bitmap, true
		}
	}
	return nil, false
}

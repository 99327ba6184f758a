package glyph

import (
	"fmt"
)

// TextRenderer renders the expected script for a comparison
type TextRenderer interface {
	Render(text string, resolution int) (Bitmap, error)
}

// Scorer compares a user bitmap with the script rendered on the fly.
// Rendered targets are not cached.
type Scorer struct {
	renderer   TextRenderer
	resolution int
	threshold  float64
}

func NewScorer(renderer TextRenderer, resolution int, threshold float64) *Scorer {
	if resolution <= 0 {
		resolution = DefaultResolution
	}
	if threshold <= 0 {
		threshold = SimilarityThreshold
	}
	return &Scorer{
		renderer:   renderer,
		resolution: resolution,
		threshold:  threshold,
	}
}

func (s *Scorer) Resolution() int {
	return s.resolution
}

// Similarity returns the score of user against the rendered script.
// Any render failure yields 0 together with the error.
func (s *Scorer) Similarity(user Bitmap, script string) (float64, error) {
	if len(user) == 0 {
		return 0, nil
	}
	target, err := s.renderer.Render(script, s.resolution)
	if err != nil {
		return 0, fmt.Errorf("renderer.Render(%s) > %w", script, err)
	}
	return Score(user, target), nil
}

// Matches reports whether the drawing is similar enough to the script
func (s *Scorer) Matches(user Bitmap, script string) (bool, error) {
	similarity, err := s.Similarity(user, script)
	if err != nil {
		return false, err
	}
	return similarity >= s.threshold, nil
}

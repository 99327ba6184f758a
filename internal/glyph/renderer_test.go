package glyph

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
)

func darkCentroid(b Bitmap, size int) (x, y float64, count int) {
	for i, v := range b {
		if v < 128 {
			x += float64(i % size)
			y += float64(i / size)
			count++
		}
	}
	if count == 0 {
		return 0, 0, 0
	}
	return x / float64(count), y / float64(count), count
}

func TestRenderer_Render(t *testing.T) {
	renderer, err := NewRendererFromBytes(goregular.TTF)
	require.NoError(t, err)

	got, err := renderer.Render("A", DefaultResolution)
	require.NoError(t, err)
	require.Len(t, got, DefaultResolution*DefaultResolution)

	x, y, count := darkCentroid(got, DefaultResolution)
	assert.Greater(t, count, 50, "the glyph is drawn")
	assert.Less(t, count, DefaultResolution*DefaultResolution/2, "the background stays white")
	assert.InDelta(t, DefaultResolution/2, x, 8, "horizontally centered")
	assert.InDelta(t, DefaultResolution/2, y, 12, "vertically centered")

	again, err := renderer.Render("A", DefaultResolution)
	require.NoError(t, err)
	assert.Equal(t, 1.0, Score(got, again))
}

func TestRenderer_Errors(t *testing.T) {
	t.Run("no font configured", func(t *testing.T) {
		renderer, err := NewRenderer("")
		require.NoError(t, err)
		_, err = renderer.Render("山", DefaultResolution)
		assert.ErrorIs(t, err, ErrNoFont)
	})

	t.Run("missing font file", func(t *testing.T) {
		_, err := NewRenderer(filepath.Join(t.TempDir(), "missing.ttf"))
		assert.Error(t, err)
	})

	t.Run("not a font", func(t *testing.T) {
		_, err := NewRendererFromBytes([]byte("not a font"))
		assert.Error(t, err)
	})

	t.Run("invalid resolution", func(t *testing.T) {
		renderer, err := NewRendererFromBytes(goregular.TTF)
		require.NoError(t, err)
		_, err = renderer.Render("A", 0)
		assert.Error(t, err)
	})
}

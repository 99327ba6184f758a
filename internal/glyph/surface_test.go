package glyph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countDark(b Bitmap) int {
	count := 0
	for _, v := range b {
		if v < 128 {
			count++
		}
	}
	return count
}

func TestStrokeSurface(t *testing.T) {
	surface := NewStrokeSurface(0, 0)

	_, ok := surface.Bitmap(DefaultResolution)
	assert.False(t, ok, "nothing drawn yet")

	surface.AddStroke(Stroke{Points: []Point{{X: 100, Y: 300}, {X: 500, Y: 300}}, Width: 60})
	horizontal, ok := surface.Bitmap(DefaultResolution)
	require.True(t, ok)
	require.Len(t, horizontal, DefaultResolution*DefaultResolution)
	assert.Greater(t, countDark(horizontal), 0)
	assert.Less(t, horizontal[32*DefaultResolution+32], uint8(128), "the stroke crosses the center")
	assert.Equal(t, uint8(255), horizontal[0], "the corner stays white")

	surface.AddStroke(Stroke{Points: []Point{{X: 300, Y: 100}, {X: 300, Y: 500}}, Width: 60})
	cross, ok := surface.Bitmap(DefaultResolution)
	require.True(t, ok)
	assert.Greater(t, countDark(cross), countDark(horizontal))
	assert.Len(t, surface.Strokes(), 2)

	surface.Undo()
	undone, ok := surface.Bitmap(DefaultResolution)
	require.True(t, ok)
	assert.Equal(t, horizontal, undone)

	surface.Clear()
	_, ok = surface.Bitmap(DefaultResolution)
	assert.False(t, ok)

	surface.Undo()
	assert.Empty(t, surface.Strokes(), "undo on an empty surface is a no-op")
}

func TestStrokeSurface_AddStroke(t *testing.T) {
	surface := NewStrokeSurface(600, 14)

	surface.AddStroke(Stroke{})
	assert.Empty(t, surface.Strokes(), "strokes without points are ignored")

	surface.AddStroke(Stroke{Points: []Point{{X: -10, Y: 700}}})
	strokes := surface.Strokes()
	require.Len(t, strokes, 1)
	assert.Equal(t, float64(DefaultBrushWidth), strokes[0].Width)
	assert.Equal(t, []Point{{X: 0, Y: 600}}, strokes[0].Points)

	surface.SetStrokes([]Stroke{{Points: []Point{{X: 300, Y: 300}}, Width: 80}})
	dot, ok := surface.Bitmap(DefaultResolution)
	require.True(t, ok)
	assert.Greater(t, countDark(dot), 0, "a single point draws a dot")
	assert.Len(t, surface.Strokes(), 1)
}

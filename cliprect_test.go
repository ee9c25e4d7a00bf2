package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticBounds answers bounds queries from a fixed table and records lookups.
type staticBounds struct {
	boxes   map[string]Box
	queried []string
}

func (s *staticBounds) ElementBounds(_ context.Context, selector string) (Box, error) {
	s.queried = append(s.queried, selector)
	box, ok := s.boxes[selector]
	if !ok {
		return Box{}, fmt.Errorf("%q: %w", selector, ErrElementNotFound)
	}
	return box, nil
}

func TestRectBoxRoundTrip(t *testing.T) {
	rects := []Rect{
		{},
		{Top: 10, Left: 20, Width: 300, Height: 400},
		{Top: 0.5, Left: 1.25, Width: 99.75, Height: 0},
		{Top: -4, Left: -8, Width: 16, Height: 32},
	}
	for _, r := range rects {
		assert.Equal(t, r, r.Box().Rect(), "%+v", r)
	}
}

func TestRectBox(t *testing.T) {
	r := Rect{Top: 5, Left: 10, Width: 90, Height: 45}
	assert.Equal(t, Box{Top: 5, Left: 10, Bottom: 50, Right: 100}, r.Box())
}

func TestUnionBoxes(t *testing.T) {
	a := Box{Top: 10, Left: 10, Bottom: 50, Right: 60}
	b := Box{Top: 5, Left: 30, Bottom: 20, Right: 100}
	c := Box{Top: 40, Left: 0, Bottom: 45, Right: 5}

	t.Run("single", func(t *testing.T) {
		assert.Equal(t, a, UnionBoxes(a))
	})

	t.Run("pair", func(t *testing.T) {
		union := UnionBoxes(a, b)
		assert.Equal(t, Box{Top: 5, Left: 10, Bottom: 50, Right: 100}, union)
		assert.Equal(t, Rect{Top: 5, Left: 10, Width: 90, Height: 45}, union.Rect())
	})

	t.Run("order independent", func(t *testing.T) {
		assert.Equal(t, UnionBoxes(a, b), UnionBoxes(b, a))
		assert.Equal(t, UnionBoxes(a, b, c), UnionBoxes(c, a, b))
		assert.Equal(t, UnionBoxes(a, b, c), UnionBoxes(b, c, a))
	})
}

func TestNewPadding(t *testing.T) {
	p, err := NewPadding([]float64{3})
	require.NoError(t, err)
	assert.Equal(t, Padding{Top: 3, Right: 3, Bottom: 3, Left: 3}, p)

	p, err = NewPadding([]float64{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, Padding{Top: 1, Right: 2, Bottom: 3, Left: 4}, p)

	for _, values := range [][]float64{nil, {1, 2}, {1, 2, 3}, {1, 2, 3, 4, 5}} {
		_, err := NewPadding(values)
		assert.ErrorIs(t, err, ErrInvalidExpand, "%v", values)
	}
}

func TestBoxExpand(t *testing.T) {
	box := Rect{Top: 5, Left: 10, Width: 90, Height: 45}.Box()

	p, err := NewPadding([]float64{3})
	require.NoError(t, err)
	expanded := box.Expand(p)
	assert.Equal(t, Box{Top: 2, Left: 7, Bottom: 53, Right: 103}, expanded)
	assert.Equal(t, Rect{Top: 2, Left: 7, Width: 96, Height: 51}, expanded.Rect())

	one, err := NewPadding([]float64{5})
	require.NoError(t, err)
	four, err := NewPadding([]float64{5, 5, 5, 5})
	require.NoError(t, err)
	assert.Equal(t, box.Expand(one), box.Expand(four))

	asym, err := NewPadding([]float64{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, Box{Top: 4, Left: 6, Bottom: 53, Right: 102}, box.Expand(asym))
}

func TestResolveClip(t *testing.T) {
	ctx := context.Background()
	bounds := &staticBounds{boxes: map[string]Box{
		"#a": {Top: 10, Left: 10, Bottom: 50, Right: 60},
		"#b": {Top: 5, Left: 30, Bottom: 20, Right: 100},
	}}

	t.Run("cliprect wins over selectors", func(t *testing.T) {
		bounds.queried = nil
		opts := &Options{
			ClipRect:  &Rect{Top: 10, Left: 20, Width: 300, Height: 400},
			Selectors: []string{"#a", "#b"},
		}
		clip, err := ResolveClip(ctx, opts, bounds)
		require.NoError(t, err)
		require.NotNil(t, clip)
		assert.Equal(t, Rect{Top: 10, Left: 20, Width: 300, Height: 400}, *clip)
		assert.Empty(t, bounds.queried)
	})

	t.Run("selector union", func(t *testing.T) {
		clip, err := ResolveClip(ctx, &Options{Selectors: []string{"#a", "#b"}}, bounds)
		require.NoError(t, err)
		require.NotNil(t, clip)
		assert.Equal(t, Rect{Top: 5, Left: 10, Width: 90, Height: 45}, *clip)

		reversed, err := ResolveClip(ctx, &Options{Selectors: []string{"#b", "#a"}}, bounds)
		require.NoError(t, err)
		assert.Equal(t, *clip, *reversed)
	})

	t.Run("single selector", func(t *testing.T) {
		clip, err := ResolveClip(ctx, &Options{Selectors: []string{"#b"}}, bounds)
		require.NoError(t, err)
		require.NotNil(t, clip)
		assert.Equal(t, bounds.boxes["#b"].Rect(), *clip)
	})

	t.Run("expand after union", func(t *testing.T) {
		opts := &Options{
			Selectors: []string{"#a", "#b"},
			Expand:    &Padding{Top: 3, Right: 3, Bottom: 3, Left: 3},
		}
		clip, err := ResolveClip(ctx, opts, bounds)
		require.NoError(t, err)
		require.NotNil(t, clip)
		assert.Equal(t, Rect{Top: 2, Left: 7, Width: 96, Height: 51}, *clip)
	})

	t.Run("expand cliprect", func(t *testing.T) {
		opts := &Options{
			ClipRect: &Rect{Top: 10, Left: 10, Width: 10, Height: 10},
			Expand:   &Padding{Top: 1, Right: 2, Bottom: 3, Left: 4},
		}
		clip, err := ResolveClip(ctx, opts, bounds)
		require.NoError(t, err)
		require.NotNil(t, clip)
		assert.Equal(t, Rect{Top: 9, Left: 6, Width: 16, Height: 14}, *clip)
	})

	t.Run("no constraint", func(t *testing.T) {
		opts := &Options{
			ViewportWidth:  992,
			ViewportHeight: 744,
			Expand:         &Padding{Top: 3, Right: 3, Bottom: 3, Left: 3},
		}
		clip, err := ResolveClip(ctx, opts, bounds)
		require.NoError(t, err)
		assert.Nil(t, clip)
	})

	t.Run("selector not found", func(t *testing.T) {
		_, err := ResolveClip(ctx, &Options{Selectors: []string{"#a", "#missing"}}, bounds)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrElementNotFound))
		assert.Contains(t, err.Error(), "#missing")
	})
}

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResizeString(t *testing.T) {
	tests := []struct {
		spec string
		want ResizeParams
	}{
		{"800x600", ResizeParams{Width: 800, Height: 600, KeepAspect: true}},
		{"800x", ResizeParams{Width: 800, KeepAspect: true}},
		{"x600", ResizeParams{Height: 600, KeepAspect: true}},
		{"800x600!", ResizeParams{Width: 800, Height: 600}},
		{"800x600#", ResizeParams{Width: 800, Height: 600, KeepAspect: true, AutoCrop: true}},
		{"800x600^", ResizeParams{Width: 800, Height: 600, KeepAspect: true, AutoCrop: true}},
		{"50%x50%", ResizeParams{Width: 50, Height: 50, KeepAspect: true, Percentage: true}},
		{"200x200+100+50", ResizeParams{Width: 200, Height: 200, KeepAspect: true, Crop: true, CropOffsetX: 100, CropOffsetY: 50}},
		{"200x200_100_50", ResizeParams{Width: 200, Height: 200, KeepAspect: true, Crop: true, CropOffsetX: 100, CropOffsetY: 50}},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			params, err := ParseResizeString(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *params)
		})
	}
}

func TestParseResizeStringErrors(t *testing.T) {
	for _, spec := range []string{"", "800", "x", "axb", "800x600x2", "200x200+1", "200x200+a+1", "200x+1+1", "800x!", "-5x10"} {
		_, err := ParseResizeString(spec)
		assert.Error(t, err, spec)
	}
}

func TestScaleRatio(t *testing.T) {
	fit := &ResizeParams{Width: 500, Height: 500, KeepAspect: true}
	ratio, err := fit.scaleRatio(1000, 2000)
	require.NoError(t, err)
	assert.Equal(t, 0.25, ratio)

	fill := &ResizeParams{Width: 500, Height: 500, KeepAspect: true, AutoCrop: true}
	ratio, err = fill.scaleRatio(1000, 2000)
	require.NoError(t, err)
	assert.Equal(t, 0.5, ratio)

	widthOnly := &ResizeParams{Width: 250, KeepAspect: true}
	ratio, err = widthOnly.scaleRatio(1000, 2000)
	require.NoError(t, err)
	assert.Equal(t, 0.25, ratio)

	percent := &ResizeParams{Width: 50, Height: 50, KeepAspect: true, Percentage: true}
	ratio, err = percent.scaleRatio(1000, 2000)
	require.NoError(t, err)
	assert.Equal(t, 0.5, ratio)

	_, err = (&ResizeParams{Width: 0, Height: 0, KeepAspect: true}).scaleRatio(100, 100)
	assert.Error(t, err)
}

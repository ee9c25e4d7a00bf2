package main

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// ErrElementNotFound is returned by a BoundsProvider when a selector matches
// no element on the rendered page.
var ErrElementNotFound = errors.New("no element matches selector")

// Rect is a capture rectangle in relative form.
type Rect struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Box is a rectangle in absolute form, used for union and expansion.
type Box struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Bottom float64 `json:"bottom"`
	Right  float64 `json:"right"`
}

func (r Rect) Box() Box {
	return Box{
		Top:    r.Top,
		Left:   r.Left,
		Bottom: r.Top + r.Height,
		Right:  r.Left + r.Width,
	}
}

func (b Box) Rect() Rect {
	return Rect{
		Top:    b.Top,
		Left:   b.Left,
		Width:  b.Right - b.Left,
		Height: b.Bottom - b.Top,
	}
}

func (r Rect) String() string {
	return fmt.Sprintf("%gx%g+%g+%g", r.Width, r.Height, r.Left, r.Top)
}

// Union returns the smallest box containing both b and o.
func (b Box) Union(o Box) Box {
	return Box{
		Top:    math.Min(b.Top, o.Top),
		Left:   math.Min(b.Left, o.Left),
		Bottom: math.Max(b.Bottom, o.Bottom),
		Right:  math.Max(b.Right, o.Right),
	}
}

func UnionBoxes(first Box, rest ...Box) Box {
	result := first
	for _, b := range rest {
		result = result.Union(b)
	}
	return result
}

// Padding holds per-side expansion amounts in CSS order.
type Padding struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

// NewPadding builds a Padding from one value (all sides) or four values
// (top, right, bottom, left).
func NewPadding(values []float64) (Padding, error) {
	switch len(values) {
	case 1:
		v := values[0]
		return Padding{Top: v, Right: v, Bottom: v, Left: v}, nil
	case 4:
		return Padding{Top: values[0], Right: values[1], Bottom: values[2], Left: values[3]}, nil
	default:
		return Padding{}, fmt.Errorf("%w: got %d values, expected 1 or 4", ErrInvalidExpand, len(values))
	}
}

func (b Box) Expand(p Padding) Box {
	return Box{
		Top:    b.Top - p.Top,
		Left:   b.Left - p.Left,
		Bottom: b.Bottom + p.Bottom,
		Right:  b.Right + p.Right,
	}
}

// BoundsProvider measures elements on the currently rendered page.
type BoundsProvider interface {
	// ElementBounds returns the bounding box of the first element matching
	// selector, or an error wrapping ErrElementNotFound.
	ElementBounds(ctx context.Context, selector string) (Box, error)
}

// ResolveClip computes the capture rectangle for opts. A nil result means the
// whole viewport should be captured.
func ResolveClip(ctx context.Context, opts *Options, bounds BoundsProvider) (*Rect, error) {
	var rect Rect

	switch {
	case opts.ClipRect != nil:
		rect = *opts.ClipRect
	case len(opts.Selectors) > 0:
		boxes := make([]Box, 0, len(opts.Selectors))
		for _, selector := range opts.Selectors {
			box, err := bounds.ElementBounds(ctx, selector)
			if err != nil {
				return nil, fmt.Errorf("unable to get bounds of %q: %w", selector, err)
			}
			boxes = append(boxes, box)
		}
		rect = UnionBoxes(boxes[0], boxes[1:]...).Rect()
	default:
		return nil, nil
	}

	if opts.Expand != nil {
		rect = rect.Box().Expand(*opts.Expand).Rect()
	}

	return &rect, nil
}

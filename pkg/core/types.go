// pkg/core/types.go
package core

import (
	"math"
	"time"
)

// Position is a point on the surface in surface units (pixels at scale 1)
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by d
func (p Position) Add(d Position) Position {
	return Position{X: p.X + d.X, Y: p.Y + d.Y}
}

// degreeScale sets the resolution angles are kept at, 1e-9 degrees. Snapping
// to it cancels the float error of adding and removing a quarter turn, so
// whole degrees and any angle with up to nine decimals round trip exactly.
const degreeScale = 1e9

// NormalizeDegrees maps v into [0,360) at a resolution of 1e-9 degrees
func NormalizeDegrees(v float64) float64 {
	v = math.Mod(v, 360)
	if v < 0 {
		v += 360
	}
	v = math.Round(v*degreeScale) / degreeScale
	if v >= 360 {
		v = 0
	}
	return v
}

// Orientation is the surface layout mode
type Orientation string

const (
	Landscape Orientation = "landscape"
	Portrait  Orientation = "portrait"
)

// PitchConfig describes the playing surface.
// Width and Height are always the landscape dimensions; Orientation says which
// layout the elements are currently laid out for.
type PitchConfig struct {
	Width       float64     `json:"width"`
	Height      float64     `json:"height"`
	Padding     float64     `json:"padding"`
	GridSize    float64     `json:"gridSize"`
	Orientation Orientation `json:"orientation,omitempty"`
}

// Dimensions returns the surface width and height (padding included) for the
// current orientation.
func (p PitchConfig) Dimensions() (width, height float64) {
	if p.Orientation == Portrait {
		return p.Height, p.Width
	}
	return p.Width, p.Height
}

// InnerSize returns the padding-excluded playing area for the given orientation.
func (p PitchConfig) InnerSize(o Orientation) (width, height float64) {
	w := p.Width - 2*p.Padding
	h := p.Height - 2*p.Padding
	if o == Portrait {
		return h, w
	}
	return w, h
}

// TeamStyle is the display identity of one side
type TeamStyle struct {
	Name           string `json:"name"`
	PrimaryColor   string `json:"primaryColor"`
	SecondaryColor string `json:"secondaryColor"`
}

// TeamSettings holds both sides
type TeamSettings struct {
	Home TeamStyle `json:"home"`
	Away TeamStyle `json:"away"`
}

// Millis is a duration in whole milliseconds, the unit used on the wire
type Millis int64

// Duration converts to time.Duration
func (m Millis) Duration() time.Duration {
	return time.Duration(m) * time.Millisecond
}

// MillisOf converts a time.Duration, truncating sub-millisecond precision
func MillisOf(d time.Duration) Millis {
	return Millis(d / time.Millisecond)
}

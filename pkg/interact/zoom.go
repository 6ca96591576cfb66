// Package interact turns pointer and keyboard gestures into viewport
// changes and layout messages.
//
// Zoom and pan only ever change the root [Transform]; they never touch the
// layout engine. Drags are converted from screen to world coordinates and
// handed to the engine as messages.
package interact

import (
	"math"
	"strconv"
)

// Transform is a uniform scale K followed by a translation (X, Y).
// A world point p is drawn at p*K + (X, Y).
type Transform struct {
	K float64 `json:"k"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Identity is the transform that changes nothing.
var Identity = Transform{K: 1}

// String returns the SVG transform attribute value.
func (t Transform) String() string {
	return string(t.AppendText(nil))
}

// AppendText appends the SVG transform attribute value to dst.
func (t Transform) AppendText(dst []byte) []byte {
	dst = append(dst, "translate("...)
	dst = strconv.AppendFloat(dst, t.X, 'f', -1, 64)
	dst = append(dst, ',')
	dst = strconv.AppendFloat(dst, t.Y, 'f', -1, 64)
	dst = append(dst, ") scale("...)
	dst = strconv.AppendFloat(dst, t.K, 'f', -1, 64)
	return append(dst, ')')
}

// Apply maps a world point to screen coordinates.
func (t Transform) Apply(x, y float64) (float64, float64) {
	return x*t.K + t.X, y*t.K + t.Y
}

// Invert maps a screen point back to world coordinates.
func (t Transform) Invert(x, y float64) (float64, float64) {
	return (x - t.X) / t.K, (y - t.Y) / t.K
}

// Zoom holds the viewport transform and its scale extent.
type Zoom struct {
	min, max float64
	t        Transform
}

// NewZoom returns an identity zoom limited to [minK, maxK].
func NewZoom(minK, maxK float64) *Zoom {
	return &Zoom{min: minK, max: maxK, t: Identity}
}

// Transform returns the current transform.
func (z *Zoom) Transform() Transform { return z.t }

// Extent returns the scale limits.
func (z *Zoom) Extent() (minK, maxK float64) { return z.min, z.max }

func (z *Zoom) clamp(k float64) float64 {
	return math.Max(z.min, math.Min(z.max, k))
}

// ScaleTo sets the scale to k, clamped to the extent, keeping the screen
// point (ax, ay) fixed.
func (z *Zoom) ScaleTo(k, ax, ay float64) Transform {
	k = z.clamp(k)
	wx, wy := z.t.Invert(ax, ay)
	z.t = Transform{K: k, X: ax - wx*k, Y: ay - wy*k}
	return z.t
}

// ScaleBy multiplies the scale by f, keeping the screen point (ax, ay)
// fixed.
func (z *Zoom) ScaleBy(f, ax, ay float64) Transform {
	return z.ScaleTo(z.t.K*f, ax, ay)
}

// TranslateBy pans by (dx, dy) screen pixels.
func (z *Zoom) TranslateBy(dx, dy float64) Transform {
	z.t.X += dx
	z.t.Y += dy
	return z.t
}

// Set replaces the transform, clamping its scale.
func (z *Zoom) Set(t Transform) Transform {
	t.K = z.clamp(t.K)
	z.t = t
	return z.t
}

// Reset returns to the identity transform.
func (z *Zoom) Reset() Transform {
	z.t = Identity
	return z.t
}

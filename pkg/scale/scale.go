// Package scale maps node weights to circle radii.
//
// The mapping is a plain linear interpolation with no clamping, so values
// outside the domain extrapolate.
package scale

import "github.com/matzehuels/forcegraph/pkg/graph"

// Default radius range in pixels.
const (
	DefaultMinRadius = 10
	DefaultMaxRadius = 20
)

// Linear maps the domain [D0, D1] onto the range [R0, R1].
type Linear struct {
	D0, D1 float64
	R0, R1 float64
}

// Map returns the image of v. Both domain ends map exactly onto the range
// ends. A degenerate domain maps every value to the range midpoint.
func (l Linear) Map(v float64) float64 {
	span := l.D1 - l.D0
	if span == 0 {
		return (l.R0 + l.R1) / 2
	}
	t := (v - l.D0) / span
	return l.R0*(1-t) + l.R1*t
}

// Radius is the shared weight to radius scale for one node set.
type Radius struct {
	Linear
}

// NewRadius builds the radius scale for nodes.
//
// The domain spans the smallest and largest weight among nodes that carry
// one. With no weights at all the domain is [0, 1]. A zero minimum or
// maximum falls back to 0 and 1 respectively.
func NewRadius(nodes []graph.Node, minRadius, maxRadius float64) Radius {
	var lo, hi float64
	seen := false
	for _, n := range nodes {
		if n.Weight == nil {
			continue
		}
		w := *n.Weight
		if !seen {
			lo, hi, seen = w, w, true
			continue
		}
		lo = min(lo, w)
		hi = max(hi, w)
	}
	if hi == 0 {
		hi = 1
	}
	return Radius{Linear{D0: lo, D1: hi, R0: minRadius, R1: maxRadius}}
}

// Of returns the radius for n. Nodes without a weight get the radius of the
// domain minimum.
func (r Radius) Of(n graph.Node) float64 {
	if n.Weight == nil {
		return r.Map(r.D0)
	}
	return r.Map(*n.Weight)
}

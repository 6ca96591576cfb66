package force

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r2"
)

// Center translates all bodies so that their mean position moves toward a
// point. It moves positions directly and does not depend on alpha.
type Center struct {
	Point    r2.Vec
	Strength float64

	bodies []*Body
}

// NewCenter returns a centering force at (x, y) with strength 1.
func NewCenter(x, y float64) *Center {
	return &Center{Point: r2.Vec{X: x, Y: y}, Strength: 1}
}

// Initialize implements Force.
func (f *Center) Initialize(bodies []*Body, _ *rand.Rand) { f.bodies = bodies }

// Apply implements Force.
func (f *Center) Apply(float64) {
	if len(f.bodies) == 0 {
		return
	}
	var sum r2.Vec
	for _, b := range f.bodies {
		sum = r2.Add(sum, b.Pos)
	}
	mean := r2.Scale(1/float64(len(f.bodies)), sum)
	shift := r2.Scale(f.Strength, r2.Sub(mean, f.Point))
	for _, b := range f.bodies {
		b.Pos = r2.Sub(b.Pos, shift)
	}
}

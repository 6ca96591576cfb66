package force

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r2"
)

// Collide treats bodies as circles and pushes overlapping pairs apart.
// The push is split by radius, so smaller circles move further.
type Collide struct {
	Strength   float64
	Iterations int

	radius func(i int) float64
	bodies []*Body
	radii  []float64
	rng    *rand.Rand
}

// NewCollide returns a collision force with per-body radii.
func NewCollide(radius func(i int) float64) *Collide {
	return &Collide{Strength: 1, Iterations: 1, radius: radius}
}

// Initialize implements Force.
func (f *Collide) Initialize(bodies []*Body, rng *rand.Rand) {
	f.bodies = bodies
	f.rng = rng
	f.radii = make([]float64, len(bodies))
	for i := range bodies {
		f.radii[i] = f.radius(i)
	}
}

// Radius returns the collision radius of body i.
func (f *Collide) Radius(i int) float64 { return f.radii[i] }

// Apply implements Force.
func (f *Collide) Apply(float64) {
	for range f.Iterations {
		for i, a := range f.bodies {
			ri := f.radii[i]
			ri2 := ri * ri
			// Predicted position; velocity changes within this pass do not
			// move it.
			pi := r2.Add(a.Pos, a.Vel)
			for j := i + 1; j < len(f.bodies); j++ {
				b := f.bodies[j]
				rj := f.radii[j]
				r := ri + rj
				d := r2.Sub(pi, r2.Add(b.Pos, b.Vel))
				l := r2.Norm2(d)
				if l >= r*r {
					continue
				}
				if d.X == 0 {
					d.X = jiggle(f.rng)
					l += d.X * d.X
				}
				if d.Y == 0 {
					d.Y = jiggle(f.rng)
					l += d.Y * d.Y
				}
				dist := math.Sqrt(l)
				d = r2.Scale((r-dist)/dist*f.Strength, d)
				w := rj * rj / (ri2 + rj*rj)
				a.Vel = r2.Add(a.Vel, r2.Scale(w, d))
				b.Vel = r2.Sub(b.Vel, r2.Scale(1-w, d))
			}
		}
	}
}

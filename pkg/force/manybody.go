package force

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/barneshut"
	"gonum.org/v1/gonum/spatial/r2"
)

// DefaultTheta is the Barnes-Hut accuracy parameter.
const DefaultTheta = 0.9

// ManyBody applies a mutual charge between all bodies. A negative strength
// repels, a positive one attracts.
type ManyBody struct {
	Strength float64
	Theta    float64

	// DistanceMin softens the force between very close bodies.
	DistanceMin float64
	// DistanceMax ignores bodies further apart. Zero means unbounded.
	DistanceMax float64

	bodies    []*Body
	particles []barneshut.Particle2
	plane     barneshut.Plane
}

// NewManyBody returns a charge force with the given strength and default
// accuracy.
func NewManyBody(strength float64) *ManyBody {
	return &ManyBody{Strength: strength, Theta: DefaultTheta, DistanceMin: 1}
}

// Initialize implements Force.
func (f *ManyBody) Initialize(bodies []*Body, _ *rand.Rand) {
	f.bodies = bodies
	f.particles = make([]barneshut.Particle2, len(bodies))
	for i, b := range bodies {
		f.particles[i] = b
	}
}

// Apply implements Force.
func (f *ManyBody) Apply(alpha float64) {
	if len(f.bodies) < 2 {
		return
	}
	f.plane.Particles = f.particles
	if err := f.plane.Reset(); err != nil {
		// The quadtree cannot hold this configuration. An empty plane makes
		// ForceOn fall back to the exact pairwise sum.
		f.plane = barneshut.Plane{Particles: f.particles}
	}

	minSq := f.DistanceMin * f.DistanceMin
	maxSq := f.DistanceMax * f.DistanceMax
	charge := func(_, _ barneshut.Particle2, _, m2 float64, v r2.Vec) r2.Vec {
		l := r2.Norm2(v)
		if l == 0 || (maxSq > 0 && l >= maxSq) {
			return r2.Vec{}
		}
		if l < minSq {
			l = math.Sqrt(minSq * l)
		}
		return r2.Scale(f.Strength*m2*alpha/l, v)
	}

	for _, b := range f.bodies {
		b.Vel = r2.Add(b.Vel, f.plane.ForceOn(b, f.Theta, charge))
	}
}

package force

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r2"
)

// Default cooling parameters.
const (
	DefaultAlphaMin      = 0.001
	DefaultVelocityDecay = 0.4
)

// DefaultAlphaDecay cools alpha from 1 to DefaultAlphaMin in 300 ticks.
var DefaultAlphaDecay = 1 - math.Pow(DefaultAlphaMin, 1.0/300)

const (
	initialRadius = 10
)

var initialAngle = math.Pi * (3 - math.Sqrt(5))

// Force adjusts body velocities or positions once per tick.
type Force interface {
	// Initialize binds the force to the simulation bodies. It is called when
	// the force is added and whenever the body set changes.
	Initialize(bodies []*Body, rng *rand.Rand)
	// Apply runs the force for the current alpha.
	Apply(alpha float64)
}

type namedForce struct {
	name  string
	force Force
}

// Simulation integrates a set of bodies under registered forces.
type Simulation struct {
	bodies []*Body
	forces []namedForce
	rng    *rand.Rand

	alpha         float64
	alphaMin      float64
	alphaDecay    float64
	alphaTarget   float64
	velocityDecay float64

	ticks int
}

// Option configures a Simulation.
type Option func(*Simulation)

// WithSeed seeds the random source used for jiggling coincident bodies.
func WithSeed(seed uint64) Option {
	return func(s *Simulation) { s.rng = rand.New(rand.NewPCG(seed, seed)) }
}

// WithAlphaMin sets the alpha below which the simulation counts as cold.
func WithAlphaMin(v float64) Option {
	return func(s *Simulation) { s.alphaMin = v }
}

// WithAlphaDecay sets the per-tick cooling rate.
func WithAlphaDecay(v float64) Option {
	return func(s *Simulation) { s.alphaDecay = v }
}

// WithVelocityDecay sets the per-tick friction.
func WithVelocityDecay(v float64) Option {
	return func(s *Simulation) { s.velocityDecay = v }
}

// New creates a simulation of n bodies placed on a phyllotaxis spiral
// around the origin. Positions present in pins are used instead, and
// those bodies start pinned.
func New(n int, pins map[int]r2.Vec, opts ...Option) *Simulation {
	s := &Simulation{
		alpha:         1,
		alphaMin:      DefaultAlphaMin,
		alphaDecay:    DefaultAlphaDecay,
		velocityDecay: DefaultVelocityDecay,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(1, 1))
	}

	s.bodies = make([]*Body, n)
	for i := range s.bodies {
		b := &Body{Index: i}
		if p, ok := pins[i]; ok {
			b.Pos = p
			b.PinAt(p)
		} else {
			b.Pos = Spiral(i)
		}
		s.bodies[i] = b
	}
	return s
}

// Spiral returns the initial position of body i.
func Spiral(i int) r2.Vec {
	radius := initialRadius * math.Sqrt(0.5+float64(i))
	angle := float64(i) * initialAngle
	return r2.Vec{X: radius * math.Cos(angle), Y: radius * math.Sin(angle)}
}

// Bodies returns the simulated bodies in index order. The slice is owned by
// the simulation.
func (s *Simulation) Bodies() []*Body { return s.bodies }

// Len returns the number of bodies.
func (s *Simulation) Len() int { return len(s.bodies) }

// AddForce registers f under name. Re-registering a name replaces the force
// in place, keeping its position in the application order.
func (s *Simulation) AddForce(name string, f Force) {
	f.Initialize(s.bodies, s.rng)
	for i := range s.forces {
		if s.forces[i].name == name {
			s.forces[i].force = f
			return
		}
	}
	s.forces = append(s.forces, namedForce{name: name, force: f})
}

// Force returns the force registered under name, or nil.
func (s *Simulation) Force(name string) Force {
	for _, nf := range s.forces {
		if nf.name == name {
			return nf.force
		}
	}
	return nil
}

// ForceNames returns the registered force names in application order.
func (s *Simulation) ForceNames() []string {
	names := make([]string, len(s.forces))
	for i, nf := range s.forces {
		names[i] = nf.name
	}
	return names
}

// Alpha returns the current alpha.
func (s *Simulation) Alpha() float64 { return s.alpha }

// SetAlpha sets the current alpha.
func (s *Simulation) SetAlpha(a float64) { s.alpha = a }

// AlphaMin returns the cold threshold.
func (s *Simulation) AlphaMin() float64 { return s.alphaMin }

// AlphaTarget returns the value alpha decays toward.
func (s *Simulation) AlphaTarget() float64 { return s.alphaTarget }

// Ticks returns the number of ticks performed so far.
func (s *Simulation) Ticks() int { return s.ticks }

// SetTicks overrides the tick counter, for resuming a saved simulation.
func (s *Simulation) SetTicks(n int) { s.ticks = n }

// Hot reports whether alpha is at or above the cold threshold.
func (s *Simulation) Hot() bool { return s.alpha >= s.alphaMin }

// Tick advances the simulation n times.
func (s *Simulation) Tick(n int) {
	for range n {
		s.tick()
	}
}

// Step advances one tick and reports whether the simulation is still hot.
func (s *Simulation) Step() bool {
	s.tick()
	return s.Hot()
}

// Reheat sets the alpha target. A target above the cold threshold keeps
// the simulation running until it is lowered again.
func (s *Simulation) Reheat(target float64) { s.alphaTarget = target }

// Restart resets alpha to 1 and the target to 0.
func (s *Simulation) Restart() {
	s.alpha = 1
	s.alphaTarget = 0
}

func (s *Simulation) tick() {
	s.alpha += (s.alphaTarget - s.alpha) * s.alphaDecay
	for _, nf := range s.forces {
		nf.force.Apply(s.alpha)
	}

	keep := 1 - s.velocityDecay
	for _, b := range s.bodies {
		if b.Pin != nil {
			b.Pos = *b.Pin
			b.Vel = r2.Vec{}
			continue
		}
		b.Vel = r2.Scale(keep, b.Vel)
		b.Pos = r2.Add(b.Pos, b.Vel)
	}
	s.ticks++
}

// jiggle returns a tiny random offset used to separate coincident bodies.
func jiggle(rng *rand.Rand) float64 {
	return (rng.Float64() - 0.5) * 1e-6
}

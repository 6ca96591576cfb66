package force

import "math/rand/v2"

// PositionX pulls every body's x coordinate toward Target.
type PositionX struct {
	Target   float64
	Strength float64

	bodies []*Body
}

// NewPositionX returns an x positioning force.
func NewPositionX(target, strength float64) *PositionX {
	return &PositionX{Target: target, Strength: strength}
}

// Initialize implements Force.
func (f *PositionX) Initialize(bodies []*Body, _ *rand.Rand) { f.bodies = bodies }

// Apply implements Force.
func (f *PositionX) Apply(alpha float64) {
	k := f.Strength * alpha
	for _, b := range f.bodies {
		b.Vel.X += (f.Target - b.Pos.X) * k
	}
}

// PositionY pulls every body's y coordinate toward Target.
type PositionY struct {
	Target   float64
	Strength float64

	bodies []*Body
}

// NewPositionY returns a y positioning force.
func NewPositionY(target, strength float64) *PositionY {
	return &PositionY{Target: target, Strength: strength}
}

// Initialize implements Force.
func (f *PositionY) Initialize(bodies []*Body, _ *rand.Rand) { f.bodies = bodies }

// Apply implements Force.
func (f *PositionY) Apply(alpha float64) {
	k := f.Strength * alpha
	for _, b := range f.bodies {
		b.Vel.Y += (f.Target - b.Pos.Y) * k
	}
}

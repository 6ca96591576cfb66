package force

import "gonum.org/v1/gonum/spatial/r2"

// Body is one simulated particle.
type Body struct {
	Index int
	Pos   r2.Vec
	Vel   r2.Vec

	// Pin holds the body at a fixed position. Nil means free.
	Pin *r2.Vec
}

// Coord2 returns the body position. It satisfies barneshut.Particle2.
func (b *Body) Coord2() r2.Vec { return b.Pos }

// Mass returns 1; every body carries the same charge.
func (b *Body) Mass() float64 { return 1 }

// Pinned reports whether the body has a pin.
func (b *Body) Pinned() bool { return b.Pin != nil }

// PinAt pins the body at p.
func (b *Body) PinAt(p r2.Vec) { b.Pin = &p }

// Unpin releases the body.
func (b *Body) Unpin() { b.Pin = nil }

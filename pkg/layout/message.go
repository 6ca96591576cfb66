package layout

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/forcegraph/pkg/force"
)

// Message is an input to Engine.Update.
type Message interface {
	message()
}

// Tick advances the simulation by one frame while it is running.
type Tick struct{}

// DragStart grabs node ID at world position (X, Y).
type DragStart struct {
	ID   int
	X, Y float64
}

// DragMove moves a grabbed node to world position (X, Y).
type DragMove struct {
	ID   int
	X, Y float64
}

// DragEnd releases node ID.
type DragEnd struct {
	ID int
}

func (Tick) message()      {}
func (DragStart) message() {}
func (DragMove) message()  {}
func (DragEnd) message()   {}

// Update applies msg and returns the projected frame. Messages naming an
// unknown node leave the state unchanged.
func (e *Engine) Update(msg Message) []Placement {
	switch m := msg.(type) {
	case Tick:
		if e.running {
			e.running = e.sim.Step()
		}
	case DragStart:
		if b := e.body(m.ID); b != nil {
			e.sim.Reheat(DragAlphaTarget)
			e.running = true
			moveTo(b, m.X, m.Y)
		}
	case DragMove:
		if b := e.body(m.ID); b != nil {
			moveTo(b, m.X, m.Y)
		}
	case DragEnd:
		if b := e.body(m.ID); b != nil {
			e.sim.Reheat(0)
			if e.cfg.ReleaseOnDragEnd {
				b.Unpin()
				e.fixed[e.index[m.ID]] = false
			}
		}
	}
	return e.Project()
}

func (e *Engine) body(id int) *force.Body {
	i, ok := e.index[id]
	if !ok {
		return nil
	}
	return e.sim.Bodies()[i]
}

// moveTo places b under the pointer and pins it there.
func moveTo(b *force.Body, x, y float64) {
	p := r2.Vec{X: x, Y: y}
	b.Pos = p
	b.PinAt(p)
}

package interact

import "github.com/matzehuels/forcegraph/pkg/layout"

// Dragger converts screen-space drag gestures into layout messages. It
// remembers the grabbed node between start and end.
type Dragger struct {
	zoom   *Zoom
	active int
	ok     bool
}

// NewDragger returns a dragger that reads the viewport from z.
func NewDragger(z *Zoom) *Dragger {
	return &Dragger{zoom: z}
}

// Active returns the grabbed node id, if any.
func (d *Dragger) Active() (int, bool) { return d.active, d.ok }

// Start grabs node id at screen point (sx, sy).
func (d *Dragger) Start(id int, sx, sy float64) layout.Message {
	d.active, d.ok = id, true
	x, y := d.zoom.Transform().Invert(sx, sy)
	return layout.DragStart{ID: id, X: x, Y: y}
}

// Move drags the grabbed node to screen point (sx, sy). It returns nil if
// nothing is grabbed.
func (d *Dragger) Move(sx, sy float64) layout.Message {
	if !d.ok {
		return nil
	}
	x, y := d.zoom.Transform().Invert(sx, sy)
	return layout.DragMove{ID: d.active, X: x, Y: y}
}

// End releases the grabbed node. It returns nil if nothing is grabbed.
func (d *Dragger) End() layout.Message {
	if !d.ok {
		return nil
	}
	d.ok = false
	return layout.DragEnd{ID: d.active}
}

// Package scene describes the drawn diagram: one group per node holding a
// circle and a label, positioned by a translate transform.
//
// A [Scene] is built once from a configured engine and then updated in
// place with [Scene.Apply] for every projected frame. Renderers walk the
// scene; they never read the engine directly.
package scene

import (
	"strconv"

	"github.com/matzehuels/forcegraph/pkg/errors"
	"github.com/matzehuels/forcegraph/pkg/interact"
	"github.com/matzehuels/forcegraph/pkg/layout"
)

// Label placement relative to the circle.
const (
	LabelGap = 10
	LabelDY  = ".35em"
)

// GroupClass is the class of every node group.
const GroupClass = "node"

// Circle is the node marker.
type Circle struct {
	R     float64 `json:"r"`
	Class string  `json:"class"`
}

// Label is the node name drawn to the right of the circle.
type Label struct {
	DX    float64 `json:"dx"`
	DY    string  `json:"dy"`
	Text  string  `json:"text"`
	Class string  `json:"class"`
}

// Group is one node: a circle and a label under a translate transform.
type Group struct {
	ID     int     `json:"id"`
	Class  string  `json:"class"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Pinned bool    `json:"pinned,omitempty"`
	Circle Circle  `json:"circle"`
	Label  Label   `json:"label"`
}

// Transform returns the group transform attribute.
func (g *Group) Transform() string {
	return string(g.AppendTransform(nil))
}

// AppendTransform appends "translate(x,y)" to dst.
func (g *Group) AppendTransform(dst []byte) []byte {
	dst = append(dst, "translate("...)
	dst = strconv.AppendFloat(dst, g.X, 'f', -1, 64)
	dst = append(dst, ',')
	dst = strconv.AppendFloat(dst, g.Y, 'f', -1, 64)
	return append(dst, ')')
}

// Scene is the whole diagram.
type Scene struct {
	Width  float64            `json:"width"`
	Height float64            `json:"height"`
	Root   interact.Transform `json:"root"`
	Groups []Group            `json:"groups"`
}

// Build creates one group per engine node, in engine order, positioned at
// the engine's current projection.
func Build(e *layout.Engine) *Scene {
	view := e.Viewport()
	s := &Scene{
		Width:  view.Width,
		Height: view.Height,
		Root:   interact.Identity,
		Groups: make([]Group, e.Len()),
	}
	for i, n := range e.Nodes() {
		r := e.Radius(i)
		cat := n.Category()
		s.Groups[i] = Group{
			ID:     n.ID,
			Class:  GroupClass,
			Circle: Circle{R: r, Class: "node-" + cat},
			Label: Label{
				DX:    r + LabelGap,
				DY:    LabelDY,
				Text:  n.Name,
				Class: "node-text-" + cat,
			},
		}
	}
	s.apply(e.Project())
	return s
}

// Apply copies a projected frame into the group positions.
func (s *Scene) Apply(frame []layout.Placement) error {
	if len(frame) != len(s.Groups) {
		return errors.New(errors.ErrCodeInternal, "frame has %d placements for %d groups", len(frame), len(s.Groups))
	}
	s.apply(frame)
	return nil
}

func (s *Scene) apply(frame []layout.Placement) {
	for i, p := range frame {
		g := &s.Groups[i]
		g.X, g.Y, g.Pinned = p.X, p.Y, p.Pinned
	}
}

// SetRoot replaces the root transform. Only zoom and pan call this.
func (s *Scene) SetRoot(t interact.Transform) { s.Root = t }

// Categories returns the distinct node categories in first-seen order.
func (s *Scene) Categories() []string {
	seen := make(map[string]bool)
	var cats []string
	for _, g := range s.Groups {
		c := g.Circle.Class[len("node-"):]
		if !seen[c] {
			seen[c] = true
			cats = append(cats, c)
		}
	}
	return cats
}

// Find returns the group for node id.
func (s *Scene) Find(id int) (*Group, bool) {
	for i := range s.Groups {
		if s.Groups[i].ID == id {
			return &s.Groups[i], true
		}
	}
	return nil, false
}

// Hit returns the topmost group whose circle contains the world point
// (x, y).
func (s *Scene) Hit(x, y float64) (*Group, bool) {
	for i := len(s.Groups) - 1; i >= 0; i-- {
		g := &s.Groups[i]
		dx, dy := x-g.X, y-g.Y
		if dx*dx+dy*dy <= g.Circle.R*g.Circle.R {
			return g, true
		}
	}
	return nil, false
}

package layout

import (
	"context"
	stderrors "errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/forcegraph/pkg/force"
	"github.com/matzehuels/forcegraph/pkg/graph"
	"github.com/matzehuels/forcegraph/pkg/scale"
)

// ErrNoNodes is returned by Configure for an empty node set. Callers treat
// it as "nothing to draw", not as a failure.
var ErrNoNodes = stderrors.New("layout: no nodes")

// Force names in application order.
const (
	ForceCharge  = "charge"
	ForceCenter  = "center"
	ForceCollide = "collide"
	ForceX       = "x"
	ForceY       = "y"
)

// DragAlphaTarget keeps the simulation warm while a node is dragged.
const DragAlphaTarget = 0.3

// Placement is the projected position of one node.
type Placement struct {
	ID     int
	X, Y   float64
	Pinned bool
}

// Engine owns the layout state of one node set. It is not safe for
// concurrent use.
type Engine struct {
	nodes  []graph.Node
	index  map[int]int
	cfg    Config
	view   Viewport
	radius scale.Radius
	radii  []float64
	sim    *force.Simulation

	fixed   []bool
	running bool
	preTick int
	frame   []Placement
}

// Configure builds an engine for g in view and, if enabled, pre-generates
// the layout. It returns ErrNoNodes for an empty node set.
//
// A cancelled ctx stops pre-generation between ticks; the error is the
// context error.
func Configure(ctx context.Context, g *graph.Graph, view Viewport, cfg Config) (*Engine, error) {
	e, err := newEngine(g, view, cfg, nil)
	if err != nil {
		return nil, err
	}
	if cfg.PreGenerate {
		if _, err := e.preGenerate(ctx, cfg.PreGenerateMaxTicks); err != nil {
			return nil, err
		}
		if cfg.PreGenerateFreeze {
			for i := range e.fixed {
				e.fixed[i] = true
			}
			e.capturePins()
		}
	}
	return e, nil
}

func newEngine(g *graph.Graph, view Viewport, cfg Config, pins map[int]r2.Vec) (*Engine, error) {
	if g.Len() == 0 {
		return nil, ErrNoNodes
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := view.Validate(); err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		nodes:   append([]graph.Node(nil), g.Nodes...),
		index:   make(map[int]int, len(g.Nodes)),
		cfg:     cfg,
		view:    view,
		radius:  scale.NewRadius(g.Nodes, cfg.MinNodeRadius, cfg.MaxNodeRadius),
		fixed:   make([]bool, len(g.Nodes)),
		running: true,
	}
	e.radii = make([]float64, len(e.nodes))
	for i, n := range e.nodes {
		e.index[n.ID] = i
		e.radii[i] = e.radius.Of(n)
		e.fixed[i] = n.Fixed
	}

	cx, cy := view.Center()
	e.sim = force.New(len(e.nodes), pins, force.WithSeed(cfg.Seed))
	e.sim.AddForce(ForceCharge, force.NewManyBody(cfg.NodeCharge))
	e.sim.AddForce(ForceCenter, force.NewCenter(cx, cy))
	e.sim.AddForce(ForceCollide, force.NewCollide(func(i int) float64 { return e.radii[i] }))
	e.sim.AddForce(ForceX, force.NewPositionX(cx, cfg.GravityStrength))
	e.sim.AddForce(ForceY, force.NewPositionY(cy, cfg.GravityStrength))
	return e, nil
}

// preGenerate ticks while the simulation is hot and fewer than limit ticks
// have run. It returns the number of ticks performed.
func (e *Engine) preGenerate(ctx context.Context, limit int) (int, error) {
	n := 0
	for e.sim.Alpha() > force.DefaultAlphaMin && n < limit {
		select {
		case <-ctx.Done():
			return n, fmt.Errorf("pre-generate: %w", ctx.Err())
		default:
		}
		e.sim.Tick(1)
		n++
	}
	e.preTick = n
	return n, nil
}

// capturePins pins every fixed node that has no pin at its current
// position.
func (e *Engine) capturePins() {
	for i, b := range e.sim.Bodies() {
		if e.fixed[i] && !b.Pinned() {
			b.PinAt(b.Pos)
		}
	}
}

// Project pins fixed nodes that are not yet pinned and returns the current
// position of every node, in node order. The returned slice is reused by
// the next call.
func (e *Engine) Project() []Placement {
	e.capturePins()
	if e.frame == nil {
		e.frame = make([]Placement, len(e.nodes))
	}
	for i, b := range e.sim.Bodies() {
		e.frame[i] = Placement{
			ID:     e.nodes[i].ID,
			X:      b.Pos.X,
			Y:      b.Pos.Y,
			Pinned: b.Pinned(),
		}
	}
	return e.frame
}

// Restart reheats the simulation to alpha 1 and resumes ticking.
func (e *Engine) Restart() {
	e.sim.Restart()
	e.running = true
}

// Len returns the number of nodes.
func (e *Engine) Len() int { return len(e.nodes) }

// Nodes returns the input records in engine order.
func (e *Engine) Nodes() []graph.Node { return e.nodes }

// Node returns the input record with the given id.
func (e *Engine) Node(id int) (graph.Node, bool) {
	i, ok := e.index[id]
	if !ok {
		return graph.Node{}, false
	}
	return e.nodes[i], true
}

// Radius returns the drawn radius of the i-th node.
func (e *Engine) Radius(i int) float64 { return e.radii[i] }

// Scale returns the shared radius scale.
func (e *Engine) Scale() scale.Radius { return e.radius }

// Config returns the configuration the engine was built with.
func (e *Engine) Config() Config { return e.cfg }

// Viewport returns the viewport the forces were set up for.
func (e *Engine) Viewport() Viewport { return e.view }

// Alpha returns the simulation alpha.
func (e *Engine) Alpha() float64 { return e.sim.Alpha() }

// Ticks returns the total number of ticks performed.
func (e *Engine) Ticks() int { return e.sim.Ticks() }

// PreGenerated returns the number of ticks the pre-generation loop ran.
func (e *Engine) PreGenerated() int { return e.preTick }

// Running reports whether Tick messages still advance the simulation.
func (e *Engine) Running() bool { return e.running }

// Fixed reports whether the i-th node is marked fixed.
func (e *Engine) Fixed(i int) bool { return e.fixed[i] }

// ForceNames returns the registered forces in application order.
func (e *Engine) ForceNames() []string { return e.sim.ForceNames() }

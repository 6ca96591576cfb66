package layout

import (
	"encoding/json"
	"fmt"
	"io"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/forcegraph/pkg/errors"
	"github.com/matzehuels/forcegraph/pkg/graph"
)

// SnapshotVersion is bumped when the snapshot format changes incompatibly.
const SnapshotVersion = 1

// Point is a serialized position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// BodyState is the serialized layout state of one node.
type BodyState struct {
	ID    int     `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	VX    float64 `json:"vx,omitempty"`
	VY    float64 `json:"vy,omitempty"`
	Pin   *Point  `json:"pin,omitempty"`
	Fixed bool    `json:"fixed,omitempty"`
}

// Snapshot is the full layout state of an engine.
type Snapshot struct {
	Version      int          `json:"version"`
	Viewport     Viewport     `json:"viewport"`
	Config       Config       `json:"config"`
	Alpha        float64      `json:"alpha"`
	AlphaTarget  float64      `json:"alpha_target,omitempty"`
	Ticks        int          `json:"ticks"`
	PreGenerated int          `json:"pre_generated"`
	Nodes        []graph.Node `json:"nodes"`
	Bodies       []BodyState  `json:"bodies"`
}

// Snapshot captures the current layout state.
func (e *Engine) Snapshot() *Snapshot {
	s := &Snapshot{
		Version:      SnapshotVersion,
		Viewport:     e.view,
		Config:       e.cfg,
		Alpha:        e.sim.Alpha(),
		AlphaTarget:  e.sim.AlphaTarget(),
		Ticks:        e.sim.Ticks(),
		PreGenerated: e.preTick,
		Nodes:        append([]graph.Node(nil), e.nodes...),
		Bodies:       make([]BodyState, len(e.nodes)),
	}
	for i, b := range e.sim.Bodies() {
		st := BodyState{
			ID:    e.nodes[i].ID,
			X:     b.Pos.X,
			Y:     b.Pos.Y,
			VX:    b.Vel.X,
			VY:    b.Vel.Y,
			Fixed: e.fixed[i],
		}
		if b.Pin != nil {
			st.Pin = &Point{X: b.Pin.X, Y: b.Pin.Y}
		}
		s.Bodies[i] = st
	}
	return s
}

// Restore rebuilds an engine from a snapshot without pre-generating.
func Restore(s *Snapshot) (*Engine, error) {
	if s.Version != SnapshotVersion {
		return nil, errors.New(errors.ErrCodeUnsupported, "snapshot version %d (want %d)", s.Version, SnapshotVersion)
	}
	if len(s.Bodies) != len(s.Nodes) {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "snapshot has %d bodies for %d nodes", len(s.Bodies), len(s.Nodes))
	}

	e, err := newEngine(&graph.Graph{Nodes: s.Nodes}, s.Viewport, s.Config, nil)
	if err != nil {
		return nil, err
	}
	bodies := e.sim.Bodies()
	for i, st := range s.Bodies {
		if st.ID != e.nodes[i].ID {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "snapshot body %d has id %d, node has id %d", i, st.ID, e.nodes[i].ID)
		}
		b := bodies[i]
		b.Pos = r2.Vec{X: st.X, Y: st.Y}
		b.Vel = r2.Vec{X: st.VX, Y: st.VY}
		b.Unpin()
		if st.Pin != nil {
			b.PinAt(r2.Vec{X: st.Pin.X, Y: st.Pin.Y})
		}
		e.fixed[i] = st.Fixed
	}
	e.sim.SetAlpha(s.Alpha)
	e.sim.SetTicks(s.Ticks)
	e.sim.Reheat(s.AlphaTarget)
	e.preTick = s.PreGenerated
	e.running = e.sim.Hot() || s.AlphaTarget >= e.sim.AlphaMin()
	return e, nil
}

// WriteSnapshot encodes s as indented JSON.
func WriteSnapshot(s *Snapshot, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot decodes a snapshot written by WriteSnapshot.
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode snapshot")
	}
	return &s, nil
}

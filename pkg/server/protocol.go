package server

import (
	"fmt"

	"github.com/matzehuels/forcegraph/pkg/layout"
)

// Message types on the wire.
const (
	typeFrame     = "frame"
	typeReload    = "reload"
	typeDragStart = "dragstart"
	typeDragMove  = "dragmove"
	typeDragEnd   = "dragend"
)

// clientMessage is a gesture sent by the page, in world coordinates.
type clientMessage struct {
	Type string  `json:"type"`
	ID   int     `json:"id"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

func (m clientMessage) message() (layout.Message, error) {
	switch m.Type {
	case typeDragStart:
		return layout.DragStart{ID: m.ID, X: m.X, Y: m.Y}, nil
	case typeDragMove:
		return layout.DragMove{ID: m.ID, X: m.X, Y: m.Y}, nil
	case typeDragEnd:
		return layout.DragEnd{ID: m.ID}, nil
	}
	return nil, fmt.Errorf("unknown message type %q", m.Type)
}

// frameMessage is one projected frame.
type frameMessage struct {
	Type    string      `json:"type"`
	Alpha   float64     `json:"alpha"`
	Running bool        `json:"running"`
	Nodes   []nodeFrame `json:"nodes"`
}

type nodeFrame struct {
	ID     int     `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Pinned bool    `json:"pinned,omitempty"`
}

type reloadMessage struct {
	Type string `json:"type"`
}

// fill copies a projected frame into m, reusing its node buffer.
func (m *frameMessage) fill(e *layout.Engine, frame []layout.Placement) {
	m.Type = typeFrame
	m.Alpha = e.Alpha()
	m.Running = e.Running()
	m.Nodes = m.Nodes[:0]
	for _, p := range frame {
		m.Nodes = append(m.Nodes, nodeFrame{ID: p.ID, X: p.X, Y: p.Y, Pinned: p.Pinned})
	}
}

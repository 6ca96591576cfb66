package graph

import (
	"fmt"

	"github.com/matzehuels/forcegraph/pkg/errors"
)

// DefaultCategory is used for nodes without a type.
const DefaultCategory = "default"

// Graph is the canonical serialization format for node sets.
type Graph struct {
	Nodes []Node `json:"nodes" toml:"nodes"`
}

// Node is a single input record. It is never mutated once read; layout state
// (position, velocity, pin) lives in the layout engine, keyed by ID.
type Node struct {
	ID     int      `json:"id" toml:"id"`
	Name   string   `json:"name" toml:"name"`
	Weight *float64 `json:"weight,omitempty" toml:"weight,omitempty"`
	Type   string   `json:"type,omitempty" toml:"type,omitempty"`
	Fixed  bool     `json:"fixed,omitempty" toml:"fixed,omitempty"`
}

// Category returns the node type, or DefaultCategory if unset.
func (n Node) Category() string {
	if n.Type == "" {
		return DefaultCategory
	}
	return n.Type
}

// HasWeight reports whether the node carries a weight.
func (n Node) HasWeight() bool { return n.Weight != nil }

// Weight returns a pointer to w, for building nodes in code.
func Weight(w float64) *float64 { return &w }

// Len returns the number of nodes.
func (g *Graph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.Nodes)
}

// Validate checks ids for uniqueness and every node for a usable name,
// category and weight. The first problem found is returned.
func (g *Graph) Validate() error {
	if g == nil {
		return nil
	}
	seen := make(map[int]struct{}, len(g.Nodes))
	for i, n := range g.Nodes {
		if _, dup := seen[n.ID]; dup {
			return errors.New(errors.ErrCodeDuplicateNode, "node %d (index %d): duplicate id", n.ID, i)
		}
		seen[n.ID] = struct{}{}

		if err := errors.ValidateNodeName(n.Name); err != nil {
			return fmt.Errorf("node %d: %w", n.ID, err)
		}
		if err := errors.ValidateCategory(n.Type); err != nil {
			return fmt.Errorf("node %d: %w", n.ID, err)
		}
		if n.Weight != nil {
			if err := errors.ValidateFinite("weight", *n.Weight); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidNode, err, "node %d", n.ID)
			}
		}
	}
	return nil
}

// Sample returns the built-in five node demo set.
func Sample() *Graph {
	return &Graph{Nodes: []Node{
		{ID: 0, Name: "Node 1", Weight: Weight(20)},
		{ID: 1, Name: "Node 2", Type: "unique", Weight: Weight(100)},
		{ID: 2, Name: "Node 3", Weight: Weight(50)},
		{ID: 3, Name: "Node 4", Weight: Weight(50)},
		{ID: 4, Name: "Node 5", Weight: Weight(80)},
	}}
}

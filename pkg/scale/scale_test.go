package scale

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/matzehuels/forcegraph/pkg/graph"
)

func weighted(ws ...float64) []graph.Node {
	nodes := make([]graph.Node, len(ws))
	for i, w := range ws {
		nodes[i] = graph.Node{ID: i, Name: "n", Weight: graph.Weight(w)}
	}
	return nodes
}

func TestRadius(t *testing.T) {
	tests := []struct {
		name   string
		nodes  []graph.Node
		d0, d1 float64
		probe  float64
		want   float64
	}{
		{"min weight", weighted(20, 100, 50), 20, 100, 20, 10},
		{"max weight", weighted(20, 100, 50), 20, 100, 100, 20},
		{"midway", weighted(20, 100, 50), 20, 100, 50, 13.75},
		{"extrapolates", weighted(20, 100), 20, 100, 180, 30},
		{"no weights", []graph.Node{{ID: 0, Name: "a"}}, 0, 1, 0.5, 15},
		{"zero max", weighted(0, 0), 0, 1, 1, 20},
		{"single node", weighted(42), 42, 42, 42, 15},
		{"negative", weighted(-10, 10), -10, 10, 0, 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRadius(tt.nodes, DefaultMinRadius, DefaultMaxRadius)
			if r.D0 != tt.d0 || r.D1 != tt.d1 {
				t.Errorf("domain = [%v, %v], want [%v, %v]", r.D0, r.D1, tt.d0, tt.d1)
			}
			if got := r.Map(tt.probe); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Map(%v) = %v, want %v", tt.probe, got, tt.want)
			}
		})
	}
}

func TestRadiusOfUnweighted(t *testing.T) {
	nodes := append(weighted(20, 100), graph.Node{ID: 9, Name: "bare"})
	r := NewRadius(nodes, 10, 20)
	if got := r.Of(nodes[2]); got != 10 {
		t.Errorf("Of(unweighted) = %v, want 10", got)
	}
	if got := r.Of(nodes[1]); got != 20 {
		t.Errorf("Of(max) = %v, want 20", got)
	}
}

func TestLinearProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	domain := gen.Float64Range(-1e4, 1e4)
	rng := gen.Float64Range(0, 100)

	properties.Property("endpoints map exactly", prop.ForAll(
		func(d0, d1, r0, r1 float64) bool {
			if d0 == d1 {
				return true
			}
			l := Linear{D0: d0, D1: d1, R0: r0, R1: r1}
			return l.Map(d0) == r0 && l.Map(d1) == r1
		},
		domain, domain, rng, rng,
	))

	properties.Property("midpoint maps to midpoint", prop.ForAll(
		func(d0, d1, r0, r1 float64) bool {
			if math.Abs(d1-d0) < 1e-3 {
				return true
			}
			l := Linear{D0: d0, D1: d1, R0: r0, R1: r1}
			return math.Abs(l.Map((d0+d1)/2)-(r0+r1)/2) < 1e-6
		},
		domain, domain, rng, rng,
	))

	properties.Property("monotone for increasing range", prop.ForAll(
		func(a, b float64) bool {
			l := Linear{D0: 0, D1: 100, R0: 10, R1: 20}
			if a > b {
				a, b = b, a
			}
			return l.Map(a) <= l.Map(b)
		},
		domain, domain,
	))

	properties.TestingRun(t)
}

package scene

import (
	"context"
	"slices"
	"testing"

	"github.com/matzehuels/forcegraph/pkg/graph"
	"github.com/matzehuels/forcegraph/pkg/interact"
	"github.com/matzehuels/forcegraph/pkg/layout"
)

func engine(t *testing.T) *layout.Engine {
	t.Helper()
	e, err := layout.Configure(context.Background(), graph.Sample(), layout.Viewport{Width: 800, Height: 600}, layout.DefaultConfig())
	if err != nil {
		t.Fatalf("Configure: %v", err)
	}
	return e
}

func TestBuild(t *testing.T) {
	e := engine(t)
	s := Build(e)

	if len(s.Groups) != 5 {
		t.Fatalf("len(Groups) = %d, want 5", len(s.Groups))
	}
	if s.Width != 800 || s.Height != 600 || s.Root != interact.Identity {
		t.Errorf("scene header = %v x %v root %v", s.Width, s.Height, s.Root)
	}

	tests := []struct {
		i          int
		r          float64
		class      string
		labelClass string
		text       string
	}{
		{0, 10, "node-default", "node-text-default", "Node 1"},
		{1, 20, "node-unique", "node-text-unique", "Node 2"},
		{2, 13.75, "node-default", "node-text-default", "Node 3"},
	}
	for _, tt := range tests {
		g := s.Groups[tt.i]
		if g.Class != GroupClass {
			t.Errorf("group %d class = %q, want %q", tt.i, g.Class, GroupClass)
		}
		if g.Circle.R != tt.r || g.Circle.Class != tt.class {
			t.Errorf("group %d circle = %+v, want r=%v class=%q", tt.i, g.Circle, tt.r, tt.class)
		}
		if g.Label.DX != tt.r+10 || g.Label.DY != ".35em" || g.Label.Text != tt.text || g.Label.Class != tt.labelClass {
			t.Errorf("group %d label = %+v", tt.i, g.Label)
		}
	}

	frame := e.Project()
	for i, g := range s.Groups {
		if g.X != frame[i].X || g.Y != frame[i].Y {
			t.Errorf("group %d at (%v, %v), want projected (%v, %v)", i, g.X, g.Y, frame[i].X, frame[i].Y)
		}
	}
}

func TestApplyIdempotent(t *testing.T) {
	e := engine(t)
	s := Build(e)
	frame := e.Update(layout.Tick{})

	if err := s.Apply(frame); err != nil {
		t.Fatal(err)
	}
	first := make([]string, len(s.Groups))
	for i := range s.Groups {
		first[i] = s.Groups[i].Transform()
	}
	if err := s.Apply(e.Project()); err != nil {
		t.Fatal(err)
	}
	for i := range s.Groups {
		if got := s.Groups[i].Transform(); got != first[i] {
			t.Errorf("group %d transform %q, want %q", i, got, first[i])
		}
	}
}

func TestApplyLengthMismatch(t *testing.T) {
	s := Build(engine(t))
	if err := s.Apply(nil); err == nil {
		t.Error("Apply(nil) = nil, want error")
	}
}

func TestGroupTransform(t *testing.T) {
	g := Group{X: 12.5, Y: -3}
	if got := g.Transform(); got != "translate(12.5,-3)" {
		t.Errorf("Transform() = %q", got)
	}
}

func TestCategoriesAndHit(t *testing.T) {
	s := Build(engine(t))
	if got := s.Categories(); !slices.Equal(got, []string{"default", "unique"}) {
		t.Errorf("Categories() = %v", got)
	}

	g := s.Groups[1]
	hit, ok := s.Hit(g.X+1, g.Y)
	if !ok || hit.ID != g.ID {
		t.Errorf("Hit() = %v, %v, want node %d", hit, ok, g.ID)
	}
	if _, ok := s.Hit(-1e6, -1e6); ok {
		t.Error("Hit(far away) found a node")
	}
	if found, ok := s.Find(4); !ok || found.Label.Text != "Node 5" {
		t.Errorf("Find(4) = %v, %v", found, ok)
	}
}

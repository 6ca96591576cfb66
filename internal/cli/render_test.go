package cli

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/matzehuels/forcegraph/pkg/errors"
	"github.com/matzehuels/forcegraph/pkg/graph"
	"github.com/matzehuels/forcegraph/pkg/layout"
)

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty defaults to svg", "", []string{"svg"}},
		{"single format", "html", []string{"html"}},
		{"multiple formats", "svg,dot,png", []string{"svg", "dot", "png"}},
		{"spaces trimmed", "svg, json", []string{"svg", "json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseFormats(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseFormats(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestOutputBase(t *testing.T) {
	tests := []struct {
		output, input, want string
	}{
		{"", "data/nodes.json", "data/nodes"},
		{"", "sample", "forcegraph"},
		{"out/diagram.svg", "nodes.json", "out/diagram"},
		{"out/diagram.png", "nodes.json", "out/diagram"},
		{"out/diagram", "nodes.json", "out/diagram"},
		{"out/diagram.v2", "nodes.json", "out/diagram.v2"},
	}

	for _, tt := range tests {
		t.Run(tt.output+"|"+tt.input, func(t *testing.T) {
			if got := outputBase(tt.output, tt.input); got != tt.want {
				t.Errorf("outputBase(%q, %q) = %q, want %q", tt.output, tt.input, got, tt.want)
			}
		})
	}
}

func TestLoadNodes(t *testing.T) {
	g, input, err := loadNodes(nil)
	if err != nil {
		t.Fatalf("loadNodes(nil): %v", err)
	}
	if input != "sample" || g.Len() != 5 {
		t.Errorf("loadNodes(nil) = %d nodes from %q, want 5 from sample", g.Len(), input)
	}

	path := filepath.Join(t.TempDir(), "nodes.toml")
	body := "[[nodes]]\nid = 7\nname = \"solo\"\nweight = 3.5\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	g, input, err = loadNodes([]string{path})
	if err != nil {
		t.Fatalf("loadNodes(%s): %v", path, err)
	}
	if input != path || g.Len() != 1 || g.Nodes[0].ID != 7 {
		t.Errorf("loadNodes(%s) = %+v from %q", path, g.Nodes, input)
	}

	if _, _, err := loadNodes([]string{filepath.Join(t.TempDir(), "missing.json")}); err == nil {
		t.Error("loadNodes(missing) succeeded, want error")
	}
}

func TestReadLayout(t *testing.T) {
	e, err := layout.Configure(context.Background(), graph.Sample(), layout.DefaultViewport, layout.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "sample.layout.json")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := layout.WriteSnapshot(e.Snapshot(), f); err != nil {
		t.Fatal(err)
	}
	f.Close()

	r, err := readLayout(path)
	if err != nil {
		t.Fatalf("readLayout: %v", err)
	}
	want, got := e.Project(), r.Project()
	for i := range want {
		if want[i] != got[i] {
			t.Errorf("placement %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestReadLayoutEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.layout.json")
	snap := &layout.Snapshot{Version: layout.SnapshotVersion, Viewport: layout.DefaultViewport, Config: layout.DefaultConfig()}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := layout.WriteSnapshot(snap, f); err != nil {
		t.Fatal(err)
	}
	f.Close()

	if _, err := readLayout(path); !stderrors.Is(err, layout.ErrNoNodes) {
		t.Errorf("readLayout(empty) error = %v, want ErrNoNodes", err)
	}
}

func TestWriteOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.svg")
	if err := writeOutput(path, []byte("<svg/>")); err != nil {
		t.Fatalf("writeOutput: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "<svg/>" {
		t.Errorf("file content = %q, %v", data, err)
	}

	if err := writeOutput("bad\\path.svg", nil); !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("writeOutput(backslash) error = %v, want INVALID_PATH", err)
	}
}

func TestStatsLine(t *testing.T) {
	tests := []struct {
		nodes, ticks int
		cached       bool
		want         string
	}{
		{5, 300, false, "5 nodes · 300 ticks · fresh"},
		{5, 0, true, "5 nodes · cached"},
		{0, 0, false, "fresh"},
	}
	for _, tt := range tests {
		if got := statsLine(tt.nodes, tt.ticks, tt.cached); got != tt.want {
			t.Errorf("statsLine(%d, %d, %v) = %q, want %q", tt.nodes, tt.ticks, tt.cached, got, tt.want)
		}
	}
}

func TestNeedsRasterizer(t *testing.T) {
	tests := []struct {
		formats []string
		want    bool
	}{
		{[]string{"svg", "html"}, false},
		{[]string{"svg", "png"}, true},
		{[]string{"pdf"}, true},
		{nil, false},
	}
	for _, tt := range tests {
		if got := needsRasterizer(tt.formats); got != tt.want {
			t.Errorf("needsRasterizer(%v) = %v, want %v", tt.formats, got, tt.want)
		}
	}
}

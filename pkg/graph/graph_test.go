package graph

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/forcegraph/pkg/errors"
)

func TestCategory(t *testing.T) {
	tests := []struct {
		node Node
		want string
	}{
		{Node{Type: ""}, DefaultCategory},
		{Node{Type: "unique"}, "unique"},
	}
	for _, tt := range tests {
		if got := tt.node.Category(); got != tt.want {
			t.Errorf("Category(%q) = %q, want %q", tt.node.Type, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		nodes    []Node
		wantCode errors.Code
	}{
		{"empty", nil, ""},
		{"sample", Sample().Nodes, ""},
		{"duplicate id", []Node{{ID: 1, Name: "a"}, {ID: 1, Name: "b"}}, errors.ErrCodeDuplicateNode},
		{"empty name", []Node{{ID: 1}}, errors.ErrCodeInvalidNode},
		{"bad type", []Node{{ID: 1, Name: "a", Type: "a b"}}, errors.ErrCodeInvalidNode},
		{"nan weight", []Node{{ID: 1, Name: "a", Weight: Weight(math.NaN())}}, errors.ErrCodeInvalidNode},
		{"no weight", []Node{{ID: 1, Name: "a"}}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &Graph{Nodes: tt.nodes}
			err := g.Validate()
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantCode) {
				t.Fatalf("Validate() = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestSample(t *testing.T) {
	g := Sample()
	if g.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", g.Len())
	}
	if g.Nodes[1].Category() != "unique" {
		t.Errorf("Nodes[1].Category() = %q, want unique", g.Nodes[1].Category())
	}
	// Sample must hand out a fresh copy each call.
	*g.Nodes[0].Weight = 999
	if *Sample().Nodes[0].Weight != 20 {
		t.Error("Sample() shares weight storage between calls")
	}
}

func TestReadJSON(t *testing.T) {
	in := `{"nodes": [{"id": 0, "name": "A", "weight": 20}, {"id": 1, "name": "B", "type": "unique"}]}`
	g, err := Read(strings.NewReader(in), FormatJSON)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if g.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", g.Len())
	}
	if !g.Nodes[0].HasWeight() || *g.Nodes[0].Weight != 20 {
		t.Errorf("Nodes[0].Weight = %v, want 20", g.Nodes[0].Weight)
	}
	if g.Nodes[1].HasWeight() {
		t.Errorf("Nodes[1].Weight = %v, want nil", *g.Nodes[1].Weight)
	}
}

func TestReadTOML(t *testing.T) {
	in := `
[[nodes]]
id = 0
name = "A"
weight = 20.0

[[nodes]]
id = 1
name = "B"
type = "unique"
fixed = true
`
	g, err := Read(strings.NewReader(in), FormatTOML)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if g.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", g.Len())
	}
	if !g.Nodes[1].Fixed {
		t.Error("Nodes[1].Fixed = false, want true")
	}
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		format   Format
		wantCode errors.Code
	}{
		{"malformed json", `{"nodes": [`, FormatJSON, errors.ErrCodeInvalidFormat},
		{"malformed toml", `[[nodes]`, FormatTOML, errors.ErrCodeInvalidFormat},
		{"unknown format", `{}`, Format("yaml"), errors.ErrCodeInvalidFormat},
		{"duplicate", `{"nodes": [{"id": 1, "name": "a"}, {"id": 1, "name": "b"}]}`, FormatJSON, errors.ErrCodeDuplicateNode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input), tt.format)
			if !errors.Is(err, tt.wantCode) {
				t.Fatalf("Read() = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestWriteRead(t *testing.T) {
	for _, f := range []Format{FormatJSON, FormatTOML} {
		t.Run(string(f), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Write(Sample(), &buf, f); err != nil {
				t.Fatalf("Write: %v", err)
			}
			g, err := Read(&buf, f)
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			want := Sample()
			for i := range want.Nodes {
				if g.Nodes[i].Name != want.Nodes[i].Name || *g.Nodes[i].Weight != *want.Nodes[i].Weight {
					t.Errorf("node %d = %+v, want %+v", i, g.Nodes[i], want.Nodes[i])
				}
			}
		})
	}
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()

	if _, err := FormatFromPath("nodes.yaml"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("FormatFromPath(yaml) = %v, want INVALID_FORMAT", err)
	}

	path := filepath.Join(dir, "nodes.toml")
	if err := WriteFile(Sample(), path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stat: %v", err)
	}
	g, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if g.Len() != 5 {
		t.Errorf("Len() = %d, want 5", g.Len())
	}

	_, err = ReadFile(filepath.Join(dir, "missing.json"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("ReadFile(missing) = %v, want FILE_NOT_FOUND", err)
	}
}

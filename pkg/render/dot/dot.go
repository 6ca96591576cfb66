// Package dot exports a scene as Graphviz DOT with every node pinned at its
// layout position, and renders it through Graphviz's neato engine.
//
// DOT positions are in points with y growing upward, so the exporter flips
// y against the scene height. Radii become node widths in inches.
package dot

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/forcegraph/pkg/scene"
)

const pointsPerInch = 72

// ToDOT converts a scene to DOT.
func ToDOT(s *scene.Scene) string {
	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  notranslate=true;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	fmt.Fprintf(&buf, "  bb=\"0,0,%s,%s\";\n", num(s.Width), num(s.Height))
	buf.WriteString("  node [shape=circle, style=filled, fixedsize=true, label=\"\", fillcolor=black, fontname=Arial, fontsize=14];\n")
	buf.WriteString("\n")

	for i := range s.Groups {
		g := &s.Groups[i]
		width := 2 * g.Circle.R / pointsPerInch
		fmt.Fprintf(&buf, "  \"%d\" [pos=\"%s,%s!\", width=%s, xlabel=%s, class=%s];\n",
			g.ID, num(g.X), num(s.Height-g.Y), num(width), quote(g.Label.Text), quote(g.Circle.Class))
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders DOT to SVG with neato, keeping pinned positions.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's svg header with one whose size
// matches its viewBox, so the output scales like the native renderer's.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}

var quoter = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// quote returns a DOT double-quoted string. Unlike Go's %q it leaves
// non-ASCII text alone.
func quote(s string) string { return `"` + quoter.Replace(s) + `"` }

func num(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

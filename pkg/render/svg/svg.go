// Package svg renders a scene as a standalone SVG document.
//
// The markup mirrors the scene one to one: a root group carrying the zoom
// transform, then one "node" group per node with a circle and a label.
// Interactive output adds a small script for wheel zoom, background pan and
// node drag.
package svg

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/matzehuels/forcegraph/pkg/scene"
)

// Stylesheet is the fixed class stylesheet for nodes, labels and links.
const Stylesheet = `
    svg.forcegraph { cursor: move; }
    .node .node-default { fill: black; }
    .node .node-text-default { fill: black; font-family: Arial; font-size: 14px; }
    .link-default { stroke: grey; }
    .node { cursor: grab; }
    .node.dragging { cursor: grabbing; }`

// interactionJS implements zoom, pan and drag. In a static document a drag
// only moves the dragged group. In a live document (data-live set) drags are
// reported as "forcegraph-drag" events in world coordinates and the page
// moves nodes from engine frames instead.
const interactionJS = `
(function () {
  var svg = document.currentScript ? document.currentScript.closest('svg') : null;
  svg = svg || document.querySelector('svg.forcegraph');
  var root = svg.querySelector('g.root');
  var live = svg.dataset.live === '1';
  var minK = parseFloat(svg.dataset.minZoom), maxK = parseFloat(svg.dataset.maxZoom);
  var t = {k: 1, x: 0, y: 0};
  var parse = function (g) {
    var m = /translate\(([-\d.e]+),([-\d.e]+)\)/.exec(g.getAttribute('transform'));
    return {x: parseFloat(m[1]), y: parseFloat(m[2])};
  };
  var apply = function () {
    root.setAttribute('transform', 'translate(' + t.x + ',' + t.y + ') scale(' + t.k + ')');
  };
  var point = function (e) {
    var r = svg.getBoundingClientRect();
    return {x: e.clientX - r.left, y: e.clientY - r.top};
  };
  var world = function (p) {
    return {x: (p.x - t.x) / t.k, y: (p.y - t.y) / t.k};
  };
  var emit = function (type, g, p) {
    var w = world(p);
    svg.dispatchEvent(new CustomEvent('forcegraph-drag', {detail: {type: type, id: +g.dataset.id, x: w.x, y: w.y}}));
  };
  svg.addEventListener('wheel', function (e) {
    e.preventDefault();
    var p = point(e), w = world(p);
    var k = Math.max(minK, Math.min(maxK, t.k * Math.pow(2, -e.deltaY * 0.002)));
    t = {k: k, x: p.x - w.x * k, y: p.y - w.y * k};
    apply();
  }, {passive: false});
  var drag = null;
  svg.addEventListener('pointerdown', function (e) {
    var g = e.target.closest('g.node');
    var p = point(e);
    if (g) {
      drag = {node: g, start: parse(g), p: p};
      g.classList.add('dragging');
      if (live) emit('dragstart', g, p);
    } else {
      drag = {pan: true, start: {x: t.x, y: t.y}, p: p};
    }
    svg.setPointerCapture(e.pointerId);
  });
  svg.addEventListener('pointermove', function (e) {
    if (!drag) return;
    var p = point(e);
    if (drag.pan) {
      t.x = drag.start.x + p.x - drag.p.x;
      t.y = drag.start.y + p.y - drag.p.y;
      apply();
      return;
    }
    if (live) {
      emit('dragmove', drag.node, p);
      return;
    }
    var x = drag.start.x + (p.x - drag.p.x) / t.k, y = drag.start.y + (p.y - drag.p.y) / t.k;
    drag.node.setAttribute('transform', 'translate(' + x + ',' + y + ')');
  });
  var end = function (e) {
    if (drag && drag.node) {
      drag.node.classList.remove('dragging');
      if (live) emit('dragend', drag.node, point(e));
    }
    drag = null;
  };
  svg.addEventListener('pointerup', end);
  svg.addEventListener('pointercancel', end);
})();`

// Option configures rendering.
type Option func(*renderer)

type renderer struct {
	interactive      bool
	live             bool
	minZoom, maxZoom float64
	standalone       bool
}

// WithInteraction embeds the pan, zoom and drag script. Zoom is limited to
// [minZoom, maxZoom].
func WithInteraction(minZoom, maxZoom float64) Option {
	return func(r *renderer) {
		r.interactive = true
		r.minZoom, r.maxZoom = minZoom, maxZoom
	}
}

// Live marks the document as driven by a live engine: drags are reported
// as events instead of moving nodes locally. It implies WithInteraction.
func Live(minZoom, maxZoom float64) Option {
	return func(r *renderer) {
		WithInteraction(minZoom, maxZoom)(r)
		r.live = true
	}
}

// Inline omits the xmlns attribute, for embedding into an HTML page.
func Inline() Option { return func(r *renderer) { r.standalone = false } }

// Render writes s as an SVG document.
func Render(s *scene.Scene, opts ...Option) []byte {
	r := renderer{standalone: true}
	for _, opt := range opts {
		opt(&r)
	}

	var buf bytes.Buffer
	buf.WriteString(`<svg`)
	if r.standalone {
		buf.WriteString(` xmlns="http://www.w3.org/2000/svg"`)
	}
	fmt.Fprintf(&buf, ` class="forcegraph draggable" width="%s" height="%s" viewBox="0 0 %s %s"`,
		num(s.Width), num(s.Height), num(s.Width), num(s.Height))
	if r.interactive {
		fmt.Fprintf(&buf, ` data-min-zoom="%s" data-max-zoom="%s"`, num(r.minZoom), num(r.maxZoom))
	}
	if r.live {
		buf.WriteString(` data-live="1"`)
	}
	buf.WriteString(">\n")

	fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", Stylesheet)

	fmt.Fprintf(&buf, `  <g class="root" transform="%s">`+"\n", s.Root.String())
	var tr []byte
	for i := range s.Groups {
		g := &s.Groups[i]
		tr = g.AppendTransform(tr[:0])
		fmt.Fprintf(&buf, `    <g class="%s" id="node-%d" data-id="%d" transform="%s">`+"\n", g.Class, g.ID, g.ID, tr)
		fmt.Fprintf(&buf, `      <circle r="%s" class="%s"/>`+"\n", num(g.Circle.R), g.Circle.Class)
		fmt.Fprintf(&buf, `      <text dx="%s" dy="%s" class="%s">%s</text>`+"\n",
			num(g.Label.DX), g.Label.DY, g.Label.Class, escape(g.Label.Text))
		buf.WriteString("    </g>\n")
	}
	buf.WriteString("  </g>\n")

	if r.interactive {
		fmt.Fprintf(&buf, "  <script type=\"text/javascript\"><![CDATA[%s\n  ]]></script>\n", interactionJS)
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

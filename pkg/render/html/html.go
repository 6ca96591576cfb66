// Package html wraps a rendered scene in a standalone HTML page.
//
// A static page embeds the interactive SVG. A live page additionally opens
// a WebSocket to the serving process, applies every engine frame it
// receives and sends drag gestures back as messages.
package html

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/matzehuels/forcegraph/pkg/render/svg"
	"github.com/matzehuels/forcegraph/pkg/scene"
)

// Options configures the page.
type Options struct {
	Title   string
	MinZoom float64
	MaxZoom float64

	// LivePath is the WebSocket path of a live session, e.g. "/ws". Empty
	// renders a static page.
	LivePath string
}

var pageTmpl = template.Must(template.New("page").Parse(pageTemplate))

// Render returns the HTML page for s.
func Render(s *scene.Scene, opts Options) ([]byte, error) {
	if opts.Title == "" {
		opts.Title = "forcegraph"
	}
	svgOpt := svg.WithInteraction(opts.MinZoom, opts.MaxZoom)
	if opts.LivePath != "" {
		svgOpt = svg.Live(opts.MinZoom, opts.MaxZoom)
	}

	data := struct {
		Title    string
		SVG      template.HTML
		LivePath string
	}{
		Title:    opts.Title,
		SVG:      template.HTML(svg.Render(s, svg.Inline(), svgOpt)),
		LivePath: opts.LivePath,
	}

	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return buf.Bytes(), nil
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Title}}</title>
  <style>
    html, body { margin: 0; height: 100%; }
    .ng-svg-container { position: relative; height: 100%; width: 100%; }
    #status { position: absolute; right: 8px; bottom: 8px; font: 12px Arial; color: grey; }
  </style>
</head>
<body>
  <div class="ng-svg-container">
    {{.SVG}}
    {{if .LivePath}}<div id="status">connecting</div>{{end}}
  </div>
{{if .LivePath}}
  <script>
  (function () {
    var svg = document.querySelector('svg.forcegraph');
    var status = document.getElementById('status');
    var proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
    var ws = new WebSocket(proto + location.host + {{.LivePath}});
    var nodes = {};
    svg.querySelectorAll('g.node').forEach(function (g) { nodes[g.dataset.id] = g; });
    ws.onopen = function () { status.textContent = 'live'; };
    ws.onclose = function () { status.textContent = 'disconnected'; };
    ws.onmessage = function (ev) {
      var msg = JSON.parse(ev.data);
      if (msg.type === 'reload') { location.reload(); return; }
      if (msg.type !== 'frame') return;
      msg.nodes.forEach(function (n) {
        var g = nodes[n.id];
        if (g) g.setAttribute('transform', 'translate(' + n.x + ',' + n.y + ')');
      });
      status.textContent = msg.running ? 'alpha ' + msg.alpha.toFixed(3) : 'settled';
    };
    svg.addEventListener('forcegraph-drag', function (e) {
      if (ws.readyState === WebSocket.OPEN) ws.send(JSON.stringify(e.detail));
    });
  })();
  </script>
{{end}}
</body>
</html>
`

// Package render turns a scene into output files.
//
// # Overview
//
//   - [svg]: standalone SVG, optionally with pan, zoom and drag
//   - [html]: an HTML page around the SVG, optionally live over WebSocket
//   - [dot]: Graphviz DOT with pinned positions, rendered through neato
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg).
//
//	out := svg.Render(sc)
//	pdf, err := render.ToPDF(ctx, out)
//	png, err := render.ToPNG(ctx, out, 2.0)  // 2x scale
package render
